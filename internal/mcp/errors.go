package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/repository"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain errors to MCP error codes. Errors without a domain
// kind map to INTERNAL.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	msg := err.Error()
	details := errorDetails(err)
	kind := record.KindOf(err)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		kind = record.ErrNotFound
	case errors.Is(err, repository.ErrInvalidInput):
		kind = record.ErrInvalidInput
	}
	switch kind {
	case record.ErrNotFound:
		return &APIError{Code: "NOT_FOUND", Message: msg, Details: details, RecoveryHint: "Check the id, or run discover_work_efforts"}
	case record.ErrParse:
		return &APIError{Code: "PARSE_ERROR", Message: msg, Details: details, RecoveryHint: "Fix the header block of the file"}
	case record.ErrAlreadyInState:
		return &APIError{Code: "ALREADY_IN_STATE", Message: msg, Details: details}
	case record.ErrLockContention:
		return &APIError{Code: "LOCK_CONTENTION", Message: msg, Details: details, RecoveryHint: "Retry shortly"}
	case record.ErrCounterUnavailable:
		return &APIError{Code: "COUNTER_UNAVAILABLE", Message: msg, Details: details, RecoveryHint: "Retry shortly"}
	case record.ErrRead:
		return &APIError{Code: "READ_ERROR", Message: msg, Details: details, RecoveryHint: "Check the file's permissions"}
	case record.ErrWrite:
		return &APIError{Code: "WRITE_ERROR", Message: msg, Details: details}
	case record.ErrInvalidInput:
		return &APIError{Code: "INVALID_INPUT", Message: msg, Details: details}
	default:
		return &APIError{Code: "INTERNAL", Message: msg}
	}
}

func errorDetails(err error) any {
	var recErr *record.Error
	if !errors.As(err, &recErr) {
		return nil
	}
	details := map[string]string{}
	if recErr.ID != "" {
		details["id"] = recErr.ID
	}
	if recErr.Path != "" {
		details["path"] = recErr.Path
	}
	if len(details) == 0 {
		return nil
	}
	return details
}
