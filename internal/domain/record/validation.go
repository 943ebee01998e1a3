package record

import (
	"fmt"
	"strings"
)

// ValidateCreateInput validates fields required to create a record.
func ValidateCreateInput(req CreateRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if req.Priority != "" && !req.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

// ValidateTransition validates a requested status transition. Every status is
// reachable from every other, so only the target is checked.
func ValidateTransition(req TransitionRequest) error {
	if strings.TrimSpace(req.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if !req.To.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// Validate checks the fields a stored record must carry.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrParse)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: invalid status %q", ErrParse, r.Status)
	}
	if r.Priority != "" && !r.Priority.Valid() {
		return fmt.Errorf("%w: invalid priority %q", ErrParse, r.Priority)
	}
	return nil
}
