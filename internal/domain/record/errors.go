package record

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the record or path doesn't exist.
	ErrNotFound = errors.New("record not found")
	// ErrParse indicates a malformed header block or a missing/invalid required field.
	ErrParse = errors.New("record parse error")
	// ErrAlreadyInState indicates the transition target equals the current status.
	ErrAlreadyInState = errors.New("record already in requested status")
	// ErrLockContention indicates a record lock could not be acquired in time.
	ErrLockContention = errors.New("record locked by another process")
	// ErrCounterUnavailable indicates the id counter lock could not be acquired in time.
	ErrCounterUnavailable = errors.New("id counter unavailable")
	// ErrRead indicates a record file or directory exists but could not be read.
	ErrRead = errors.New("record read failed")
	// ErrWrite indicates a filesystem write or move failed.
	ErrWrite = errors.New("record write failed")
	// ErrInvalidInput indicates invalid input for record operations.
	ErrInvalidInput = errors.New("invalid record input")

	ErrInvalidStatus   = fmt.Errorf("%w: unknown status", ErrInvalidInput)
	ErrInvalidPriority = fmt.Errorf("%w: unknown priority", ErrInvalidInput)
)

// Error carries the context a caller needs to render an actionable message.
// Kind is one of the sentinel errors above and is matched by errors.Is.
type Error struct {
	Kind error
	Op   string
	ID   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.ID != "" {
		fmt.Fprintf(&b, " (id %s)", e.ID)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (path %s)", e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds an Error of the given kind.
func NewError(kind error, op, id, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, ID: id, Path: path, Err: err}
}

// KindOf returns the sentinel kind of err, or nil if it has none. The kind of
// the outermost *Error wins over kinds wrapped below it.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, kind := range []error{
		ErrNotFound, ErrParse, ErrAlreadyInState, ErrLockContention,
		ErrCounterUnavailable, ErrRead, ErrWrite, ErrInvalidInput,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
