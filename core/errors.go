package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports missing or malformed input. It is never retried;
// it is surfaced to the caller immediately.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

// TransientError reports a store/network failure that changed no state and
// is safe to retry for idempotent operations. It always carries the failed
// operation and its target so a caller can retry precisely.
type TransientError struct {
	Op     string
	Target string
	Err    error
}

func NewTransientError(op, target string, err error) error {
	return &TransientError{Op: op, Target: target, Err: err}
}

func (err TransientError) Error() string {
	return fmt.Sprintf("%s(%s): %v", err.Op, err.Target, err.Err)
}

func (err TransientError) Unwrap() error { return err.Err }

func IsTransientError(err error) bool {
	_, ok := errors.Cause(err).(*TransientError)
	return ok
}

// PartialCascadeError reports that one or more blob deletions failed during
// a course removal. The course record is withheld; retrying the same call
// once the remaining objects are removable is safe.
type PartialCascadeError struct {
	CourseID  string
	Remaining []string
}

func (err PartialCascadeError) Error() string {
	return fmt.Sprintf(
		"course %s not deleted: %d material object(s) still require cleanup: %s",
		err.CourseID, len(err.Remaining), strings.Join(err.Remaining, ", "),
	)
}

func IsPartialCascadeError(err error) bool {
	_, ok := errors.Cause(err).(*PartialCascadeError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
