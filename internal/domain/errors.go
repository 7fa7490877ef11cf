package domain

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// UnknownEntityTypeError is returned for names outside EntityTypes.
type UnknownEntityTypeError struct {
	Name string
}

func (e UnknownEntityTypeError) Error() string {
	return fmt.Sprintf("unknown entity type %q", e.Name)
}

func (e UnknownEntityTypeError) Is(target error) bool {
	_, ok := target.(UnknownEntityTypeError)
	return ok
}

// ErrUnknownEntityType matches any UnknownEntityTypeError.
var ErrUnknownEntityType = UnknownEntityTypeError{}

// ErrRecordType is returned when a record is handed to the wrong entity type.
var ErrRecordType = errors.New("record does not match entity type")

// ConflictError reports an application-level uniqueness rule violation.
type ConflictError struct {
	Reason string
}

func (e ConflictError) Error() string {
	return e.Reason
}

func (e ConflictError) Is(target error) bool {
	_, ok := target.(ConflictError)
	return ok
}

// ErrConflict matches any ConflictError.
var ErrConflict = ConflictError{}
