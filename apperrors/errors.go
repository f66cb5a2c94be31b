// Package apperrors classifies the errors the credentialing core returns so
// the HTTP layer can keep "your input was invalid" apart from "a dependency
// failed" when translating them.
package apperrors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindOrderViolation
	KindUnverifiedPrerequisite
	KindStorage
	KindLookup
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the classification from err, KindUnknown if it carries none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func Validation(format string, args ...interface{}) error {
	return Newf(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return Newf(KindNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) error {
	return Newf(KindConflict, format, args...)
}

func OrderViolation(format string, args ...interface{}) error {
	return Newf(KindOrderViolation, format, args...)
}

func UnverifiedPrerequisite(format string, args ...interface{}) error {
	return Newf(KindUnverifiedPrerequisite, format, args...)
}

func Storage(message string, err error) error {
	return Wrap(KindStorage, message, err)
}

func Lookup(message string, err error) error {
	return Wrap(KindLookup, message, err)
}
