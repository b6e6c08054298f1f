package errors

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// Code is a sentinel used to classify errors; it matches via errors.Is even
// when the error is wrapped.
type Code string

func (c Code) Error() string { return string(c) }

// Error pairs a Code with an underlying cause carrying stack/message.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	c, ok := target.(Code)
	return ok && e.Code == c
}

func New(code Code, message string) error {
	return &Error{Code: code, Err: errors.New(message)}
}

func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Err: errors.Errorf(format, args...)}
}

// Wrap attaches a code and message to err. Returns nil for nil err.
func Wrap(code Code, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: errors.Wrap(err, message)}
}

func Wrapf(code Code, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: errors.Wrapf(err, format, args...)}
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As[T error](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}
