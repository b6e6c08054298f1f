package rpc

import "github.com/soundbus/audio-relay/internal/errors"

const (
	ErrCodeParse errors.Code = "parse error"
	ErrClosed    errors.Code = "closed"
)

func ErrInvalidParams(message string) *Error {
	return &Error{Code: CodeInvalidParams, Message: message}
}

func ErrInvalidRequest(message string) *Error {
	return &Error{Code: CodeInvalidRequest, Message: message}
}

func ErrMethodNotFound(method string) *Error {
	return &Error{Code: CodeMethodNotFound, Message: "method not found: " + method}
}

func ErrInternal(message string) *Error {
	return &Error{Code: CodeInternalError, Message: message}
}
