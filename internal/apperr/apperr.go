// Package apperr carries the error kinds the services return and maps them
// to HTTP status codes once, at the transport boundary.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindInvalidCredentials
	KindMissingToken
	KindInvalidToken
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindMissingToken:
		return "missing_token"
	case KindInvalidToken:
		return "invalid_token"
	case KindStorage:
		return "storage"
	default:
		return "internal"
	}
}

// Status returns the response code for the kind. NotFound answers 400 to
// keep the existing client contract.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindNotFound, KindInvalidCredentials:
		return http.StatusBadRequest
	case KindMissingToken:
		return http.StatusUnauthorized
	case KindInvalidToken:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Storage wraps an underlying store failure and surfaces its message.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Message: err.Error(), Err: err}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func StatusOf(err error) int {
	return KindOf(err).Status()
}

func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
