// Package apperror defines the error kinds produced by the service layer and
// their mapping to HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidArgument
	KindDatabaseOperation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindDatabaseOperation:
		return "database_operation"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports a missing entity, e.g. NotFound("comment", id).
func NotFound(entity string, id any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s ID: %v not found", entity, id)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden never carries details about the real owner.
func Forbidden() *Error {
	return &Error{Kind: KindForbidden, Message: "access denied"}
}

func InvalidArgument(msg string, values ...string) *Error {
	if len(values) > 0 {
		msg = msg + ": " + strings.Join(values, ", ")
	}
	return &Error{Kind: KindInvalidArgument, Message: msg}
}

func Database(op string, err error) *Error {
	return &Error{Kind: KindDatabaseOperation, Message: "failed to " + op, Err: err}
}

// Wrap returns err unchanged when it already carries a kind, otherwise it
// wraps it as a DatabaseOperation failure.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return Database(op, err)
}

func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to return to a client.
func PublicMessage(err error) string {
	var ae *Error
	if !errors.As(err, &ae) {
		return "Internal server error"
	}
	switch ae.Kind {
	case KindNotFound, KindInvalidArgument:
		return ae.Message
	case KindForbidden:
		return "Access denied"
	default:
		return "Internal server error"
	}
}
