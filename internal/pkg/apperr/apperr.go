// Package apperr defines the error taxonomy shared by every module. Handlers
// translate these errors into HTTP responses through the response package.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindPermission
	KindNotFound
	KindConflict
	KindState
	KindGateway
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindAuth:
		return "AuthError"
	case KindPermission:
		return "PermissionError"
	case KindNotFound:
		return "NotFoundError"
	case KindConflict:
		return "ConflictError"
	case KindState:
		return "StateError"
	case KindGateway:
		return "GatewayError"
	default:
		return "InternalError"
	}
}

// Error is a classified application error.
//
// State carries the current status of the entity for StateError so that the
// client can react. Retryable is only meaningful for GatewayError.
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	Fields    map[string]string
	State     string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind and code so that copies produced by the With* helpers
// still compare equal to the sentinel they were derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Code == "" {
		return false
	}
	return t.Kind == e.Kind && t.Code == e.Code
}

func (e *Error) clone() *Error {
	cp := *e
	return &cp
}

func (e *Error) WithFields(fields map[string]string) *Error {
	cp := e.clone()
	cp.Fields = fields
	return cp
}

func (e *Error) WithState(state string) *Error {
	cp := e.clone()
	cp.State = state
	return cp
}

func (e *Error) WithMessage(msg string) *Error {
	cp := e.clone()
	cp.Message = msg
	return cp
}

func (e *Error) Wrap(cause error) *Error {
	cp := e.clone()
	cp.Err = cause
	return cp
}

// HTTPStatus maps the error kind onto a response code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindState:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindGateway:
		if e.Retryable {
			return http.StatusBadGateway
		}
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func Validation(code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg}
}

func Auth(code, msg string) *Error {
	return &Error{Kind: KindAuth, Code: code, Message: msg}
}

func Permission(code, msg string) *Error {
	return &Error{Kind: KindPermission, Code: code, Message: msg}
}

func NotFound(code, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: msg}
}

func Conflict(code, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

func State(code, msg, current string) *Error {
	return &Error{Kind: KindState, Code: code, Message: msg, State: current}
}

func Gateway(msg string, retryable bool, cause error) *Error {
	return &Error{Kind: KindGateway, Code: "GATEWAY_ERROR", Message: msg, Retryable: retryable, Err: cause}
}

func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: "Internal server error", Err: cause}
}

// From returns err as an *Error, classifying anything unknown as internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
