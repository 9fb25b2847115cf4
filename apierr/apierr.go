// Package apierr defines the closed set of error kinds surfaced by the
// gateway. Handlers fail with a tagged Error so transports can branch on the
// kind instead of parsing message text; anything untagged is treated as an
// upstream Google failure and passed through with its message.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a failure class.
type Kind string

const (
	KindMissingCredential   Kind = "missing_credential"
	KindMalformedCredential Kind = "malformed_credential"
	KindMalformedRange      Kind = "malformed_range"
	KindSheetNotFound       Kind = "sheet_not_found"
	KindUnknownTool         Kind = "unknown_tool"
	KindPayloadTooLarge     Kind = "payload_too_large"
	KindUpstream            Kind = "upstream"
)

// Error is a tagged failure.
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

func (e *Error) Unwrap() error { return e.Err }

// New creates a tagged error with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags an underlying error without losing its message.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func MissingCredential(message string) *Error {
	return New(KindMissingCredential, "%s", message)
}

func MalformedCredential(message string) *Error {
	return New(KindMalformedCredential, "%s", message)
}

func MalformedRange(message string) *Error {
	return New(KindMalformedRange, "%s", message)
}

func SheetNotFound(title string) *Error {
	return New(KindSheetNotFound, "sheet not found: %s", title)
}

func UnknownTool(name string) *Error {
	return New(KindUnknownTool, "unknown tool: %s", name)
}

func PayloadTooLarge(size, limit int) *Error {
	return New(KindPayloadTooLarge, "payload of %d bytes exceeds %d byte limit", size, limit)
}

// KindOf classifies any error. Untagged errors are upstream failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// HTTPStatus maps an error kind to the response status used by the HTTP
// transport.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindMissingCredential, KindMalformedCredential:
		return http.StatusUnauthorized
	case KindMalformedRange:
		return http.StatusBadRequest
	case KindSheetNotFound, KindUnknownTool:
		return http.StatusNotFound
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadGateway
	}
}
