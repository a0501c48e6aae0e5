package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind names the pipeline stage that produced a failure.
type Kind string

// Failure kinds reported by the provider.
const (
	KindNone        Kind = ""
	KindComposition Kind = "composition"
	KindTransport   Kind = "transport"
	KindProtocol    Kind = "protocol"
	KindParse       Kind = "parse"
)

// CompositionError reports a query that could not be built: bad input,
// an unresolved placeholder, or invalid dialect settings. Nothing is sent
// over the wire when it occurs.
type CompositionError struct {
	Op     string
	Reason string
	Err    error
}

func (e *CompositionError) Error() string {
	msg := "composition failed"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CompositionError) Unwrap() error { return e.Err }

func (e *CompositionError) class() ErrorClass { return ErrorInvalid }

// NewComposition builds a CompositionError.
func NewComposition(op string, err error, format string, args ...any) error {
	return &CompositionError{Op: op, Reason: fmt.Sprintf(format, args...), Err: err}
}

// TransportError reports that the endpoint could not be reached or the
// exchange was interrupted, including context cancellation.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) class() ErrorClass { return ErrorTransient }

// ProtocolError reports a non-success HTTP status from the endpoint.
type ProtocolError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ProtocolError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("endpoint returned %s", e.statusText())
	}
	return fmt.Sprintf("endpoint returned %s: %s", e.statusText(), e.Body)
}

func (e *ProtocolError) statusText() string {
	if e.Status != "" {
		return e.Status
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *ProtocolError) class() ErrorClass {
	if e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500 {
		return ErrorTransient
	}
	return ErrorInvalid
}

// ParseError reports a response body that is not valid for its format.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s response: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) class() ErrorClass { return ErrorInvalid }

// Is lets errors.Is(err, ErrParsingFailed) match any ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParsingFailed }

// IsComposition reports whether err is a CompositionError.
func IsComposition(err error) bool {
	var ce *CompositionError
	return errors.As(err, &ce)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsProtocol reports whether err is a ProtocolError.
func IsProtocol(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsParse reports whether err is a ParseError.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// KindOf returns the pipeline stage of err, or KindNone.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case IsComposition(err):
		return KindComposition
	case IsProtocol(err):
		return KindProtocol
	case IsParse(err):
		return KindParse
	case IsTransport(err):
		return KindTransport
	default:
		return KindNone
	}
}

// As re-exports errors.As so callers importing this package need not alias the stdlib one.
func As(err error, target any) bool { return errors.As(err, target) }

// Is re-exports errors.Is.
func Is(err, target error) bool { return errors.Is(err, target) }

// New re-exports errors.New.
func New(text string) error { return errors.New(text) }
