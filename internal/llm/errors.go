package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind categorises an LLM failure.
type Kind string

const (
	KindRateLimited     Kind = "rate_limited"
	KindAuthentication  Kind = "authentication"
	KindMalformedOutput Kind = "malformed_output"
	KindTimeout         Kind = "timeout"
	KindUpstream        Kind = "upstream"
)

// Error is a categorised LLM failure.
type Error struct {
	Kind     Kind
	Provider Provider
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Provider != "" {
		msg = fmt.Sprintf("%s: %s", e.Provider, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("llm %s: %v", msg, e.Cause)
	}
	return "llm " + msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// MalformedOutput builds the error returned when a response cannot be used.
func MalformedOutput(provider Provider, format string, args ...any) *Error {
	return &Error{Kind: KindMalformedOutput, Provider: provider, Message: fmt.Sprintf(format, args...)}
}

// classify wraps a provider error in an *Error. Errors that are already
// categorised pass through unchanged.
func classify(provider Provider, err error) error {
	if err == nil {
		return nil
	}

	var existing *Error
	if errors.As(err, &existing) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Provider: provider, Message: "request timed out", Cause: err}
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &Error{Kind: kindForHTTPStatus(apiErr.StatusCode), Provider: provider, Message: "request failed", Cause: err}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return &Error{Kind: kindForHTTPStatus(gErr.Code), Provider: provider, Message: "request failed", Cause: err}
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return &Error{Kind: kindForGRPCCode(st.Code()), Provider: provider, Message: "request failed", Cause: err}
	}

	return &Error{Kind: KindUpstream, Provider: provider, Message: "request failed", Cause: err}
}

func kindForHTTPStatus(code int) Kind {
	switch code {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuthentication
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindUpstream
	}
}

func kindForGRPCCode(code codes.Code) Kind {
	switch code {
	case codes.ResourceExhausted:
		return KindRateLimited
	case codes.Unauthenticated, codes.PermissionDenied:
		return KindAuthentication
	case codes.DeadlineExceeded:
		return KindTimeout
	default:
		return KindUpstream
	}
}
