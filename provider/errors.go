package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrNoContent reports a stream that completed without producing a
// single text fragment. It is classified as transient: a fallback model
// may still be able to answer.
var ErrNoContent = errors.New("no content produced")

// ErrFallbackLoop reports a fallback chain that revisited a model key.
// Raised before any network call is made.
var ErrFallbackLoop = errors.New("fallback loop detected")

// APIError is a non-2xx response from an upstream provider.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 512 {
		body = body[:512]
	}
	return fmt.Sprintf("%s upstream returned %d: %s", e.Provider, e.Status, body)
}

// ValidationError is a fatal input problem detected before streaming
// starts, such as an oversized inline image. Never fallback-eligible.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Reason
}

// Transient reports whether a failure is eligible for a fallback model:
// no content produced, an unsupported request parameter, a 4xx-style
// upstream rejection, or a timeout. Everything else, including
// validation and configuration errors, propagates unmodified.
func Transient(err error) bool {
	if err == nil {
		return false
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return false
	}

	if errors.Is(err, ErrNoContent) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 400 && apiErr.Status < 500
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unsupported parameter") ||
		strings.Contains(msg, "unsupported_parameter") ||
		strings.Contains(msg, "unprocessable")
}

// safeCategories are the substrings of upstream error text that may be
// shown to an end user verbatim. Anything else is replaced by a generic
// message downstream; see SanitizeError.
var safeCategories = []string{
	"quota",
	"limit",
	"unauthorized",
	"forbidden",
	"credential",
}

// SanitizeError returns user-displayable error text: the original
// message when it matches a safe category, a generic substitute
// otherwise.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, cat := range safeCategories {
		if strings.Contains(lower, cat) {
			return msg
		}
	}
	return "the request could not be completed, please try again"
}
