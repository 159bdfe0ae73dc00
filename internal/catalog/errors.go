package catalog

import (
	"errors"
	"fmt"
)

// ErrorKind tags an Error so callers can branch on it.
type ErrorKind string

const (
	KindFetch             ErrorKind = "FETCH_ERROR"
	KindParse             ErrorKind = "PARSE_ERROR"
	KindNoMatchingSite    ErrorKind = "NO_MATCHING_SITE"
	KindUnsupportedIDType ErrorKind = "UNSUPPORTED_ID_TYPE"
)

// Error is a categorized failure from a fetch, scrape or lookup.
type Error struct {
	Kind    ErrorKind // Error category
	Site    SiteName  // Source involved, empty when not applicable
	URL     string    // URL being fetched or resolved
	Query   string    // Search query, for search contexts
	Message string    // Human-readable message
	Cause   error     // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Site != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Kind, e.Site, e.Message)
	}
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Retryable reports whether the failure may succeed on another attempt.
// Only transport failures are; parse failures mean the source changed.
func (e *Error) Retryable() bool {
	return e.Kind == KindFetch
}

// Sentinels for errors.Is comparisons.
var (
	ErrFetch             = &Error{Kind: KindFetch, Message: "fetch failed"}
	ErrParse             = &Error{Kind: KindParse, Message: "parse failed"}
	ErrNoMatchingSite    = &Error{Kind: KindNoMatchingSite, Message: "no matching site"}
	ErrUnsupportedIDType = &Error{Kind: KindUnsupportedIDType, Message: "unsupported id type"}
)

// NewFetchError creates a transport-level error.
func NewFetchError(site SiteName, url string, cause error) *Error {
	return &Error{
		Kind:    KindFetch,
		Site:    site,
		URL:     url,
		Message: "fetch failed",
		Cause:   cause,
	}
}

// NewParseError creates an error for a fetched payload missing an expected element.
func NewParseError(site SiteName, url, element string) *Error {
	return &Error{
		Kind:    KindParse,
		Site:    site,
		URL:     url,
		Message: "missing or malformed " + element,
	}
}

// WrapParseError creates a parse error around a decoding failure.
func WrapParseError(site SiteName, url, element string, cause error) *Error {
	e := NewParseError(site, url, element)
	e.Cause = cause
	return e
}

// NewNoMatchingSite creates an error for a URL no adapter claims.
func NewNoMatchingSite(url string) *Error {
	return &Error{
		Kind:    KindNoMatchingSite,
		URL:     url,
		Message: "no site adapter matches url",
	}
}

// NewUnsupportedIDType creates an error for an id lookup with an unregistered type.
func NewUnsupportedIDType(t IDType) *Error {
	return &Error{
		Kind:    KindUnsupportedIDType,
		Message: fmt.Sprintf("no site adapter registered for id type %q", t),
	}
}

// KindOf extracts the error kind, or "" for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable returns whether the error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}
	return false
}
