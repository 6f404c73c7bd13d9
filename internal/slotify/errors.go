package slotify

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrSessionRequired is returned when an owner-only call has no session.
	ErrSessionRequired = errors.New("slotify: session required")

	// ErrEmptyToken is returned when building a session from a blank token.
	ErrEmptyToken = errors.New("slotify: empty bearer token")
)

// ErrorKind distinguishes the failure classes shown to users.
type ErrorKind int

const (
	// KindRequest covers failures before a request left the client, and any
	// error that does not fit the other classes.
	KindRequest ErrorKind = iota
	// KindRejected means the server answered with a non-2xx status.
	KindRejected
	// KindNoResponse means the request was sent but no response arrived.
	KindNoResponse
	// KindBadResponse means a 2xx arrived but its body could not be read.
	// The server acted on the request, so it must not be resent.
	KindBadResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindNoResponse:
		return "no_response"
	case KindBadResponse:
		return "bad_response"
	default:
		return "request"
	}
}

// APIError is a non-2xx response from the Slotify API.
type APIError struct {
	Status int
	Path   string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slotify API returned %d: %s", e.Status, e.Body)
}

// Detail is the server-provided body, or the status text when it is empty.
func (e *APIError) Detail() string {
	if strings.TrimSpace(e.Body) == "" {
		return "(no details)"
	}
	return e.Body
}

// NoResponseError means the transport gave up before a response arrived.
type NoResponseError struct {
	Err error
}

func (e *NoResponseError) Error() string { return "slotify: no response: " + e.Err.Error() }
func (e *NoResponseError) Unwrap() error { return e.Err }

// RequestError is a failure building or preparing a request.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return "slotify: request: " + e.Err.Error() }
func (e *RequestError) Unwrap() error { return e.Err }

// ResponseError is a 2xx response whose body could not be decoded.
type ResponseError struct {
	Status int
	Err    error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("slotify: unreadable %d response: %s", e.Status, e.Err)
}
func (e *ResponseError) Unwrap() error { return e.Err }

// Classify maps any error returned by the client onto an ErrorKind.
func Classify(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return KindRejected
	}
	var noResp *NoResponseError
	if errors.As(err, &noResp) {
		return KindNoResponse
	}
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return KindBadResponse
	}
	return KindRequest
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
