package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/wolfman30/slotify/internal/slotify"
)

var (
	// ErrValidation matches FieldErrors returned by Submit.
	ErrValidation = errors.New("booking: draft failed validation")

	// ErrSubmitInProgress is returned while a submission is in flight.
	ErrSubmitInProgress = errors.New("booking: submission already in progress")

	// ErrNotEditing is returned when the draft cannot be changed or submitted.
	ErrNotEditing = errors.New("booking: form is not editable")

	// ErrNotSucceeded is returned when dismissing a form that did not book.
	ErrNotSucceeded = errors.New("booking: no successful booking to dismiss")

	// ErrClosed is returned by operations on a closed form.
	ErrClosed = errors.New("booking: form is closed")

	// ErrDetached is returned when the owning view went away mid-submission.
	ErrDetached = errors.New("booking: form detached from its view")

	// ErrUnknownField is returned by UpdateField for unsupported fields.
	ErrUnknownField = errors.New("booking: unknown field")
)

// FieldErrors maps a field name to its validation message. Empty means valid.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "booking: invalid " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrValidation) match.
func (e FieldErrors) Is(target error) bool { return target == ErrValidation }

// SubmitError is a failed submission as shown next to the form.
type SubmitError struct {
	Kind    slotify.ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *SubmitError) Error() string { return e.Message }
func (e *SubmitError) Unwrap() error { return e.Err }

const noResponseMessage = "No response received from server. Please check your network connection."

func newSubmitError(err error) *SubmitError {
	kind := slotify.Classify(err)
	se := &SubmitError{Kind: kind, Err: err}

	switch kind {
	case slotify.KindRejected:
		var apiErr *slotify.APIError
		errors.As(err, &apiErr)
		se.Status = apiErr.Status
		se.Message = fmt.Sprintf("API Error (%d): %s", apiErr.Status, apiErr.Detail())
	case slotify.KindNoResponse:
		se.Message = noResponseMessage
	default:
		msg := err.Error()
		var reqErr *slotify.RequestError
		if errors.As(err, &reqErr) {
			msg = reqErr.Err.Error()
		}
		se.Message = "Error: " + msg
	}
	return se
}
