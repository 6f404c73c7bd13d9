// Package booking implements the customer booking form: draft editing,
// local validation, submission and the confirmation that follows.
package booking

import (
	"context"

	"github.com/wolfman30/slotify/internal/slotify"
)

// Submitter sends a booking to the Slotify API. *slotify.SlotifyClient
// satisfies it.
type Submitter interface {
	CreateBooking(ctx context.Context, req slotify.CustomerBookingRequest) (*slotify.BookingConfirmation, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, req slotify.CustomerBookingRequest) (*slotify.BookingConfirmation, error)

func (f SubmitterFunc) CreateBooking(ctx context.Context, req slotify.CustomerBookingRequest) (*slotify.BookingConfirmation, error) {
	return f(ctx, req)
}

// State is the lifecycle position of a Form.
type State int

const (
	// StateEditing accepts field updates and submission. A failed
	// submission returns here with LastError set.
	StateEditing State = iota
	// StateSubmitting has a request in flight; everything else is refused.
	StateSubmitting
	// StateSucceeded holds the confirmation until dismissed.
	StateSucceeded
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	default:
		return "closed"
	}
}
