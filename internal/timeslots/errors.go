package timeslots

import "errors"

var (
	// ErrServiceIDRequired is returned when no service is selected.
	ErrServiceIDRequired = errors.New("timeslots: service id is required")

	// ErrSlotIDRequired is returned when deleting without a slot id.
	ErrSlotIDRequired = errors.New("timeslots: time slot id is required")

	// ErrSessionRequired is returned for owner operations without a session.
	ErrSessionRequired = errors.New("timeslots: owner session is required")

	// ErrSessionExpired is returned when the session token's exp has passed.
	ErrSessionExpired = errors.New("timeslots: owner session has expired")

	// ErrEndBeforeStart is returned when a new slot does not end after it starts.
	ErrEndBeforeStart = errors.New("End time must be after start time")

	// ErrInvalidClock is returned for malformed HH:MM inputs.
	ErrInvalidClock = errors.New("timeslots: time must be HH:MM")
)

// ListError is the generic failure reported when a listing cannot be fetched.
type ListError struct {
	Err error
}

func (e *ListError) Error() string { return "timeslots: list: " + e.Err.Error() }
func (e *ListError) Unwrap() error { return e.Err }

// Message is the user-facing text for a failed listing.
func (e *ListError) Message() string { return "Failed to fetch time slots. Please try again." }
