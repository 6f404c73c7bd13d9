package workflow

import "errors"

var (
	// ErrTornDown is returned by every operation after Teardown.
	ErrTornDown = errors.New("workflow: controller torn down")

	// ErrInvalidTransition is returned when the action does not apply to the current view.
	ErrInvalidTransition = errors.New("workflow: action not allowed in current view")

	// ErrUnknownSlot is returned when the picked slot is not in the listing.
	ErrUnknownSlot = errors.New("workflow: time slot not in listing")

	// ErrSlotBooked is returned when the picked slot is already booked.
	ErrSlotBooked = errors.New("workflow: time slot already booked")

	// ErrSuperseded is returned when a slot fetch finished after the view moved on.
	ErrSuperseded = errors.New("workflow: view changed before slots arrived")
)
