package workflow

import (
	"github.com/wolfman30/slotify/internal/booking"
	"github.com/wolfman30/slotify/internal/slotify"
)

// ViewKind tags which panel is showing. Exactly one is active at a time.
type ViewKind int

const (
	ViewNone ViewKind = iota
	ViewListingSlots
	ViewBooking
	ViewConfirmed
)

func (k ViewKind) String() string {
	switch k {
	case ViewListingSlots:
		return "listing_slots"
	case ViewBooking:
		return "booking"
	case ViewConfirmed:
		return "confirmed"
	default:
		return "none"
	}
}

// View is the current panel. Which fields are set depends on Kind:
//
//	ViewNone          nothing
//	ViewListingSlots  Service, Slots
//	ViewBooking       Service, Slot (optional), Form
//	ViewConfirmed     Service, Slot (optional), Confirmation, Summary
type View struct {
	Kind         ViewKind
	Service      slotify.Service
	Slots        []slotify.TimeSlot
	Slot         *slotify.TimeSlot
	Form         *booking.Form
	Confirmation *slotify.BookingConfirmation
	Summary      booking.Summary
}

func (v View) clone() View {
	out := v
	if v.Slots != nil {
		out.Slots = append([]slotify.TimeSlot(nil), v.Slots...)
	}
	if v.Slot != nil {
		s := *v.Slot
		out.Slot = &s
	}
	if v.Confirmation != nil {
		c := *v.Confirmation
		out.Confirmation = &c
	}
	return out
}
