// Package stubapi is a local stand-in for the Slotify REST API. It serves the
// routes the client uses from a seeded catalog and a memory or Redis backed
// slot store, so the CLI and tests can run without the real backend.
package stubapi

import (
	"context"
	"errors"

	"github.com/wolfman30/slotify/internal/slotify"
)

var (
	// ErrNotFound is returned for unknown slots.
	ErrNotFound = errors.New("stubapi: not found")

	// ErrSlotTaken is returned when booking an already booked slot.
	ErrSlotTaken = errors.New("stubapi: time slot already booked")
)

// Store holds the mutable state: time slots, their bookings and customers.
type Store interface {
	// ListSlots returns a service's slots ordered by start time.
	ListSlots(ctx context.Context, serviceID string) ([]slotify.TimeSlot, error)
	GetSlot(ctx context.Context, id string) (*slotify.TimeSlot, error)
	// PutSlot creates or replaces a slot. The booked flag is ignored.
	PutSlot(ctx context.Context, slot slotify.TimeSlot) error
	DeleteSlot(ctx context.Context, id string) error
	// BookSlot marks a slot booked by customerID exactly once.
	BookSlot(ctx context.Context, slotID, customerID string) error
	// ReleaseSlot undoes a booking, but only one held by customerID.
	ReleaseSlot(ctx context.Context, slotID, customerID string) error
	AddCustomer(ctx context.Context, businessID string, customer slotify.Customer) error
	ListCustomers(ctx context.Context, businessID string) ([]slotify.Customer, error)
}
