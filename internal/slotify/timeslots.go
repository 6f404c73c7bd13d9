package slotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListAvailableTimeSlots returns the bookable slots of a service. Public.
func (c *SlotifyClient) ListAvailableTimeSlots(ctx context.Context, serviceID string) ([]TimeSlot, error) {
	path := fmt.Sprintf("/api/TimeSlot/available/%s", url.PathEscape(serviceID))

	var slots []TimeSlot
	if err := c.doJSON(ctx, "list_available_slots", http.MethodGet, path, nil, nil, &slots); err != nil {
		return nil, fmt.Errorf("list available time slots: %w", err)
	}
	return slots, nil
}

// ListServiceTimeSlots returns every slot of a service, booked ones included.
// Owner only.
func (c *SlotifyClient) ListServiceTimeSlots(ctx context.Context, session *Session, serviceID string) ([]TimeSlot, error) {
	if err := requireSession(session); err != nil {
		return nil, fmt.Errorf("list service time slots: %w", err)
	}
	path := fmt.Sprintf("/api/TimeSlot/service/%s", url.PathEscape(serviceID))

	var slots []TimeSlot
	if err := c.doJSON(ctx, "list_service_slots", http.MethodGet, path, session, nil, &slots); err != nil {
		return nil, fmt.Errorf("list service time slots: %w", err)
	}
	return slots, nil
}

// CreateTimeSlot adds a slot to a service. Owner only.
func (c *SlotifyClient) CreateTimeSlot(ctx context.Context, session *Session, req CreateTimeSlotRequest) (*TimeSlot, error) {
	if err := requireSession(session); err != nil {
		return nil, fmt.Errorf("create time slot: %w", err)
	}
	var slot TimeSlot
	if err := c.doJSON(ctx, "create_time_slot", http.MethodPost, "/api/TimeSlot", session, req, &slot); err != nil {
		return nil, fmt.Errorf("create time slot: %w", err)
	}
	return &slot, nil
}

// DeleteTimeSlot removes a slot. Owner only.
func (c *SlotifyClient) DeleteTimeSlot(ctx context.Context, session *Session, slotID string) error {
	if err := requireSession(session); err != nil {
		return fmt.Errorf("delete time slot: %w", err)
	}
	path := fmt.Sprintf("/api/TimeSlot/%s", url.PathEscape(slotID))
	if err := c.doJSON(ctx, "delete_time_slot", http.MethodDelete, path, session, nil, nil); err != nil {
		return fmt.Errorf("delete time slot: %w", err)
	}
	return nil
}
