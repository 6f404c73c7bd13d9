// Package slotify contains the Slotify REST API client, its wire types and
// the error taxonomy the booking workflow reports to users.
package slotify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Service is a bookable offering of a business.
type Service struct {
	ID          string  `json:"id"`
	BusinessID  string  `json:"businessId,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Duration    int     `json:"duration"` // minutes
	Price       float64 `json:"price"`
}

// TimeSlot is a concrete bookable interval for a service.
type TimeSlot struct {
	ID        string    `json:"id"`
	ServiceID string    `json:"serviceId"`
	StartTime Timestamp `json:"startTime"`
	EndTime   Timestamp `json:"endTime"`
	IsBooked  bool      `json:"isBooked"`
}

// Available reports whether the slot can still be picked.
func (s TimeSlot) Available() bool { return !s.IsBooked }

// Business is the public business profile with its services.
type Business struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Address     string    `json:"address,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	OwnerName   string    `json:"ownerName,omitempty"`
	CreatedAt   Timestamp `json:"createdAt,omitempty"`
	Services    []Service `json:"services,omitempty"`
}

// CustomerBookingRequest is the body of POST /api/Customer.
type CustomerBookingRequest struct {
	ServiceID  string  `json:"serviceId"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	TimeSlotID *string `json:"timeSlotId,omitempty"`
}

// BookingConfirmation is what the API returns for a created booking. Owners
// see the same shape when listing a business's customers.
type BookingConfirmation struct {
	ID         string    `json:"id"`
	ServiceID  string    `json:"serviceId,omitempty"`
	TimeSlotID string    `json:"timeSlotId,omitempty"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	CreatedAt  Timestamp `json:"createdAt,omitempty"`
}

// Customer is a booking as listed on the owner dashboard.
type Customer = BookingConfirmation

// CreateTimeSlotRequest is the body of POST /api/TimeSlot.
type CreateTimeSlotRequest struct {
	ServiceID string    `json:"serviceId"`
	StartTime Timestamp `json:"startTime"`
	EndTime   Timestamp `json:"endTime"`
}

// Timestamp is an ISO-8601 instant. The API emits UTC values with or without
// an explicit zone; zone-less values are read as UTC.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t as a UTC timestamp.
func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t.UTC()} }

const wireLayout = "2006-01-02T15:04:05.000Z07:00"

var zonelessLayouts = []string{
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(wireLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t.Time = parsed.UTC()
		return nil
	}
	for _, layout := range zonelessLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", raw)
}
