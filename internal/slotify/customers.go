package slotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

const customerPath = "/api/Customer"

// CreateBooking posts a customer booking. It is unauthenticated. When the
// primary base URL produced no response and a distinct fallback base URL is
// configured, the same request is sent once to the fallback. A 2xx whose body
// cannot be decoded still means the booking exists; an empty confirmation is
// returned for it.
func (c *SlotifyClient) CreateBooking(ctx context.Context, req CustomerBookingRequest) (*BookingConfirmation, error) {
	var confirmation BookingConfirmation
	err := c.doJSON(ctx, "create_booking", http.MethodPost, customerPath, nil, req, &confirmation)

	var noResp *NoResponseError
	if err != nil && errors.As(err, &noResp) && c.fallbackURL != "" && c.fallbackURL != c.baseURL && ctx.Err() == nil {
		c.logger.Warn("booking request got no response, trying fallback", "base_url", c.baseURL, "fallback_url", c.fallbackURL, "error", err)
		confirmation = BookingConfirmation{}
		err = c.doJSONAt(ctx, c.fallbackURL, "create_booking", http.MethodPost, customerPath, nil, req, &confirmation)
	}
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return &BookingConfirmation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return &confirmation, nil
}

// ListBusinessCustomers returns the bookings made with a business. Owner only.
func (c *SlotifyClient) ListBusinessCustomers(ctx context.Context, session *Session, businessID string) ([]Customer, error) {
	if err := requireSession(session); err != nil {
		return nil, fmt.Errorf("list business customers: %w", err)
	}
	path := fmt.Sprintf("%s/business/%s", customerPath, url.PathEscape(businessID))

	var customers []Customer
	if err := c.doJSON(ctx, "list_business_customers", http.MethodGet, path, session, nil, &customers); err != nil {
		return nil, fmt.Errorf("list business customers: %w", err)
	}
	return customers, nil
}
