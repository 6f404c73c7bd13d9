package slotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// The public business routes are spelled this way on the server.
const (
	publicBusinessesPath = "/api/Business/annymous"
	publicBusinessPath   = "/api/Business/Annoymous/%s"
	ownerBusinessesPath  = "/api/Business/owner/%s"
)

// ListPublicBusinesses returns every listed business. Public.
func (c *SlotifyClient) ListPublicBusinesses(ctx context.Context) ([]Business, error) {
	var businesses []Business
	if err := c.doJSON(ctx, "list_businesses", http.MethodGet, publicBusinessesPath, nil, nil, &businesses); err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	return businesses, nil
}

// GetPublicBusiness returns one business with its services. Public.
func (c *SlotifyClient) GetPublicBusiness(ctx context.Context, businessID string) (*Business, error) {
	path := fmt.Sprintf(publicBusinessPath, url.PathEscape(businessID))

	var business Business
	if err := c.doJSON(ctx, "get_business", http.MethodGet, path, nil, nil, &business); err != nil {
		return nil, fmt.Errorf("get business: %w", err)
	}
	return &business, nil
}

// ListOwnerBusinesses returns the businesses owned by the session's user.
func (c *SlotifyClient) ListOwnerBusinesses(ctx context.Context, session *Session) ([]Business, error) {
	if err := requireSession(session); err != nil {
		return nil, fmt.Errorf("list owner businesses: %w", err)
	}
	if session.UserID == "" {
		return nil, fmt.Errorf("list owner businesses: %w", &RequestError{Err: fmt.Errorf("session token carries no user id")})
	}
	path := fmt.Sprintf(ownerBusinessesPath, url.PathEscape(session.UserID))

	var businesses []Business
	if err := c.doJSON(ctx, "list_owner_businesses", http.MethodGet, path, session, nil, &businesses); err != nil {
		return nil, fmt.Errorf("list owner businesses: %w", err)
	}
	return businesses, nil
}
