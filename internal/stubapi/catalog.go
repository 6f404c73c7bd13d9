package stubapi

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/slotify/internal/slotify"
)

// OwnedBusiness is a business together with the user id that owns it.
type OwnedBusiness struct {
	OwnerID string
	slotify.Business
}

// Catalog is the read-only set of businesses and services.
type Catalog struct {
	businesses []OwnedBusiness
	services   map[string]serviceEntry
}

type serviceEntry struct {
	service slotify.Service
	ownerID string
}

// NewCatalog indexes businesses and their services.
func NewCatalog(businesses []OwnedBusiness) *Catalog {
	c := &Catalog{services: make(map[string]serviceEntry)}
	for _, b := range businesses {
		for i := range b.Services {
			b.Services[i].BusinessID = b.ID
			c.services[b.Services[i].ID] = serviceEntry{service: b.Services[i], ownerID: b.OwnerID}
		}
		c.businesses = append(c.businesses, b)
	}
	return c
}

// Businesses returns every business.
func (c *Catalog) Businesses() []slotify.Business {
	out := make([]slotify.Business, 0, len(c.businesses))
	for _, b := range c.businesses {
		out = append(out, b.Business)
	}
	return out
}

// Business looks up one business by id.
func (c *Catalog) Business(id string) (OwnedBusiness, bool) {
	for _, b := range c.businesses {
		if b.ID == id {
			return b, true
		}
	}
	return OwnedBusiness{}, false
}

// OwnedBy returns the businesses owned by ownerID.
func (c *Catalog) OwnedBy(ownerID string) []slotify.Business {
	out := []slotify.Business{}
	for _, b := range c.businesses {
		if b.OwnerID == ownerID {
			out = append(out, b.Business)
		}
	}
	return out
}

// Service looks up a service and the owner of its business.
func (c *Catalog) Service(id string) (slotify.Service, string, bool) {
	e, ok := c.services[id]
	return e.service, e.ownerID, ok
}

// Services returns every service id in the catalog.
func (c *Catalog) Services() []slotify.Service {
	var out []slotify.Service
	for _, b := range c.businesses {
		out = append(out, b.Services...)
	}
	return out
}

// Demo ids are fixed so a stub restart keeps tokens and CLI examples valid.
const (
	DemoOwnerID    = "7d0c5b8e-8f55-4c53-9d0a-3f8f3a1b9e21"
	DemoOwnerEmail = "owner@slotify.dev"
)

// DemoCatalog is the seed data the dev stub starts with.
func DemoCatalog() *Catalog {
	created := slotify.NewTimestamp(time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC))
	return NewCatalog([]OwnedBusiness{
		{
			OwnerID: DemoOwnerID,
			Business: slotify.Business{
				ID:          "3f2b7a4c-1d6e-4b8f-9a0c-5e7d2f1a6b30",
				Name:        "Sharp Cuts Barbershop",
				Description: "Classic cuts and hot towel shaves.",
				Address:     "12 Main St",
				Phone:       "555-0100",
				OwnerName:   "Sam Sharp",
				CreatedAt:   created,
				Services: []slotify.Service{
					{ID: "a1c9e2f4-3b5d-4e6f-8a7b-9c0d1e2f3a41", Name: "Haircut", Description: "Wash, cut and style", Duration: 30, Price: 25},
					{ID: "b2d0f3a5-4c6e-4f70-9b8c-0d1e2f3a4b52", Name: "Beard Trim", Duration: 15, Price: 12},
				},
			},
		},
		{
			OwnerID: "c4e2a6b8-0d1f-4a3c-8e5b-7f9a1c3e5d63",
			Business: slotify.Business{
				ID:          "5a4d9c6e-3f80-4d1b-ac2e-7a9f4c3b8d74",
				Name:        "Calm Waters Spa",
				Description: "Massage and facials.",
				Address:     "400 Lake Rd",
				Phone:       "555-0199",
				OwnerName:   "Dana Reyes",
				CreatedAt:   created,
				Services: []slotify.Service{
					{ID: "c3e1a4b6-5d7f-4081-ac9d-1e2f3a4b5c85", Name: "Swedish Massage", Duration: 60, Price: 80},
				},
			},
		},
	})
}

// SeedSlotID derives a stable slot id so re-seeding a persistent store
// overwrites instead of duplicating.
func SeedSlotID(serviceID string, start time.Time) string {
	name := fmt.Sprintf("%s|%d", serviceID, start.UTC().Unix())
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// Seed creates hourly slots from 9:00 to 17:00 UTC on the next days days
// for every catalog service.
func Seed(ctx context.Context, store Store, catalog *Catalog, now time.Time, days int) (int, error) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	created := 0
	for _, svc := range catalog.Services() {
		length := time.Duration(svc.Duration) * time.Minute
		if length <= 0 {
			length = 30 * time.Minute
		}
		for d := 1; d <= days; d++ {
			day := start.AddDate(0, 0, d)
			for hour := 9; hour < 17; hour++ {
				begin := day.Add(time.Duration(hour) * time.Hour)
				slot := slotify.TimeSlot{
					ID:        SeedSlotID(svc.ID, begin),
					ServiceID: svc.ID,
					StartTime: slotify.NewTimestamp(begin),
					EndTime:   slotify.NewTimestamp(begin.Add(length)),
				}
				if err := store.PutSlot(ctx, slot); err != nil {
					return created, fmt.Errorf("stubapi: seed: %w", err)
				}
				created++
			}
		}
	}
	return created, nil
}
