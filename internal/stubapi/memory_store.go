package stubapi

import (
	"context"
	"sort"
	"sync"

	"github.com/wolfman30/slotify/internal/slotify"
)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	slots     map[string]slotify.TimeSlot
	bookings  map[string]string
	customers map[string][]slotify.Customer
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots:     make(map[string]slotify.TimeSlot),
		bookings:  make(map[string]string),
		customers: make(map[string][]slotify.Customer),
	}
}

func (s *MemoryStore) ListSlots(_ context.Context, serviceID string) ([]slotify.TimeSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []slotify.TimeSlot{}
	for id, slot := range s.slots {
		if slot.ServiceID != serviceID {
			continue
		}
		_, slot.IsBooked = s.bookings[id]
		out = append(out, slot)
	}
	sortSlots(out)
	return out, nil
}

func (s *MemoryStore) GetSlot(_ context.Context, id string) (*slotify.TimeSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[id]
	if !ok {
		return nil, ErrNotFound
	}
	_, slot.IsBooked = s.bookings[id]
	return &slot, nil
}

func (s *MemoryStore) PutSlot(_ context.Context, slot slotify.TimeSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot.IsBooked = false
	s.slots[slot.ID] = slot
	return nil
}

func (s *MemoryStore) DeleteSlot(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[id]; !ok {
		return ErrNotFound
	}
	delete(s.slots, id)
	delete(s.bookings, id)
	return nil
}

func (s *MemoryStore) BookSlot(_ context.Context, slotID, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[slotID]; !ok {
		return ErrNotFound
	}
	if _, taken := s.bookings[slotID]; taken {
		return ErrSlotTaken
	}
	s.bookings[slotID] = customerID
	return nil
}

func (s *MemoryStore) ReleaseSlot(_ context.Context, slotID, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bookings[slotID] == customerID {
		delete(s.bookings, slotID)
	}
	return nil
}

func (s *MemoryStore) AddCustomer(_ context.Context, businessID string, customer slotify.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[businessID] = append(s.customers[businessID], customer)
	return nil
}

func (s *MemoryStore) ListCustomers(_ context.Context, businessID string) ([]slotify.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]slotify.Customer{}, s.customers[businessID]...), nil
}

func sortSlots(slots []slotify.TimeSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if !slots[i].StartTime.Equal(slots[j].StartTime.Time) {
			return slots[i].StartTime.Before(slots[j].StartTime.Time)
		}
		return slots[i].ID < slots[j].ID
	})
}
