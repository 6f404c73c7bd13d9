package stubapi

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/slotify/internal/slotify"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client)
}

func storeImplementations(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"redis":  func(t *testing.T) Store { return newRedisStore(t) },
	}
}

func slotAt(id, serviceID string, start time.Time) slotify.TimeSlot {
	return slotify.TimeSlot{
		ID:        id,
		ServiceID: serviceID,
		StartTime: slotify.NewTimestamp(start),
		EndTime:   slotify.NewTimestamp(start.Add(30 * time.Minute)),
	}
}

func TestStore_Slots(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for name, newStore := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()

			empty, err := store.ListSlots(ctx, "svc-1")
			require.NoError(t, err)
			assert.NotNil(t, empty)
			assert.Empty(t, empty)

			require.NoError(t, store.PutSlot(ctx, slotAt("late", "svc-1", base.Add(2*time.Hour))))
			require.NoError(t, store.PutSlot(ctx, slotAt("early", "svc-1", base)))
			require.NoError(t, store.PutSlot(ctx, slotAt("other", "svc-2", base)))

			slots, err := store.ListSlots(ctx, "svc-1")
			require.NoError(t, err)
			require.Len(t, slots, 2)
			assert.Equal(t, "early", slots[0].ID)
			assert.Equal(t, "late", slots[1].ID)
			assert.True(t, slots[0].StartTime.Equal(base))

			got, err := store.GetSlot(ctx, "late")
			require.NoError(t, err)
			assert.Equal(t, "svc-1", got.ServiceID)
			assert.False(t, got.IsBooked)

			_, err = store.GetSlot(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.DeleteSlot(ctx, "late"))
			assert.ErrorIs(t, store.DeleteSlot(ctx, "late"), ErrNotFound)
			slots, err = store.ListSlots(ctx, "svc-1")
			require.NoError(t, err)
			assert.Len(t, slots, 1)
		})
	}
}

func TestStore_BookSlotOnce(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for name, newStore := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()
			require.NoError(t, store.PutSlot(ctx, slotAt("ts-1", "svc-1", base)))

			assert.ErrorIs(t, store.BookSlot(ctx, "missing", "c-0"), ErrNotFound)

			var wins atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := store.BookSlot(ctx, "ts-1", "c"); err == nil {
						wins.Add(1)
					} else {
						assert.ErrorIs(t, err, ErrSlotTaken)
					}
				}()
			}
			wg.Wait()
			assert.EqualValues(t, 1, wins.Load())

			got, err := store.GetSlot(ctx, "ts-1")
			require.NoError(t, err)
			assert.True(t, got.IsBooked)

			require.NoError(t, store.ReleaseSlot(ctx, "ts-1", "someone-else"))
			got, err = store.GetSlot(ctx, "ts-1")
			require.NoError(t, err)
			assert.True(t, got.IsBooked, "only the holder can release")

			// re-seeding keeps the booking
			require.NoError(t, store.PutSlot(ctx, slotAt("ts-1", "svc-1", base)))
			slots, err := store.ListSlots(ctx, "svc-1")
			require.NoError(t, err)
			require.Len(t, slots, 1)
			assert.True(t, slots[0].IsBooked)
		})
	}
}

func TestStore_Customers(t *testing.T) {
	for name, newStore := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()

			list, err := store.ListCustomers(ctx, "biz-1")
			require.NoError(t, err)
			assert.Empty(t, list)

			require.NoError(t, store.AddCustomer(ctx, "biz-1", slotify.Customer{ID: "c-1", Name: "Jane"}))
			require.NoError(t, store.AddCustomer(ctx, "biz-1", slotify.Customer{ID: "c-2", Name: "John"}))
			require.NoError(t, store.AddCustomer(ctx, "biz-2", slotify.Customer{ID: "c-3", Name: "Ann"}))

			list, err = store.ListCustomers(ctx, "biz-1")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "c-1", list[0].ID)
			assert.Equal(t, "c-2", list[1].ID)
		})
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	store := newRedisStore(t)
	catalog := DemoCatalog()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

	n, err := Seed(ctx, store, catalog, now, 3)
	require.NoError(t, err)
	assert.Equal(t, 3*8*len(catalog.Services()), n)

	_, err = Seed(ctx, store, catalog, now, 3)
	require.NoError(t, err)

	svc := catalog.Services()[0]
	slots, err := store.ListSlots(ctx, svc.ID)
	require.NoError(t, err)
	require.Len(t, slots, 24)
	assert.True(t, slots[0].StartTime.Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, SeedSlotID(svc.ID, slots[0].StartTime.Time), slots[0].ID)
}

func TestCatalog(t *testing.T) {
	catalog := DemoCatalog()

	assert.Len(t, catalog.Businesses(), 2)
	assert.Len(t, catalog.OwnedBy(DemoOwnerID), 1)
	assert.Empty(t, catalog.OwnedBy("nobody"))

	svc, owner, ok := catalog.Service("c3e1a4b6-5d7f-4081-ac9d-1e2f3a4b5c85")
	require.True(t, ok)
	assert.Equal(t, "Swedish Massage", svc.Name)
	assert.Equal(t, "5a4d9c6e-3f80-4d1b-ac2e-7a9f4c3b8d74", svc.BusinessID)
	assert.NotEqual(t, DemoOwnerID, owner)

	_, ok = catalog.Business("missing")
	assert.False(t, ok)
}

func TestStore_ReleaseSlot(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for name, newStore := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()
			require.NoError(t, store.PutSlot(ctx, slotAt("ts-1", "svc-1", base)))

			require.NoError(t, store.ReleaseSlot(ctx, "ts-1", "c-1"), "releasing a free slot is a no-op")

			require.NoError(t, store.BookSlot(ctx, "ts-1", "c-1"))
			require.NoError(t, store.ReleaseSlot(ctx, "ts-1", "c-1"))

			got, err := store.GetSlot(ctx, "ts-1")
			require.NoError(t, err)
			assert.False(t, got.IsBooked)
			require.NoError(t, store.BookSlot(ctx, "ts-1", "c-2"))
		})
	}
}
