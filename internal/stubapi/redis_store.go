package stubapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/slotify/internal/slotify"
)

const redisKeyPrefix = "slotify:"

// RedisStore persists slots and customers in Redis. A booking is a SETNX
// on a per-slot key, so two customers can never take the same slot.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func slotKey(id string) string { return redisKeyPrefix + "slot:" + id }
func bookingKey(id string) string { return redisKeyPrefix + "slot:" + id + ":booking" }
func serviceSlotsKey(serviceID string) string { return redisKeyPrefix + "service:" + serviceID + ":slots" }
func customersKey(businessID string) string { return redisKeyPrefix + "business:" + businessID + ":customers" }

func (s *RedisStore) ListSlots(ctx context.Context, serviceID string) ([]slotify.TimeSlot, error) {
	ids, err := s.client.ZRange(ctx, serviceSlotsKey(serviceID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("stubapi: list slots: %w", err)
	}
	out := []slotify.TimeSlot{}
	if len(ids) == 0 {
		return out, nil
	}

	pipe := s.client.Pipeline()
	data := make([]*redis.StringCmd, len(ids))
	booked := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		data[i] = pipe.Get(ctx, slotKey(id))
		booked[i] = pipe.Exists(ctx, bookingKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("stubapi: list slots: %w", err)
	}

	for i := range ids {
		raw, err := data[i].Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stubapi: list slots: %w", err)
		}
		var slot slotify.TimeSlot
		if err := json.Unmarshal(raw, &slot); err != nil {
			return nil, fmt.Errorf("stubapi: decode slot: %w", err)
		}
		slot.IsBooked = booked[i].Val() > 0
		out = append(out, slot)
	}
	sortSlots(out)
	return out, nil
}

func (s *RedisStore) GetSlot(ctx context.Context, id string) (*slotify.TimeSlot, error) {
	raw, err := s.client.Get(ctx, slotKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stubapi: get slot: %w", err)
	}
	var slot slotify.TimeSlot
	if err := json.Unmarshal(raw, &slot); err != nil {
		return nil, fmt.Errorf("stubapi: decode slot: %w", err)
	}
	n, err := s.client.Exists(ctx, bookingKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("stubapi: get slot: %w", err)
	}
	slot.IsBooked = n > 0
	return &slot, nil
}

func (s *RedisStore) PutSlot(ctx context.Context, slot slotify.TimeSlot) error {
	slot.IsBooked = false
	raw, err := json.Marshal(slot)
	if err != nil {
		return fmt.Errorf("stubapi: encode slot: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, slotKey(slot.ID), raw, 0)
		pipe.ZAdd(ctx, serviceSlotsKey(slot.ServiceID), redis.Z{
			Score:  float64(slot.StartTime.UnixMilli()),
			Member: slot.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("stubapi: put slot: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteSlot(ctx context.Context, id string) error {
	slot, err := s.GetSlot(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, slotKey(id), bookingKey(id))
		pipe.ZRem(ctx, serviceSlotsKey(slot.ServiceID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("stubapi: delete slot: %w", err)
	}
	return nil
}

func (s *RedisStore) BookSlot(ctx context.Context, slotID, customerID string) error {
	n, err := s.client.Exists(ctx, slotKey(slotID)).Result()
	if err != nil {
		return fmt.Errorf("stubapi: book slot: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	ok, err := s.client.SetNX(ctx, bookingKey(slotID), customerID, 0).Result()
	if err != nil {
		return fmt.Errorf("stubapi: book slot: %w", err)
	}
	if !ok {
		return ErrSlotTaken
	}
	return nil
}

func (s *RedisStore) ReleaseSlot(ctx context.Context, slotID, customerID string) error {
	key := bookingKey(slotID)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		holder, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) || (err == nil && holder != customerID) {
			return nil
		}
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("stubapi: release slot: %w", err)
	}
	return nil
}

func (s *RedisStore) AddCustomer(ctx context.Context, businessID string, customer slotify.Customer) error {
	raw, err := json.Marshal(customer)
	if err != nil {
		return fmt.Errorf("stubapi: encode customer: %w", err)
	}
	if err := s.client.RPush(ctx, customersKey(businessID), raw).Err(); err != nil {
		return fmt.Errorf("stubapi: add customer: %w", err)
	}
	return nil
}

func (s *RedisStore) ListCustomers(ctx context.Context, businessID string) ([]slotify.Customer, error) {
	items, err := s.client.LRange(ctx, customersKey(businessID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("stubapi: list customers: %w", err)
	}
	out := make([]slotify.Customer, 0, len(items))
	for _, item := range items {
		var c slotify.Customer
		if err := json.Unmarshal([]byte(item), &c); err != nil {
			return nil, fmt.Errorf("stubapi: decode customer: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}
