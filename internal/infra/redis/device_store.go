// Package redis holds Redis-backed implementations of the device store and
// the room-code lookup cache. Notes:
//   - Device state (session + attempt) lives under TTL'd keys so abandoned
//     devices age out on their own.
//   - The portal main document and results never pass through here; those
//     belong to the persistent store.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeviceStore keeps per-device session and attempt state in Redis.
type DeviceStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDeviceStore(client *redis.Client, ttl time.Duration) *DeviceStore {
	return &DeviceStore{client: client, ttl: ttl}
}

func (s *DeviceStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *DeviceStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.key(key), value, s.ttl).Err()
}

func (s *DeviceStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *DeviceStore) key(key string) string {
	return "portal:device:" + key
}
