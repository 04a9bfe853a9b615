package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OrderStatusEntry adalah ringkasan order yang di-cache untuk GET status cepat.
type OrderStatusEntry struct {
	Status    string    `json:"status"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusCache: read-through cache status order di Redis. Best-effort; DB tetap
// jadi kebenaran, error cache boleh di-ignore caller.
type StatusCache struct{ R *redis.Client }

func (c *StatusCache) Get(ctx context.Context, orderID string) (*OrderStatusEntry, error) {
	key := fmt.Sprintf(KeyOrderStatus, orderID)
	raw, err := c.R.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var e OrderStatusEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *StatusCache) Set(ctx context.Context, orderID string, e OrderStatusEntry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(KeyOrderStatus, orderID)
	return c.R.Set(ctx, key, b, TTLStatusCache).Err()
}

// SeenEvent: dedup per event_id via SETNX. Return true kalau event sudah
// pernah diproses service ini.
func (c *StatusCache) SeenEvent(ctx context.Context, service, eventID string) (bool, error) {
	key := fmt.Sprintf(KeyDedup, service, eventID)
	set, err := c.R.SetNX(ctx, key, "1", TTLDedup).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}
