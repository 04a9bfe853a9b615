// Package notifier mengkonsumsi lifecycle event order dan mengupdate
// status cache + (opsional) downstream notification. Semua payload event
// membawa order_id/status/version, jadi service ini cukup decode subset
// itu tanpa switch per tipe event.
package notifier

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-commerce-orders.git/internal/orders"
	"github.com/ariefcatur/go-commerce-orders.git/internal/redisx"
)

// Deduper + CacheWriter: subset StatusCache yang dipakai service ini.
type Deduper interface {
	SeenEvent(ctx context.Context, service, eventID string) (bool, error)
}

type CacheWriter interface {
	Set(ctx context.Context, orderID string, e redisx.OrderStatusEntry) error
}

type Cache interface {
	Deduper
	CacheWriter
}

type Service struct {
	Cache   Cache
	Log     *zap.Logger
	Service string // nama consumer untuk key dedup
}

// statusUpdate adalah field umum semua payload lifecycle.
type statusUpdate struct {
	OrderID string        `json:"order_id"`
	Status  orders.Status `json:"status"`
	Version int           `json:"version"`
}

// Handle memproses satu message. Return nil = offset boleh commit.
// Event duplikat atau malformed di-skip (commit), bukan retry.
func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		s.Log.Warn("skip malformed envelope",
			zap.String("topic", m.Topic),
			zap.Int64("offset", m.Offset),
			zap.Error(err))
		return nil
	}

	seen, err := s.Cache.SeenEvent(ctx, s.Service, env.EventID)
	if err != nil {
		// redis down: proses saja, dedup best-effort
		s.Log.Warn("dedup check failed", zap.String("event_id", env.EventID), zap.Error(err))
	} else if seen {
		s.Log.Debug("duplicate event", zap.String("event_id", env.EventID))
		return nil
	}

	var upd statusUpdate
	if err := json.Unmarshal(env.Payload, &upd); err != nil || upd.OrderID == "" {
		s.Log.Warn("skip payload without order_id",
			zap.String("event_type", env.EventType),
			zap.String("event_id", env.EventID))
		return nil
	}

	entry := redisx.OrderStatusEntry{
		Status:    upd.Status.String(),
		Version:   upd.Version,
		UpdatedAt: env.OccurredAt,
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}
	if err := s.Cache.Set(ctx, upd.OrderID, entry); err != nil {
		// cache write gagal = retry (jangan commit offset)
		return err
	}

	s.Log.Info("order status updated",
		zap.String("event_type", env.EventType),
		zap.String("order_id", upd.OrderID),
		zap.String("status", upd.Status.String()),
		zap.Int("version", upd.Version))
	return nil
}
