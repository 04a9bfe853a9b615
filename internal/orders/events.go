package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated     = "OrderCreated"
	EventPaymentCompleted = "PaymentCompleted"
	EventPaymentFailed    = "PaymentFailed"
	EventOrderCancelled   = "OrderCancelled"
	EventOrderCompleted   = "OrderCompleted"
	EventOrderRefunded    = "OrderRefunded"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "order-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`                  // payload spesifik
}

// ---- Payload tipe per event ----
// Semua payload bawa order_id + status + version supaya consumer status-cache
// cukup decode field umum tanpa peduli tipe event.

type OrderCreatedPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	CustomerID  string `json:"customer_id"`
	Status      Status `json:"status"`
	Version     int    `json:"version"`
	Total       string `json:"total"`
}

type PaymentCompletedPayload struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Status        Status `json:"status"` // status order sesudah settle: CONFIRMED
	Version       int    `json:"version"`
	Amount        string `json:"amount"`
}

type PaymentFailedPayload struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Status        Status `json:"status"` // FAILED
	Version       int    `json:"version"`
	Reason        string `json:"reason"`
}

type OrderCancelledPayload struct {
	OrderID string `json:"order_id"`
	Status  Status `json:"status"` // CANCELLED
	Version int    `json:"version"`
	Reason  string `json:"reason,omitempty"`
}

type OrderCompletedPayload struct {
	OrderID string `json:"order_id"`
	Status  Status `json:"status"` // COMPLETED
	Version int    `json:"version"`
}

type OrderRefundedPayload struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Status        Status `json:"status"` // REFUNDED
	Version       int    `json:"version"`
	Amount        string `json:"amount"`
	Reason        string `json:"reason,omitempty"`
}
