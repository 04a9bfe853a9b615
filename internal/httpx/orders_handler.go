package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-commerce-orders.git/internal/kafka"
	"github.com/ariefcatur/go-commerce-orders.git/internal/money"
	"github.com/ariefcatur/go-commerce-orders.git/internal/orders"
	"github.com/ariefcatur/go-commerce-orders.git/internal/redisx"
)

// Engine adalah kontrak lifecycle yang dipakai handler (mockable di test).
type Engine interface {
	CreateOrder(ctx context.Context, in orders.CreateOrderInput) (*orders.Order, error)
	ProcessPayment(ctx context.Context, orderID string) (*orders.Payment, error)
	CancelOrder(ctx context.Context, orderID, reason string) (*orders.Order, error)
	RefundOrder(ctx context.Context, orderID, reason string, amount *decimal.Decimal) (*orders.Order, error)
	CompleteOrder(ctx context.Context, orderID string) (*orders.Order, error)
	GetOrder(ctx context.Context, orderID string) (*orders.Order, error)
	ListOrders(ctx context.Context, customerID string, limit, offset int) ([]orders.Order, error)
}

// StatusCache: cache ringkasan status (best-effort, error di-ignore).
type StatusCache interface {
	Get(ctx context.Context, orderID string) (*redisx.OrderStatusEntry, error)
	Set(ctx context.Context, orderID string, e redisx.OrderStatusEntry) error
}

// EventPublisher menerbitkan lifecycle event ke topic per event.
type EventPublisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Engine   Engine
	Cache    StatusCache
	Producer EventPublisher
	Log      *zap.Logger
	Service  string
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getOrderStatus)
	r.Post("/orders/{id}/payment", h.processPayment)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Post("/orders/{id}/refund", h.refundOrder)
	r.Post("/orders/{id}/complete", h.completeOrder)
}

// ---- request/response DTO ----

type orderItemReq struct {
	ProductName string `json:"product_name"`
	ProductSKU  string `json:"product_sku"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

type createOrderReq struct {
	CustomerID      string                `json:"customer_id"`
	Customer        *orders.CustomerDraft `json:"customer"`
	Items           []orderItemReq        `json:"items"`
	ShippingAddress string                `json:"shipping_address"`
	ShippingCost    string                `json:"shipping_cost"`
	Notes           string                `json:"notes"`
	PaymentMethod   string                `json:"payment_method"`
}

type reasonReq struct {
	Reason string `json:"reason"`
}

type refundReq struct {
	Reason string `json:"reason"`
	Amount string `json:"amount"` // kosong = full refund
}

type orderItemResp struct {
	ID          string `json:"id"`
	ProductName string `json:"product_name"`
	ProductSKU  string `json:"product_sku"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	TotalPrice  string `json:"total_price"`
}

type paymentResp struct {
	ID            string     `json:"id"`
	TransactionID string     `json:"transaction_id"`
	PaymentMethod string     `json:"payment_method"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	Gateway       string     `json:"payment_gateway,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

type orderResp struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	OrderNumber     string          `json:"order_number"`
	Status          string          `json:"status"`
	Subtotal        string          `json:"subtotal"`
	Tax             string          `json:"tax_amount"`
	ShippingCost    string          `json:"shipping_cost"`
	Total           string          `json:"total_amount"`
	Notes           string          `json:"notes,omitempty"`
	ShippingAddress string          `json:"shipping_address"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []orderItemResp `json:"items"`
	Payments        []paymentResp   `json:"payments"`
}

func toOrderResp(o *orders.Order) orderResp {
	resp := orderResp{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		OrderNumber:     o.OrderNumber,
		Status:          o.Status.String(),
		Subtotal:        o.Subtotal.StringFixed(2),
		Tax:             o.Tax.StringFixed(2),
		ShippingCost:    o.Shipping.StringFixed(2),
		Total:           o.Total.StringFixed(2),
		Notes:           o.Notes,
		ShippingAddress: o.ShippingAddress,
		Version:         o.Version,
		CreatedAt:       o.CreatedAt,
		Items:           make([]orderItemResp, 0, len(o.Items)),
		Payments:        make([]paymentResp, 0, len(o.Payments)),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResp{
			ID:          it.ID,
			ProductName: it.ProductName,
			ProductSKU:  it.ProductSKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(2),
			TotalPrice:  it.TotalPrice.StringFixed(2),
		})
	}
	for _, p := range o.Payments {
		resp.Payments = append(resp.Payments, toPaymentResp(p))
	}
	return resp
}

func toPaymentResp(p orders.Payment) paymentResp {
	return paymentResp{
		ID:            p.ID,
		TransactionID: p.TransactionID,
		PaymentMethod: string(p.Method),
		Amount:        p.Amount.StringFixed(2),
		Currency:      p.Currency,
		Status:        p.Status.String(),
		Gateway:       p.Gateway,
		ErrorMessage:  p.ErrorMessage,
		ProcessedAt:   p.ProcessedAt,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr menerjemahkan taxonomy engine ke status HTTP.
func writeErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	if kind, ok := orders.KindOf(err); ok {
		switch kind {
		case orders.KindInvalidInput:
			code = http.StatusBadRequest
		case orders.KindInvalidState, orders.KindConflict:
			code = http.StatusConflict
		case orders.KindNotFound:
			code = http.StatusNotFound
		case orders.KindPaymentDeclined:
			code = http.StatusPaymentRequired
		case orders.KindLockTimeout:
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// ---- handlers ----

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	in := orders.CreateOrderInput{
		CustomerID:      req.CustomerID,
		Customer:        req.Customer,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		Method:          orders.PaymentMethod(req.PaymentMethod),
		Principal:       PrincipalFrom(r.Context()),
	}
	if req.ShippingCost != "" {
		cost, err := money.Parse(req.ShippingCost)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		in.ShippingCost = cost
	}
	for _, it := range req.Items {
		price, err := money.Parse(it.UnitPrice)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		in.Items = append(in.Items, orders.ItemInput{
			ProductName: it.ProductName,
			ProductSKU:  it.ProductSKU,
			Quantity:    it.Quantity,
			UnitPrice:   price,
		})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Engine.CreateOrder(ctx, in)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.cacheStatus(ctx, order)
	h.publish(r, orders.TopicOrderCreated, orders.EventOrderCreated, order.ID, orders.OrderCreatedPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		Status:      order.Status,
		Version:     order.Version,
		Total:       order.Total.StringFixed(2),
	})

	writeJSON(w, http.StatusCreated, toOrderResp(order))
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	order, err := h.Engine.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(order))
}

// getOrderStatus: ringkasan ringan dengan read-through cache.
func (h *OrdersHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if entry, err := h.Cache.Get(ctx, orderID); err == nil && entry != nil {
		writeJSON(w, http.StatusOK, entry)
		return
	}

	order, err := h.Engine.GetOrder(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	entry := statusEntry(order)
	_ = h.Cache.Set(ctx, orderID, entry)
	writeJSON(w, http.StatusOK, entry)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customer_id")
	if customerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing customer_id"})
		return
	}
	limit := intQuery(r, "limit", 20)
	offset := intQuery(r, "offset", 0)

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	got, err := h.Engine.ListOrders(ctx, customerID, limit, offset)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]orderResp, 0, len(got))
	for i := range got {
		out = append(out, toOrderResp(&got[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) processPayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	payment, err := h.Engine.ProcessPayment(ctx, orderID)
	if err != nil {
		// declined: state FAILED sudah commit, event tetap terbit
		if orders.IsKind(err, orders.KindPaymentDeclined) && payment != nil {
			version := 0
			if order := h.refreshStatus(ctx, orderID); order != nil {
				version = order.Version
			}
			h.publish(r, orders.TopicPaymentFailed, orders.EventPaymentFailed, orderID, orders.PaymentFailedPayload{
				OrderID:       orderID,
				TransactionID: payment.TransactionID,
				Status:        orders.StatusFailed,
				Version:       version,
				Reason:        payment.ErrorMessage,
			})
		}
		writeErr(w, err)
		return
	}

	order := h.refreshStatus(ctx, orderID)
	version := 0
	if order != nil {
		version = order.Version
	}
	h.publish(r, orders.TopicPaymentCompleted, orders.EventPaymentCompleted, orderID, orders.PaymentCompletedPayload{
		OrderID:       orderID,
		TransactionID: payment.TransactionID,
		Status:        orders.StatusConfirmed,
		Version:       version,
		Amount:        payment.Amount.StringFixed(2),
	})

	writeJSON(w, http.StatusOK, toPaymentResp(*payment))
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req reasonReq
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Engine.CancelOrder(ctx, orderID, req.Reason)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.cacheStatus(ctx, order)
	h.publish(r, orders.TopicOrderCancelled, orders.EventOrderCancelled, order.ID, orders.OrderCancelledPayload{
		OrderID: order.ID,
		Status:  order.Status,
		Version: order.Version,
		Reason:  req.Reason,
	})

	writeJSON(w, http.StatusOK, toOrderResp(order))
}

func (h *OrdersHandler) refundOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req refundReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	var amount *decimal.Decimal
	if req.Amount != "" {
		a, err := money.Parse(req.Amount)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		amount = &a
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Engine.RefundOrder(ctx, orderID, req.Reason, amount)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.cacheStatus(ctx, order)
	refundTxn, refundAmount := "", ""
	for _, p := range order.Payments {
		if p.Status == orders.PaymentRefunded {
			refundTxn = p.TransactionID
			refundAmount = p.Amount.StringFixed(2)
		}
	}
	h.publish(r, orders.TopicOrderRefunded, orders.EventOrderRefunded, order.ID, orders.OrderRefundedPayload{
		OrderID:       order.ID,
		TransactionID: refundTxn,
		Status:        order.Status,
		Version:       order.Version,
		Amount:        refundAmount,
		Reason:        req.Reason,
	})

	writeJSON(w, http.StatusOK, toOrderResp(order))
}

func (h *OrdersHandler) completeOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Engine.CompleteOrder(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.cacheStatus(ctx, order)
	h.publish(r, orders.TopicOrderCompleted, orders.EventOrderCompleted, order.ID, orders.OrderCompletedPayload{
		OrderID: order.ID,
		Status:  order.Status,
		Version: order.Version,
	})

	writeJSON(w, http.StatusOK, toOrderResp(order))
}

// ---- helpers ----

func statusEntry(o *orders.Order) redisx.OrderStatusEntry {
	return redisx.OrderStatusEntry{Status: o.Status.String(), Version: o.Version, UpdatedAt: o.UpdatedAt}
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o *orders.Order) {
	_ = h.Cache.Set(ctx, o.ID, statusEntry(o))
}

// refreshStatus re-read order untuk cache; nil kalau gagal (best-effort).
func (h *OrdersHandler) refreshStatus(ctx context.Context, orderID string) *orders.Order {
	order, err := h.Engine.GetOrder(ctx, orderID)
	if err != nil {
		h.Log.Warn("status cache refresh failed", zap.String("order_id", orderID), zap.Error(err))
		return nil
	}
	h.cacheStatus(ctx, order)
	return order
}

func (h *OrdersHandler) publish(r *http.Request, topic, eventType, orderID string, payload any) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	h.Producer.Publish(topic, orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func intQuery(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	var n int
	for _, c := range v {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
	}
	return n
}
