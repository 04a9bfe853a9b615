package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-commerce-orders.git/internal/money"
)

// Engine menjalankan lifecycle order. Setiap operasi mutasi = satu transaksi
// atomik di store, dengan exclusive row lock di order sebagai akses pertama.
// Engine sendiri stateless; satu-satunya shared state adalah store.
type Engine struct {
	store    Store
	gateway  Gateway
	currency string
}

func NewEngine(store Store, gateway Gateway, currency string) *Engine {
	return &Engine{store: store, gateway: gateway, currency: currency}
}

// CreateOrder membuat order PENDING + items + satu payment PENDING sebesar total.
func (e *Engine) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	if len(in.Items) == 0 {
		return nil, Errf(KindInvalidInput, "at least one order item is required")
	}
	for i, it := range in.Items {
		if it.ProductName == "" {
			return nil, Errf(KindInvalidInput, "item %d: product name is required", i)
		}
		if it.Quantity < 1 {
			return nil, Errf(KindInvalidInput, "item %d: quantity must be >= 1", i)
		}
		if it.UnitPrice.IsNegative() {
			return nil, Errf(KindInvalidInput, "item %d: unit price must be >= 0", i)
		}
	}
	if in.ShippingCost.IsNegative() {
		return nil, Errf(KindInvalidInput, "shipping cost must be >= 0")
	}
	if !in.Method.Valid() {
		return nil, Errf(KindInvalidInput, "unknown payment method %q", in.Method)
	}

	var out *Order
	err := e.store.WithTx(ctx, func(tx Tx) error {
		customer, err := e.resolveCustomer(ctx, tx, in)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		order := &Order{
			ID:              uuid.NewString(),
			CustomerID:      customer.ID,
			OrderNumber:     NewOrderNumber(),
			Status:          StatusPending,
			Shipping:        in.ShippingCost,
			Notes:           in.Notes,
			ShippingAddress: in.ShippingAddress,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		subtotal := decimal.Zero
		items := make([]OrderItem, 0, len(in.Items))
		for _, it := range in.Items {
			item := OrderItem{
				ID:          uuid.NewString(),
				OrderID:     order.ID,
				ProductName: it.ProductName,
				ProductSKU:  it.ProductSKU,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
				TotalPrice:  money.LineTotal(it.UnitPrice, it.Quantity),
			}
			subtotal = subtotal.Add(item.TotalPrice)
			items = append(items, item)
		}

		order.Subtotal = subtotal
		order.Tax = money.Tax(subtotal)
		order.Total = subtotal.Add(order.Tax).Add(order.Shipping)

		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		for i := range items {
			if err := tx.CreateOrderItem(ctx, &items[i]); err != nil {
				return err
			}
		}

		payment := Payment{
			ID:            uuid.NewString(),
			OrderID:       order.ID,
			TransactionID: NewTransactionID(),
			Method:        in.Method,
			Amount:        order.Total,
			Currency:      e.currency,
			Status:        PaymentPending,
			CreatedAt:     now,
		}
		if err := tx.CreatePayment(ctx, &payment); err != nil {
			return err
		}

		order.Items = items
		order.Payments = []Payment{payment}
		out = order
		return nil
	})
	if err != nil {
		return nil, wrapUntyped("create order", err)
	}
	return out, nil
}

func (e *Engine) resolveCustomer(ctx context.Context, tx Tx, in CreateOrderInput) (*Customer, error) {
	if in.CustomerID != "" {
		return tx.GetCustomerForUpdate(ctx, in.CustomerID)
	}
	if in.Customer == nil {
		return nil, Errf(KindInvalidInput, "customer data is required")
	}
	now := time.Now().UTC()
	c := &Customer{
		ID:         uuid.NewString(),
		UserID:     in.Principal.UserID, // kosong kalau guest
		Email:      in.Customer.Email,
		FullName:   in.Customer.FullName,
		Phone:      in.Customer.Phone,
		Address:    in.Customer.Address,
		City:       in.Customer.City,
		Country:    in.Customer.Country,
		PostalCode: in.Customer.PostalCode,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.CreateCustomer(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ProcessPayment men-settle payment PENDING lewat gateway. Lock order dipegang
// selama operasi, jadi dua call concurrent untuk order yang sama serialize di sini.
// Kalau gateway decline, state FAILED tetap di-commit (itu outcome yang sah,
// bukan kondisi rollback) dan error-nya PaymentDeclined.
func (e *Engine) ProcessPayment(ctx context.Context, orderID string) (*Payment, error) {
	var (
		out      *Payment
		declined bool
	)
	err := e.store.WithTx(ctx, func(tx Tx) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != StatusPending && order.Status != StatusProcessing {
			return Errf(KindInvalidState, "order %s cannot be processed in status %s", order.OrderNumber, order.Status)
		}

		payment, err := tx.GetPendingPaymentForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		order.Status = StatusProcessing
		order.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateOrder(ctx, order); err != nil {
			return err
		}

		payment.Status = PaymentProcessing
		payment.Gateway = e.gateway.Name()
		if err := tx.UpdatePayment(ctx, payment); err != nil {
			return err
		}

		if e.gateway.Authorize(*payment) {
			now := time.Now().UTC()
			payment.Status = PaymentCompleted
			payment.ProcessedAt = &now
			payment.GatewayResponse = map[string]any{"status": "success", "message": "payment processed successfully"}
			if err := tx.UpdatePayment(ctx, payment); err != nil {
				return err
			}
			order.Status = StatusConfirmed
			order.Version++
			order.UpdatedAt = now
			if err := tx.UpdateOrder(ctx, order); err != nil {
				return err
			}
		} else {
			payment.Status = PaymentFailed
			payment.ErrorMessage = "payment processing failed"
			payment.GatewayResponse = map[string]any{"status": "failed", "message": "payment declined"}
			if err := tx.UpdatePayment(ctx, payment); err != nil {
				return err
			}
			order.Status = StatusFailed
			order.UpdatedAt = time.Now().UTC()
			if err := tx.UpdateOrder(ctx, order); err != nil {
				return err
			}
			declined = true
		}

		out = payment
		return nil
	})
	if err != nil {
		return nil, wrapUntyped("process payment", err)
	}
	if declined {
		// partial writes di atas sudah commit; FAILED adalah terminal state sah
		return out, Errf(KindPaymentDeclined, "payment %s declined by gateway", out.TransactionID)
	}
	return out, nil
}

// CancelOrder membatalkan order dan semua payment PENDING/PROCESSING-nya.
// Cancel kedua kali bukan idempotent: kena InvalidState karena status sudah CANCELLED.
func (e *Engine) CancelOrder(ctx context.Context, orderID, reason string) (*Order, error) {
	err := e.store.WithTx(ctx, func(tx Tx) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !CanTransition(order.Status, StatusCancelled) {
			return Errf(KindInvalidState, "order %s cannot be cancelled in status %s", order.OrderNumber, order.Status)
		}

		order.Status = StatusCancelled
		if reason != "" {
			order.Notes += "\nCancellation reason: " + reason
		}
		order.Version++
		order.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateOrder(ctx, order); err != nil {
			return err
		}
		_, err = tx.CancelPendingPayments(ctx, orderID, "Order cancelled")
		return err
	})
	if err != nil {
		return nil, wrapUntyped("cancel order", err)
	}
	return e.reload(ctx, orderID)
}

// RefundOrder membuat payment row baru dengan amount negatif dan menutup order
// sebagai REFUNDED. REFUNDED terminal, jadi refund cuma bisa terjadi sekali —
// bound amount <= total sekaligus jadi bound kumulatif.
func (e *Engine) RefundOrder(ctx context.Context, orderID, reason string, amount *decimal.Decimal) (*Order, error) {
	err := e.store.WithTx(ctx, func(tx Tx) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !CanTransition(order.Status, StatusRefunded) {
			return Errf(KindInvalidState, "order %s cannot be refunded in status %s", order.OrderNumber, order.Status)
		}

		refundAmount := order.Total
		if amount != nil {
			refundAmount = *amount
		}
		if refundAmount.GreaterThan(order.Total) {
			return Errf(KindInvalidInput, "refund amount %s exceeds order total %s", refundAmount, order.Total)
		}
		if !refundAmount.IsPositive() {
			return Errf(KindInvalidInput, "refund amount must be positive")
		}

		completed, err := tx.GetCompletedPayment(ctx, orderID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		refund := Payment{
			ID:              uuid.NewString(),
			OrderID:         orderID,
			TransactionID:   NewTransactionID(),
			Method:          completed.Method,
			Amount:          refundAmount.Neg(),
			Currency:        completed.Currency,
			Status:          PaymentRefunded,
			Gateway:         completed.Gateway,
			GatewayResponse: map[string]any{"status": "refunded", "reason": reason},
			ProcessedAt:     &now,
			CreatedAt:       now,
		}
		if err := tx.CreatePayment(ctx, &refund); err != nil {
			return err
		}

		order.Status = StatusRefunded
		order.Notes += fmt.Sprintf("\nRefund reason: %s\nRefund amount: %s", reason, refundAmount)
		order.Version++
		order.UpdatedAt = now
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, wrapUntyped("refund order", err)
	}
	return e.reload(ctx, orderID)
}

// CompleteOrder menandai order CONFIRMED sebagai COMPLETED.
func (e *Engine) CompleteOrder(ctx context.Context, orderID string) (*Order, error) {
	err := e.store.WithTx(ctx, func(tx Tx) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != StatusConfirmed {
			return Errf(KindInvalidState, "only confirmed orders can be completed, order %s is %s", order.OrderNumber, order.Status)
		}
		order.Status = StatusCompleted
		order.Version++
		order.UpdatedAt = time.Now().UTC()
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, wrapUntyped("complete order", err)
	}
	return e.reload(ctx, orderID)
}

// GetOrder: read untuk display, tanpa lock.
func (e *Engine) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return e.store.GetOrder(ctx, orderID)
}

func (e *Engine) ListOrders(ctx context.Context, customerID string, limit, offset int) ([]Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return e.store.ListOrders(ctx, customerID, limit, offset)
}

// GetOrCreateCustomer mengembalikan customer milik principal, dibuat saat
// akses pertama. Maksimal satu customer per principal (dijaga unique index).
func (e *Engine) GetOrCreateCustomer(ctx context.Context, p Principal) (*Customer, error) {
	if !p.Authenticated() {
		return nil, Errf(KindInvalidInput, "authenticated principal required")
	}
	var out *Customer
	err := e.store.WithTx(ctx, func(tx Tx) error {
		c, err := tx.GetCustomerByUser(ctx, p.UserID)
		if err == nil {
			out = c
			return nil
		}
		if !IsKind(err, KindNotFound) {
			return err
		}
		email := p.Email
		if email == "" {
			email = p.UserID + "@placeholder.local"
		}
		now := time.Now().UTC()
		c = &Customer{
			ID:        uuid.NewString(),
			UserID:    p.UserID,
			Email:     email,
			FullName:  p.FullName,
			Phone:     p.Phone,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.CreateCustomer(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, wrapUntyped("get or create customer", err)
	}
	return out, nil
}

// UpdateCustomer menimpa profil customer milik principal.
func (e *Engine) UpdateCustomer(ctx context.Context, p Principal, draft CustomerDraft) (*Customer, error) {
	if !p.Authenticated() {
		return nil, Errf(KindInvalidInput, "authenticated principal required")
	}
	if draft.Email == "" || draft.FullName == "" {
		return nil, Errf(KindInvalidInput, "email and full name are required")
	}
	var out *Customer
	err := e.store.WithTx(ctx, func(tx Tx) error {
		c, err := tx.GetCustomerByUser(ctx, p.UserID)
		if err != nil {
			return err
		}
		c.Email = draft.Email
		c.FullName = draft.FullName
		c.Phone = draft.Phone
		c.Address = draft.Address
		c.City = draft.City
		c.Country = draft.Country
		c.PostalCode = draft.PostalCode
		c.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateCustomer(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, wrapUntyped("update customer", err)
	}
	return out, nil
}

func (e *Engine) reload(ctx context.Context, orderID string) (*Order, error) {
	return e.store.GetOrder(ctx, orderID)
}

// wrapUntyped membungkus error infrastruktur; error ber-Kind lewat apa adanya
// supaya adapter selalu lihat tepat satu kind.
func wrapUntyped(op string, err error) error {
	if _, ok := KindOf(err); ok {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
