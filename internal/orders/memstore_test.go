package orders

import (
	"context"
	"sort"
	"sync"
)

// memStore implements Store for tests. Per-order mutexes stand in for the
// row locks, so lock-then-check serialization behaves like the real store:
// GetOrderForUpdate blocks until the holding transaction finishes, and
// writes only land on commit (fn returning nil).
type memStore struct {
	mu        sync.Mutex
	customers map[string]Customer
	orders    map[string]Order
	items     map[string][]OrderItem
	payments  map[string][]Payment
	locks     map[string]*sync.Mutex
}

func newMemStore() *memStore {
	return &memStore{
		customers: map[string]Customer{},
		orders:    map[string]Order{},
		items:     map[string][]OrderItem{},
		payments:  map[string][]Payment{},
		locks:     map[string]*sync.Mutex{},
	}
}

func (s *memStore) orderLock(orderID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[orderID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[orderID] = m
	}
	return m
}

func (s *memStore) WithTx(_ context.Context, fn func(tx Tx) error) error {
	tx := &memTx{s: s}
	err := fn(tx)
	if err == nil {
		s.mu.Lock()
		for _, apply := range tx.staged {
			apply(s)
		}
		s.mu.Unlock()
	}
	for i := len(tx.locked) - 1; i >= 0; i-- {
		tx.locked[i].Unlock()
	}
	return err
}

func (s *memStore) GetOrder(_ context.Context, orderID string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, Errf(KindNotFound, "order not found")
	}
	o.Items = append([]OrderItem(nil), s.items[orderID]...)
	o.Payments = append([]Payment(nil), s.payments[orderID]...)
	return &o, nil
}

func (s *memStore) ListOrders(_ context.Context, customerID string, limit, offset int) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for id, o := range s.orders {
		if o.CustomerID != customerID {
			continue
		}
		o.Items = append([]OrderItem(nil), s.items[id]...)
		o.Payments = append([]Payment(nil), s.payments[id]...)
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// setPaymentStatus mutates committed state directly, for test setup only.
func (s *memStore) setPaymentStatus(orderID string, idx int, status PaymentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[orderID][idx].Status = status
}

type memTx struct {
	s      *memStore
	locked []*sync.Mutex
	staged []func(s *memStore)
}

func (t *memTx) GetCustomerForUpdate(_ context.Context, customerID string) (*Customer, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	c, ok := t.s.customers[customerID]
	if !ok {
		return nil, Errf(KindNotFound, "customer not found")
	}
	return &c, nil
}

func (t *memTx) GetCustomerByUser(_ context.Context, userID string) (*Customer, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, c := range t.s.customers {
		if c.UserID == userID {
			cp := c
			return &cp, nil
		}
	}
	return nil, Errf(KindNotFound, "customer not found")
}

func (t *memTx) CreateCustomer(_ context.Context, c *Customer) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if c.UserID != "" {
		for _, existing := range t.s.customers {
			if existing.UserID == c.UserID {
				return Errf(KindConflict, "unique constraint violated: customers_user_id")
			}
		}
	}
	cp := *c
	t.staged = append(t.staged, func(s *memStore) { s.customers[cp.ID] = cp })
	return nil
}

func (t *memTx) UpdateCustomer(_ context.Context, c *Customer) error {
	cp := *c
	t.staged = append(t.staged, func(s *memStore) { s.customers[cp.ID] = cp })
	return nil
}

func (t *memTx) CreateOrder(_ context.Context, o *Order) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, existing := range t.s.orders {
		if existing.OrderNumber == o.OrderNumber {
			return Errf(KindConflict, "unique constraint violated: orders_order_number")
		}
	}
	cp := *o
	cp.Items, cp.Payments = nil, nil
	t.staged = append(t.staged, func(s *memStore) { s.orders[cp.ID] = cp })
	return nil
}

func (t *memTx) GetOrderForUpdate(_ context.Context, orderID string) (*Order, error) {
	m := t.s.orderLock(orderID)
	m.Lock()
	t.locked = append(t.locked, m)

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	o, ok := t.s.orders[orderID]
	if !ok {
		return nil, Errf(KindNotFound, "order not found")
	}
	return &o, nil
}

func (t *memTx) UpdateOrder(_ context.Context, o *Order) error {
	cp := *o
	cp.Items, cp.Payments = nil, nil
	t.staged = append(t.staged, func(s *memStore) { s.orders[cp.ID] = cp })
	return nil
}

func (t *memTx) CreateOrderItem(_ context.Context, it *OrderItem) error {
	cp := *it
	t.staged = append(t.staged, func(s *memStore) { s.items[cp.OrderID] = append(s.items[cp.OrderID], cp) })
	return nil
}

func (t *memTx) CreatePayment(_ context.Context, p *Payment) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, ps := range t.s.payments {
		for _, existing := range ps {
			if existing.TransactionID == p.TransactionID {
				return Errf(KindConflict, "unique constraint violated: payments_transaction_id")
			}
		}
	}
	cp := *p
	t.staged = append(t.staged, func(s *memStore) { s.payments[cp.OrderID] = append(s.payments[cp.OrderID], cp) })
	return nil
}

func (t *memTx) GetPendingPaymentForUpdate(_ context.Context, orderID string) (*Payment, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, p := range t.s.payments[orderID] {
		if p.Status == PaymentPending {
			cp := p
			return &cp, nil
		}
	}
	return nil, Errf(KindNotFound, "no pending payment found for order %s", orderID)
}

func (t *memTx) UpdatePayment(_ context.Context, p *Payment) error {
	cp := *p
	t.staged = append(t.staged, func(s *memStore) {
		ps := s.payments[cp.OrderID]
		for i := range ps {
			if ps[i].ID == cp.ID {
				ps[i] = cp
			}
		}
	})
	return nil
}

func (t *memTx) CancelPendingPayments(_ context.Context, orderID, errMsg string) (int64, error) {
	t.s.mu.Lock()
	var n int64
	for _, p := range t.s.payments[orderID] {
		if p.Status == PaymentPending || p.Status == PaymentProcessing {
			n++
		}
	}
	t.s.mu.Unlock()

	t.staged = append(t.staged, func(s *memStore) {
		ps := s.payments[orderID]
		for i := range ps {
			if ps[i].Status == PaymentPending || ps[i].Status == PaymentProcessing {
				ps[i].Status = PaymentCancelled
				ps[i].ErrorMessage = errMsg
			}
		}
	})
	return n, nil
}

func (t *memTx) GetCompletedPayment(_ context.Context, orderID string) (*Payment, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, p := range t.s.payments[orderID] {
		if p.Status == PaymentCompleted {
			cp := p
			return &cp, nil
		}
	}
	return nil, Errf(KindNotFound, "no completed payment found for order %s", orderID)
}
