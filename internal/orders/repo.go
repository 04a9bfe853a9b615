package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

/// PGStore: implementasi Store di atas PostgreSQL (pgx).
type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapPgError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (s *PGStore) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	o, err := scanOrder(s.DB.QueryRow(ctx, selectOrder+` WHERE id=$1`, orderID))
	if err != nil {
		return nil, err
	}
	if o.Items, err = queryItems(ctx, s.DB, orderID); err != nil {
		return nil, err
	}
	if o.Payments, err = queryPayments(ctx, s.DB, orderID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PGStore) ListOrders(ctx context.Context, customerID string, limit, offset int) ([]Order, error) {
	rows, err := s.DB.Query(ctx, selectOrder+`
		WHERE customer_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		customerID, limit, offset)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err)
	}
	for i := range out {
		if out[i].Items, err = queryItems(ctx, s.DB, out[i].ID); err != nil {
			return nil, err
		}
		if out[i].Payments, err = queryPayments(ctx, s.DB, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// pgTx membungkus satu transaksi; semua lock FOR UPDATE hidup sampai commit/rollback.
type pgTx struct{ tx pgx.Tx }

const selectCustomer = `SELECT id, COALESCE(user_id,''), email, full_name, phone_number,
	address, city, country, postal_code, created_at, updated_at FROM customers`

const selectOrder = `SELECT id, customer_id, order_number, status, subtotal, tax_amount,
	shipping_cost, total_amount, notes, shipping_address, version, created_at, updated_at FROM orders`

const selectPayment = `SELECT id, order_id, transaction_id, payment_method, amount, currency,
	status, payment_gateway, gateway_response, error_message, processed_at, created_at FROM payments`

func (t *pgTx) GetCustomerForUpdate(ctx context.Context, customerID string) (*Customer, error) {
	return scanCustomer(t.tx.QueryRow(ctx, selectCustomer+` WHERE id=$1 FOR UPDATE`, customerID))
}

func (t *pgTx) GetCustomerByUser(ctx context.Context, userID string) (*Customer, error) {
	return scanCustomer(t.tx.QueryRow(ctx, selectCustomer+` WHERE user_id=$1`, userID))
}

func (t *pgTx) CreateCustomer(ctx context.Context, c *Customer) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO customers(id, user_id, email, full_name, phone_number, address, city, country, postal_code, created_at, updated_at)
		VALUES ($1, NULLIF($2,''), $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.UserID, c.Email, c.FullName, c.Phone, c.Address, c.City, c.Country, c.PostalCode, c.CreatedAt, c.UpdatedAt)
	return mapPgError(err)
}

func (t *pgTx) UpdateCustomer(ctx context.Context, c *Customer) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE customers SET email=$2, full_name=$3, phone_number=$4, address=$5, city=$6,
			country=$7, postal_code=$8, updated_at=$9
		WHERE id=$1`,
		c.ID, c.Email, c.FullName, c.Phone, c.Address, c.City, c.Country, c.PostalCode, c.UpdatedAt)
	return mapPgError(err)
}

func (t *pgTx) CreateOrder(ctx context.Context, o *Order) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders(id, customer_id, order_number, status, subtotal, tax_amount, shipping_cost,
			total_amount, notes, shipping_address, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		o.ID, o.CustomerID, o.OrderNumber, o.Status, o.Subtotal, o.Tax, o.Shipping,
		o.Total, o.Notes, o.ShippingAddress, o.Version, o.CreatedAt, o.UpdatedAt)
	return mapPgError(err)
}

// GetOrderForUpdate = akses pertama semua operasi mutasi: exclusive row lock
// di order men-serialize mutasi concurrent untuk order id yang sama.
func (t *pgTx) GetOrderForUpdate(ctx context.Context, orderID string) (*Order, error) {
	return scanOrder(t.tx.QueryRow(ctx, selectOrder+` WHERE id=$1 FOR UPDATE`, orderID))
}

func (t *pgTx) UpdateOrder(ctx context.Context, o *Order) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE orders SET status=$2, subtotal=$3, tax_amount=$4, shipping_cost=$5, total_amount=$6,
			notes=$7, shipping_address=$8, version=$9, updated_at=$10
		WHERE id=$1`,
		o.ID, o.Status, o.Subtotal, o.Tax, o.Shipping, o.Total, o.Notes, o.ShippingAddress, o.Version, o.UpdatedAt)
	return mapPgError(err)
}

func (t *pgTx) CreateOrderItem(ctx context.Context, it *OrderItem) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO order_items(id, order_id, product_name, product_sku, quantity, unit_price, total_price)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		it.ID, it.OrderID, it.ProductName, it.ProductSKU, it.Quantity, it.UnitPrice, it.TotalPrice)
	return mapPgError(err)
}

func (t *pgTx) CreatePayment(ctx context.Context, p *Payment) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO payments(id, order_id, transaction_id, payment_method, amount, currency, status,
			payment_gateway, gateway_response, error_message, processed_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,COALESCE($9::jsonb,'{}'::jsonb),$10,$11,$12)`,
		p.ID, p.OrderID, p.TransactionID, p.Method, p.Amount, p.Currency, p.Status,
		p.Gateway, p.GatewayResponse, p.ErrorMessage, p.ProcessedAt, p.CreatedAt)
	return mapPgError(err)
}

func (t *pgTx) GetPendingPaymentForUpdate(ctx context.Context, orderID string) (*Payment, error) {
	p, err := scanPayment(t.tx.QueryRow(ctx, selectPayment+`
		WHERE order_id=$1 AND status=$2 ORDER BY created_at LIMIT 1 FOR UPDATE`,
		orderID, PaymentPending))
	if err != nil {
		if IsKind(err, KindNotFound) {
			return nil, Errf(KindNotFound, "no pending payment found for order %s", orderID)
		}
		return nil, err
	}
	return p, nil
}

func (t *pgTx) UpdatePayment(ctx context.Context, p *Payment) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE payments SET status=$2, payment_gateway=$3, gateway_response=COALESCE($4::jsonb,'{}'::jsonb), error_message=$5, processed_at=$6
		WHERE id=$1`,
		p.ID, p.Status, p.Gateway, p.GatewayResponse, p.ErrorMessage, p.ProcessedAt)
	return mapPgError(err)
}

func (t *pgTx) CancelPendingPayments(ctx context.Context, orderID, errMsg string) (int64, error) {
	ct, err := t.tx.Exec(ctx, `
		UPDATE payments SET status=$2, error_message=$3
		WHERE order_id=$1 AND status IN ($4, $5)`,
		orderID, PaymentCancelled, errMsg, PaymentPending, PaymentProcessing)
	if err != nil {
		return 0, mapPgError(err)
	}
	return ct.RowsAffected(), nil
}

func (t *pgTx) GetCompletedPayment(ctx context.Context, orderID string) (*Payment, error) {
	p, err := scanPayment(t.tx.QueryRow(ctx, selectPayment+`
		WHERE order_id=$1 AND status=$2 ORDER BY created_at LIMIT 1`,
		orderID, PaymentCompleted))
	if err != nil {
		if IsKind(err, KindNotFound) {
			return nil, Errf(KindNotFound, "no completed payment found for order %s", orderID)
		}
		return nil, err
	}
	return p, nil
}

// ---- scan helpers ----

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.UserID, &c.Email, &c.FullName, &c.Phone,
		&c.Address, &c.City, &c.Country, &c.PostalCode, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, Errf(KindNotFound, "customer not found")
		}
		return nil, mapPgError(err)
	}
	return &c, nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.OrderNumber, &o.Status, &o.Subtotal, &o.Tax,
		&o.Shipping, &o.Total, &o.Notes, &o.ShippingAddress, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, Errf(KindNotFound, "order not found")
		}
		return nil, mapPgError(err)
	}
	return &o, nil
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.TransactionID, &p.Method, &p.Amount, &p.Currency,
		&p.Status, &p.Gateway, &p.GatewayResponse, &p.ErrorMessage, &p.ProcessedAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, Errf(KindNotFound, "payment not found")
		}
		return nil, mapPgError(err)
	}
	return &p, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryItems(ctx context.Context, q querier, orderID string) ([]OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_name, product_sku, quantity, unit_price, total_price
		FROM order_items WHERE order_id=$1 ORDER BY product_name`, orderID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductName, &it.ProductSKU,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, mapPgError(err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func queryPayments(ctx context.Context, q querier, orderID string) ([]Payment, error) {
	rows, err := q.Query(ctx, selectPayment+` WHERE order_id=$1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.TransactionID, &p.Method, &p.Amount, &p.Currency,
			&p.Status, &p.Gateway, &p.GatewayResponse, &p.ErrorMessage, &p.ProcessedAt, &p.CreatedAt); err != nil {
			return nil, mapPgError(err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// mapPgError menerjemahkan error postgres ke taxonomy engine:
// 23505 (unique) -> Conflict, 55P03/40P01 (lock) -> LockTimeout.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return Errf(KindConflict, "unique constraint violated: %s", pgErr.ConstraintName)
		case "55P03", "40P01":
			return Errf(KindLockTimeout, "row lock unavailable, retry the operation")
		}
	}
	return err
}
