package orders

import (
	"context"

	"github.com/shopspring/decimal"
)

type ItemInput struct {
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type CustomerDraft struct {
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

type CreateOrderInput struct {
	CustomerID      string // kalau kosong, Customer (draft) wajib diisi
	Customer        *CustomerDraft
	Items           []ItemInput
	ShippingAddress string
	ShippingCost    decimal.Decimal
	Notes           string
	Method          PaymentMethod
	Principal       Principal // zero value = guest
}

// Store adalah entity store relational di belakang engine. Semua operasi
// mutasi jalan di dalam WithTx; fn return nil -> commit, selain itu rollback.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Read-only, tanpa lock (untuk display).
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	ListOrders(ctx context.Context, customerID string, limit, offset int) ([]Order, error)
}

// Tx adalah akses store di dalam satu transaksi. Method *ForUpdate mengambil
// exclusive row lock yang ditahan sampai commit/rollback.
type Tx interface {
	GetCustomerForUpdate(ctx context.Context, customerID string) (*Customer, error)
	GetCustomerByUser(ctx context.Context, userID string) (*Customer, error)
	CreateCustomer(ctx context.Context, c *Customer) error
	UpdateCustomer(ctx context.Context, c *Customer) error

	CreateOrder(ctx context.Context, o *Order) error
	GetOrderForUpdate(ctx context.Context, orderID string) (*Order, error)
	UpdateOrder(ctx context.Context, o *Order) error

	CreateOrderItem(ctx context.Context, it *OrderItem) error

	CreatePayment(ctx context.Context, p *Payment) error
	GetPendingPaymentForUpdate(ctx context.Context, orderID string) (*Payment, error)
	UpdatePayment(ctx context.Context, p *Payment) error
	CancelPendingPayments(ctx context.Context, orderID, errMsg string) (int64, error)
	GetCompletedPayment(ctx context.Context, orderID string) (*Payment, error)
}
