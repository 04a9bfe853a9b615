package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID         string
	UserID     string // kosong = guest checkout
	Email      string
	FullName   string
	Phone      string
	Address    string
	City       string
	Country    string
	PostalCode string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Order struct {
	ID              string
	CustomerID      string
	OrderNumber     string
	Status          Status // lihat status.go
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Shipping        decimal.Decimal
	Total           decimal.Decimal // = subtotal + tax + shipping (toleransi 0.01)
	Notes           string
	ShippingAddress string
	Version         int // audit counter, bukan mekanisme lock (lock = FOR UPDATE di store)
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items    []OrderItem
	Payments []Payment
}

// OrderItem adalah snapshot produk saat order dibuat; immutable setelah itu.
type OrderItem struct {
	ID          string
	OrderID     string
	ProductName string
	ProductSKU  string
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal // = unit_price * quantity
}

type Payment struct {
	ID              string
	OrderID         string
	TransactionID   string
	Method          PaymentMethod
	Amount          decimal.Decimal // negatif untuk refund entry
	Currency        string
	Status          PaymentStatus
	Gateway         string
	GatewayResponse map[string]any
	ErrorMessage    string
	ProcessedAt     *time.Time // wajib terisi kalau status COMPLETED
	CreatedAt       time.Time
}

// Principal adalah identitas ter-autentikasi dari boundary (atau kosong = anonim).
type Principal struct {
	UserID   string
	Email    string
	FullName string
	Phone    string
}

func (p Principal) Authenticated() bool { return p.UserID != "" }
