package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Semua jumlah uang di sistem ini fixed-precision 2 desimal.

var (
	taxRate   = decimal.RequireFromString("0.12")
	tolerance = decimal.RequireFromString("0.01")
)

// Parse membaca amount dari string input (boundary tidak boleh kirim float).
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

func MustParse(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Tax menghitung pajak 12% dari subtotal, dibulatkan ke 2 desimal.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(taxRate).Round(2)
}

// LineTotal = unit price * qty.
func LineTotal(unitPrice decimal.Decimal, qty int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(qty)))
}

// WithinTolerance: |a-b| <= 0.01, toleransi pembulatan per invariant order.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
