package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusProcessing},
		{StatusPending, StatusCancelled},
		{StatusPending, StatusFailed},
		{StatusProcessing, StatusConfirmed},
		{StatusProcessing, StatusCancelled},
		{StatusProcessing, StatusFailed},
		{StatusConfirmed, StatusCompleted},
		{StatusConfirmed, StatusCancelled},
		{StatusCompleted, StatusRefunded},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr.from, tr.to), "%s -> %s should be allowed", tr.from, tr.to)
	}

	denied := []struct{ from, to Status }{
		{StatusPending, StatusConfirmed},  // skip
		{StatusPending, StatusCompleted},  // skip
		{StatusConfirmed, StatusPending},  // reverse
		{StatusCompleted, StatusPending},  // reverse
		{StatusCancelled, StatusPending},  // keluar dari terminal
		{StatusFailed, StatusProcessing},  // keluar dari terminal
		{StatusRefunded, StatusCompleted}, // keluar dari terminal
		{StatusProcessing, StatusRefunded},
		{StatusCancelled, StatusCancelled},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr.from, tr.to), "%s -> %s should be denied", tr.from, tr.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusRefunded.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())
	// COMPLETED masih bisa REFUNDED
	assert.False(t, StatusCompleted.IsTerminal())
}

func TestPaymentMethodValid(t *testing.T) {
	assert.True(t, MethodCreditCard.Valid())
	assert.True(t, MethodCrypto.Valid())
	assert.False(t, PaymentMethod("WIRE").Valid())
	assert.False(t, PaymentMethod("").Valid())
}
