package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderNumber(t *testing.T) {
	n := NewOrderNumber()
	assert.Regexp(t, `^ORD-\d{14}-[0-9A-F]{6}$`, n)
}

func TestNewTransactionID(t *testing.T) {
	id := NewTransactionID()
	assert.Regexp(t, `^TXN-\d{14}-[0-9A-F]{8}$`, id)

	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := NewTransactionID()
		assert.False(t, seen[id], "duplicate transaction id %s", id)
		seen[id] = true
	}
}
