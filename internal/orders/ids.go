package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Format: <PREFIX>-<yyyymmddhhmmss>-<suffix hex uppercase>.
// Uniqueness di sini cuma advisory; yang menjamin tetap unique constraint
// di storage (tabrakan -> Conflict, caller generate ulang).

func NewOrderNumber() string {
	return newID("ORD", 6)
}

func NewTransactionID() string {
	return newID("TXN", 8)
}

func newID(prefix string, suffixLen int) string {
	ts := time.Now().UTC().Format("20060102150405")
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s-%s-%s", prefix, ts, strings.ToUpper(raw[:suffixLen]))
}
