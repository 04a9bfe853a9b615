package orders

import (
	"errors"
	"fmt"
)

// Kind mengelompokkan kegagalan engine supaya adapter bisa branching
// tanpa string matching.
type Kind string

const (
	KindInvalidInput    Kind = "INVALID_INPUT"
	KindInvalidState    Kind = "INVALID_STATE"
	KindNotFound        Kind = "NOT_FOUND"
	KindPaymentDeclined Kind = "PAYMENT_DECLINED"
	KindLockTimeout     Kind = "LOCK_TIMEOUT" // transient, boleh retry
	KindConflict        Kind = "CONFLICT"     // unique constraint (order_number / transaction_id)
)

type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf mengembalikan Kind kalau err (atau salah satu wrap-nya) adalah *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
