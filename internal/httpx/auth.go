package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-commerce-orders.git/internal/orders"
)

type ctxKey int

const principalKey ctxKey = iota

// WithPrincipal membaca identitas yang sudah diverifikasi upstream gateway
// (header X-User-*). Tanpa header = anonim; engine yang memutuskan operasi
// mana yang butuh principal.
func WithPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := orders.Principal{
			UserID:   r.Header.Get("X-User-Id"),
			Email:    r.Header.Get("X-User-Email"),
			FullName: r.Header.Get("X-User-Name"),
			Phone:    r.Header.Get("X-User-Phone"),
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
	})
}

func PrincipalFrom(ctx context.Context) orders.Principal {
	p, _ := ctx.Value(principalKey).(orders.Principal)
	return p
}
