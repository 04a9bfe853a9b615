package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-commerce-orders.git/internal/orders"
)

type fakeCustomerEngine struct {
	getFn    func(ctx context.Context, p orders.Principal) (*orders.Customer, error)
	updateFn func(ctx context.Context, p orders.Principal, draft orders.CustomerDraft) (*orders.Customer, error)
}

func (f *fakeCustomerEngine) GetOrCreateCustomer(ctx context.Context, p orders.Principal) (*orders.Customer, error) {
	return f.getFn(ctx, p)
}

func (f *fakeCustomerEngine) UpdateCustomer(ctx context.Context, p orders.Principal, draft orders.CustomerDraft) (*orders.Customer, error) {
	return f.updateFn(ctx, p, draft)
}

func profileRig(eng *fakeCustomerEngine) http.Handler {
	h := &CustomersHandler{Engine: eng}
	r := NewRouter()
	h.Register(r)
	return r
}

func TestGetProfileRequiresPrincipal(t *testing.T) {
	r := profileRig(&fakeCustomerEngine{})
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetProfile(t *testing.T) {
	eng := &fakeCustomerEngine{
		getFn: func(_ context.Context, p orders.Principal) (*orders.Customer, error) {
			assert.Equal(t, "user-7", p.UserID)
			return &orders.Customer{ID: "cust-7", UserID: "user-7", Email: "dewi@example.com", FullName: "Dewi"}, nil
		},
	}
	r := profileRig(eng)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("X-User-Id", "user-7")
	req.Header.Set("X-User-Email", "dewi@example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp customerResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cust-7", resp.ID)
	assert.Equal(t, "dewi@example.com", resp.Email)
}

func TestUpdateProfile(t *testing.T) {
	eng := &fakeCustomerEngine{
		updateFn: func(_ context.Context, p orders.Principal, draft orders.CustomerDraft) (*orders.Customer, error) {
			assert.Equal(t, "user-7", p.UserID)
			assert.Equal(t, "Jakarta", draft.City)
			return &orders.Customer{ID: "cust-7", Email: draft.Email, FullName: draft.FullName, City: draft.City}, nil
		},
	}
	r := profileRig(eng)

	body := `{"email": "dewi@example.com", "full_name": "Dewi Lestari", "city": "Jakarta"}`
	req := httptest.NewRequest(http.MethodPut, "/profile", strings.NewReader(body))
	req.Header.Set("X-User-Id", "user-7")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp customerResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Dewi Lestari", resp.FullName)
}
