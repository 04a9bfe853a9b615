package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-commerce-orders.git/internal/orders"
)

// CustomerEngine: subset engine untuk profile endpoint.
type CustomerEngine interface {
	GetOrCreateCustomer(ctx context.Context, p orders.Principal) (*orders.Customer, error)
	UpdateCustomer(ctx context.Context, p orders.Principal, draft orders.CustomerDraft) (*orders.Customer, error)
}

type CustomersHandler struct {
	Engine CustomerEngine
}

func (h *CustomersHandler) Register(r *chi.Mux) {
	r.Get("/profile", h.getProfile)
	r.Put("/profile", h.updateProfile)
}

type customerResp struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

func toCustomerResp(c *orders.Customer) customerResp {
	return customerResp{
		ID:         c.ID,
		Email:      c.Email,
		FullName:   c.FullName,
		Phone:      c.Phone,
		Address:    c.Address,
		City:       c.City,
		Country:    c.Country,
		PostalCode: c.PostalCode,
	}
}

func (h *CustomersHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	if !p.Authenticated() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Engine.GetOrCreateCustomer(ctx, p)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResp(c))
}

func (h *CustomersHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	if !p.Authenticated() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var draft orders.CustomerDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.Engine.UpdateCustomer(ctx, p, draft)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResp(c))
}
