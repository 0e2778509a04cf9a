package handlers

import (
	"net/http"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/pkg/payment"
	"github.com/dmitrymomot/cineverse/pkg/query"
)

// Payment serves plans, subscriptions and transaction history under /payment.
type Payment struct {
	payments *payment.Service
}

func NewPayment(s *payment.Service) *Payment {
	return &Payment{payments: s}
}

func (h *Payment) Routes(r *internal.Router) {
	r.Group(internal.GroupAttrs{Prefix: "/payment", Middleware: []string{"auth"}}, func(r *internal.Router) {
		r.GET("/plans", h.plans)
		r.POST("/subscribe", h.subscribe)
		r.GET("/subscription", h.subscription)
		r.POST("/cancel-subscription", h.cancel)
		r.GET("/transactions", h.transactions)
		r.GET("/transactions/{id}", h.transaction, internal.Where("id", idPattern))
	})
}

func (h *Payment) plans(c internal.Context) error {
	return ok(c, h.payments.Plans())
}

func (h *Payment) subscribe(c internal.Context) error {
	var in payment.SubscribeInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	in.UserID = userID(c)

	txn, err := h.payments.Subscribe(c, in)
	if err != nil {
		return err
	}
	return success(c, http.StatusAccepted, "Payment request sent. Approve it on your phone.", txn)
}

func (h *Payment) subscription(c internal.Context) error {
	sub, err := h.payments.Subscription(c, userID(c))
	if err != nil {
		return err
	}
	return ok(c, sub)
}

func (h *Payment) cancel(c internal.Context) error {
	if err := h.payments.CancelSubscription(c, userID(c)); err != nil {
		return err
	}
	return success(c, http.StatusOK, "Subscription cancelled", nil)
}

// pagination is page metadata without the rows.
type pagination struct {
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
}

func paginationOf(p *query.Page) pagination {
	return pagination{Total: p.Total, PerPage: p.PerPage, CurrentPage: p.CurrentPage, LastPage: p.LastPage}
}

func (h *Payment) transactions(c internal.Context) error {
	page, perPage := pageParams(c)
	list, p, err := h.payments.Transactions(c, userID(c), page, perPage)
	if err != nil {
		return err
	}
	return ok(c, map[string]any{"transactions": list, "pagination": paginationOf(p)})
}

func (h *Payment) transaction(c internal.Context) error {
	id, ok := internal.ParamOK[int64](c, "id")
	if !ok {
		return internal.ErrNotFound("Transaction not found")
	}
	txn, err := h.payments.Transaction(c, userID(c), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", txn)
}
