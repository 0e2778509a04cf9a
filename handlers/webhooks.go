package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/pkg/payment"
)

// Webhooks receives operator and metadata-provider callbacks under /webhooks.
type Webhooks struct {
	payments *payment.Service
}

func NewWebhooks(s *payment.Service) *Webhooks {
	return &Webhooks{payments: s}
}

func (h *Webhooks) Routes(r *internal.Router) {
	r.Route("/webhooks", func(r *internal.Router) {
		r.POST("/mtn-mobile-money", h.mtn)
		r.POST("/airtel-money", h.airtel)
		r.POST("/tmdb-update", h.tmdb)
	})
}

func (h *Webhooks) mtn(c internal.Context) error {
	return h.payment(c, payment.ParseMTNCallback)
}

func (h *Webhooks) airtel(c internal.Context) error {
	return h.payment(c, payment.ParseAirtelCallback)
}

func (h *Webhooks) payment(c internal.Context, parse func([]byte) (*payment.Callback, error)) error {
	cb, err := parse(c.Request().RawBody())
	if err != nil {
		return err
	}
	txn, err := h.payments.HandleCallback(c, *cb)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Callback processed", map[string]string{
		"reference": txn.Reference,
		"status":    txn.Status,
	})
}

// tmdb acknowledges metadata change notifications. Catalog sync runs
// outside this service.
func (h *Webhooks) tmdb(c internal.Context) error {
	c.LogInfo("tmdb update received", slog.Int("bytes", len(c.Request().RawBody())))
	return success(c, http.StatusOK, "Webhook received", nil)
}
