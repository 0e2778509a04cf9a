package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/cineverse/pkg/db"
	"github.com/dmitrymomot/cineverse/pkg/logger"
	"github.com/dmitrymomot/cineverse/pkg/query"
	"github.com/dmitrymomot/cineverse/pkg/validator"
)

// Service runs subscription payments end to end.
type Service struct {
	conn      *db.Conn
	repo      *Repository
	providers map[string]Provider
	log       *slog.Logger
	now       func() time.Time
	cfg       Config
}

// Option configures a Service.
type Option func(*Service)

// WithProvider registers p under p.Name(), replacing any previous one.
func WithProvider(p Provider) Option {
	return func(s *Service) { s.providers[p.Name()] = p }
}

func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides time.Now for references and subscription periods.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service without providers; register them with
// WithProvider.
func NewService(conn *db.Conn, opts ...Option) *Service {
	s := &Service{
		conn:      conn,
		providers: map[string]Provider{},
		log:       logger.NewNope(),
		now:       time.Now,
		cfg:       Config{Currency: "RWF", Country: "RW", Description: "CineVerse Subscription"},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.repo = &Repository{conn: conn, now: s.now}
	return s
}

// Repository exposes the transaction ledger.
func (s *Service) Repository() *Repository { return s.repo }

// Plans returns the plan catalog.
func (s *Service) Plans() []Plan { return Plans() }

// SubscribeInput is the subscribe form.
type SubscribeInput struct {
	Plan   string `json:"plan" validate:"required,oneof=basic standard premium"`
	Method string `json:"payment_method" validate:"required,oneof=mtn airtel"`
	Phone  string `json:"phone" validate:"required"`
	UserID int64  `json:"-"`
}

// Subscribe creates a pending transaction for the plan and asks the
// method's provider to collect it.
func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) (*Transaction, error) {
	verrs, err := validate(in)
	if err != nil {
		return nil, err
	}
	phone := NormalizePhone(in.Phone)
	if in.Phone != "" && len(phone) < 9 {
		verrs.Add("phone", "The phone must be a valid mobile number.")
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	plan, ok := FindPlan(in.Plan)
	if !ok {
		return nil, ErrUnknownPlan
	}
	provider, ok := s.providers[in.Method]
	if !ok {
		return nil, ErrProviderUnavailable
	}

	t := &Transaction{
		UserID:    in.UserID,
		Reference: NewReference(s.now()),
		Provider:  in.Method,
		Plan:      plan.ID,
		Amount:    plan.Amount,
		Currency:  s.cfg.Currency,
		Phone:     phone,
		Status:    StatusPending,
	}
	if _, err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	receipt, err := provider.RequestPayment(ctx, Request{
		Reference:   t.Reference,
		Phone:       phone,
		Currency:    t.Currency,
		Country:     s.cfg.Country,
		Description: s.cfg.Description,
		Amount:      t.Amount,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "payment request failed",
			slog.String("reference", t.Reference),
			slog.String("provider", in.Method),
			slog.Any("error", err),
		)
		if _, uerr := s.repo.UpdateStatus(ctx, t.Reference, StatusFailed, map[string]any{"error": err.Error()}); uerr != nil {
			return nil, errors.Join(ErrPaymentFailed, err, uerr)
		}
		return nil, errors.Join(ErrPaymentFailed, err)
	}

	if receipt.ExternalID != "" && receipt.ExternalID != t.Reference {
		if err := s.repo.SetExternalID(ctx, t.ID, receipt.ExternalID); err != nil {
			return nil, err
		}
		t.ExternalID = receipt.ExternalID
	}
	if receipt.Status != "" && receipt.Status != StatusPending {
		return s.HandleCallback(ctx, Callback{Provider: in.Method, Reference: t.Reference, Status: receipt.Status})
	}
	return t, nil
}

// HandleCallback records an operator outcome. The first completed callback
// activates the subscription; repeats leave the ledger unchanged.
func (s *Service) HandleCallback(ctx context.Context, cb Callback) (*Transaction, error) {
	if cb.Reference == "" {
		return nil, ErrInvalidCallback
	}

	var out *Transaction
	err := s.conn.Transaction(ctx, func(tx *db.Conn) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByReference(ctx, cb.Reference)
		if err != nil {
			return err
		}
		if current.Status == StatusCompleted || current.Status == cb.Status {
			out = current
			return nil
		}

		updated, err := repo.UpdateStatus(ctx, cb.Reference, cb.Status, cb.Metadata)
		if err != nil {
			return err
		}
		out = updated
		if updated.Status != StatusCompleted {
			return nil
		}

		plan, ok := FindPlan(updated.Plan)
		if !ok {
			return ErrUnknownPlan
		}
		_, err = subscriptions{conn: tx}.activate(ctx, updated, plan, s.now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "payment status updated",
		slog.String("reference", out.Reference),
		slog.String("provider", cb.Provider),
		slog.String("status", out.Status),
	)
	return out, nil
}

// Subscription returns the user's running subscription or ErrNoSubscription.
func (s *Service) Subscription(ctx context.Context, userID int64) (*Subscription, error) {
	return subscriptions{conn: s.conn}.active(ctx, userID, s.now().UTC())
}

// CancelSubscription stops the user's active subscriptions.
func (s *Service) CancelSubscription(ctx context.Context, userID int64) error {
	return subscriptions{conn: s.conn}.cancel(ctx, userID, s.now().UTC())
}

// Transactions pages through the user's payments.
func (s *Service) Transactions(ctx context.Context, userID int64, page, perPage int) ([]Transaction, *query.Page, error) {
	return s.repo.ByUser(ctx, userID, page, perPage)
}

// Transaction returns one of the user's payments.
func (s *Service) Transaction(ctx context.Context, userID, id int64) (*Transaction, error) {
	return s.repo.FindForUser(ctx, userID, id)
}

// Summary aggregates all payments.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	return s.repo.Summary(ctx)
}

func validate(v any) (validator.ValidationErrors, error) {
	err := validator.Struct(v)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, nil
	}
	return nil, err
}
