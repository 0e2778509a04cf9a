package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/cineverse/pkg/db"
	"github.com/dmitrymomot/cineverse/pkg/query"
)

// Transaction statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Transaction is a row of payment_transactions.
type Transaction struct {
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ProcessedAt *time.Time     `json:"processed_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	UUID        string         `json:"uuid"`
	Reference   string         `json:"reference"`
	ExternalID  string         `json:"external_id,omitempty"`
	Provider    string         `json:"provider"`
	Plan        string         `json:"plan"`
	Currency    string         `json:"currency"`
	Phone       string         `json:"phone"`
	Status      string         `json:"status"`
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	Amount      int64          `json:"amount"`
}

// Repository persists transactions.
type Repository struct {
	conn *db.Conn
	now  func() time.Time
}

// NewRepository creates a Repository over conn.
func NewRepository(conn *db.Conn) *Repository {
	return &Repository{conn: conn, now: time.Now}
}

// WithTx returns a copy bound to the transactional connection tx.
func (r *Repository) WithTx(tx *db.Conn) *Repository {
	return &Repository{conn: tx, now: r.now}
}

// Create inserts t and fills in its ID, UUID and timestamps.
func (r *Repository) Create(ctx context.Context, t *Transaction) (int64, error) {
	meta, err := encodeMetadata(t.Metadata)
	if err != nil {
		return 0, err
	}
	if t.UUID == "" {
		t.UUID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	now := r.now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	id, err := r.conn.Insert(ctx, "payment_transactions", map[string]any{
		"uuid":        t.UUID,
		"user_id":     t.UserID,
		"reference":   t.Reference,
		"external_id": nullable(t.ExternalID),
		"provider":    t.Provider,
		"plan":        t.Plan,
		"amount":      t.Amount,
		"currency":    t.Currency,
		"phone":       t.Phone,
		"status":      t.Status,
		"metadata":    meta,
		"created_at":  now,
		"updated_at":  now,
	})
	if err != nil {
		return 0, err
	}
	t.ID = id
	return id, nil
}

// SetExternalID stores the operator's identifier for the transaction.
func (r *Repository) SetExternalID(ctx context.Context, id int64, externalID string) error {
	_, err := r.conn.Update(ctx, "payment_transactions",
		map[string]any{"external_id": nullable(externalID), "updated_at": r.now().UTC()},
		"id = :id", map[string]any{"id": id},
	)
	return err
}

// UpdateStatus sets the status of the transaction whose reference or
// external id equals ref. processed_at is stamped when the status becomes
// completed; non-empty metadata replaces the stored metadata.
func (r *Repository) UpdateStatus(ctx context.Context, ref, status string, metadata map[string]any) (*Transaction, error) {
	now := r.now().UTC()
	values := map[string]any{"status": status, "updated_at": now}
	if status == StatusCompleted {
		values["processed_at"] = now
	}
	if len(metadata) > 0 {
		meta, err := encodeMetadata(metadata)
		if err != nil {
			return nil, err
		}
		values["metadata"] = meta
	}

	n, err := r.conn.Update(ctx, "payment_transactions", values,
		"reference = :ref OR external_id = :ref", map[string]any{"ref": ref})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrTransactionNotFound
	}
	return r.FindByReference(ctx, ref)
}

// FindByReference loads by our reference or the operator's id.
func (r *Repository) FindByReference(ctx context.Context, ref string) (*Transaction, error) {
	return r.first(ctx, r.conn.Table("payment_transactions").
		WhereEq("reference", ref).
		OrWhere("external_id", "=", ref))
}

// Find loads a transaction by id.
func (r *Repository) Find(ctx context.Context, id int64) (*Transaction, error) {
	return r.first(ctx, r.conn.Table("payment_transactions").WhereEq("id", id))
}

// FindForUser loads a transaction only if it belongs to userID.
func (r *Repository) FindForUser(ctx context.Context, userID, id int64) (*Transaction, error) {
	return r.first(ctx, r.conn.Table("payment_transactions").WhereEq("id", id).WhereEq("user_id", userID))
}

// ByUser returns a page of a user's transactions, newest first.
func (r *Repository) ByUser(ctx context.Context, userID int64, page, perPage int) ([]Transaction, *query.Page, error) {
	p, err := r.conn.Table("payment_transactions").
		WhereEq("user_id", userID).
		OrderBy("created_at", "desc").
		OrderBy("id", "desc").
		Paginate(ctx, page, perPage)
	if err != nil {
		return nil, nil, err
	}
	out := make([]Transaction, 0, len(p.Data))
	for _, row := range p.Data {
		out = append(out, *transactionFromRow(row))
	}
	return out, p, nil
}

// Summary aggregates the ledger for the admin dashboard.
type Summary struct {
	ByStatus  map[string]int64 `json:"by_status"`
	ByPlan    map[string]int64 `json:"revenue_by_plan"`
	Revenue   int64            `json:"revenue"`
	Total     int64            `json:"total"`
	Completed int64            `json:"completed"`
}

// Summary counts transactions by status and sums completed revenue.
func (r *Repository) Summary(ctx context.Context) (*Summary, error) {
	rows, err := r.conn.Table("payment_transactions").
		Select("status", "plan", "COUNT(*) AS n", "SUM(amount) AS total").
		GroupBy("status", "plan").
		Get(ctx)
	if err != nil {
		return nil, err
	}

	s := &Summary{ByStatus: map[string]int64{}, ByPlan: map[string]int64{}}
	for _, row := range rows {
		status, n := row.String("status"), row.Int64("n")
		s.ByStatus[status] += n
		s.Total += n
		if status == StatusCompleted {
			s.Completed += n
			s.Revenue += row.Int64("total")
			s.ByPlan[row.String("plan")] += row.Int64("total")
		}
	}
	return s, nil
}

func (r *Repository) first(ctx context.Context, q *query.Builder) (*Transaction, error) {
	row, err := q.First(ctx)
	if errors.Is(err, query.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return transactionFromRow(row), nil
}

func transactionFromRow(row query.Row) *Transaction {
	t := &Transaction{
		ID:          row.Int64("id"),
		UUID:        row.String("uuid"),
		UserID:      row.Int64("user_id"),
		Reference:   row.String("reference"),
		ExternalID:  row.String("external_id"),
		Provider:    row.String("provider"),
		Plan:        row.String("plan"),
		Amount:      row.Int64("amount"),
		Currency:    row.String("currency"),
		Phone:       row.String("phone"),
		Status:      row.String("status"),
		ProcessedAt: row.NullTime("processed_at"),
		CreatedAt:   row.Time("created_at"),
		UpdatedAt:   row.Time("updated_at"),
	}
	if raw := row.String("metadata"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &t.Metadata)
	}
	return t
}

func encodeMetadata(m map[string]any) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
