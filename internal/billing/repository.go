package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-registry/meridian-registry/internal/money"
)

// ErrNotFound indicates a missing billing event.
var ErrNotFound = errors.New("billing: event not found")

// Repository provides read access to the ledger outside flow transactions.
type Repository interface {
	ListByTarget(ctx context.Context, targetID string) ([]Record, error)
}

// Record is a flattened ledger row for reporting reads. Variant-specific
// fields are nil/zero when they do not apply to the row's kind.
type Record struct {
	Header
	RowKind       Kind
	Cost          *money.Money
	PeriodYears   int
	BillingTime   *time.Time
	RecurrenceEnd *time.Time
	EventID       uuid.UUID
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a Postgres-backed ledger reader.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListByTarget(ctx context.Context, targetID string) ([]Record, error) {
	rows, err := r.db.Query(ctx, `SELECT id, kind, reason, target_id, registrar_id, history_id, event_time, billing_time, recurrence_end, cost::text, currency, period_years, cancelled_event_id
FROM billing_events WHERE target_id = $1 ORDER BY event_time`, targetID)
	if err != nil {
		return nil, fmt.Errorf("billing: list for %s: %w", targetID, err)
	}
	defer rows.Close()
	var records []Record
	for rows.Next() {
		var (
			rec      Record
			costText *string
			currency *string
			eventID  *uuid.UUID
		)
		if err := rows.Scan(&rec.ID, &rec.RowKind, &rec.Reason, &rec.TargetID, &rec.RegistrarID, &rec.HistoryID, &rec.EventTime, &rec.BillingTime, &rec.RecurrenceEnd, &costText, &currency, &rec.PeriodYears, &eventID); err != nil {
			return nil, err
		}
		if costText != nil && currency != nil {
			amount, err := decimal.NewFromString(*costText)
			if err != nil {
				return nil, fmt.Errorf("billing: cost for %s: %w", rec.ID, err)
			}
			cost, err := money.New(*currency, amount)
			if err != nil {
				return nil, err
			}
			rec.Cost = &cost
		}
		if eventID != nil {
			rec.EventID = *eventID
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
