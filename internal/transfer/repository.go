package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-registry/meridian-registry/internal/billing"
	"github.com/meridian-registry/meridian-registry/internal/history"
	"github.com/meridian-registry/meridian-registry/internal/platform/db"
	"github.com/meridian-registry/meridian-registry/internal/poll"
	"github.com/meridian-registry/meridian-registry/internal/resource"
)

// Repository scopes flow mutations to one resource's transaction group.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the writes a flow may perform inside its transaction.
// All of them commit together or not at all.
type TxRepository interface {
	GetResourceForUpdate(ctx context.Context, id string) (resource.Resource, error)
	UpdateResourceTransfer(ctx context.Context, id string, td resource.TransferData, at time.Time) error
	UpdateResourceOnTransferred(ctx context.Context, res resource.Resource, at time.Time) error

	InsertOneTime(ctx context.Context, ev billing.OneTime) error
	InsertRecurring(ctx context.Context, ev billing.Recurring) error
	InsertCancellation(ctx context.Context, ev billing.Cancellation) error
	DeleteBillingEvent(ctx context.Context, id uuid.UUID) error
	UpdateRecurrenceEnd(ctx context.Context, id uuid.UUID, end time.Time) error

	InsertPollMessage(ctx context.Context, m poll.Message) error
	DeletePollMessage(ctx context.Context, id uuid.UUID) error

	AppendHistory(ctx context.Context, e history.Entry) error
}

type repository struct {
	db          *pgxpool.Pool
	maxAttempts int
}

// NewRepository returns a Postgres-backed transfer repository. maxAttempts
// bounds optimistic retries on serialization conflicts.
func NewRepository(pool *pgxpool.Pool, maxAttempts int) Repository {
	return &repository{db: pool, maxAttempts: maxAttempts}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, r.maxAttempts, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetResourceForUpdate(ctx context.Context, id string) (resource.Resource, error) {
	res, err := resource.ScanResource(r.tx.QueryRow(ctx, resource.SnapshotQuery(true), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return resource.Resource{}, fmt.Errorf("%w: %s", resource.ErrNotFound, id)
		}
		return resource.Resource{}, fmt.Errorf("transfer: lock resource %s: %w", id, err)
	}
	return res, nil
}

func (r *txRepository) UpdateResourceTransfer(ctx context.Context, id string, td resource.TransferData, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE resources SET
transfer_status = $2, transfer_gaining_id = $3, transfer_losing_id = $4,
transfer_request_time = $5, transfer_pending_expiration = $6, transfer_extended_years = $7,
sa_transfer_event_id = $8, sa_autorenew_event_id = $9, sa_autorenew_poll_id = $10, sa_autorenew_cancellation_id = $11,
updated_at = $12
WHERE id = $1`,
		id, td.Status, td.GainingRegistrarID, td.LosingRegistrarID,
		td.RequestTime, td.PendingExpiration, td.ExtendedYears,
		td.ServerApprove.TransferEventID, td.ServerApprove.AutorenewEventID,
		td.ServerApprove.AutorenewPollID, td.ServerApprove.AutorenewCancellationID, at)
	if err != nil {
		return fmt.Errorf("transfer: update transfer data for %s: %w", id, err)
	}
	return nil
}

func (r *txRepository) UpdateResourceOnTransferred(ctx context.Context, res resource.Resource, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE resources SET
sponsor_id = $2, expiration_time = $3, autorenew_event_id = $4, autorenew_poll_id = $5,
transfer_status = $6, transfer_gaining_id = $7, transfer_losing_id = $8,
transfer_request_time = $9, transfer_pending_expiration = $10, transfer_extended_years = $11,
sa_transfer_event_id = $12, sa_autorenew_event_id = $13, sa_autorenew_poll_id = $14, sa_autorenew_cancellation_id = $15,
updated_at = $16
WHERE id = $1`,
		res.ID, res.SponsorID, res.ExpirationTime, res.AutorenewEventID, res.AutorenewPollID,
		res.Transfer.Status, res.Transfer.GainingRegistrarID, res.Transfer.LosingRegistrarID,
		res.Transfer.RequestTime, res.Transfer.PendingExpiration, res.Transfer.ExtendedYears,
		res.Transfer.ServerApprove.TransferEventID, res.Transfer.ServerApprove.AutorenewEventID,
		res.Transfer.ServerApprove.AutorenewPollID, res.Transfer.ServerApprove.AutorenewCancellationID, at)
	if err != nil {
		return fmt.Errorf("transfer: update resource %s: %w", res.ID, err)
	}
	return nil
}

func (r *txRepository) InsertOneTime(ctx context.Context, ev billing.OneTime) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO billing_events (id, kind, reason, target_id, registrar_id, history_id, event_time, billing_time, cost, currency, period_years)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		ev.ID, billing.KindOneTime, ev.Reason, ev.TargetID, ev.RegistrarID, ev.HistoryID,
		ev.EventTime, ev.BillingTime, ev.Cost.Amount, ev.Cost.Currency, ev.PeriodYears)
	if err != nil {
		return fmt.Errorf("transfer: insert one-time event: %w", err)
	}
	return nil
}

func (r *txRepository) InsertRecurring(ctx context.Context, ev billing.Recurring) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO billing_events (id, kind, reason, target_id, registrar_id, history_id, event_time, recurrence_end)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		ev.ID, billing.KindRecurring, ev.Reason, ev.TargetID, ev.RegistrarID, ev.HistoryID,
		ev.EventTime, ev.RecurrenceEnd)
	if err != nil {
		return fmt.Errorf("transfer: insert recurring event: %w", err)
	}
	return nil
}

func (r *txRepository) InsertCancellation(ctx context.Context, ev billing.Cancellation) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO billing_events (id, kind, reason, target_id, registrar_id, history_id, event_time, billing_time, cancelled_event_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		ev.ID, billing.KindCancellation, ev.Reason, ev.TargetID, ev.RegistrarID, ev.HistoryID,
		ev.EventTime, ev.BillingTime, ev.EventID)
	if err != nil {
		return fmt.Errorf("transfer: insert cancellation: %w", err)
	}
	return nil
}

func (r *txRepository) DeleteBillingEvent(ctx context.Context, id uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM billing_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("transfer: delete billing event %s: %w", id, err)
	}
	return nil
}

func (r *txRepository) UpdateRecurrenceEnd(ctx context.Context, id uuid.UUID, end time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE billing_events SET recurrence_end = $2 WHERE id = $1 AND kind = $3`,
		id, end, billing.KindRecurring)
	if err != nil {
		return fmt.Errorf("transfer: update recurrence end %s: %w", id, err)
	}
	return nil
}

func (r *txRepository) InsertPollMessage(ctx context.Context, m poll.Message) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO poll_messages (id, kind, registrar_id, target_id, history_id, event_time, autorenew_end, msg)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		m.ID, m.Kind, m.RegistrarID, m.TargetID, m.HistoryID, m.EventTime, m.AutorenewEnd, m.Msg)
	if err != nil {
		return fmt.Errorf("transfer: insert poll message: %w", err)
	}
	return nil
}

func (r *txRepository) DeletePollMessage(ctx context.Context, id uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM poll_messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("transfer: delete poll message %s: %w", id, err)
	}
	return nil
}

func (r *txRepository) AppendHistory(ctx context.Context, e history.Entry) error {
	artifacts, err := json.Marshal(e.Artifacts)
	if err != nil {
		return fmt.Errorf("transfer: marshal history artifacts: %w", err)
	}
	_, err = r.tx.Exec(ctx, `INSERT INTO history_entries (id, type, resource_id, registrar_id, occurred_at, artifacts)
VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.Type, e.ResourceID, e.RegistrarID, e.Time, artifacts)
	if err != nil {
		return fmt.Errorf("transfer: append history: %w", err)
	}
	return nil
}
