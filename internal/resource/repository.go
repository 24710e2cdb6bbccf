package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates a resource absent from storage.
var ErrNotFound = errors.New("resource: not found")

// Repository provides snapshot reads. These are transaction-free and never
// block behind a writer; mutation happens only through flow transactions.
type Repository interface {
	Get(ctx context.Context, id string) (Resource, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a Postgres-backed resource reader.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const snapshotQuery = `SELECT id, name, kind, tld, sponsor_id, statuses, creation_time, expiration_time, deletion_time, auth_info_hash,
autorenew_event_id, autorenew_poll_id,
transfer_status, transfer_gaining_id, transfer_losing_id, transfer_request_time, transfer_pending_expiration, transfer_extended_years,
sa_transfer_event_id, sa_autorenew_event_id, sa_autorenew_poll_id, sa_autorenew_cancellation_id,
created_at, updated_at
FROM resources WHERE id = $1`

func (r *repository) Get(ctx context.Context, id string) (Resource, error) {
	res, err := ScanResource(r.db.QueryRow(ctx, snapshotQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Resource{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Resource{}, fmt.Errorf("resource: get %s: %w", id, err)
	}
	return res, nil
}

// SnapshotQuery exposes the canonical select for transactional readers that
// need the same row shape under FOR UPDATE.
func SnapshotQuery(forUpdate bool) string {
	if forUpdate {
		return snapshotQuery + " FOR UPDATE"
	}
	return snapshotQuery
}

// ScanResource maps one resources row into the model.
func ScanResource(row pgx.Row) (Resource, error) {
	var (
		res      Resource
		statuses []string
	)
	err := row.Scan(
		&res.ID, &res.Name, &res.Kind, &res.TLD, &res.SponsorID, &statuses,
		&res.CreationTime, &res.ExpirationTime, &res.DeletionTime, &res.AuthInfoHash,
		&res.AutorenewEventID, &res.AutorenewPollID,
		&res.Transfer.Status, &res.Transfer.GainingRegistrarID, &res.Transfer.LosingRegistrarID,
		&res.Transfer.RequestTime, &res.Transfer.PendingExpiration, &res.Transfer.ExtendedYears,
		&res.Transfer.ServerApprove.TransferEventID, &res.Transfer.ServerApprove.AutorenewEventID,
		&res.Transfer.ServerApprove.AutorenewPollID, &res.Transfer.ServerApprove.AutorenewCancellationID,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return Resource{}, err
	}
	res.Statuses = make([]Status, 0, len(statuses))
	for _, s := range statuses {
		res.Statuses = append(res.Statuses, Status(s))
	}
	return res, nil
}
