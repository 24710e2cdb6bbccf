package jobs

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/meridian-registry/meridian-registry/internal/jobs"
)

// LedgerIntegrityScan cross-checks pending transfers against the billing
// ledger: every PENDING resource must reference server-approve artifacts
// that exist. The scan is read-only; time-based state changes happen only
// through read-time projection, never here.
type LedgerIntegrityScan struct {
	db      *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewLedgerIntegrityScan wires the scan job.
func NewLedgerIntegrityScan(db *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerIntegrityScan {
	return &LedgerIntegrityScan{db: db, logger: logger, metrics: metrics}
}

// Run reports resources whose pending transfer references a missing
// billing event or poll message.
func (s *LedgerIntegrityScan) Run(ctx context.Context) error {
	tracker := s.metrics.Track("ledger_integrity")
	return tracker.End(s.run(ctx))
}

func (s *LedgerIntegrityScan) run(ctx context.Context) error {
	rows, err := s.db.Query(ctx, `SELECT r.id FROM resources r
WHERE r.transfer_status = 'PENDING'
  AND (NOT EXISTS (SELECT 1 FROM billing_events b WHERE b.id = r.sa_transfer_event_id)
    OR NOT EXISTS (SELECT 1 FROM billing_events b WHERE b.id = r.sa_autorenew_event_id)
    OR NOT EXISTS (SELECT 1 FROM poll_messages p WHERE p.id = r.sa_autorenew_poll_id))`)
	if err != nil {
		return err
	}
	defer rows.Close()
	var flagged int
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		flagged++
		s.logger.Error("pending transfer with missing artifacts", slog.String("resource", id))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	s.metrics.AddFlagged("ledger_integrity", flagged)
	s.logger.Info("ledger integrity scan finished", slog.Int("flagged", flagged))
	return nil
}
