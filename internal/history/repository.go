package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the history timeline. Writes happen only inside flow
// transactions, through the transfer repository.
type Repository interface {
	Timeline(ctx context.Context, filter TimelineFilter) ([]Entry, error)
}

// TimelineFilter bounds a timeline query.
type TimelineFilter struct {
	ResourceID  string
	RegistrarID string
	From        time.Time
	To          time.Time
	Limit       int
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a Postgres-backed history reader.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Timeline(ctx context.Context, filter TimelineFilter) ([]Entry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	rows, err := r.db.Query(ctx, `SELECT id, type, resource_id, registrar_id, occurred_at, artifacts
FROM history_entries
WHERE ($1 = '' OR resource_id = $1)
  AND ($2 = '' OR registrar_id = $2)
  AND ($3::timestamptz IS NULL OR occurred_at >= $3)
  AND ($4::timestamptz IS NULL OR occurred_at < $4)
ORDER BY occurred_at DESC
LIMIT $5`, filter.ResourceID, filter.RegistrarID, nullTime(filter.From), nullTime(filter.To), limit)
	if err != nil {
		return nil, fmt.Errorf("history: timeline: %w", err)
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var (
			e             Entry
			artifactsJSON []byte
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.ResourceID, &e.RegistrarID, &e.Time, &artifactsJSON); err != nil {
			return nil, err
		}
		if len(artifactsJSON) > 0 {
			if err := json.Unmarshal(artifactsJSON, &e.Artifacts); err != nil {
				return nil, fmt.Errorf("history: artifacts for %s: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
