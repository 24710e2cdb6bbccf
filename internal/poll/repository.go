package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates a poll message that does not exist or does not
// belong to the acting registrar.
var ErrNotFound = errors.New("poll: message not found")

// Repository provides per-registrar queue access.
type Repository interface {
	ListPending(ctx context.Context, registrarID string, at time.Time) ([]Message, error)
	Ack(ctx context.Context, registrarID string, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a Postgres-backed poll queue.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListPending(ctx context.Context, registrarID string, at time.Time) ([]Message, error) {
	rows, err := r.db.Query(ctx, `SELECT id, kind, registrar_id, target_id, history_id, event_time, autorenew_end, msg
FROM poll_messages WHERE registrar_id = $1 AND acked_at IS NULL AND event_time <= $2 AND autorenew_end > $2
ORDER BY event_time`, registrarID, at)
	if err != nil {
		return nil, fmt.Errorf("poll: list for %s: %w", registrarID, err)
	}
	defer rows.Close()
	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Kind, &m.RegistrarID, &m.TargetID, &m.HistoryID, &m.EventTime, &m.AutorenewEnd, &m.Msg); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *repository) Ack(ctx context.Context, registrarID string, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE poll_messages SET acked_at = NOW() WHERE id = $1 AND registrar_id = $2 AND acked_at IS NULL`, id, registrarID)
	if err != nil {
		return fmt.Errorf("poll: ack %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
