package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultMaxAttempts bounds retries when no explicit limit is configured.
const DefaultMaxAttempts = 3

// ErrTxAttemptsExhausted reports that a transaction kept colliding with
// concurrent writers until the retry budget ran out. It is a transient
// infrastructure failure, never a domain error.
var ErrTxAttemptsExhausted = errors.New("platform/db: transaction attempts exhausted")

// WithTx executes fn within a RepeatableRead transaction, retrying from a
// fresh snapshot when the database reports a serialization conflict. Each
// attempt sees a consistent snapshot; a losing concurrent writer simply
// re-runs fn against re-read state.
func WithTx(ctx context.Context, pool *pgxpool.Pool, maxAttempts int, fn func(pgx.Tx) error) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := runTx(ctx, pool, fn)
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %v", ErrTxAttemptsExhausted, lastErr)
}

func runTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}

// isSerializationFailure matches the SQLSTATE codes Postgres raises when a
// RepeatableRead transaction loses to a concurrent writer.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
