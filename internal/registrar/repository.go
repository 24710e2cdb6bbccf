package registrar

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates an unknown registrar id.
var ErrNotFound = errors.New("registrar: not found")

// Repository loads registrar records.
type Repository interface {
	Get(ctx context.Context, id string) (Registrar, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a Postgres-backed registrar repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id string) (Registrar, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, allowed_tlds, superuser FROM registrars WHERE id = $1`, id)
	var reg Registrar
	if err := row.Scan(&reg.ID, &reg.Name, &reg.AllowedTLDs, &reg.Superuser); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Registrar{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Registrar{}, fmt.Errorf("registrar: get %s: %w", id, err)
	}
	return reg, nil
}
