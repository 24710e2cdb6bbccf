package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-registry/meridian-registry/internal/money"
)

// ErrTLDNotFound indicates a namespace unknown to this registry.
var ErrTLDNotFound = errors.New("registry: tld not found")

// Repository loads TLD configuration.
type Repository interface {
	Get(ctx context.Context, tld string) (Config, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a Postgres-backed configuration repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, tld string) (Config, error) {
	row := r.db.QueryRow(ctx, `SELECT tld, currency, automatic_transfer_secs, transfer_grace_secs, autorenew_grace_secs, max_registration_years, renew_price_per_year::text
FROM registry_tlds WHERE tld = $1`, tld)
	var (
		cfg            Config
		autoSecs       int64
		transferSecs   int64
		autorenewSecs  int64
		renewPriceText string
	)
	if err := row.Scan(&cfg.TLD, &cfg.Currency, &autoSecs, &transferSecs, &autorenewSecs, &cfg.MaxRegistrationYears, &renewPriceText); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Config{}, fmt.Errorf("%w: %s", ErrTLDNotFound, tld)
		}
		return Config{}, fmt.Errorf("registry: get %s: %w", tld, err)
	}
	cfg.AutomaticTransferLength = time.Duration(autoSecs) * time.Second
	cfg.TransferGracePeriodLength = time.Duration(transferSecs) * time.Second
	cfg.AutorenewGracePeriodLength = time.Duration(autorenewSecs) * time.Second

	renewPrice, err := decimal.NewFromString(renewPriceText)
	if err != nil {
		return Config{}, fmt.Errorf("registry: renew price for %s: %w", tld, err)
	}
	cfg.RenewPricePerYear, err = money.New(cfg.Currency, renewPrice)
	if err != nil {
		return Config{}, fmt.Errorf("registry: %s: %w", tld, err)
	}

	cfg.PremiumPricesPerYear = make(map[string]money.Money)
	cfg.BlockedPremiumNames = make(map[string]bool)
	rows, err := r.db.Query(ctx, `SELECT name, price_per_year::text, blocked FROM registry_premium_names WHERE tld = $1`, tld)
	if err != nil {
		return Config{}, fmt.Errorf("registry: premium names for %s: %w", tld, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name      string
			priceText string
			blocked   bool
		)
		if err := rows.Scan(&name, &priceText, &blocked); err != nil {
			return Config{}, err
		}
		price, err := decimal.NewFromString(priceText)
		if err != nil {
			return Config{}, fmt.Errorf("registry: premium price for %s: %w", name, err)
		}
		cfg.PremiumPricesPerYear[name], err = money.New(cfg.Currency, price)
		if err != nil {
			return Config{}, err
		}
		if blocked {
			cfg.BlockedPremiumNames[name] = true
		}
	}
	return cfg, rows.Err()
}
