// Package registry holds per-TLD policy configuration. A Config is resolved
// once per flow invocation and threaded through explicitly; there is no
// process-wide registry singleton.
package registry

import (
	"time"

	"github.com/meridian-registry/meridian-registry/internal/money"
)

// Config captures the policy values a flow needs for one TLD.
type Config struct {
	TLD      string
	Currency string

	// AutomaticTransferLength is how long a requested transfer stays
	// pending before it is approved automatically.
	AutomaticTransferLength time.Duration
	// TransferGracePeriodLength delays billing of the transfer charge.
	TransferGracePeriodLength time.Duration
	// AutorenewGracePeriodLength is the window after expiration during
	// which an autorenew charge can still be cancelled.
	AutorenewGracePeriodLength time.Duration

	// MaxRegistrationYears caps how far an expiration may be extended,
	// anchored at the time of the extension.
	MaxRegistrationYears int

	// RenewPricePerYear is the standard renewal price for one year.
	RenewPricePerYear money.Money
	// PremiumPricesPerYear overrides the renewal price for premium names.
	PremiumPricesPerYear map[string]money.Money
	// BlockedPremiumNames lists premium names closed to provisioning.
	BlockedPremiumNames map[string]bool
}

// IsPremiumName reports whether the name carries premium pricing.
func (c Config) IsPremiumName(name string) bool {
	_, ok := c.PremiumPricesPerYear[name]
	return ok
}

// IsPremiumNameBlocked reports whether the name is administratively blocked.
func (c Config) IsPremiumNameBlocked(name string) bool {
	return c.BlockedPremiumNames[name]
}

// RenewPrice returns the renewal cost for the given name over whole years,
// priced as of the supplied time.
func (c Config) RenewPrice(name string, years int, _ time.Time) money.Money {
	if price, ok := c.PremiumPricesPerYear[name]; ok {
		return price.MulYears(years)
	}
	return c.RenewPricePerYear.MulYears(years)
}
