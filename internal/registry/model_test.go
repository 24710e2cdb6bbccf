package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-registry/meridian-registry/internal/money"
)

func TestRenewPrice(t *testing.T) {
	cfg := Config{
		RenewPricePerYear: money.MustParse("USD", "11.00"),
		PremiumPricesPerYear: map[string]money.Money{
			"rich.example": money.MustParse("USD", "100.00"),
		},
		BlockedPremiumNames: map[string]bool{"rich.example": false, "closed.example": true},
	}
	now := time.Now()

	require.True(t, cfg.RenewPrice("plain.example", 2, now).Equal(money.MustParse("USD", "22.00")))
	require.True(t, cfg.RenewPrice("rich.example", 3, now).Equal(money.MustParse("USD", "300.00")))

	require.True(t, cfg.IsPremiumName("rich.example"))
	require.False(t, cfg.IsPremiumName("plain.example"))
	require.False(t, cfg.IsPremiumNameBlocked("rich.example"))
	require.True(t, cfg.IsPremiumNameBlocked("closed.example"))
}
