package resource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-registry/meridian-registry/internal/shared"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExtendRegistrationWithCap(t *testing.T) {
	anchor := date(2019, time.December, 25)

	// Plain extension, well under the cap.
	got := ExtendRegistrationWithCap(anchor, date(2020, time.January, 1), 1, 10)
	require.Equal(t, date(2021, time.January, 1), got)

	// Extension that would exceed the cap is clamped to anchor plus cap.
	got = ExtendRegistrationWithCap(anchor, date(2029, time.June, 1), 5, 10)
	require.Equal(t, anchor.AddDate(10, 0, 0), got)

	// Exactly at the cap is allowed.
	got = ExtendRegistrationWithCap(anchor, anchor.AddDate(9, 0, 0), 1, 10)
	require.Equal(t, anchor.AddDate(10, 0, 0), got)
}

func TestDeletedAt(t *testing.T) {
	res := Resource{DeletionTime: shared.EndOfTime}
	require.False(t, res.DeletedAt(date(2020, time.January, 1)))

	res.DeletionTime = date(2020, time.January, 1)
	require.False(t, res.DeletedAt(date(2019, time.December, 31)))
	require.True(t, res.DeletedAt(date(2020, time.January, 1)))
	require.True(t, res.DeletedAt(date(2020, time.January, 2)))
}

func TestAuthInfoRoundTrip(t *testing.T) {
	hash, err := HashAuthInfo("2fooBAR")
	require.NoError(t, err)

	res := Resource{AuthInfoHash: hash}
	require.True(t, res.VerifyAuthInfo("2fooBAR"))
	require.False(t, res.VerifyAuthInfo("wrong"))
	require.False(t, Resource{}.VerifyAuthInfo("2fooBAR"))
}

func TestHasStatus(t *testing.T) {
	res := Resource{Statuses: []Status{StatusOK, StatusTransferProhibited}}
	require.True(t, res.HasStatus(StatusTransferProhibited))
	require.False(t, res.HasStatus(StatusPendingDelete))
}
