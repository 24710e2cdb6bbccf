package projection_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-registry/meridian-registry/internal/money"
	"github.com/meridian-registry/meridian-registry/internal/projection"
	"github.com/meridian-registry/meridian-registry/internal/registry"
	"github.com/meridian-registry/meridian-registry/internal/resource"
	"github.com/meridian-registry/meridian-registry/internal/shared"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testConfig() registry.Config {
	return registry.Config{
		TLD:                  "example",
		Currency:             "USD",
		MaxRegistrationYears: 10,
		RenewPricePerYear:    money.MustParse("USD", "11.00"),
	}
}

func pendingSnapshot() resource.Resource {
	return resource.Resource{
		ID:               "scoot.example",
		Name:             "scoot.example",
		Kind:             resource.KindDomain,
		TLD:              "example",
		SponsorID:        "R1",
		ExpirationTime:   date(2020, time.January, 1),
		DeletionTime:     shared.EndOfTime,
		AutorenewEventID: uuid.New(),
		AutorenewPollID:  uuid.New(),
		Transfer: resource.TransferData{
			Status:             resource.TransferStatusPending,
			GainingRegistrarID: "R2",
			LosingRegistrarID:  "R1",
			RequestTime:        date(2019, time.December, 20),
			PendingExpiration:  date(2019, time.December, 25),
			ExtendedYears:      1,
			ServerApprove: resource.ServerApproveArtifacts{
				TransferEventID:  uuid.New(),
				AutorenewEventID: uuid.New(),
				AutorenewPollID:  uuid.New(),
			},
		},
	}
}

func TestProjectBeforeDeadlineStaysPending(t *testing.T) {
	snap := pendingSnapshot()
	view := projection.Project(snap, testConfig(), date(2019, time.December, 22))

	require.Equal(t, resource.TransferStatusPending, view.TransferStatus)
	require.False(t, view.TransferCompleted)
	require.NotNil(t, view.PendingResolution)
	require.Equal(t, snap.Transfer.PendingExpiration, *view.PendingResolution)
	require.Equal(t, "R1", view.Resource.SponsorID)
	require.Equal(t, snap.ExpirationTime, view.Resource.ExpirationTime)
}

func TestProjectAtDeadlineMaterializesApproval(t *testing.T) {
	snap := pendingSnapshot()
	view := projection.Project(snap, testConfig(), snap.Transfer.PendingExpiration)

	require.Equal(t, resource.TransferStatusServerApproved, view.TransferStatus)
	require.True(t, view.TransferCompleted)
	require.Nil(t, view.PendingResolution)
	require.Equal(t, "R2", view.Resource.SponsorID)
	require.Equal(t, date(2021, time.January, 1), view.Resource.ExpirationTime)
	require.Equal(t, snap.Transfer.ServerApprove.AutorenewEventID, view.Resource.AutorenewEventID)
	require.Equal(t, snap.Transfer.ServerApprove.AutorenewPollID, view.Resource.AutorenewPollID)

	// The projected copy folds the transfer block back to quiescent.
	require.Equal(t, resource.TransferStatusNotPending, view.Resource.Transfer.Status)
	require.True(t, view.Resource.Transfer.ServerApprove.IsZero())
}

func TestProjectIsPureAndIdempotent(t *testing.T) {
	snap := pendingSnapshot()
	at := date(2020, time.June, 1)

	first := projection.Project(snap, testConfig(), at)
	second := projection.Project(snap, testConfig(), at)
	require.Equal(t, first, second)

	// The input snapshot is never mutated.
	require.Equal(t, resource.TransferStatusPending, snap.Transfer.Status)
	require.Equal(t, "R1", snap.SponsorID)

	// Re-projecting the already materialized copy changes nothing further.
	again := projection.Project(first.Resource, testConfig(), at.AddDate(0, 1, 0))
	require.Equal(t, first.Resource, again.Resource)
	require.False(t, again.TransferCompleted)
}

func TestProjectResolutionIsMonotonic(t *testing.T) {
	snap := pendingSnapshot()
	deadline := snap.Transfer.PendingExpiration

	before := projection.Project(snap, testConfig(), deadline.Add(-time.Second))
	require.Equal(t, resource.TransferStatusPending, before.TransferStatus)

	for _, at := range []time.Time{deadline, deadline.Add(time.Second), deadline.AddDate(5, 0, 0)} {
		view := projection.Project(snap, testConfig(), at)
		require.Equal(t, resource.TransferStatusServerApproved, view.TransferStatus)
		require.Equal(t, "R2", view.Resource.SponsorID)
	}
}

func TestProjectBeforeRequestTimeIsUnchanged(t *testing.T) {
	snap := pendingSnapshot()
	view := projection.Project(snap, testConfig(), snap.Transfer.RequestTime.Add(-time.Hour))
	require.Equal(t, snap, view.Resource)
	require.Equal(t, resource.TransferStatusPending, view.TransferStatus)
	require.Nil(t, view.PendingResolution)
	require.False(t, view.TransferCompleted)
}

func TestProjectNonPendingIsPassthrough(t *testing.T) {
	snap := pendingSnapshot()
	snap.Transfer = snap.Transfer.Resolve(resource.TransferStatusClientRejected, date(2019, time.December, 22))

	view := projection.Project(snap, testConfig(), date(2025, time.January, 1))
	require.Equal(t, snap, view.Resource)
	require.Equal(t, resource.TransferStatusClientRejected, view.TransferStatus)
	require.False(t, view.TransferCompleted)
}

func TestProjectCapsExtension(t *testing.T) {
	snap := pendingSnapshot()
	snap.ExpirationTime = date(2029, time.June, 1)
	snap.Transfer.ExtendedYears = 5

	view := projection.Project(snap, testConfig(), date(2020, time.January, 1))
	// 2029-06-01 plus five years exceeds ten years past the automatic
	// transfer time, so the cap wins.
	require.Equal(t, snap.Transfer.PendingExpiration.AddDate(10, 0, 0), view.Resource.ExpirationTime)
}
