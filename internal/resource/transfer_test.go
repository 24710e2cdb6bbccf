package resource

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTransferStatusResolved(t *testing.T) {
	resolved := []TransferStatus{
		TransferStatusClientApproved,
		TransferStatusClientRejected,
		TransferStatusClientCancelled,
		TransferStatusServerApproved,
		TransferStatusServerCancelled,
	}
	for _, s := range resolved {
		require.True(t, s.Resolved(), "status %s", s)
	}
	require.False(t, TransferStatusNotPending.Resolved())
	require.False(t, TransferStatusPending.Resolved())
}

func TestCanRequest(t *testing.T) {
	require.True(t, TransferData{Status: TransferStatusNotPending}.CanRequest())
	require.True(t, TransferData{Status: TransferStatusClientRejected}.CanRequest())
	require.False(t, TransferData{Status: TransferStatusPending}.CanRequest())
}

func TestResolveClearsArtifacts(t *testing.T) {
	td := TransferData{
		Status:             TransferStatusPending,
		GainingRegistrarID: "R2",
		LosingRegistrarID:  "R1",
		RequestTime:        date(2019, time.December, 20),
		PendingExpiration:  date(2019, time.December, 25),
		ExtendedYears:      1,
		ServerApprove: ServerApproveArtifacts{
			TransferEventID:  uuid.New(),
			AutorenewEventID: uuid.New(),
			AutorenewPollID:  uuid.New(),
		},
	}
	at := date(2019, time.December, 22)
	resolved := td.Resolve(TransferStatusClientCancelled, at)

	require.Equal(t, TransferStatusClientCancelled, resolved.Status)
	require.Equal(t, at, resolved.PendingExpiration)
	require.True(t, resolved.ServerApprove.IsZero())
	// Party and request metadata survive resolution.
	require.Equal(t, "R2", resolved.GainingRegistrarID)
	require.Equal(t, td.RequestTime, resolved.RequestTime)
	// The receiver is untouched.
	require.Equal(t, TransferStatusPending, td.Status)
	require.False(t, td.ServerApprove.IsZero())
}

func TestServerApproveArtifactsIsZero(t *testing.T) {
	require.True(t, ServerApproveArtifacts{}.IsZero())
	require.False(t, ServerApproveArtifacts{TransferEventID: uuid.New()}.IsZero())
}

// TestTransferBlockEmbedded pins the transfer block to the resource model:
// a persisted Resource carries its TransferData by value, and folding the
// block leaves the enclosing Resource's copy untouched.
func TestTransferBlockEmbedded(t *testing.T) {
	res := Resource{
		ID:        "dom-1",
		SponsorID: "R1",
		Transfer: TransferData{
			Status:            TransferStatusPending,
			PendingExpiration: date(2019, time.December, 25),
		},
	}
	folded := res.Transfer.Resolve(TransferStatusClientRejected, date(2019, time.December, 22))
	require.Equal(t, TransferStatusPending, res.Transfer.Status)
	require.Equal(t, TransferStatusClientRejected, folded.Status)
}
