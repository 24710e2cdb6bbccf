// Package projection computes a resource's effective state "as of" a query
// time without touching storage. There is no scheduler advancing transfer
// state; a pending transfer takes effect purely by being read after its
// automatic approval deadline.
package projection

import (
	"time"

	"github.com/meridian-registry/meridian-registry/internal/registry"
	"github.com/meridian-registry/meridian-registry/internal/resource"
)

// View is the projected state. It is a distinct type from the persisted
// Resource so no code path can write a projection back as ground truth.
type View struct {
	// Resource is the projected copy. After the automatic approval
	// deadline its sponsor, expiration and active autorenew references
	// reflect the completed transfer, and its transfer block is folded
	// back to NOT_PENDING.
	Resource resource.Resource
	// TransferStatus is the status reported to the caller: PENDING before
	// the deadline, SERVER_APPROVED at or after it.
	TransferStatus resource.TransferStatus
	// PendingResolution exposes the scheduled resolution time while the
	// transfer is still pending.
	PendingResolution *time.Time
	// TransferCompleted marks a server approval materialized by this
	// projection, for response purposes only; nothing is recorded.
	TransferCompleted bool
}

// Project derives the view of a resource snapshot at the query time. It is
// pure and deterministic: identical inputs give identical output, and the
// snapshot is never mutated.
func Project(res resource.Resource, cfg registry.Config, at time.Time) View {
	td := res.Transfer
	if td.Status != resource.TransferStatusPending || at.Before(td.RequestTime) {
		return View{Resource: res, TransferStatus: td.Status}
	}

	if at.Before(td.PendingExpiration) {
		scheduled := td.PendingExpiration
		return View{
			Resource:          res,
			TransferStatus:    resource.TransferStatusPending,
			PendingResolution: &scheduled,
		}
	}

	// The automatic approval deadline has passed: materialize the server
	// approval in the view. The gaining registrar becomes sponsor, the
	// banked years extend the expiration under the configured cap, and the
	// server-approve artifacts become the resource's active ones. The
	// request flow already cancelled any autorenew charge subsumed by the
	// transfer, so exactly one Recurring stream remains active.
	res.SponsorID = td.GainingRegistrarID
	res.ExpirationTime = resource.ExtendRegistrationWithCap(
		td.PendingExpiration, res.ExpirationTime, td.ExtendedYears, cfg.MaxRegistrationYears)
	res.AutorenewEventID = td.ServerApprove.AutorenewEventID
	res.AutorenewPollID = td.ServerApprove.AutorenewPollID

	folded := td
	folded.Status = resource.TransferStatusNotPending
	folded.ServerApprove = resource.ServerApproveArtifacts{}
	res.Transfer = folded

	return View{
		Resource:          res,
		TransferStatus:    resource.TransferStatusServerApproved,
		TransferCompleted: true,
	}
}
