package resource

import (
	"time"

	"github.com/google/uuid"
)

// TransferStatus enumerates transfer lifecycle values.
type TransferStatus string

const (
	TransferStatusNotPending      TransferStatus = "NOT_PENDING"
	TransferStatusPending         TransferStatus = "PENDING"
	TransferStatusClientApproved  TransferStatus = "CLIENT_APPROVED"
	TransferStatusClientRejected  TransferStatus = "CLIENT_REJECTED"
	TransferStatusClientCancelled TransferStatus = "CLIENT_CANCELLED"
	TransferStatusServerApproved  TransferStatus = "SERVER_APPROVED"
	TransferStatusServerCancelled TransferStatus = "SERVER_CANCELLED"
)

// Resolved reports whether the status is one of the four explicit terminal
// resolutions or the automatic server approval.
func (s TransferStatus) Resolved() bool {
	switch s {
	case TransferStatusClientApproved, TransferStatusClientRejected, TransferStatusClientCancelled,
		TransferStatusServerApproved, TransferStatusServerCancelled:
		return true
	}
	return false
}

// ServerApproveArtifacts is the typed set of references realized when a
// pending transfer is approved automatically. Adding an artifact kind means
// adding a field here, so every consumer fails to compile until it handles
// the new kind. The set is non-empty exactly while the transfer is PENDING.
type ServerApproveArtifacts struct {
	// TransferEventID references the scheduled OneTime transfer charge.
	TransferEventID uuid.UUID
	// AutorenewEventID references the gaining registrar's Recurring event.
	AutorenewEventID uuid.UUID
	// AutorenewPollID references the gaining registrar's autorenew notice.
	AutorenewPollID uuid.UUID
	// AutorenewCancellationID references the Cancellation of the losing
	// registrar's autorenew charge; uuid.Nil when the automatic transfer
	// time falls outside the autorenew grace window.
	AutorenewCancellationID uuid.UUID
}

// IsZero reports whether no artifacts are referenced.
func (a ServerApproveArtifacts) IsZero() bool {
	return a == ServerApproveArtifacts{}
}

// TransferData is the single transfer block carried by every resource.
type TransferData struct {
	Status             TransferStatus
	GainingRegistrarID string
	LosingRegistrarID  string
	RequestTime        time.Time
	// PendingExpiration is the automatic approval deadline while PENDING.
	// An explicit resolution overwrites it with the acting time.
	PendingExpiration time.Time
	ExtendedYears     int
	ServerApprove     ServerApproveArtifacts
}

// CanRequest reports whether a new transfer may be requested against this
// block. Only an in-flight transfer blocks a new request.
func (d TransferData) CanRequest() bool {
	return d.Status != TransferStatusPending
}

// Resolve returns a copy folded to the given terminal status, timestamped
// at the acting time, with the server-approve artifact set cleared.
func (d TransferData) Resolve(to TransferStatus, at time.Time) TransferData {
	d.Status = to
	d.PendingExpiration = at
	d.ServerApprove = ServerApproveArtifacts{}
	return d
}
