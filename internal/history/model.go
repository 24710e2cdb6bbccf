// Package history records one append-only entry per flow execution. Every
// artifact a flow creates is parented under its entry, giving reporting
// consumers a complete trail without reading flow internals.
package history

import (
	"time"

	"github.com/google/uuid"
)

// Type tags an entry with the flow that produced it.
type Type string

const (
	TypeTransferRequest Type = "TRANSFER_REQUEST"
	TypeTransferApprove Type = "TRANSFER_APPROVE"
	TypeTransferReject  Type = "TRANSFER_REJECT"
	TypeTransferCancel  Type = "TRANSFER_CANCEL"
)

// Entry is one audit record. Artifacts maps artifact kind to record id for
// everything created in the same transaction.
type Entry struct {
	ID          uuid.UUID
	Type        Type
	ResourceID  string
	RegistrarID string
	Time        time.Time
	Artifacts   map[string]string
}
