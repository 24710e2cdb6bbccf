// Package resource models registered objects (domains and contacts) whose
// sponsorship can be transferred between registrars.
package resource

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Kind discriminates resource types.
type Kind string

const (
	KindDomain  Kind = "DOMAIN"
	KindContact Kind = "CONTACT"
)

// Status values that gate operations on a resource.
type Status string

const (
	StatusOK                 Status = "OK"
	StatusTransferProhibited Status = "TRANSFER_PROHIBITED"
	StatusUpdateProhibited   Status = "UPDATE_PROHIBITED"
	StatusPendingDelete      Status = "PENDING_DELETE"
	StatusServerHold         Status = "SERVER_HOLD"
)

// Resource is the persisted state of one registered object. Flows are the
// only writers; a projected copy is never written back.
type Resource struct {
	ID        string
	Name      string
	Kind      Kind
	TLD       string
	SponsorID string
	Statuses  []Status

	CreationTime   time.Time
	ExpirationTime time.Time
	// DeletionTime is shared.EndOfTime while the resource is live.
	DeletionTime time.Time

	// AuthInfoHash is the bcrypt hash of the resource's transfer password.
	AuthInfoHash string

	// AutorenewEventID references the currently active Recurring billing
	// event; AutorenewPollID its mirror poll message.
	AutorenewEventID uuid.UUID
	AutorenewPollID  uuid.UUID

	Transfer TransferData

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeletedAt reports whether the resource is deleted as of the given time.
func (r Resource) DeletedAt(at time.Time) bool {
	return !r.DeletionTime.After(at)
}

// HasStatus reports whether the resource carries the given status.
func (r Resource) HasStatus(s Status) bool {
	for _, status := range r.Statuses {
		if status == s {
			return true
		}
	}
	return false
}

// VerifyAuthInfo compares a presented auth info value against the stored
// hash. The result is pass/fail only.
func (r Resource) VerifyAuthInfo(authInfo string) bool {
	return bcrypt.CompareHashAndPassword([]byte(r.AuthInfoHash), []byte(authInfo)) == nil
}

// HashAuthInfo produces the stored form of an auth info value.
func HashAuthInfo(authInfo string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(authInfo), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ExtendRegistrationWithCap extends an expiration by whole years, capped at
// capYears past the anchor time. The anchor is the moment the extension
// takes effect, e.g. the automatic transfer time.
func ExtendRegistrationWithCap(anchor, currentExpiration time.Time, years, capYears int) time.Time {
	extended := currentExpiration.AddDate(years, 0, 0)
	capped := anchor.AddDate(capYears, 0, 0)
	if extended.After(capped) {
		return capped
	}
	return extended
}
