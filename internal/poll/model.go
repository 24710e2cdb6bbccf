// Package poll models queued asynchronous notifications for registrars.
package poll

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates poll message variants.
type Kind string

const (
	// KindAutorenew mirrors a Recurring billing event's lifetime; the
	// message is inert once its autorenew end time passes.
	KindAutorenew Kind = "AUTORENEW"
	// KindOneTime is delivered once, e.g. a transfer resolution notice.
	KindOneTime Kind = "ONE_TIME"
)

// Message is a per-registrar notification record.
type Message struct {
	ID          uuid.UUID
	Kind        Kind
	RegistrarID string
	TargetID    string
	HistoryID   uuid.UUID
	// EventTime is when the message becomes visible to the registrar.
	EventTime time.Time
	// AutorenewEnd bounds an autorenew message's lifetime. One-time
	// messages carry shared.EndOfTime here.
	AutorenewEnd time.Time
	Msg          string
}

// Visible reports whether the message should be delivered at the given time.
func (m Message) Visible(at time.Time) bool {
	return !m.EventTime.After(at) && at.Before(m.AutorenewEnd)
}
