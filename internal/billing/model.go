// Package billing defines the billing event ledger: OneTime charges,
// Recurring charge streams, and Cancellations that negate a prior Recurring
// event. Events are immutable once persisted except for a Recurring event's
// recurrence end time.
package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-registry/meridian-registry/internal/money"
)

// Reason classifies why a billing event exists.
type Reason string

const (
	ReasonCreate    Reason = "CREATE"
	ReasonRenew     Reason = "RENEW"
	ReasonTransfer  Reason = "TRANSFER"
	ReasonAutoRenew Reason = "AUTO_RENEW"
)

// Kind discriminates the event variants.
type Kind string

const (
	KindOneTime      Kind = "ONE_TIME"
	KindRecurring    Kind = "RECURRING"
	KindCancellation Kind = "CANCELLATION"
)

// Header carries the fields common to every event variant.
type Header struct {
	ID          uuid.UUID
	Reason      Reason
	TargetID    string
	RegistrarID string
	// HistoryID parents the event under the flow execution that created it.
	HistoryID uuid.UUID
	EventTime time.Time
}

// OneTime is a single charge, billable at BillingTime.
type OneTime struct {
	Header
	Cost        money.Money
	PeriodYears int
	BillingTime time.Time
}

// Recurring is an open-ended charge stream. RecurrenceEnd is the only field
// mutated after creation; shared.EndOfTime means no scheduled end.
type Recurring struct {
	Header
	RecurrenceEnd time.Time
}

// Cancellation negates a specific prior Recurring event as of EventTime.
// EventID is a non-owning back-reference to the cancelled event.
type Cancellation struct {
	Header
	EventID     uuid.UUID
	BillingTime time.Time
}

// Kind reports the variant tags so a set of mixed events can be switched
// over exhaustively.
func (OneTime) Kind() Kind      { return KindOneTime }
func (Recurring) Kind() Kind    { return KindRecurring }
func (Cancellation) Kind() Kind { return KindCancellation }

// Active reports whether the recurring stream is still producing charges at
// the given time.
func (r Recurring) Active(at time.Time) bool {
	return at.Before(r.RecurrenceEnd)
}
