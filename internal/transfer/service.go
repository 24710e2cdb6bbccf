// Package transfer implements transfer of sponsorship of a registry
// resource between registrars: the request flow that schedules an automatic
// approval, and the explicit resolutions. The transfer state itself lives on
// the resource model as resource.TransferData.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-registry/meridian-registry/internal/billing"
	"github.com/meridian-registry/meridian-registry/internal/history"
	"github.com/meridian-registry/meridian-registry/internal/money"
	"github.com/meridian-registry/meridian-registry/internal/poll"
	"github.com/meridian-registry/meridian-registry/internal/registrar"
	"github.com/meridian-registry/meridian-registry/internal/registry"
	"github.com/meridian-registry/meridian-registry/internal/resource"
	"github.com/meridian-registry/meridian-registry/internal/shared"
)

// Policy carries the documented policy switches for transfer flows.
type Policy struct {
	// ExplicitResolveAfterDeadline lets an approve/reject/cancel arriving
	// at or after the automatic transfer time win against the lazy
	// projection. When false such an attempt fails as not-pending.
	ExplicitResolveAfterDeadline bool
}

// RegistryProvider resolves TLD configuration fresh per invocation.
type RegistryProvider interface {
	Get(ctx context.Context, tld string) (registry.Config, error)
}

// RegistrarProvider resolves registrar records.
type RegistrarProvider interface {
	Get(ctx context.Context, id string) (registrar.Registrar, error)
}

// Service runs the transfer flows.
type Service struct {
	repo       Repository
	registries RegistryProvider
	registrars RegistrarProvider
	policy     Policy
	now        func() time.Time
}

// NewService wires a transfer service.
func NewService(repo Repository, registries RegistryProvider, registrars RegistrarProvider, policy Policy) *Service {
	return &Service{
		repo:       repo,
		registries: registries,
		registrars: registrars,
		policy:     policy,
		now:        time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// RequestInput carries one transfer request.
type RequestInput struct {
	TargetID    string
	PeriodYears int
	PeriodUnit  string
	AuthInfo    string
	RequesterID string
	Superuser   bool
	// FeeClaim is the fee the client expects to be charged, if supplied.
	FeeClaim *money.Money
}

// FeeResponse echoes the computed renewal fee when a claim was presented.
type FeeResponse struct {
	Currency    string `json:"currency"`
	Fee         string `json:"fee"`
	Description string `json:"description"`
}

// RequestResult is the flow's immediate response: the unprojected
// TransferData snapshot plus the optional fee fragment.
type RequestResult struct {
	Transfer    resource.TransferData
	FeeResponse *FeeResponse
}

// Request runs the transfer request flow. All preconditions are checked
// before any mutation; every effect commits in one transaction or not at
// all.
func (s *Service) Request(ctx context.Context, in RequestInput) (RequestResult, error) {
	if in.PeriodUnit != "y" {
		return RequestResult{}, fmt.Errorf("%w: got %q", ErrBadPeriodUnit, in.PeriodUnit)
	}
	if in.PeriodYears < 1 {
		return RequestResult{}, fmt.Errorf("%w: years must be positive", ErrBadPeriodUnit)
	}
	now := s.now()
	var result RequestResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		res, err := s.loadTarget(ctx, tx, in.TargetID, now)
		if err != nil {
			return err
		}
		if in.AuthInfo == "" {
			return ErrMissingAuthInfo
		}
		if !res.VerifyAuthInfo(in.AuthInfo) {
			return ErrBadAuthInfo
		}
		if in.RequesterID == res.SponsorID {
			return fmt.Errorf("%w: %s", ErrAlreadySponsored, res.Name)
		}
		if !res.Transfer.CanRequest() {
			return fmt.Errorf("%w: %s", ErrAlreadyPending, res.Name)
		}
		// The target's preconditions come first; only then does the
		// requester's own record matter.
		requester, err := s.registrars.Get(ctx, in.RequesterID)
		if err != nil {
			if errors.Is(err, registrar.ErrNotFound) {
				return fmt.Errorf("%w: requester %s", ErrUnknownRegistrar, in.RequesterID)
			}
			return err
		}
		// Superuser powers must be asserted by the caller and backed by
		// the registrar record.
		superuser := in.Superuser && requester.Superuser
		if !requester.MayAccessTLD(res.TLD) {
			return ErrNotAuthorizedForTLD
		}
		cfg, err := s.registries.Get(ctx, res.TLD)
		if err != nil {
			return err
		}
		renewCost := cfg.RenewPrice(res.Name, in.PeriodYears, now)
		if err := checkPremiumAndFees(cfg, res.Name, in.FeeClaim, renewCost, superuser); err != nil {
			return err
		}
		if res.HasStatus(resource.StatusTransferProhibited) || res.HasStatus(resource.StatusPendingDelete) {
			return fmt.Errorf("%w: %s", ErrStatusProhibitsOperation, res.Name)
		}

		automaticTransferTime := now.Add(cfg.AutomaticTransferLength)
		entryID := uuid.New()

		transferEvent := billing.OneTime{
			Header: billing.Header{
				ID:          uuid.New(),
				Reason:      billing.ReasonTransfer,
				TargetID:    res.ID,
				RegistrarID: in.RequesterID,
				HistoryID:   entryID,
				EventTime:   automaticTransferTime,
			},
			Cost:        renewCost,
			PeriodYears: in.PeriodYears,
			BillingTime: automaticTransferTime.Add(cfg.TransferGracePeriodLength),
		}

		newExpiration := resource.ExtendRegistrationWithCap(
			automaticTransferTime, res.ExpirationTime, in.PeriodYears, cfg.MaxRegistrationYears)

		autorenewEvent := billing.Recurring{
			Header: billing.Header{
				ID:          uuid.New(),
				Reason:      billing.ReasonAutoRenew,
				TargetID:    res.ID,
				RegistrarID: in.RequesterID,
				HistoryID:   entryID,
				EventTime:   newExpiration,
			},
			RecurrenceEnd: shared.EndOfTime,
		}
		autorenewPoll := poll.Message{
			ID:           uuid.New(),
			Kind:         poll.KindAutorenew,
			RegistrarID:  in.RequesterID,
			TargetID:     res.ID,
			HistoryID:    entryID,
			EventTime:    newExpiration,
			AutorenewEnd: shared.EndOfTime,
			Msg:          "Resource was auto-renewed.",
		}

		artifacts := resource.ServerApproveArtifacts{
			TransferEventID:  transferEvent.ID,
			AutorenewEventID: autorenewEvent.ID,
			AutorenewPollID:  autorenewPoll.ID,
		}

		// If the automatic transfer time lands inside the losing
		// registrar's autorenew grace window, the transfer subsumes that
		// autorenew: record a cancellation now so the approval never
		// leaves two active charge streams.
		graceEnd := res.ExpirationTime.Add(cfg.AutorenewGracePeriodLength)
		var cancellation *billing.Cancellation
		if !automaticTransferTime.Before(res.ExpirationTime) && automaticTransferTime.Before(graceEnd) {
			cancellation = &billing.Cancellation{
				Header: billing.Header{
					ID:          uuid.New(),
					Reason:      billing.ReasonAutoRenew,
					TargetID:    res.ID,
					RegistrarID: res.SponsorID,
					HistoryID:   entryID,
					EventTime:   automaticTransferTime,
				},
				EventID:     res.AutorenewEventID,
				BillingTime: graceEnd,
			}
			artifacts.AutorenewCancellationID = cancellation.ID
		}

		if err := tx.InsertOneTime(ctx, transferEvent); err != nil {
			return err
		}
		if err := tx.InsertRecurring(ctx, autorenewEvent); err != nil {
			return err
		}
		if err := tx.InsertPollMessage(ctx, autorenewPoll); err != nil {
			return err
		}
		if cancellation != nil {
			if err := tx.InsertCancellation(ctx, *cancellation); err != nil {
				return err
			}
		}
		// End the losing registrar's autorenew stream at the implicit
		// transfer time. It stays the resource's active event until then;
		// the projection swaps in the gaining one afterwards.
		if err := tx.UpdateRecurrenceEnd(ctx, res.AutorenewEventID, automaticTransferTime); err != nil {
			return err
		}

		requestNotice := poll.Message{
			ID:           uuid.New(),
			Kind:         poll.KindOneTime,
			RegistrarID:  res.SponsorID,
			TargetID:     res.ID,
			HistoryID:    entryID,
			EventTime:    now,
			AutorenewEnd: shared.EndOfTime,
			Msg:          "Transfer requested.",
		}
		if err := tx.InsertPollMessage(ctx, requestNotice); err != nil {
			return err
		}

		td := resource.TransferData{
			Status:             resource.TransferStatusPending,
			GainingRegistrarID: in.RequesterID,
			LosingRegistrarID:  res.SponsorID,
			RequestTime:        now,
			PendingExpiration:  automaticTransferTime,
			ExtendedYears:      in.PeriodYears,
			ServerApprove:      artifacts,
		}
		if err := tx.UpdateResourceTransfer(ctx, res.ID, td, now); err != nil {
			return err
		}

		entry := history.Entry{
			ID:          entryID,
			Type:        history.TypeTransferRequest,
			ResourceID:  res.ID,
			RegistrarID: in.RequesterID,
			Time:        now,
			Artifacts:   artifactRefs(artifacts, requestNotice.ID),
		}
		if err := tx.AppendHistory(ctx, entry); err != nil {
			return err
		}

		result.Transfer = td
		if in.FeeClaim != nil {
			result.FeeResponse = &FeeResponse{
				Currency:    renewCost.Currency,
				Fee:         renewCost.Amount.String(),
				Description: "renew",
			}
		}
		return nil
	})
	if err != nil {
		return RequestResult{}, err
	}
	return result, nil
}

// ResolveInput identifies a pending transfer and the acting registrar.
type ResolveInput struct {
	TargetID string
	ActorID  string
}

// Approve resolves a pending transfer in favor of the gaining registrar,
// effective immediately. Only the losing sponsor may approve.
func (s *Service) Approve(ctx context.Context, in ResolveInput) (resource.TransferData, error) {
	now := s.now()
	var out resource.TransferData
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		res, err := s.loadTarget(ctx, tx, in.TargetID, now)
		if err != nil {
			return err
		}
		if err := s.checkResolvable(res.Transfer, now); err != nil {
			return err
		}
		if in.ActorID != res.SponsorID {
			return fmt.Errorf("%w: %s", ErrNotTransferParty, in.ActorID)
		}
		cfg, err := s.registries.Get(ctx, res.TLD)
		if err != nil {
			return err
		}
		td := res.Transfer
		entryID := uuid.New()

		if err := annulScheduledArtifacts(ctx, tx, td.ServerApprove); err != nil {
			return err
		}

		newExpiration := resource.ExtendRegistrationWithCap(
			now, res.ExpirationTime, td.ExtendedYears, cfg.MaxRegistrationYears)

		transferEvent := billing.OneTime{
			Header: billing.Header{
				ID:          uuid.New(),
				Reason:      billing.ReasonTransfer,
				TargetID:    res.ID,
				RegistrarID: td.GainingRegistrarID,
				HistoryID:   entryID,
				EventTime:   now,
			},
			Cost:        cfg.RenewPrice(res.Name, td.ExtendedYears, now),
			PeriodYears: td.ExtendedYears,
			BillingTime: now.Add(cfg.TransferGracePeriodLength),
		}
		autorenewEvent := billing.Recurring{
			Header: billing.Header{
				ID:          uuid.New(),
				Reason:      billing.ReasonAutoRenew,
				TargetID:    res.ID,
				RegistrarID: td.GainingRegistrarID,
				HistoryID:   entryID,
				EventTime:   newExpiration,
			},
			RecurrenceEnd: shared.EndOfTime,
		}
		autorenewPoll := poll.Message{
			ID:           uuid.New(),
			Kind:         poll.KindAutorenew,
			RegistrarID:  td.GainingRegistrarID,
			TargetID:     res.ID,
			HistoryID:    entryID,
			EventTime:    newExpiration,
			AutorenewEnd: shared.EndOfTime,
			Msg:          "Resource was auto-renewed.",
		}
		if err := tx.InsertOneTime(ctx, transferEvent); err != nil {
			return err
		}
		if err := tx.InsertRecurring(ctx, autorenewEvent); err != nil {
			return err
		}
		if err := tx.InsertPollMessage(ctx, autorenewPoll); err != nil {
			return err
		}
		graceEnd := res.ExpirationTime.Add(cfg.AutorenewGracePeriodLength)
		if !now.Before(res.ExpirationTime) && now.Before(graceEnd) {
			cancellation := billing.Cancellation{
				Header: billing.Header{
					ID:          uuid.New(),
					Reason:      billing.ReasonAutoRenew,
					TargetID:    res.ID,
					RegistrarID: res.SponsorID,
					HistoryID:   entryID,
					EventTime:   now,
				},
				EventID:     res.AutorenewEventID,
				BillingTime: graceEnd,
			}
			if err := tx.InsertCancellation(ctx, cancellation); err != nil {
				return err
			}
		}
		if err := tx.UpdateRecurrenceEnd(ctx, res.AutorenewEventID, now); err != nil {
			return err
		}

		resolved := td.Resolve(resource.TransferStatusClientApproved, now)
		res.SponsorID = td.GainingRegistrarID
		res.ExpirationTime = newExpiration
		res.AutorenewEventID = autorenewEvent.ID
		res.AutorenewPollID = autorenewPoll.ID
		res.Transfer = resolved
		if err := tx.UpdateResourceOnTransferred(ctx, res, now); err != nil {
			return err
		}

		notice := poll.Message{
			ID:           uuid.New(),
			Kind:         poll.KindOneTime,
			RegistrarID:  td.GainingRegistrarID,
			TargetID:     res.ID,
			HistoryID:    entryID,
			EventTime:    now,
			AutorenewEnd: shared.EndOfTime,
			Msg:          "Transfer approved.",
		}
		if err := tx.InsertPollMessage(ctx, notice); err != nil {
			return err
		}
		entry := history.Entry{
			ID:          entryID,
			Type:        history.TypeTransferApprove,
			ResourceID:  res.ID,
			RegistrarID: in.ActorID,
			Time:        now,
			Artifacts: map[string]string{
				"transfer_event":  transferEvent.ID.String(),
				"autorenew_event": autorenewEvent.ID.String(),
				"autorenew_poll":  autorenewPoll.ID.String(),
				"notice":          notice.ID.String(),
			},
		}
		if err := tx.AppendHistory(ctx, entry); err != nil {
			return err
		}
		out = resolved
		return nil
	})
	if err != nil {
		return resource.TransferData{}, err
	}
	return out, nil
}

// Reject resolves a pending transfer against the gaining registrar. Only
// the losing sponsor may reject.
func (s *Service) Reject(ctx context.Context, in ResolveInput) (resource.TransferData, error) {
	return s.resolveWithoutTransfer(ctx, in, resource.TransferStatusClientRejected, history.TypeTransferReject, "Transfer rejected.")
}

// Cancel withdraws a pending transfer. Only the gaining registrar may
// cancel its own request.
func (s *Service) Cancel(ctx context.Context, in ResolveInput) (resource.TransferData, error) {
	return s.resolveWithoutTransfer(ctx, in, resource.TransferStatusClientCancelled, history.TypeTransferCancel, "Transfer cancelled.")
}

func (s *Service) resolveWithoutTransfer(ctx context.Context, in ResolveInput, to resource.TransferStatus, entryType history.Type, noticeMsg string) (resource.TransferData, error) {
	now := s.now()
	var out resource.TransferData
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		res, err := s.loadTarget(ctx, tx, in.TargetID, now)
		if err != nil {
			return err
		}
		if err := s.checkResolvable(res.Transfer, now); err != nil {
			return err
		}
		td := res.Transfer
		var notifyID string
		switch to {
		case resource.TransferStatusClientRejected:
			if in.ActorID != td.LosingRegistrarID {
				return fmt.Errorf("%w: %s", ErrNotTransferParty, in.ActorID)
			}
			notifyID = td.GainingRegistrarID
		case resource.TransferStatusClientCancelled:
			if in.ActorID != td.GainingRegistrarID {
				return fmt.Errorf("%w: %s", ErrNotTransferParty, in.ActorID)
			}
			notifyID = td.LosingRegistrarID
		default:
			return fmt.Errorf("transfer: cannot resolve to %s", to)
		}

		if err := annulScheduledArtifacts(ctx, tx, td.ServerApprove); err != nil {
			return err
		}
		// Reinstate the losing registrar's autorenew stream; the transfer
		// is no longer going to end it.
		if err := tx.UpdateRecurrenceEnd(ctx, res.AutorenewEventID, shared.EndOfTime); err != nil {
			return err
		}

		entryID := uuid.New()
		resolved := td.Resolve(to, now)
		if err := tx.UpdateResourceTransfer(ctx, res.ID, resolved, now); err != nil {
			return err
		}
		notice := poll.Message{
			ID:           uuid.New(),
			Kind:         poll.KindOneTime,
			RegistrarID:  notifyID,
			TargetID:     res.ID,
			HistoryID:    entryID,
			EventTime:    now,
			AutorenewEnd: shared.EndOfTime,
			Msg:          noticeMsg,
		}
		if err := tx.InsertPollMessage(ctx, notice); err != nil {
			return err
		}
		entry := history.Entry{
			ID:          entryID,
			Type:        entryType,
			ResourceID:  res.ID,
			RegistrarID: in.ActorID,
			Time:        now,
			Artifacts:   map[string]string{"notice": notice.ID.String()},
		}
		if err := tx.AppendHistory(ctx, entry); err != nil {
			return err
		}
		out = resolved
		return nil
	})
	if err != nil {
		return resource.TransferData{}, err
	}
	return out, nil
}

func (s *Service) loadTarget(ctx context.Context, tx TxRepository, id string, now time.Time) (resource.Resource, error) {
	res, err := tx.GetResourceForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return resource.Resource{}, fmt.Errorf("%w: %s", ErrResourceNotFound, id)
		}
		return resource.Resource{}, err
	}
	if res.DeletedAt(now) {
		return resource.Resource{}, fmt.Errorf("%w: %s", ErrResourceNotFound, id)
	}
	return res, nil
}

// checkResolvable guards explicit resolutions. A transfer whose automatic
// approval deadline has passed is treated as already resolved unless the
// deadline-race policy says otherwise.
func (s *Service) checkResolvable(td resource.TransferData, now time.Time) error {
	if td.Status != resource.TransferStatusPending {
		return ErrNotPending
	}
	if !s.policy.ExplicitResolveAfterDeadline && !now.Before(td.PendingExpiration) {
		return fmt.Errorf("%w: automatically approved at %s", ErrNotPending, td.PendingExpiration.UTC().Format(time.RFC3339))
	}
	return nil
}

// annulScheduledArtifacts removes the server-approve entities so the
// automatic approval can never fire after an explicit resolution.
func annulScheduledArtifacts(ctx context.Context, tx TxRepository, a resource.ServerApproveArtifacts) error {
	if err := tx.DeleteBillingEvent(ctx, a.TransferEventID); err != nil {
		return err
	}
	if err := tx.DeleteBillingEvent(ctx, a.AutorenewEventID); err != nil {
		return err
	}
	if err := tx.DeletePollMessage(ctx, a.AutorenewPollID); err != nil {
		return err
	}
	if a.AutorenewCancellationID != uuid.Nil {
		if err := tx.DeleteBillingEvent(ctx, a.AutorenewCancellationID); err != nil {
			return err
		}
	}
	return nil
}

// checkPremiumAndFees enforces premium-name policy and validates the fee
// claim: currency first, then scale, then the amount itself.
func checkPremiumAndFees(cfg registry.Config, name string, claim *money.Money, cost money.Money, superuser bool) error {
	premium := cfg.IsPremiumName(name)
	if premium && !superuser && cfg.IsPremiumNameBlocked(name) {
		return fmt.Errorf("%w: %s", ErrPremiumNameBlocked, name)
	}
	if claim == nil {
		if premium && !superuser {
			return fmt.Errorf("%w: %s", ErrFeesRequiredForPremiumName, name)
		}
		return nil
	}
	if err := claim.CheckAgainst(cost); err != nil {
		return err
	}
	if !claim.Equal(cost) {
		return fmt.Errorf("%w: claimed %s, required %s", ErrFeesMismatch, claim, cost)
	}
	return nil
}

func artifactRefs(a resource.ServerApproveArtifacts, requestNoticeID uuid.UUID) map[string]string {
	refs := map[string]string{
		"transfer_event":  a.TransferEventID.String(),
		"autorenew_event": a.AutorenewEventID.String(),
		"autorenew_poll":  a.AutorenewPollID.String(),
		"request_notice":  requestNoticeID.String(),
	}
	if a.AutorenewCancellationID != uuid.Nil {
		refs["autorenew_cancellation"] = a.AutorenewCancellationID.String()
	}
	return refs
}
