package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-registry/meridian-registry/internal/money"
	"github.com/meridian-registry/meridian-registry/internal/resource"
	"github.com/meridian-registry/meridian-registry/internal/transfer"
)

type feeClaim struct {
	Currency string `json:"currency" validate:"required,len=3"`
	Amount   string `json:"amount" validate:"required"`
}

type requestBody struct {
	Period     int       `json:"period" validate:"required,min=1"`
	PeriodUnit string    `json:"period_unit" validate:"required"`
	AuthInfo   string    `json:"auth_info"`
	Fee        *feeClaim `json:"fee,omitempty"`
}

func (b requestBody) toInput(targetID, requesterID string, superuser bool) (transfer.RequestInput, error) {
	in := transfer.RequestInput{
		TargetID:    targetID,
		PeriodYears: b.Period,
		PeriodUnit:  b.PeriodUnit,
		AuthInfo:    b.AuthInfo,
		RequesterID: requesterID,
		Superuser:   superuser,
	}
	if b.Fee != nil {
		amount, err := decimal.NewFromString(b.Fee.Amount)
		if err != nil {
			return transfer.RequestInput{}, err
		}
		claim, err := money.New(b.Fee.Currency, amount)
		if err != nil {
			return transfer.RequestInput{}, err
		}
		in.FeeClaim = &claim
	}
	return in, nil
}

type transferDataResponse struct {
	Status             resource.TransferStatus `json:"status"`
	GainingRegistrarID string                  `json:"gaining_registrar_id,omitempty"`
	LosingRegistrarID  string                  `json:"losing_registrar_id,omitempty"`
	RequestTime        *time.Time              `json:"request_time,omitempty"`
	PendingExpiration  *time.Time              `json:"pending_expiration,omitempty"`
	ExtendedYears      int                     `json:"extended_years,omitempty"`
}

func toTransferDataResponse(td resource.TransferData) transferDataResponse {
	out := transferDataResponse{
		Status:             td.Status,
		GainingRegistrarID: td.GainingRegistrarID,
		LosingRegistrarID:  td.LosingRegistrarID,
		ExtendedYears:      td.ExtendedYears,
	}
	if !td.RequestTime.IsZero() {
		t := td.RequestTime
		out.RequestTime = &t
	}
	if !td.PendingExpiration.IsZero() {
		t := td.PendingExpiration
		out.PendingExpiration = &t
	}
	return out
}

type requestResponse struct {
	Transfer transferDataResponse  `json:"transfer"`
	Fee      *transfer.FeeResponse `json:"fee,omitempty"`
}

type queryResponse struct {
	Status            resource.TransferStatus `json:"status"`
	SponsorID         string                  `json:"sponsor_id"`
	ExpirationTime    time.Time               `json:"expiration_time"`
	PendingResolution *time.Time              `json:"pending_resolution,omitempty"`
	TransferCompleted bool                    `json:"transfer_completed,omitempty"`
}
