package transfer

import "errors"

// Domain failures, detected before any mutation. Input and policy errors
// are client-caused and never retried; transient store failures are handled
// separately by the transaction layer.
var (
	// ErrResourceNotFound: target resource absent or already deleted.
	ErrResourceNotFound = errors.New("transfer: resource does not exist")
	// ErrMissingAuthInfo: no auth info supplied with the request.
	ErrMissingAuthInfo = errors.New("transfer: auth info required")
	// ErrBadAuthInfo: supplied auth info does not match the resource's.
	ErrBadAuthInfo = errors.New("transfer: bad auth info for resource")
	// ErrAlreadySponsored: requester already sponsors the resource.
	ErrAlreadySponsored = errors.New("transfer: object already sponsored by requester")
	// ErrAlreadyPending: a transfer is already in flight.
	ErrAlreadyPending = errors.New("transfer: transfer already pending")
	// ErrNotPending: no pending transfer to resolve.
	ErrNotPending = errors.New("transfer: no pending transfer")
	// ErrNotAuthorizedForTLD: requester may not provision in the namespace.
	ErrNotAuthorizedForTLD = errors.New("transfer: registrar not authorized for tld")
	// ErrUnknownRegistrar: requester id has no registrar record.
	ErrUnknownRegistrar = errors.New("transfer: unknown registrar")
	// ErrBadPeriodUnit: extension period not expressed in whole years.
	ErrBadPeriodUnit = errors.New("transfer: period must be in years")
	// ErrFeesRequiredForPremiumName: premium name transferred without a fee claim.
	ErrFeesRequiredForPremiumName = errors.New("transfer: fees required for premium name")
	// ErrFeesMismatch: claimed fee does not match the computed cost.
	ErrFeesMismatch = errors.New("transfer: fees do not match required amount")
	// ErrPremiumNameBlocked: premium name administratively blocked.
	ErrPremiumNameBlocked = errors.New("transfer: premium name blocked")
	// ErrNotTransferParty: actor is neither gaining nor losing registrar.
	ErrNotTransferParty = errors.New("transfer: registrar is not a party to this transfer")
	// ErrStatusProhibitsOperation: a resource status forbids transfers.
	ErrStatusProhibitsOperation = errors.New("transfer: resource status prohibits operation")
)
