package swaparoo

import (
	"errors"
	"fmt"

	"github.com/swaparoo/swaparoo/asset"
)

var (
	// ErrSeatClosed is returned when a seat that already exited is asked
	// to exit again.
	ErrSeatClosed = errors.New("seat already exited")

	// ErrSeatActive is returned when a payout is requested from a seat
	// that has not exited yet.
	ErrSeatActive = errors.New("seat still active")

	// ErrTokenConsumed is returned when a match token that is not in the
	// delivered state is presented for redemption. This covers tokens
	// that were already redeemed, tokens that were burned on a mismatch,
	// tokens that raced ahead of delivery and handles the broker does
	// not know.
	ErrTokenConsumed = errors.New("match token not redeemable")

	// ErrTokenExpired is returned when a match token is presented after
	// the broker's configured expiry window has passed. The proposer's
	// seat fails and refunds on this path.
	ErrTokenExpired = errors.New("match token expired")
)

// ProposalMismatchError is returned when the assets deposited for a seat do
// not exactly equal the proposal's declared give.
type ProposalMismatchError struct {
	// Declared is the give side of the proposal.
	Declared asset.Allocation

	// Deposited is what was actually escrowed.
	Deposited asset.Allocation
}

// Error implements the error interface.
func (e *ProposalMismatchError) Error() string {
	return fmt.Sprintf("deposit %v does not match declared give %v",
		e.Deposited, e.Declared)
}

// MissingFeeError is returned when a first proposal does not escrow a fee
// that meets the broker's configured minimum.
type MissingFeeError struct {
	// Required is the broker's configured fee amount.
	Required asset.Amount

	// Offered is the fee amount found in the proposal, possibly the
	// empty amount.
	Offered asset.Amount
}

// Error implements the error interface.
func (e *MissingFeeError) Error() string {
	if e.Offered.IsEmpty() {
		return fmt.Sprintf("proposal gives no %v, required fee is %v",
			KeywordFee, e.Required)
	}
	return fmt.Sprintf("fee %v below required fee %v", e.Offered,
		e.Required)
}

// CounterProposalMismatchError is returned when a counter-offer's give does
// not satisfy the shape the match token was bound to. Both seats fail and
// refund on this path.
type CounterProposalMismatchError struct {
	// Expected is the shape the token was minted for.
	Expected Shape

	// Offered is the give side of the rejected counter-proposal.
	Offered asset.Allocation
}

// Error implements the error interface.
func (e *CounterProposalMismatchError) Error() string {
	return fmt.Sprintf("counter-proposal give %v does not satisfy "+
		"expected shape %v", e.Offered, e.Expected)
}

// AddressResolutionError is returned when the messaging substrate cannot
// resolve a delivery address to a receiving capability.
type AddressResolutionError struct {
	// Address is the address that failed to resolve.
	Address string

	// Err is the underlying resolver error, if any.
	Err error
}

// Error implements the error interface.
func (e *AddressResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot resolve address %q: %v", e.Address,
			e.Err)
	}
	return fmt.Sprintf("cannot resolve address %q", e.Address)
}

// Unwrap returns the underlying resolver error.
func (e *AddressResolutionError) Unwrap() error {
	return e.Err
}

// TransferRejectedError is returned when the atomic transfer engine rejects
// a batch. No balance change is observable on any seat and both seats fail
// and refund.
type TransferRejectedError struct {
	// Err is the engine's rejection reason.
	Err error
}

// Error implements the error interface.
func (e *TransferRejectedError) Error() string {
	return fmt.Sprintf("atomic transfer rejected: %v", e.Err)
}

// Unwrap returns the engine's rejection reason.
func (e *TransferRejectedError) Unwrap() error {
	return e.Err
}

// KindNotAllowedError is returned when a proposer attempts to register an
// issuer for an asset kind outside the broker's allow-list.
type KindNotAllowedError struct {
	// Kind is the rejected asset kind.
	Kind asset.Kind
}

// Error implements the error interface.
func (e *KindNotAllowedError) Error() string {
	return fmt.Sprintf("asset kind %q not in broker allow-list", e.Kind)
}
