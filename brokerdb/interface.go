// Package brokerdb persists the broker's swap attempts: the contract a
// match token was minted for and the append-only log of state updates the
// attempt went through. Its main purpose is to keep consumed tokens
// consumed across broker restarts.
package brokerdb

import (
	"context"
	"time"

	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/swaparoo/swaparoo/asset"
)

// SwapState is the persisted protocol state of a swap attempt.
type SwapState uint8

const (
	// StateProposed is the initial state: the proposer's assets are
	// escrowed and a match token has been minted.
	StateProposed SwapState = 0

	// StateDelivered means the match token was handed to the messaging
	// substrate for the nominated counterparty.
	StateDelivered SwapState = 1

	// StateCompleted is the terminal state of a successfully executed
	// swap.
	StateCompleted SwapState = 2

	// StateAborted is the terminal state of a swap that failed after the
	// token was minted: counter-proposal mismatch, rejected transfer or
	// token expiry.
	StateAborted SwapState = 3
)

// String returns a human readable form of the swap state.
func (s SwapState) String() string {
	switch s {
	case StateProposed:
		return "Proposed"

	case StateDelivered:
		return "Delivered"

	case StateCompleted:
		return "Completed"

	case StateAborted:
		return "Aborted"

	default:
		return "Unknown"
	}
}

// IsFinal reports whether the state is terminal. A token belonging to a
// swap in a final state can never be redeemed again.
func (s SwapState) IsFinal() bool {
	return s == StateCompleted || s == StateAborted
}

// SwapContract contains the immutable data of a swap attempt, set when the
// proposer's seat is opened.
type SwapContract struct {
	// InitiationTime is the time at which the swap was proposed.
	InitiationTime time.Time

	// FeeAmount is the brokerage fee the proposer escrowed for this
	// swap.
	FeeAmount asset.Amount

	// Give is the give side of the proposer's offer, fee included.
	Give asset.Allocation

	// Want is the want side of the proposer's offer. The match token's
	// bound shape is derived from it.
	Want asset.Allocation
}

// SwapUpdate is a single entry of a swap's state update log.
type SwapUpdate struct {
	// Time is the time the update was recorded.
	Time time.Time

	// State is the state the swap transitioned to.
	State SwapState
}

// Swap is a swap attempt together with its state update log.
type Swap struct {
	// Hash is the match token identifier of the swap.
	Hash lntypes.Hash

	// Contract is the swap's immutable contract data.
	Contract *SwapContract

	// Updates is the append-only log of state updates, oldest first.
	Updates []SwapUpdate
}

// State returns the swap's current state, which is the state of the most
// recent update, or StateProposed if no update was recorded yet.
func (s *Swap) State() SwapState {
	if len(s.Updates) == 0 {
		return StateProposed
	}
	return s.Updates[len(s.Updates)-1].State
}

// Store is the primary database interface of the broker. It houses the
// contract and state log of every swap attempt.
type Store interface {
	// CreateSwap adds an initiated swap attempt to the store.
	CreateSwap(ctx context.Context, hash lntypes.Hash,
		contract *SwapContract) error

	// UpdateSwap appends a new state update to the log of the target
	// swap.
	UpdateSwap(ctx context.Context, hash lntypes.Hash, time time.Time,
		state SwapState) error

	// FetchSwaps returns all swaps currently in the store.
	FetchSwaps(ctx context.Context) ([]*Swap, error)

	// Close closes the underlying database.
	Close() error
}
