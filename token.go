package swaparoo

import (
	"crypto/rand"
	"crypto/sha256"
	"time"

	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/swaparoo/swaparoo/fsm"
)

// Match token lifecycle states. A token is minted bound to the shape the
// counter-proposal must satisfy, delivered to the nominated address, and
// then either redeemed exactly once or burned on a mismatch.
const (
	// StateTokenMinted is the initial state of a freshly minted token.
	StateTokenMinted = fsm.StateType("Minted")

	// StateTokenDelivered is the state of a token that was handed to the
	// messaging substrate for the nominated counterparty. Only a
	// delivered token is redeemable.
	StateTokenDelivered = fsm.StateType("Delivered")

	// StateTokenRedeemed is the terminal state of a token consumed by a
	// successful swap.
	StateTokenRedeemed = fsm.StateType("Redeemed")

	// StateTokenBurned is the terminal state of a token consumed by a
	// mismatch, a rejected transfer or expiry.
	StateTokenBurned = fsm.StateType("Burned")
)

// Match token lifecycle events.
const (
	// EventTokenDeliver transitions Minted to Delivered.
	EventTokenDeliver = fsm.EventType("Deliver")

	// EventTokenRedeem transitions Delivered to Redeemed.
	EventTokenRedeem = fsm.EventType("Redeem")

	// EventTokenBurn transitions Minted or Delivered to Burned.
	EventTokenBurn = fsm.EventType("Burn")
)

// newTokenMachine returns the lifecycle state machine of a single match
// token. The machine's guarded transitions are what make the token
// single-use: any event sent in a terminal state is rejected.
func newTokenMachine() (*fsm.Machine, error) {
	return fsm.NewMachine(StateTokenMinted, fsm.States{
		StateTokenMinted: fsm.State{
			Transitions: fsm.Transitions{
				EventTokenDeliver: StateTokenDelivered,
				EventTokenBurn:    StateTokenBurned,
			},
		},
		StateTokenDelivered: fsm.State{
			Transitions: fsm.Transitions{
				EventTokenRedeem: StateTokenRedeemed,
				EventTokenBurn:   StateTokenBurned,
			},
		},
		StateTokenRedeemed: fsm.State{},
		StateTokenBurned:   fsm.State{},
	})
}

// Token is the opaque, single-use capability a counterparty needs to redeem
// a swap. It carries nothing but an unforgeable identifier; the bound shape
// and lifecycle state live in the broker's table.
type Token struct {
	id lntypes.Hash
}

// newToken mints a token with a random identifier.
func newToken() (*Token, error) {
	var preimage lntypes.Preimage
	if _, err := rand.Read(preimage[:]); err != nil {
		return nil, err
	}

	return &Token{
		id: lntypes.Hash(sha256.Sum256(preimage[:])),
	}, nil
}

// ID returns the token's identifier.
func (t *Token) ID() lntypes.Hash {
	return t.id
}

// String returns a shortened identifier suitable for logging.
func (t *Token) String() string {
	return ShortHash(&t.id)
}

// swapRecord is the broker's server-side table entry for one swap attempt.
// Possession of the matching Token handle plus this record's machine being
// in the delivered state is what authorizes redemption.
type swapRecord struct {
	token        *Token
	shape        Shape
	proposerSeat *Seat
	machine      *fsm.Machine
	mintedAt     time.Time
}
