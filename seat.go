package swaparoo

import (
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/swaparoo/swaparoo/asset"
)

// SeatState is the lifecycle state of an escrow seat.
type SeatState uint8

const (
	// SeatActive is the state of a seat whose assets are escrowed and
	// may still take part in transfer legs.
	SeatActive SeatState = 0

	// SeatExitedOk is the state of a seat that exited after a completed
	// swap. Its holdings are payout-ready.
	SeatExitedOk SeatState = 1

	// SeatExitedFail is the state of a seat that exited on a failure.
	// Its holdings equal the original deposit and are refund-ready.
	SeatExitedFail SeatState = 2
)

// String returns a human readable form of the seat state.
func (s SeatState) String() string {
	switch s {
	case SeatActive:
		return "Active"

	case SeatExitedOk:
		return "ExitedOk"

	case SeatExitedFail:
		return "ExitedFail"

	default:
		return "Unknown"
	}
}

// Seat is the escrow holding area for one party's assets during a swap
// attempt. A seat's holdings change only through the atomic transfer engine
// or through its exit transitions, and all transitions are serialized by
// the owning broker.
type Seat struct {
	id        uint64
	proposal  Proposal
	holdings  asset.Allocation
	state     SeatState
	failErr   error
	createdAt time.Time
}

// ID returns the seat's identifier, unique within the broker instance.
func (s *Seat) ID() uint64 {
	return s.id
}

// Proposal returns the proposal the seat was opened with.
func (s *Seat) Proposal() Proposal {
	return s.proposal.Clone()
}

// State returns the seat's current lifecycle state.
func (s *Seat) State() SeatState {
	return s.state
}

// Holdings returns a copy of the assets currently held by the seat.
func (s *Seat) Holdings() asset.Allocation {
	return s.holdings.Clone()
}

// FailReason returns the error the seat failed with, or nil if the seat did
// not fail.
func (s *Seat) FailReason() error {
	return s.failErr
}

// Payout returns the amount held under the given keyword. It may only be
// called after the seat has exited; keywords never credited yield the empty
// amount rather than an error.
func (s *Seat) Payout(keyword asset.Keyword) (asset.Amount, error) {
	if s.state == SeatActive {
		return asset.Amount{}, ErrSeatActive
	}
	return s.holdings[keyword], nil
}

// Payouts returns all amounts held by the seat. It may only be called after
// the seat has exited.
func (s *Seat) Payouts() (asset.Allocation, error) {
	if s.state == SeatActive {
		return nil, ErrSeatActive
	}
	return s.holdings.Clone(), nil
}

// exitOk transitions the seat out of Active after a completed swap.
func (s *Seat) exitOk() error {
	if s.state != SeatActive {
		return ErrSeatClosed
	}
	s.state = SeatExitedOk
	return nil
}

// exitFail transitions the seat out of Active on a failure, recording the
// reason. The holdings become refund-ready unchanged.
func (s *Seat) exitFail(reason error) error {
	if s.state != SeatActive {
		return ErrSeatClosed
	}
	s.state = SeatExitedFail
	s.failErr = reason
	return nil
}

// seatManager owns the per-party escrow seats of one broker instance. All
// calls are serialized by the broker.
type seatManager struct {
	clock  clock.Clock
	nextID uint64
}

// newSeatManager creates a seat manager using the given time source.
func newSeatManager(clock clock.Clock) *seatManager {
	return &seatManager{
		clock: clock,
	}
}

// OpenSeat escrows the deposited assets against the proposal and returns a
// new active seat. The deposit must exactly equal the proposal's give.
func (m *seatManager) OpenSeat(proposal Proposal,
	deposit asset.Allocation) (*Seat, error) {

	if !deposit.Equal(proposal.Give) {
		return nil, &ProposalMismatchError{
			Declared:  proposal.Give.Clone(),
			Deposited: deposit.Clone(),
		}
	}

	seat := m.newSeat(proposal.Clone(), deposit.Clone())

	log.Debugf("Opened seat %v holding %v", seat.id, seat.holdings)

	return seat, nil
}

// OpenEmptySeat returns a new active seat with no proposal and no holdings.
// The broker uses one as its long-lived fee seat.
func (m *seatManager) OpenEmptySeat() *Seat {
	return m.newSeat(Proposal{}, make(asset.Allocation))
}

// ExitOk transitions a seat out of Active after a completed swap. A second
// exit of any sort fails with ErrSeatClosed.
func (m *seatManager) ExitOk(seat *Seat) error {
	if err := seat.exitOk(); err != nil {
		return err
	}

	log.Debugf("Seat %v exited ok, payouts %v", seat.id, seat.holdings)

	return nil
}

// ExitFail transitions a seat out of Active on a failure. A second exit of
// any sort fails with ErrSeatClosed.
func (m *seatManager) ExitFail(seat *Seat, reason error) error {
	if err := seat.exitFail(reason); err != nil {
		return err
	}

	log.Debugf("Seat %v exited with failure: %v", seat.id, reason)

	return nil
}

func (m *seatManager) newSeat(proposal Proposal,
	holdings asset.Allocation) *Seat {

	m.nextID++
	return &Seat{
		id:        m.nextID,
		proposal:  proposal,
		holdings:  holdings,
		createdAt: m.clock.Now(),
	}
}
