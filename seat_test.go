package swaparoo

import (
	"errors"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"
	"github.com/swaparoo/swaparoo/asset"
)

var testTime = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestSeatManager() *seatManager {
	return newSeatManager(clock.NewTestClock(testTime))
}

// TestOpenSeat tests escrowing a deposit against a proposal.
func TestOpenSeat(t *testing.T) {
	t.Parallel()

	seats := newTestSeatManager()

	proposal := Proposal{
		Give: asset.Allocation{
			"MagicBeans": asset.NewAmount("beans", 5),
		},
		Want: asset.Allocation{
			"Cow": asset.NewBagAmount(
				"cows", asset.Bag{"Milky White": 1},
			),
		},
	}

	seat, err := seats.OpenSeat(proposal, proposal.Give.Clone())
	require.NoError(t, err)
	require.Equal(t, SeatActive, seat.State())
	require.True(t, seat.Holdings().Equal(proposal.Give))

	// A deposit that does not exactly match the declared give is
	// rejected before any escrow happens.
	short := asset.Allocation{
		"MagicBeans": asset.NewAmount("beans", 4),
	}
	_, err = seats.OpenSeat(proposal, short)

	var mismatch *ProposalMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.True(t, mismatch.Declared.Equal(proposal.Give))
	require.True(t, mismatch.Deposited.Equal(short))

	// Extra assets beyond the declared give are rejected too.
	extra, err := proposal.Give.Add(asset.Allocation{
		"Fee": asset.NewAmount("IST", 1),
	})
	require.NoError(t, err)
	_, err = seats.OpenSeat(proposal, extra)
	require.ErrorAs(t, err, &mismatch)
}

// TestSeatExit tests the exit transitions and their single-shot semantics.
func TestSeatExit(t *testing.T) {
	t.Parallel()

	seats := newTestSeatManager()

	proposal := Proposal{
		Give: asset.Allocation{
			"MagicBeans": asset.NewAmount("beans", 5),
		},
	}

	seat, err := seats.OpenSeat(proposal, proposal.Give.Clone())
	require.NoError(t, err)

	// Payouts are not available while the seat is active.
	_, err = seat.Payout("MagicBeans")
	require.ErrorIs(t, err, ErrSeatActive)
	_, err = seat.Payouts()
	require.ErrorIs(t, err, ErrSeatActive)

	require.NoError(t, seats.ExitOk(seat))
	require.Equal(t, SeatExitedOk, seat.State())

	// Only the first exit per seat succeeds, of either flavor.
	require.ErrorIs(t, seats.ExitOk(seat), ErrSeatClosed)
	require.ErrorIs(
		t, seats.ExitFail(seat, errors.New("nope")), ErrSeatClosed,
	)

	payout, err := seat.Payout("MagicBeans")
	require.NoError(t, err)
	require.Equal(t, uint64(5), payout.Units())

	// Unknown but valid keywords yield the empty amount, not an error.
	payout, err = seat.Payout("Unheard")
	require.NoError(t, err)
	require.True(t, payout.IsEmpty())
}

// TestSeatExitFail tests that a failed seat records its reason and keeps
// its deposit refund-ready.
func TestSeatExitFail(t *testing.T) {
	t.Parallel()

	seats := newTestSeatManager()

	proposal := Proposal{
		Give: asset.Allocation{
			"MagicBeans": asset.NewAmount("beans", 5),
		},
	}

	seat, err := seats.OpenSeat(proposal, proposal.Give.Clone())
	require.NoError(t, err)

	reason := errors.New("counterparty never showed")
	require.NoError(t, seats.ExitFail(seat, reason))
	require.Equal(t, SeatExitedFail, seat.State())
	require.ErrorIs(t, seat.FailReason(), reason)

	payouts, err := seat.Payouts()
	require.NoError(t, err)
	require.True(t, payouts.Equal(proposal.Give))
}

// TestSeatIDsUnique tests that seats within one manager get distinct ids.
func TestSeatIDsUnique(t *testing.T) {
	t.Parallel()

	seats := newTestSeatManager()

	first := seats.OpenEmptySeat()
	second := seats.OpenEmptySeat()
	require.NotEqual(t, first.ID(), second.ID())
}
