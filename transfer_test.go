package swaparoo

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/swaparoo/swaparoo/asset"
)

// TestAtomicEngineCommit tests that a valid batch moves every leg and
// conserves assets across the involved seats.
func TestAtomicEngineCommit(t *testing.T) {
	t.Parallel()

	seats := newTestSeatManager()
	engine := NewAtomicEngine()

	aliceProposal := Proposal{
		Give: asset.Allocation{
			"MagicBeans": asset.NewAmount("beans", 5),
			"Fee":        asset.NewAmount("IST", 10),
		},
	}
	alice, err := seats.OpenSeat(aliceProposal, aliceProposal.Give.Clone())
	require.NoError(t, err)

	jackProposal := Proposal{
		Give: asset.Allocation{
			"Cow": asset.NewBagAmount(
				"cows", asset.Bag{"Milky White": 1},
			),
		},
	}
	jack, err := seats.OpenSeat(jackProposal, jackProposal.Give.Clone())
	require.NoError(t, err)

	feeSeat := seats.OpenEmptySeat()

	err = engine.Commit([]TransferLeg{
		{From: alice, To: jack, Assets: asset.Allocation{
			"MagicBeans": asset.NewAmount("beans", 5),
		}},
		{From: jack, To: alice, Assets: jackProposal.Give},
		{From: alice, To: feeSeat, Assets: asset.Allocation{
			"Fee": asset.NewAmount("IST", 10),
		}},
	})
	require.NoError(t, err)

	require.True(t, alice.Holdings().Equal(asset.Allocation{
		"Cow": asset.NewBagAmount(
			"cows", asset.Bag{"Milky White": 1},
		),
	}))
	require.True(t, jack.Holdings().Equal(asset.Allocation{
		"MagicBeans": asset.NewAmount("beans", 5),
	}))
	require.True(t, feeSeat.Holdings().Equal(asset.Allocation{
		"Fee": asset.NewAmount("IST", 10),
	}))
}

// TestAtomicEngineRejection tests that a batch with one uncovered leg
// leaves every seat's holdings byte-identical.
func TestAtomicEngineRejection(t *testing.T) {
	t.Parallel()

	seats := newTestSeatManager()
	engine := NewAtomicEngine()

	proposal := Proposal{
		Give: asset.Allocation{
			"MagicBeans": asset.NewAmount("beans", 5),
		},
	}
	alice, err := seats.OpenSeat(proposal, proposal.Give.Clone())
	require.NoError(t, err)

	jack := seats.OpenEmptySeat()

	before := alice.Holdings()

	// The first leg is coverable, the second is not: the whole batch
	// must be rejected with no observable movement.
	err = engine.Commit([]TransferLeg{
		{From: alice, To: jack, Assets: asset.Allocation{
			"MagicBeans": asset.NewAmount("beans", 3),
		}},
		{From: jack, To: alice, Assets: asset.Allocation{
			"Cow": asset.NewBagAmount(
				"cows", asset.Bag{"Milky White": 1},
			),
		}},
	})
	require.ErrorIs(t, err, asset.ErrInsufficient)

	require.True(t, alice.Holdings().Equal(before))
	require.True(t, jack.Holdings().IsEmpty())
}

// TestAtomicEngineStagedDebits tests that multiple legs debiting the same
// seat are staged cumulatively, so a batch exceeding the seat's holdings in
// aggregate is rejected even though each leg alone would be covered.
func TestAtomicEngineStagedDebits(t *testing.T) {
	t.Parallel()

	seats := newTestSeatManager()
	engine := NewAtomicEngine()

	proposal := Proposal{
		Give: asset.Allocation{
			"MagicBeans": asset.NewAmount("beans", 5),
		},
	}
	alice, err := seats.OpenSeat(proposal, proposal.Give.Clone())
	require.NoError(t, err)

	jack := seats.OpenEmptySeat()

	err = engine.Commit([]TransferLeg{
		{From: alice, To: jack, Assets: asset.Allocation{
			"MagicBeans": asset.NewAmount("beans", 3),
		}},
		{From: alice, To: jack, Assets: asset.Allocation{
			"MagicBeans": asset.NewAmount("beans", 3),
		}},
	})
	require.ErrorIs(t, err, asset.ErrInsufficient)
	require.Equal(t, uint64(5), alice.Holdings()["MagicBeans"].Units())
}

// TestAtomicEngineClosedSeat tests that legs touching a non-active seat are
// rejected.
func TestAtomicEngineClosedSeat(t *testing.T) {
	t.Parallel()

	seats := newTestSeatManager()
	engine := NewAtomicEngine()

	proposal := Proposal{
		Give: asset.Allocation{
			"MagicBeans": asset.NewAmount("beans", 5),
		},
	}
	alice, err := seats.OpenSeat(proposal, proposal.Give.Clone())
	require.NoError(t, err)

	jack := seats.OpenEmptySeat()
	require.NoError(t, seats.ExitOk(jack))

	err = engine.Commit([]TransferLeg{
		{From: alice, To: jack, Assets: asset.Allocation{
			"MagicBeans": asset.NewAmount("beans", 5),
		}},
	})
	require.Error(t, err)
	require.Equal(t, uint64(5), alice.Holdings()["MagicBeans"].Units())
}
