package swaparoo

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/swaparoo/swaparoo/asset"
)

// TestShapeMatches tests the symmetric-shape matching of counter-proposals
// against a shape built from a proposer's want.
func TestShapeMatches(t *testing.T) {
	t.Parallel()

	want := asset.Allocation{
		"Cow": asset.NewBagAmount(
			"cows", asset.Bag{"Milky White": 1},
		),
		"MagicBeans": asset.NewAmount("beans", 5),
	}
	shape := ShapeFromWant(want)

	exactGive := asset.Allocation{
		"Cow": asset.NewBagAmount(
			"cows", asset.Bag{"Milky White": 1},
		),
		"MagicBeans": asset.NewAmount("beans", 5),
	}

	testCases := []struct {
		name  string
		give  asset.Allocation
		match bool
	}{{
		name:  "exact match",
		give:  exactGive,
		match: true,
	}, {
		name: "more than wanted",
		give: asset.Allocation{
			"Cow": asset.NewBagAmount(
				"cows", asset.Bag{
					"Milky White": 1,
					"Bessie":      1,
				},
			),
			"MagicBeans": asset.NewAmount("beans", 7),
		},
		match: true,
	}, {
		name: "extra keyword rides along",
		give: func() asset.Allocation {
			give := exactGive.Clone()
			give["Refund"] = asset.NewAmount("IST", 1)
			return give
		}(),
		match: true,
	}, {
		name: "missing keyword",
		give: asset.Allocation{
			"MagicBeans": asset.NewAmount("beans", 5),
		},
		match: false,
	}, {
		name: "kind mismatch",
		give: asset.Allocation{
			"Cow": asset.NewBagAmount(
				"goats", asset.Bag{"Milky White": 1},
			),
			"MagicBeans": asset.NewAmount("beans", 5),
		},
		match: false,
	}, {
		name: "below minimum",
		give: asset.Allocation{
			"Cow": asset.NewBagAmount(
				"cows", asset.Bag{"Milky White": 1},
			),
			"MagicBeans": asset.NewAmount("beans", 4),
		},
		match: false,
	}, {
		name: "wrong item in bag",
		give: asset.Allocation{
			"Cow": asset.NewBagAmount(
				"cows", asset.Bag{"Bessie": 1},
			),
			"MagicBeans": asset.NewAmount("beans", 5),
		},
		match: false,
	}, {
		name:  "empty give",
		give:  asset.Allocation{},
		match: false,
	}}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.match, shape.Matches(tc.give))
		})
	}
}

// TestShapeEmptyWant tests that a shape built from an empty want matches
// any give.
func TestShapeEmptyWant(t *testing.T) {
	t.Parallel()

	shape := ShapeFromWant(asset.Allocation{})
	require.True(t, shape.Matches(asset.Allocation{}))
	require.True(t, shape.Matches(asset.Allocation{
		"Anything": asset.NewAmount("beans", 1),
	}))
}

// TestShapeGeneratedMismatches generates random wants and verifies that a
// give derived from the want is accepted while any keyword perturbation is
// deterministically rejected.
func TestShapeGeneratedMismatches(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(421))

	kinds := []asset.Kind{"beans", "gold", "shells", "IST"}

	for i := 0; i < 100; i++ {
		numKeywords := rng.Intn(4) + 1

		want := make(asset.Allocation, numKeywords)
		for k := 0; k < numKeywords; k++ {
			kw := asset.Keyword(fmt.Sprintf("K%d", k))
			kind := kinds[rng.Intn(len(kinds))]
			want[kw] = asset.NewAmount(
				kind, uint64(rng.Intn(1000)+1),
			)
		}
		shape := ShapeFromWant(want)

		// The mirrored give always matches.
		require.True(t, shape.Matches(want.Clone()))

		// Pick a keyword and perturb it one of three ways.
		var victim asset.Keyword
		for kw := range want {
			victim = kw
			break
		}

		perturbed := want.Clone()
		switch rng.Intn(3) {
		// Drop the keyword entirely.
		case 0:
			delete(perturbed, victim)

		// Rename the keyword to one outside the shape.
		case 1:
			perturbed["Stray"] = perturbed[victim]
			delete(perturbed, victim)

		// Shrink the amount below the minimum.
		case 2:
			amt := perturbed[victim]
			perturbed[victim] = asset.NewAmount(
				amt.Kind(), amt.Units()-1,
			)
		}

		require.False(t, shape.Matches(perturbed),
			"perturbation of %v accepted by %v", want, shape)
	}
}
