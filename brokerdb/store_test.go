package brokerdb

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/stretchr/testify/require"
	"github.com/swaparoo/swaparoo/asset"
)

var (
	testTime = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	testContract = &SwapContract{
		InitiationTime: testTime,
		FeeAmount:      asset.NewAmount("IST", 1_000_000),
		Give: asset.Allocation{
			"MagicBeans": asset.NewAmount("beans", 5),
			"Fee":        asset.NewAmount("IST", 1_000_000),
		},
		Want: asset.Allocation{
			"Cow": asset.NewBagAmount(
				"cows", asset.Bag{"Milky White": 1, "Bessie": 1},
			),
		},
	}
)

func testHash(b byte) lntypes.Hash {
	return lntypes.Hash(sha256.Sum256([]byte{b}))
}

// runStoreTest runs the given test against both store implementations.
func runStoreTest(t *testing.T, test func(*testing.T, Store)) {
	t.Run("bolt", func(t *testing.T) {
		t.Parallel()

		store, err := NewBoltStore(t.TempDir())
		require.NoError(t, err)
		defer func() {
			require.NoError(t, store.Close())
		}()

		test(t, store)
	})

	t.Run("mock", func(t *testing.T) {
		t.Parallel()

		test(t, NewStoreMock())
	})
}

// TestStoreRoundTrip tests that a created swap comes back with its contract
// intact, bag amounts and all, and its update log in insertion order.
func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	runStoreTest(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		hash := testHash(1)

		require.NoError(t, store.CreateSwap(ctx, hash, testContract))

		require.NoError(t, store.UpdateSwap(
			ctx, hash, testTime.Add(time.Minute), StateDelivered,
		))
		require.NoError(t, store.UpdateSwap(
			ctx, hash, testTime.Add(2*time.Minute), StateCompleted,
		))

		swaps, err := store.FetchSwaps(ctx)
		require.NoError(t, err)
		require.Len(t, swaps, 1)

		swap := swaps[0]
		require.Equal(t, hash, swap.Hash)
		require.Equal(
			t, testTime, swap.Contract.InitiationTime.UTC(),
		)
		require.True(
			t, swap.Contract.FeeAmount.Equal(testContract.FeeAmount),
		)
		require.True(t, swap.Contract.Give.Equal(testContract.Give))
		require.True(t, swap.Contract.Want.Equal(testContract.Want))

		require.Len(t, swap.Updates, 2)
		require.Equal(t, StateDelivered, swap.Updates[0].State)
		require.Equal(
			t, testTime.Add(time.Minute), swap.Updates[0].Time.UTC(),
		)
		require.Equal(t, StateCompleted, swap.State())
	})
}

// TestStoreMultipleSwaps tests fetching more than one stored swap.
func TestStoreMultipleSwaps(t *testing.T) {
	t.Parallel()

	runStoreTest(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		require.NoError(t, store.CreateSwap(
			ctx, testHash(1), testContract,
		))
		require.NoError(t, store.CreateSwap(
			ctx, testHash(2), testContract,
		))
		require.NoError(t, store.UpdateSwap(
			ctx, testHash(2), testTime, StateAborted,
		))

		swaps, err := store.FetchSwaps(ctx)
		require.NoError(t, err)
		require.Len(t, swaps, 2)

		states := make(map[lntypes.Hash]SwapState)
		for _, swap := range swaps {
			states[swap.Hash] = swap.State()
		}
		require.Equal(t, StateProposed, states[testHash(1)])
		require.Equal(t, StateAborted, states[testHash(2)])
	})
}

// TestStoreDuplicateCreate tests that a token hash creates at most one
// swap.
func TestStoreDuplicateCreate(t *testing.T) {
	t.Parallel()

	runStoreTest(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		hash := testHash(1)

		require.NoError(t, store.CreateSwap(ctx, hash, testContract))
		require.Error(t, store.CreateSwap(ctx, hash, testContract))
	})
}

// TestStoreUpdateUnknownSwap tests that updates require a created swap.
func TestStoreUpdateUnknownSwap(t *testing.T) {
	t.Parallel()

	runStoreTest(t, func(t *testing.T, store Store) {
		err := store.UpdateSwap(
			context.Background(), testHash(9), testTime,
			StateDelivered,
		)
		require.Error(t, err)
	})
}

// TestStoreReopen tests that a bolt store keeps its swaps across close and
// reopen, which is what the consumed-token guard relies on.
func TestStoreReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewBoltStore(dir)
	require.NoError(t, err)

	hash := testHash(1)
	require.NoError(t, store.CreateSwap(ctx, hash, testContract))
	require.NoError(t, store.UpdateSwap(
		ctx, hash, testTime, StateCompleted,
	))
	require.NoError(t, store.Close())

	store, err = NewBoltStore(dir)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, store.Close())
	}()

	swaps, err := store.FetchSwaps(ctx)
	require.NoError(t, err)
	require.Len(t, swaps, 1)
	require.Equal(t, hash, swaps[0].Hash)
	require.Equal(t, StateCompleted, swaps[0].State())
}
