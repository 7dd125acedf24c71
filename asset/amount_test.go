package asset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFungibleAmount tests arithmetic and comparison on fungible amounts.
func TestFungibleAmount(t *testing.T) {
	t.Parallel()

	five := NewAmount("beans", 5)
	three := NewAmount("beans", 3)

	require.Equal(t, Kind("beans"), five.Kind())
	require.Equal(t, ClassFungible, five.Class())
	require.False(t, five.IsEmpty())
	require.True(t, NewAmount("beans", 0).IsEmpty())

	sum, err := five.Add(three)
	require.NoError(t, err)
	require.Equal(t, uint64(8), sum.Units())

	diff, err := five.Sub(three)
	require.NoError(t, err)
	require.Equal(t, uint64(2), diff.Units())

	_, err = three.Sub(five)
	require.ErrorIs(t, err, ErrInsufficient)

	gte, err := five.GTE(three)
	require.NoError(t, err)
	require.True(t, gte)

	gte, err = three.GTE(five)
	require.NoError(t, err)
	require.False(t, gte)

	require.True(t, five.Equal(NewAmount("beans", 5)))
	require.False(t, five.Equal(three))
}

// TestKindMismatch tests that amounts of different kinds never combine or
// compare equal.
func TestKindMismatch(t *testing.T) {
	t.Parallel()

	beans := NewAmount("beans", 5)
	cows := NewAmount("cows", 5)

	require.False(t, beans.Equal(cows))

	_, err := beans.Add(cows)
	require.ErrorIs(t, err, ErrKindMismatch)

	_, err = beans.Sub(cows)
	require.ErrorIs(t, err, ErrKindMismatch)

	_, err = beans.GTE(cows)
	require.ErrorIs(t, err, ErrKindMismatch)

	// Same kind but different classes is a programming error, not a
	// value difference.
	bagCows := NewBagAmount("cows", Bag{"Milky White": 1})
	_, err = cows.Add(bagCows)
	require.ErrorIs(t, err, ErrClassMismatch)
}

// TestBagAmount tests multiset semantics of bag amounts.
func TestBagAmount(t *testing.T) {
	t.Parallel()

	herd := NewBagAmount("cows", Bag{"Milky White": 1, "Bessie": 2})
	one := NewBagAmount("cows", Bag{"Bessie": 1})

	require.Equal(t, ClassBag, herd.Class())
	require.False(t, herd.IsEmpty())
	require.True(t, NewBagAmount("cows", Bag{}).IsEmpty())

	sum, err := herd.Add(one)
	require.NoError(t, err)
	require.Equal(t, Bag{"Milky White": 1, "Bessie": 3}, sum.Bag())

	diff, err := herd.Sub(one)
	require.NoError(t, err)
	require.Equal(t, Bag{"Milky White": 1, "Bessie": 1}, diff.Bag())

	// Removing the last item of a name drops the entry entirely.
	diff, err = diff.Sub(one)
	require.NoError(t, err)
	require.Equal(t, Bag{"Milky White": 1}, diff.Bag())

	_, err = one.Sub(herd)
	require.ErrorIs(t, err, ErrInsufficient)

	gte, err := herd.GTE(one)
	require.NoError(t, err)
	require.True(t, gte)

	gte, err = one.GTE(herd)
	require.NoError(t, err)
	require.False(t, gte)
}

// TestBagImmutability tests that bags are copied on the way in and out of
// an amount.
func TestBagImmutability(t *testing.T) {
	t.Parallel()

	bag := Bag{"Milky White": 1}
	herd := NewBagAmount("cows", bag)

	bag["Milky White"] = 99
	require.Equal(t, Bag{"Milky White": 1}, herd.Bag())

	out := herd.Bag()
	out["Milky White"] = 7
	require.Equal(t, Bag{"Milky White": 1}, herd.Bag())
}

// TestAllocation tests keyword-wise arithmetic on allocations.
func TestAllocation(t *testing.T) {
	t.Parallel()

	alloc := Allocation{
		"MagicBeans": NewAmount("beans", 5),
		"Fee":        NewAmount("IST", 1_000_000),
	}

	require.True(t, alloc.Equal(alloc.Clone()))
	require.False(t, alloc.IsEmpty())
	require.True(t, Allocation{}.IsEmpty())

	// Empty amounts are ignored for equality.
	withEmpty := alloc.Clone()
	withEmpty["Zero"] = NewAmount("beans", 0)
	require.True(t, alloc.Equal(withEmpty))

	sum, err := alloc.Add(Allocation{
		"MagicBeans": NewAmount("beans", 2),
		"Cow":        NewBagAmount("cows", Bag{"Milky White": 1}),
	})
	require.NoError(t, err)
	require.Equal(t, uint64(7), sum["MagicBeans"].Units())
	require.Len(t, sum, 3)

	diff, err := alloc.Sub(Allocation{
		"MagicBeans": NewAmount("beans", 5),
	})
	require.NoError(t, err)
	require.Len(t, diff, 1)
	require.Equal(t, uint64(1_000_000), diff["Fee"].Units())

	_, err = alloc.Sub(Allocation{
		"Cow": NewBagAmount("cows", Bag{"Milky White": 1}),
	})
	require.ErrorIs(t, err, ErrInsufficient)

	_, err = alloc.Sub(Allocation{
		"MagicBeans": NewAmount("beans", 6),
	})
	require.ErrorIs(t, err, ErrInsufficient)

	// The original allocation is never mutated by arithmetic.
	require.Equal(t, uint64(5), alloc["MagicBeans"].Units())
}
