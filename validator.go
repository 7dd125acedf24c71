package swaparoo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/swaparoo/swaparoo/asset"
)

// Predicate decides whether an offered amount satisfies one keyword of a
// shape. Predicates are pure and must not retain the amount.
type Predicate func(asset.Amount) bool

// AtLeast returns a predicate that is satisfied by any amount of the same
// kind covering at least min. This is the default per-keyword predicate for
// shapes built from a want.
func AtLeast(min asset.Amount) Predicate {
	return func(offered asset.Amount) bool {
		ok, err := offered.GTE(min)
		if err != nil {
			return false
		}
		return ok
	}
}

// ShapeEntry is the constraint a shape places on a single keyword.
type ShapeEntry struct {
	// Kind is the required asset kind.
	Kind asset.Kind

	// Min is the minimum amount encoded at shape-construction time. It
	// is retained for diagnostics and persistence; Match is
	// authoritative.
	Min asset.Amount

	// Match is the per-keyword predicate an offered amount must satisfy.
	Match Predicate
}

// Shape is the required give-shape for a counter-proposal, built from the
// first party's want. It is a pure description: matching never mutates
// anything and never fails with an error.
type Shape map[asset.Keyword]ShapeEntry

// ShapeFromWant translates a proposer's want into the shape the
// counterparty's give must satisfy: one entry per want keyword, requiring
// the same kind and at least the wanted amount.
func ShapeFromWant(want asset.Allocation) Shape {
	shape := make(Shape, len(want))
	for kw, amt := range want {
		if amt.IsEmpty() {
			continue
		}
		shape[kw] = ShapeEntry{
			Kind:  amt.Kind(),
			Min:   amt,
			Match: AtLeast(amt),
		}
	}
	return shape
}

// Matches reports whether the offered give satisfies every entry of the
// shape. A missing keyword, a kind mismatch or a failed predicate all
// return false. Keywords in the give beyond the shape's entries are
// permitted and ignored; they simply ride along in the swap.
func (s Shape) Matches(give asset.Allocation) bool {
	for kw, entry := range s {
		offered, ok := give[kw]
		if !ok {
			return false
		}
		if offered.Kind() != entry.Kind {
			return false
		}
		if entry.Match != nil && !entry.Match(offered) {
			return false
		}
	}
	return true
}

// String renders the shape's keyword constraints in stable order.
func (s Shape) String() string {
	keywords := make([]string, 0, len(s))
	for kw := range s {
		keywords = append(keywords, string(kw))
	}
	sort.Strings(keywords)

	var sb strings.Builder
	sb.WriteString("{")
	for i, kw := range keywords {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: >=%v", kw, s[asset.Keyword(kw)].Min)
	}
	sb.WriteString("}")
	return sb.String()
}
