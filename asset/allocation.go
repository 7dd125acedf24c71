package asset

import (
	"fmt"
	"sort"
	"strings"
)

// Allocation maps proposal keywords to amounts. Allocations are used both
// for the give/want sides of a proposal and for the assets a seat currently
// holds.
type Allocation map[Keyword]Amount

// Clone returns an independent copy of the allocation with empty amounts
// removed.
func (a Allocation) Clone() Allocation {
	c := make(Allocation, len(a))
	for kw, amt := range a {
		if amt.IsEmpty() {
			continue
		}
		c[kw] = amt
	}
	return c
}

// Equal reports whether two allocations hold exactly the same amounts under
// exactly the same keywords. Empty amounts are ignored on both sides.
func (a Allocation) Equal(other Allocation) bool {
	for kw, amt := range a {
		if amt.IsEmpty() {
			continue
		}
		if !amt.Equal(other[kw]) {
			return false
		}
	}
	for kw, amt := range other {
		if amt.IsEmpty() {
			continue
		}
		if _, ok := a[kw]; !ok {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the allocation holds no non-empty amounts.
func (a Allocation) IsEmpty() bool {
	for _, amt := range a {
		if !amt.IsEmpty() {
			return false
		}
	}
	return true
}

// Add returns a new allocation with every amount of other credited under
// its keyword.
func (a Allocation) Add(other Allocation) (Allocation, error) {
	sum := a.Clone()
	for kw, amt := range other {
		if amt.IsEmpty() {
			continue
		}
		have, ok := sum[kw]
		if !ok {
			sum[kw] = amt
			continue
		}
		combined, err := have.Add(amt)
		if err != nil {
			return nil, fmt.Errorf("keyword %q: %w", kw, err)
		}
		sum[kw] = combined
	}
	return sum, nil
}

// Sub returns a new allocation with every amount of other debited under its
// keyword. It fails with ErrInsufficient if any keyword is missing or not
// fully covered.
func (a Allocation) Sub(other Allocation) (Allocation, error) {
	diff := a.Clone()
	for kw, amt := range other {
		if amt.IsEmpty() {
			continue
		}
		have, ok := diff[kw]
		if !ok {
			return nil, fmt.Errorf("keyword %q: %w", kw,
				ErrInsufficient)
		}
		remaining, err := have.Sub(amt)
		if err != nil {
			return nil, fmt.Errorf("keyword %q: %w", kw, err)
		}
		if remaining.IsEmpty() {
			delete(diff, kw)
		} else {
			diff[kw] = remaining
		}
	}
	return diff, nil
}

// String renders the allocation with keywords in stable order.
func (a Allocation) String() string {
	keywords := make([]string, 0, len(a))
	for kw := range a {
		keywords = append(keywords, string(kw))
	}
	sort.Strings(keywords)

	var sb strings.Builder
	sb.WriteString("{")
	for i, kw := range keywords {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %v", kw, a[Keyword(kw)])
	}
	sb.WriteString("}")
	return sb.String()
}
