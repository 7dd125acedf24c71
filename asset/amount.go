// Package asset defines the value types the broker uses to describe escrowed
// assets: kinds (brands), fungible and bag amounts, and keyword-indexed
// allocations. The types are immutable value objects; all arithmetic is
// integer-only and returns explicit errors on kind or class mismatches.
package asset

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrKindMismatch is returned when an operation combines amounts of
	// two different kinds.
	ErrKindMismatch = errors.New("amount kind mismatch")

	// ErrClassMismatch is returned when an operation combines a fungible
	// amount with a bag amount of the same kind. This indicates a
	// programming error, because a kind has exactly one class.
	ErrClassMismatch = errors.New("amount class mismatch")

	// ErrInsufficient is returned when a subtraction would underflow.
	ErrInsufficient = errors.New("insufficient amount")
)

// Kind is the type identity of an asset, for example a specific fungible
// currency or a category of countable items.
type Kind string

// Keyword is the conventional tag under which a party gives or wants an
// amount in a proposal. Keywords carry no numeric significance.
type Keyword string

// Class describes how the value of an amount is represented.
type Class uint8

const (
	// ClassFungible amounts carry a single non-negative integer unit
	// count.
	ClassFungible Class = 0

	// ClassBag amounts carry a multiset of named items.
	ClassBag Class = 1
)

// Bag is a multiset of named items, mapping item name to a non-negative
// count. Constructors and accessors copy bags so that callers cannot mutate
// an amount after the fact.
type Bag map[string]uint64

// Clone returns an independent copy of the bag with zero-count entries
// removed.
func (b Bag) Clone() Bag {
	c := make(Bag, len(b))
	for name, count := range b {
		if count == 0 {
			continue
		}
		c[name] = count
	}
	return c
}

// Amount is an immutable, typed quantity of a single asset kind.
type Amount struct {
	kind  Kind
	class Class
	units uint64
	bag   Bag
}

// NewAmount returns a fungible amount of the given kind.
func NewAmount(kind Kind, units uint64) Amount {
	return Amount{kind: kind, units: units}
}

// NewBagAmount returns a bag amount of the given kind.
func NewBagAmount(kind Kind, bag Bag) Amount {
	return Amount{kind: kind, class: ClassBag, bag: bag.Clone()}
}

// Kind returns the amount's asset kind.
func (a Amount) Kind() Kind {
	return a.kind
}

// Class returns the amount's value class.
func (a Amount) Class() Class {
	return a.class
}

// Units returns the unit count of a fungible amount. It is zero for bag
// amounts.
func (a Amount) Units() uint64 {
	return a.units
}

// Bag returns a copy of the item multiset of a bag amount. It is empty for
// fungible amounts.
func (a Amount) Bag() Bag {
	return a.bag.Clone()
}

// IsEmpty reports whether the amount is the zero amount of its kind. The
// zero value of Amount is empty.
func (a Amount) IsEmpty() bool {
	if a.class == ClassBag {
		for _, count := range a.bag {
			if count != 0 {
				return false
			}
		}
		return true
	}
	return a.units == 0
}

// Equal reports whether two amounts have the same kind, class and value.
// Amounts of different kinds are never equal.
func (a Amount) Equal(other Amount) bool {
	if a.kind != other.kind || a.class != other.class {
		return false
	}
	if a.class == ClassBag {
		return bagEqual(a.bag, other.bag)
	}
	return a.units == other.units
}

// Add returns the sum of two amounts of the same kind.
func (a Amount) Add(other Amount) (Amount, error) {
	if err := a.compatible(other); err != nil {
		return Amount{}, err
	}
	if a.class == ClassBag {
		sum := a.bag.Clone()
		for name, count := range other.bag {
			sum[name] += count
		}
		return Amount{kind: a.kind, class: ClassBag, bag: sum}, nil
	}
	return Amount{kind: a.kind, units: a.units + other.units}, nil
}

// Sub returns the difference of two amounts of the same kind, or
// ErrInsufficient if the subtrahend is not fully covered.
func (a Amount) Sub(other Amount) (Amount, error) {
	if err := a.compatible(other); err != nil {
		return Amount{}, err
	}
	if a.class == ClassBag {
		diff := a.bag.Clone()
		for name, count := range other.bag {
			have := diff[name]
			if have < count {
				return Amount{}, fmt.Errorf("%w: %s %q short "+
					"%d of %q", ErrInsufficient, a.kind,
					name, count-have, name)
			}
			if have == count {
				delete(diff, name)
			} else {
				diff[name] = have - count
			}
		}
		return Amount{kind: a.kind, class: ClassBag, bag: diff}, nil
	}
	if a.units < other.units {
		return Amount{}, fmt.Errorf("%w: %s short %d units",
			ErrInsufficient, a.kind, other.units-a.units)
	}
	return Amount{kind: a.kind, units: a.units - other.units}, nil
}

// GTE reports whether the amount fully covers other. Bag amounts cover when
// every item count is at least the other's count.
func (a Amount) GTE(other Amount) (bool, error) {
	if err := a.compatible(other); err != nil {
		return false, err
	}
	if a.class == ClassBag {
		for name, count := range other.bag {
			if a.bag[name] < count {
				return false, nil
			}
		}
		return true, nil
	}
	return a.units >= other.units, nil
}

// String renders the amount for logs and error messages.
func (a Amount) String() string {
	if a.class == ClassBag {
		names := make([]string, 0, len(a.bag))
		for name := range a.bag {
			names = append(names, name)
		}
		sort.Strings(names)

		var sb strings.Builder
		for i, name := range names {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%q x%d", name, a.bag[name])
		}
		return fmt.Sprintf("%s{%s}", a.kind, sb.String())
	}
	return fmt.Sprintf("%d %s", a.units, a.kind)
}

// compatible checks that two amounts may take part in the same arithmetic
// operation.
func (a Amount) compatible(other Amount) error {
	if a.kind != other.kind {
		return fmt.Errorf("%w: %q vs %q", ErrKindMismatch, a.kind,
			other.kind)
	}
	if a.class != other.class {
		return fmt.Errorf("%w: kind %q", ErrClassMismatch, a.kind)
	}
	return nil
}

func bagEqual(a, b Bag) bool {
	for name, count := range a {
		if b[name] != count {
			return false
		}
	}
	for name, count := range b {
		if a[name] != count {
			return false
		}
	}
	return true
}
