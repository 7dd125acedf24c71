package swaparoo

import (
	"context"

	"github.com/swaparoo/swaparoo/asset"
)

// IssuerHandle is the ledger's verification handle for one asset kind. The
// broker never inspects the handle beyond its kind identity; holding a
// handle in the registry means the broker recognizes amounts of that kind.
type IssuerHandle interface {
	// Kind returns the asset kind the issuer vouches for.
	Kind() asset.Kind
}

// Receiver is a capability to deposit a match token into a counterparty's
// inbox. It is produced by the messaging substrate's address resolution.
type Receiver interface {
	// Deposit hands the token to the receiving party. A nil error means
	// the substrate accepted the token for the recipient; the broker
	// requires no further acknowledgement.
	Deposit(ctx context.Context, token *Token) error
}

// AddressResolver is the addressing side of the external messaging
// substrate.
type AddressResolver interface {
	// ResolveReceiver resolves a party address to a receiving
	// capability.
	ResolveReceiver(ctx context.Context, address string) (Receiver, error)
}

// TransferLeg is a single asset movement between two seats within an atomic
// batch.
type TransferLeg struct {
	// From is the seat the assets are debited from.
	From *Seat

	// To is the seat the assets are credited to.
	To *Seat

	// Assets are the keyworded amounts to move.
	Assets asset.Allocation
}

// TransferEngine commits batches of transfer legs with all-or-nothing
// semantics. It is the only primitive that mutates seat balances.
type TransferEngine interface {
	// Commit applies every leg of the batch, or none of them. A rejected
	// batch leaves every involved seat's holdings untouched. Legs that
	// debit or credit a seat that is not active must be rejected.
	Commit(legs []TransferLeg) error
}

// KindPolicy is the broker operator's allow-list over asset kinds that may
// be registered at propose time.
type KindPolicy interface {
	// Allow reports whether issuers for the given kind may be
	// registered.
	Allow(kind asset.Kind) bool
}

// allowKinds is a fixed allow-list KindPolicy.
type allowKinds map[asset.Kind]struct{}

// AllowKinds returns a KindPolicy permitting exactly the given kinds.
func AllowKinds(kinds ...asset.Kind) KindPolicy {
	policy := make(allowKinds, len(kinds))
	for _, kind := range kinds {
		policy[kind] = struct{}{}
	}
	return policy
}

// Allow implements the KindPolicy interface.
func (p allowKinds) Allow(kind asset.Kind) bool {
	_, ok := p[kind]
	return ok
}
