// Package swaparoo implements a two-party, escrow-mediated atomic asset
// swap broker. A proposer escrows assets plus a brokerage fee and nominates
// a counterparty by address; the broker issues a single-use match token
// that is delivered asynchronously to that address. When the counterparty
// redeems the token with a matching counter-offer, both parties' assets are
// exchanged atomically and the fee is routed to the broker's fee seat. If a
// swap aborts, each side's escrowed assets, fee included, are returned.
package swaparoo

import (
	"github.com/swaparoo/swaparoo/asset"
)

// KeywordFee is the reserved proposal keyword under which the proposer
// escrows the brokerage fee.
const KeywordFee = asset.Keyword("Fee")

// ResultSwapCompleted is the result returned by a successful redemption.
const ResultSwapCompleted = "success"

// Proposal is the give/want declaration a party commits to when opening a
// seat. A proposal is immutable once its seat is open.
type Proposal struct {
	// Give holds the keyworded amounts the party deposits into escrow.
	Give asset.Allocation

	// Want holds the keyworded amounts the party expects in return.
	Want asset.Allocation
}

// Clone returns a deep copy of the proposal.
func (p Proposal) Clone() Proposal {
	return Proposal{
		Give: p.Give.Clone(),
		Want: p.Want.Clone(),
	}
}
