package swaparoo

import (
	"fmt"

	"github.com/swaparoo/swaparoo/asset"
)

// atomicEngine is the default TransferEngine. It rearranges assets between
// seat holdings with all-or-nothing semantics: every leg is staged against
// cloned holdings first and nothing is written back unless the whole batch
// validates.
type atomicEngine struct{}

// NewAtomicEngine returns the default in-memory atomic transfer engine.
func NewAtomicEngine() TransferEngine {
	return &atomicEngine{}
}

// Commit implements the TransferEngine interface.
func (e *atomicEngine) Commit(legs []TransferLeg) error {
	staged := make(map[*Seat]asset.Allocation)

	holdingsOf := func(seat *Seat) asset.Allocation {
		if holdings, ok := staged[seat]; ok {
			return holdings
		}
		holdings := seat.holdings.Clone()
		staged[seat] = holdings
		return holdings
	}

	for i, leg := range legs {
		if leg.From.state != SeatActive {
			return fmt.Errorf("leg %d: source seat %d is %v",
				i, leg.From.id, leg.From.state)
		}
		if leg.To.state != SeatActive {
			return fmt.Errorf("leg %d: destination seat %d is %v",
				i, leg.To.id, leg.To.state)
		}

		debited, err := holdingsOf(leg.From).Sub(leg.Assets)
		if err != nil {
			return fmt.Errorf("leg %d: seat %d cannot cover %v: "+
				"%w", i, leg.From.id, leg.Assets, err)
		}
		staged[leg.From] = debited

		credited, err := holdingsOf(leg.To).Add(leg.Assets)
		if err != nil {
			return fmt.Errorf("leg %d: seat %d cannot receive "+
				"%v: %w", i, leg.To.id, leg.Assets, err)
		}
		staged[leg.To] = credited
	}

	// The batch validated in full, write the staged holdings back.
	for seat, holdings := range staged {
		seat.holdings = holdings
	}

	return nil
}

// executeSwap moves the escrowed assets of a matched pair of seats in one
// atomic batch: the proposer's non-fee give to the counterparty, the
// counterparty's give to the proposer and the configured fee to the fee
// seat. On success both seats exit ok; on rejection both seats exit with
// failure and no balance change is observable.
func (b *Broker) executeSwap(first, second *Seat) error {
	firstGive := first.proposal.Give.Clone()
	delete(firstGive, KeywordFee)

	fee := asset.Allocation{KeywordFee: b.cfg.FeeAmount}

	legs := []TransferLeg{
		{From: first, To: second, Assets: firstGive},
		{From: second, To: first, Assets: second.proposal.Give},
		{From: first, To: b.feeSeat, Assets: fee},
	}

	if err := b.engine.Commit(legs); err != nil {
		rejection := &TransferRejectedError{Err: err}

		// The engine left every seat untouched, so both parties can
		// be refunded their full deposits.
		if failErr := b.seats.ExitFail(first, rejection); failErr != nil {
			return failErr
		}
		if failErr := b.seats.ExitFail(second, rejection); failErr != nil {
			return failErr
		}

		return rejection
	}

	if err := b.seats.ExitOk(first); err != nil {
		return err
	}
	return b.seats.ExitOk(second)
}
