package swaparoo

import (
	"context"

	"github.com/swaparoo/swaparoo/brokerdb"
)

// DeliverTo hands the match token to the messaging substrate for the party
// at the given address. The addressing lookup and the inbox handoff run
// asynchronously so that a slow lookup never blocks other swaps; the
// returned channel reports the outcome with a single error value, nil on
// success.
//
// Once the token is handed to the substrate it is in the delivered state
// and becomes redeemable. A failed addressing lookup surfaces as an
// AddressResolutionError and leaves the token in the minted state with the
// proposer's escrow untouched; the caller may deliver again to a better
// address.
func (b *Broker) DeliverTo(ctx context.Context, token *Token,
	address string) <-chan error {

	result := make(chan error, 1)

	b.mtx.Lock()
	record, ok := b.swaps[token.id]
	b.mtx.Unlock()

	if !ok {
		result <- ErrTokenConsumed
		return result
	}

	go func() {
		result <- b.deliver(ctx, record, address)
	}()

	return result
}

// deliver resolves the address and deposits the token with the receiver,
// transitioning the token to the delivered state on handoff.
func (b *Broker) deliver(ctx context.Context, record *swapRecord,
	address string) error {

	token := record.token

	receiver, err := b.cfg.Resolver.ResolveReceiver(ctx, address)
	if err != nil {
		tokenLog(token).Warnf("Cannot resolve %q: %v", address, err)

		return &AddressResolutionError{
			Address: address,
			Err:     err,
		}
	}

	// Transition before the handoff so a counterparty that sees the
	// token in its inbox always finds it redeemable.
	b.mtx.Lock()
	err = record.machine.SendEvent(EventTokenDeliver)
	if err == nil {
		b.persistState(ctx, token.id, brokerdb.StateDelivered)
	}
	b.mtx.Unlock()
	if err != nil {
		return err
	}

	if err := receiver.Deposit(ctx, token); err != nil {
		// The token stays delivered; redelivery is the substrate's
		// concern. Surface the error so the caller can retry the
		// handoff out of band.
		tokenLog(token).Warnf("Deposit to %q failed: %v", address,
			err)
		return err
	}

	tokenLog(token).Infof("Delivered to %q", address)

	return nil
}
