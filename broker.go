package swaparoo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/swaparoo/swaparoo/asset"
	"github.com/swaparoo/swaparoo/brokerdb"
)

// Config holds the broker's construction parameters. FeeAmount, KindPolicy,
// Resolver and Store are required; Clock and Engine default to the real
// clock and the built-in atomic engine.
type Config struct {
	// FeeAmount is the brokerage fee every proposer must escrow under
	// the Fee keyword. It is fixed at broker creation time and not
	// renegotiable per swap.
	FeeAmount asset.Amount

	// KindPolicy is the operator's allow-list over asset kinds that
	// proposers may register issuers for.
	KindPolicy KindPolicy

	// Resolver is the addressing side of the external messaging
	// substrate used to deliver match tokens.
	Resolver AddressResolver

	// Store persists swap contracts and state updates so that consumed
	// tokens stay consumed across restarts.
	Store brokerdb.Store

	// Clock is the broker's time source. Defaults to the system clock.
	Clock clock.Clock

	// Engine commits atomic transfer batches. Defaults to the built-in
	// in-memory engine.
	Engine TransferEngine

	// TokenExpiry bounds the age of a redeemable match token. A token
	// older than this at redemption time is burned and the proposer's
	// seat refunded. Zero disables expiry.
	TokenExpiry time.Duration
}

// Broker is the public facet of one swap broker instance. All operations on
// a broker are serialized; see the concurrency notes on Seat.
type Broker struct {
	cfg Config

	mtx sync.Mutex

	registry *IssuerRegistry
	seats    *seatManager
	engine   TransferEngine
	feeSeat  *Seat

	// swaps is the server-side table mapping token ids to swap records.
	// Possessing a Token handle authorizes nothing unless its id is in
	// this table with a machine in the delivered state.
	swaps map[lntypes.Hash]*swapRecord

	// consumed holds token ids that reached a terminal state, including
	// ones restored from the store at startup.
	consumed map[lntypes.Hash]struct{}
}

// Operator is the creator facet of a broker. It is handed to the operator
// at construction time and is the only way to drain collected fees.
type Operator struct {
	broker *Broker
}

// NewBroker creates a broker and its operator facet from the given
// configuration.
func NewBroker(cfg *Config) (*Broker, *Operator, error) {
	if cfg.FeeAmount.IsEmpty() {
		return nil, nil, errors.New("broker requires a non-empty " +
			"fee amount")
	}
	if cfg.KindPolicy == nil {
		return nil, nil, errors.New("broker requires a kind policy")
	}
	if cfg.Resolver == nil {
		return nil, nil, errors.New("broker requires an address " +
			"resolver")
	}
	if cfg.Store == nil {
		return nil, nil, errors.New("broker requires a store")
	}

	brokerCfg := *cfg
	if brokerCfg.Clock == nil {
		brokerCfg.Clock = clock.NewDefaultClock()
	}
	if brokerCfg.Engine == nil {
		brokerCfg.Engine = NewAtomicEngine()
	}

	seats := newSeatManager(brokerCfg.Clock)

	b := &Broker{
		cfg:      brokerCfg,
		registry: NewIssuerRegistry(brokerCfg.KindPolicy),
		seats:    seats,
		engine:   brokerCfg.Engine,
		feeSeat:  seats.OpenEmptySeat(),
		swaps:    make(map[lntypes.Hash]*swapRecord),
		consumed: make(map[lntypes.Hash]struct{}),
	}

	// Re-arm the consumed-token guard from the store so a restarted
	// broker keeps rejecting replayed token ids. Pending swaps are not
	// resumed; their escrowed assets live with the external ledger.
	swaps, err := brokerCfg.Store.FetchSwaps(context.Background())
	if err != nil {
		return nil, nil, fmt.Errorf("cannot fetch stored swaps: %w",
			err)
	}
	for _, swap := range swaps {
		if swap.State().IsFinal() {
			b.consumed[swap.Hash] = struct{}{}
		}
	}

	log.Infof("Broker created with fee %v, %d consumed token(s) "+
		"restored", brokerCfg.FeeAmount, len(b.consumed))

	return b, &Operator{broker: b}, nil
}

// ProposeSwap escrows the proposer's deposit against their proposal and
// mints a single-use match token bound to the proposal's want. The token is
// returned alongside the proposer's seat; it must still be delivered via
// DeliverTo before it becomes redeemable.
//
// Any issuers for asset kinds the broker has not seen yet are registered
// first; re-registering a known kind is a no-op. Registration of a kind
// outside the operator's allow-list, a fee below the configured minimum and
// a deposit not matching the declared give all fail fast, before any
// escrow.
func (b *Broker) ProposeSwap(ctx context.Context, issuers []IssuerHandle,
	proposal Proposal, deposit asset.Allocation) (*Token, *Seat, error) {

	b.mtx.Lock()
	defer b.mtx.Unlock()

	for _, issuer := range issuers {
		if err := b.registry.Register(issuer); err != nil {
			return nil, nil, err
		}
	}

	if err := b.checkFee(proposal); err != nil {
		return nil, nil, err
	}

	seat, err := b.seats.OpenSeat(proposal, deposit)
	if err != nil {
		return nil, nil, err
	}

	token, err := newToken()
	if err != nil {
		return nil, nil, err
	}

	machine, err := newTokenMachine()
	if err != nil {
		return nil, nil, err
	}

	record := &swapRecord{
		token:        token,
		shape:        ShapeFromWant(proposal.Want),
		proposerSeat: seat,
		machine:      machine,
		mintedAt:     b.cfg.Clock.Now(),
	}

	contract := &brokerdb.SwapContract{
		InitiationTime: record.mintedAt,
		FeeAmount:      b.cfg.FeeAmount,
		Give:           proposal.Give.Clone(),
		Want:           proposal.Want.Clone(),
	}
	if err := b.cfg.Store.CreateSwap(ctx, token.id, contract); err != nil {
		// Unwind the escrow, nothing else references the seat yet.
		exitErr := b.seats.ExitFail(seat, err)
		if exitErr != nil {
			return nil, nil, exitErr
		}
		return nil, nil, fmt.Errorf("cannot store swap: %w", err)
	}

	b.swaps[token.id] = record

	tokenLog(token).Infof("Minted match token for shape %v", record.shape)

	return token, seat, nil
}

// RedeemSwap opens the counterparty's seat and redeems the match token
// against it. On a match, both parties' assets and the fee move in one
// atomic batch, both seats exit ok and the literal "success" is returned.
// On a counter-proposal mismatch or a rejected transfer, the token is
// burned, both seats exit with failure and each party's payout equals
// exactly their original deposit.
func (b *Broker) RedeemSwap(ctx context.Context, token *Token,
	proposal Proposal, deposit asset.Allocation) (*Seat, string, error) {

	b.mtx.Lock()
	defer b.mtx.Unlock()

	record, ok := b.swaps[token.id]
	if !ok {
		return nil, "", ErrTokenConsumed
	}

	// Redemption must observe a delivered token. Anything else, a token
	// racing ahead of delivery included, is treated as consumed.
	if record.machine.Current() != StateTokenDelivered {
		return nil, "", ErrTokenConsumed
	}

	if b.cfg.TokenExpiry != 0 {
		age := b.cfg.Clock.Now().Sub(record.mintedAt)
		if age >= b.cfg.TokenExpiry {
			return nil, "", b.expireToken(ctx, record)
		}
	}

	// A deposit not covering the counter-proposal is a validation error
	// with no side effects: the token survives for a corrected attempt.
	counterSeat, err := b.seats.OpenSeat(proposal, deposit)
	if err != nil {
		return nil, "", err
	}

	if !record.shape.Matches(proposal.Give) {
		mismatch := &CounterProposalMismatchError{
			Expected: record.shape,
			Offered:  proposal.Give.Clone(),
		}

		if err := b.abortSwap(ctx, record, mismatch); err != nil {
			return nil, "", err
		}
		if err := b.seats.ExitFail(counterSeat, mismatch); err != nil {
			return nil, "", err
		}

		tokenLog(token).Warnf("Burned token on counter-proposal "+
			"mismatch: %v", mismatch)

		return counterSeat, "", mismatch
	}

	if err := b.executeSwap(record.proposerSeat, counterSeat); err != nil {
		// Both seats already exited with failure, consume the token
		// and surface the rejection.
		if burnErr := b.burnToken(ctx, record); burnErr != nil {
			return nil, "", burnErr
		}

		tokenLog(token).Errorf("Burned token on rejected transfer: "+
			"%v", err)

		return counterSeat, "", err
	}

	if err := record.machine.SendEvent(EventTokenRedeem); err != nil {
		return nil, "", err
	}
	b.consumed[token.id] = struct{}{}
	b.persistState(ctx, token.id, brokerdb.StateCompleted)

	tokenLog(token).Infof("Swap completed, fee seat now holds %v",
		b.feeSeat.holdings)

	return counterSeat, ResultSwapCompleted, nil
}

// FeeBalance returns the assets currently held by the fee seat.
func (b *Broker) FeeBalance() asset.Allocation {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	return b.feeSeat.Holdings()
}

// IsConsumed reports whether the given token id reached a terminal state,
// either during this broker's lifetime or, for restored swaps, a previous
// one.
func (b *Broker) IsConsumed(hash lntypes.Hash) bool {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	_, ok := b.consumed[hash]
	return ok
}

// Recognizes reports whether the broker currently recognizes the given
// asset kind.
func (b *Broker) Recognizes(kind asset.Kind) bool {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	return b.registry.Recognizes(kind)
}

// CollectFees atomically drains the fee seat and returns its prior
// contents. Draining an empty fee seat returns an empty allocation and no
// error, so back-to-back collections are safe.
func (o *Operator) CollectFees() (asset.Allocation, error) {
	b := o.broker

	b.mtx.Lock()
	defer b.mtx.Unlock()

	payout := b.feeSeat.holdings
	b.feeSeat.holdings = make(asset.Allocation)

	log.Infof("Operator collected fees %v", payout)

	return payout, nil
}

// checkFee verifies that the proposal's give escrows a fee of the
// configured kind meeting the configured minimum.
func (b *Broker) checkFee(proposal Proposal) error {
	offered := proposal.Give[KeywordFee]

	covered, err := offered.GTE(b.cfg.FeeAmount)
	if err != nil || !covered {
		return &MissingFeeError{
			Required: b.cfg.FeeAmount,
			Offered:  offered,
		}
	}
	return nil
}

// expireToken burns an over-age token and refunds the proposer's seat.
func (b *Broker) expireToken(ctx context.Context, record *swapRecord) error {
	if err := b.abortSwap(ctx, record, ErrTokenExpired); err != nil {
		return err
	}

	tokenLog(record.token).Warnf("Burned expired token minted at %v",
		record.mintedAt)

	return ErrTokenExpired
}

// abortSwap burns the record's token and fails the proposer's seat with the
// given reason, making the escrowed deposit, fee included, refund-ready.
func (b *Broker) abortSwap(ctx context.Context, record *swapRecord,
	reason error) error {

	if err := b.burnToken(ctx, record); err != nil {
		return err
	}
	return b.seats.ExitFail(record.proposerSeat, reason)
}

// burnToken consumes the record's token without executing a swap.
func (b *Broker) burnToken(ctx context.Context, record *swapRecord) error {
	if err := record.machine.SendEvent(EventTokenBurn); err != nil {
		return err
	}
	b.consumed[record.token.id] = struct{}{}
	b.persistState(ctx, record.token.id, brokerdb.StateAborted)
	return nil
}

// persistState appends a state update to the store. Persistence here is
// best-effort: the in-memory state machine remains authoritative for a
// running broker and a failed write must not unwind a committed transfer.
func (b *Broker) persistState(ctx context.Context, hash lntypes.Hash,
	state brokerdb.SwapState) {

	err := b.cfg.Store.UpdateSwap(ctx, hash, b.cfg.Clock.Now(), state)
	if err != nil {
		log.Errorf("Cannot persist state %v for swap %v: %v", state,
			hash, err)
	}
}

// tokenLog returns a logger prefixed with the token's short hash.
func tokenLog(token *Token) *TokenLog {
	return &TokenLog{
		Logger: log,
		Hash:   token.id,
	}
}
