// Package messaging provides an in-process implementation of the
// addressing and delivery substrate the broker consumes: a directory of
// named parties, each with a buffered token inbox. Address resolution
// yields a deposit capability for the party's inbox.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	swaparoo "github.com/swaparoo/swaparoo"
)

var (
	// ErrUnknownAddress is returned when an address has no registered
	// inbox.
	ErrUnknownAddress = errors.New("unknown address")

	// ErrInboxFull is returned when a deposit would exceed the inbox's
	// buffer.
	ErrInboxFull = errors.New("inbox full")
)

// DefaultInboxSize is the token buffer size of a newly registered inbox.
const DefaultInboxSize = 8

// Directory maps party addresses to their inboxes. It implements the
// broker's AddressResolver interface.
type Directory struct {
	mtx sync.Mutex

	inboxes map[string]*Inbox
}

// A compile-time check to ensure that Directory implements the
// AddressResolver interface.
var _ swaparoo.AddressResolver = (*Directory)(nil)

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		inboxes: make(map[string]*Inbox),
	}
}

// Register creates an inbox for the given address and returns it. The inbox
// is torn down and its token channel closed when the context is canceled.
// Registering an address twice is an error.
func (d *Directory) Register(ctx context.Context, address string) (*Inbox,
	error) {

	d.mtx.Lock()
	defer d.mtx.Unlock()

	if _, ok := d.inboxes[address]; ok {
		return nil, fmt.Errorf("address %q already registered",
			address)
	}

	inbox := &Inbox{
		address: address,
		tokens:  make(chan *swaparoo.Token, DefaultInboxSize),
	}
	d.inboxes[address] = inbox

	// Remove the inbox when the registering party goes away.
	go func() {
		<-ctx.Done()
		d.unregister(inbox)
	}()

	log.Debugf("Registered inbox for %q", address)

	return inbox, nil
}

// ResolveReceiver resolves a party address to its inbox's deposit
// capability.
//
// NOTE: Part of the swaparoo.AddressResolver interface.
func (d *Directory) ResolveReceiver(_ context.Context, address string) (
	swaparoo.Receiver, error) {

	d.mtx.Lock()
	defer d.mtx.Unlock()

	inbox, ok := d.inboxes[address]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAddress, address)
	}

	return inbox, nil
}

// unregister removes the inbox from the directory and closes its token
// channel.
func (d *Directory) unregister(inbox *Inbox) {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	delete(d.inboxes, inbox.address)

	inbox.mtx.Lock()
	inbox.closed = true
	close(inbox.tokens)
	inbox.mtx.Unlock()

	log.Debugf("Unregistered inbox for %q", inbox.address)
}

// Inbox is one party's receiving side of the substrate. It implements the
// broker's Receiver interface.
type Inbox struct {
	mtx sync.Mutex

	address string
	tokens  chan *swaparoo.Token
	closed  bool
}

// A compile-time check to ensure that Inbox implements the Receiver
// interface.
var _ swaparoo.Receiver = (*Inbox)(nil)

// Deposit hands a match token to the inbox's owner. The deposit is
// non-blocking: a full inbox rejects the token rather than stalling the
// sender.
//
// NOTE: Part of the swaparoo.Receiver interface.
func (i *Inbox) Deposit(_ context.Context, token *swaparoo.Token) error {
	i.mtx.Lock()
	defer i.mtx.Unlock()

	if i.closed {
		return fmt.Errorf("%w: %q", ErrUnknownAddress, i.address)
	}

	select {
	case i.tokens <- token:
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrInboxFull, i.address)
	}
}

// Tokens returns the channel delivered match tokens arrive on. The channel
// is closed when the inbox's registration context is canceled.
func (i *Inbox) Tokens() <-chan *swaparoo.Token {
	return i.tokens
}

// Address returns the address the inbox is registered under.
func (i *Inbox) Address() string {
	return i.address
}
