package brokerd

import (
	"context"
	"fmt"
	"sync"

	swaparoo "github.com/swaparoo/swaparoo"
	"github.com/swaparoo/swaparoo/asset"
	"github.com/swaparoo/swaparoo/brokerdb"
	"github.com/swaparoo/swaparoo/messaging"
)

// Daemon runs one broker instance on top of a persistent store and an
// in-process messaging directory.
type Daemon struct {
	cfg *Config

	broker    *swaparoo.Broker
	operator  *swaparoo.Operator
	directory *messaging.Directory
	store     brokerdb.Store

	startOnce sync.Once
	stopOnce  sync.Once

	// ErrChan is the channel the daemon's terminal error, if any, is
	// delivered on after Stop.
	ErrChan chan error

	quit   context.CancelFunc
	runCtx context.Context
}

// New creates a daemon from the given validated configuration.
func New(cfg *Config) *Daemon {
	runCtx, quit := context.WithCancel(context.Background())

	return &Daemon{
		cfg:     cfg,
		ErrChan: make(chan error, 1),
		runCtx:  runCtx,
		quit:    quit,
	}
}

// Start opens the store and brings up the broker.
func (d *Daemon) Start() error {
	var startErr error
	d.startOnce.Do(func() {
		startErr = d.start()
	})
	return startErr
}

func (d *Daemon) start() error {
	store, err := brokerdb.NewBoltStore(d.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("cannot open broker database: %w", err)
	}
	d.store = store

	d.directory = messaging.NewDirectory()

	feeAmount := asset.NewAmount(
		asset.Kind(d.cfg.FeeKind), d.cfg.FeeUnits,
	)

	broker, operator, err := swaparoo.NewBroker(&swaparoo.Config{
		FeeAmount:   feeAmount,
		KindPolicy:  swaparoo.AllowKinds(allowedKinds(d.cfg)...),
		Resolver:    d.directory,
		Store:       store,
		TokenExpiry: d.cfg.TokenExpiry,
	})
	if err != nil {
		if closeErr := store.Close(); closeErr != nil {
			log.Errorf("Cannot close store: %v", closeErr)
		}
		return err
	}
	d.broker = broker
	d.operator = operator

	log.Infof("Swap broker up, fee %v, expiry %v", feeAmount,
		d.cfg.TokenExpiry)

	return nil
}

// Stop tears the daemon down. The terminal error, if any, is delivered on
// ErrChan.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() {
		d.quit()

		var stopErr error
		if d.store != nil {
			stopErr = d.store.Close()
		}

		log.Info("Swap broker down")

		d.ErrChan <- stopErr
	})
}

// Broker returns the daemon's public broker facet.
func (d *Daemon) Broker() *swaparoo.Broker {
	return d.broker
}

// Operator returns the daemon's creator facet.
func (d *Daemon) Operator() *swaparoo.Operator {
	return d.operator
}

// Directory returns the daemon's messaging directory. Parties register
// their inboxes here; registrations live until the passed context is
// canceled or the daemon stops.
func (d *Daemon) Directory() *messaging.Directory {
	return d.directory
}

// RunCtx returns the daemon's run context. It is canceled on Stop and is
// the natural parent for inbox registrations.
func (d *Daemon) RunCtx() context.Context {
	return d.runCtx
}
