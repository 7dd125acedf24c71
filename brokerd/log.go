package brokerd

import (
	"github.com/btcsuite/btclog"
	"github.com/lightningnetwork/lnd"
	"github.com/lightningnetwork/lnd/build"
	"github.com/lightningnetwork/lnd/signal"
	swaparoo "github.com/swaparoo/swaparoo"
	"github.com/swaparoo/swaparoo/brokerdb"
	"github.com/swaparoo/swaparoo/fsm"
	"github.com/swaparoo/swaparoo/messaging"
)

// Subsystem defines the sub system name of this package.
const Subsystem = "BRKD"

var (
	logWriter   *build.RotatingLogWriter
	log         btclog.Logger
	interceptor signal.Interceptor
)

// SetupLoggers initializes all package-global logger variables.
func SetupLoggers(root *build.RotatingLogWriter,
	intercept signal.Interceptor) {

	genLogger := genSubLogger(root, intercept)

	logWriter = root
	log = build.NewSubLogger(Subsystem, genLogger)
	interceptor = intercept

	lnd.SetSubLogger(root, Subsystem, log)
	lnd.AddSubLogger(
		root, swaparoo.Subsystem, intercept, swaparoo.UseLogger,
	)
	lnd.AddSubLogger(root, fsm.Subsystem, intercept, fsm.UseLogger)
	lnd.AddSubLogger(
		root, messaging.Subsystem, intercept, messaging.UseLogger,
	)
	lnd.AddSubLogger(
		root, brokerdb.Subsystem, intercept, brokerdb.UseLogger,
	)
}

// genSubLogger creates a logger for a subsystem. We provide an instance of
// a signal.Interceptor to be able to shutdown in the case of a critical
// error.
func genSubLogger(root *build.RotatingLogWriter,
	interceptor signal.Interceptor) func(string) btclog.Logger {

	// Create a shutdown function which will request shutdown from our
	// interceptor if it is listening.
	shutdown := func() {
		if !interceptor.Listening() {
			return
		}

		interceptor.RequestShutdown()
	}

	// Return a function which will create a sublogger from our root
	// logger.
	return func(tag string) btclog.Logger {
		return root.GenSubLogger(tag, shutdown)
	}
}
