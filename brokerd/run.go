package brokerd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/lightningnetwork/lnd/build"
	"github.com/lightningnetwork/lnd/signal"
	swaparoo "github.com/swaparoo/swaparoo"
)

// Run parses the command line, sets up logging and runs the broker daemon
// until it is shut down by a signal or an error.
func Run() error {
	config := DefaultConfig()

	// Parse command line flags.
	parser := flags.NewParser(&config, flags.Default)
	_, err := parser.Parse()
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		os.Exit(0)
	}
	if err != nil {
		return err
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if config.ShowVersion {
		fmt.Println(appName, "version", swaparoo.Version())
		os.Exit(0)
	}

	// Validate our config before we proceed.
	if err := Validate(&config); err != nil {
		return err
	}

	// Start listening for signal interrupts regardless of what the
	// daemon ends up doing, so that shutdown works while starting up.
	shutdownInterceptor, err := signal.Intercept()
	if err != nil {
		return err
	}

	// Initialize logging at the default logging level.
	SetupLoggers(build.NewRotatingLogWriter(), shutdownInterceptor)
	err = logWriter.InitLogRotator(
		filepath.Join(config.LogDir, defaultLogFilename),
		config.MaxLogFileSize, config.MaxLogFiles,
	)
	if err != nil {
		return err
	}
	err = build.ParseAndSetDebugLevels(config.DebugLevel, logWriter)
	if err != nil {
		return err
	}

	// Print the version before executing either primary directive.
	log.Infof("Version: %v", swaparoo.Version())

	daemon := New(&config)
	if err := daemon.Start(); err != nil {
		return err
	}

	select {
	case <-shutdownInterceptor.ShutdownChannel():
		log.Infof("Received SIGINT (Ctrl+C).")
		daemon.Stop()

		// The above stop will return immediately. But we'll be
		// notified on the error channel once the process is complete.
		return <-daemon.ErrChan

	case err := <-daemon.ErrChan:
		return err
	}
}
