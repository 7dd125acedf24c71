// Package brokerd wires a swap broker instance into a runnable daemon:
// configuration parsing, logger setup, store and messaging substrate
// construction, and clean shutdown.
package brokerd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/lncfg"
	"github.com/swaparoo/swaparoo/asset"
)

var (
	// BrokerDirBase is the default root directory for all of the
	// broker's data.
	BrokerDirBase = btcutil.AppDataDir("swaparoo", false)

	defaultLogLevel    = "info"
	defaultLogDirname  = "logs"
	defaultLogFilename = "swaparood.log"
	defaultLogDir      = filepath.Join(BrokerDirBase, defaultLogDirname)

	defaultMaxLogFiles    = 3
	defaultMaxLogFileSize = 10

	defaultFeeKind  = "IST"
	defaultFeeUnits = uint64(1_000_000)

	defaultTokenExpiry = 24 * time.Hour
)

// Config holds the runtime configuration of the broker daemon.
type Config struct {
	ShowVersion bool `long:"version" description:"Display version information and exit"`

	DataDir        string `long:"datadir" description:"Directory for the broker database."`
	LogDir         string `long:"logdir" description:"Directory to log output."`
	MaxLogFiles    int    `long:"maxlogfiles" description:"Maximum logfiles to keep (0 for no rotation)"`
	MaxLogFileSize int    `long:"maxlogfilesize" description:"Maximum logfile size in MB"`

	DebugLevel string `long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`

	FeeKind  string `long:"feekind" description:"Asset kind of the brokerage fee"`
	FeeUnits uint64 `long:"feeunits" description:"Brokerage fee in fungible units of the fee kind"`

	AllowedKinds []string `long:"allowkind" description:"Asset kind proposers may register issuers for; may be specified multiple times"`

	TokenExpiry time.Duration `long:"tokenexpiry" description:"Maximum age of a redeemable match token (0 to disable expiry)"`
}

// DefaultConfig returns all default values for the Config struct.
func DefaultConfig() Config {
	return Config{
		DataDir:        BrokerDirBase,
		LogDir:         defaultLogDir,
		MaxLogFiles:    defaultMaxLogFiles,
		MaxLogFileSize: defaultMaxLogFileSize,
		DebugLevel:     defaultLogLevel,
		FeeKind:        defaultFeeKind,
		FeeUnits:       defaultFeeUnits,
		TokenExpiry:    defaultTokenExpiry,
	}
}

// Validate cleans up paths in the config provided and validates it.
func Validate(cfg *Config) error {
	// Cleanup any paths before we use them.
	cfg.DataDir = lncfg.CleanAndExpandPath(cfg.DataDir)
	cfg.LogDir = lncfg.CleanAndExpandPath(cfg.LogDir)

	if cfg.FeeKind == "" {
		return fmt.Errorf("feekind must be set")
	}
	if cfg.FeeUnits == 0 {
		return fmt.Errorf("feeunits must be positive")
	}
	if len(cfg.AllowedKinds) == 0 {
		return fmt.Errorf("at least one allowkind must be set")
	}
	if cfg.TokenExpiry < 0 {
		return fmt.Errorf("tokenexpiry cannot be negative")
	}

	return nil
}

// allowedKinds converts the configured kind names to asset kinds, always
// including the fee kind.
func allowedKinds(cfg *Config) []asset.Kind {
	kinds := make([]asset.Kind, 0, len(cfg.AllowedKinds)+1)
	kinds = append(kinds, asset.Kind(cfg.FeeKind))
	for _, kind := range cfg.AllowedKinds {
		kinds = append(kinds, asset.Kind(kind))
	}
	return kinds
}
