package main

import (
	"fmt"
	"os"
	"path/filepath"

	"rewire/internal/config"
	"rewire/internal/logging"
	"rewire/internal/storage"
)

// mustResolveRoot turns the --root flag into an absolute path, or exits.
func mustResolveRoot() string {
	abs, err := filepath.Abs(rootFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving root path: %v\n", err)
		os.Exit(1)
	}
	return abs
}

// mustLoadConfig loads .rewire/config.json under the root, or exits.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newLogger builds the per-command logger from config, with --verbose
// forcing debug level.
func newLogger(cfg *config.Config) *logging.Logger {
	level := logging.LogLevel(cfg.Logging.Level)
	if verboseFlag {
		level = logging.DebugLevel
	}
	return logging.NewLogger(logging.Config{
		Format:     logging.Format(cfg.Logging.Format),
		Level:      level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}

// openCache opens the sqlite scan cache when enabled. A cache failure is
// not fatal: the pipeline degrades to a full re-scan with a warning.
func openCache(root string, enabled bool, logger *logging.Logger) (*storage.ScanCache, func()) {
	if !enabled {
		return nil, func() {}
	}
	db, err := storage.Open(root, logger)
	if err != nil {
		logger.Warn("Scan cache unavailable, continuing without it", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, func() {}
	}
	return storage.NewScanCache(db), func() { _ = db.Close() }
}

// ledgerPath is the authoritative candidate ledger location.
func ledgerPath(root string) string {
	return filepath.Join(root, ".rewire", "ledger.json")
}

// backupsDir holds pre-patch copies of mutated files.
func backupsDir(root string) string {
	return filepath.Join(root, ".rewire", "backups")
}

// reportDir resolves the configured run-report directory under the root.
func reportDir(root string, cfg *config.Config) string {
	out := cfg.Report.OutputDir
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(root, out)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
