// Package cli implements the markov CLI commands.
package cli

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/saethlin/markov/pkg/markov"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
	logLevel   string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "markov",
	Short: "Train and sample Markov chain text models",
	Long:  "A CLI for training Markov chain models on text corpora and generating new text from them. Models are persisted in a SQLite database.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "markov.json", "Path to the config file")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Model database path (overrides config)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
}

// runContext bundles the resources every command needs.
type runContext struct {
	cfg    *Config
	db     *sql.DB
	store  *markov.Store[string]
	logger *slog.Logger
}

// setup loads the config, opens the model database and prepares the store.
func setup() (*runContext, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger := newLogger(cfg.LogLevel)

	db, err := initDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err = markov.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set up schema: %w", err)
	}
	store, err := markov.NewTextStore(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare store: %w", err)
	}
	store.SetLogger(logger)

	return &runContext{cfg: cfg, db: db, store: store, logger: logger}, nil
}

func (rc *runContext) close() {
	rc.store.Close()
	_ = rc.db.Close()
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
