// Package cmd implements the pagesnap CLI using Cobra.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/pagesnap/config"
	"github.com/gaurav-prasanna/pagesnap/core/assemble"
	"github.com/gaurav-prasanna/pagesnap/core/fetch"
)

// Persistent flag variables.
var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
)

// Loaded in PersistentPreRunE, read by subcommands.
var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pagesnap",
	Short: "pagesnap: save web pages as self-contained offline documents",
	Long: `pagesnap fetches a web page, inlines its external stylesheets and scripts
(up to a fixed resource budget) and produces a single HTML document that
renders offline.

Usage:
  pagesnap snapshot <url> [flags]
  pagesnap serve [flags]`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log_level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log_format", "", "Log format: text or json")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves defaults, the config file, the environment and the
// persistent flags, in that order, then builds the logger.
func loadConfig(cmd *cobra.Command, _ []string) error {
	var err error
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log_level") {
		cfg.Log.Level = flagLogLevel
	}
	if flags.Changed("log_format") {
		cfg.Log.Format = flagLogFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger = newLogger(os.Stderr, cfg.Log)
	return nil
}

func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newAssembler wires the fetcher, the optional robots policy and the
// assembler from the loaded configuration.
func newAssembler() *assemble.Assembler {
	fetcher := fetch.New(
		fetch.WithUserAgent(cfg.Snapshot.UserAgent),
		fetch.WithMaxBytes(cfg.Snapshot.MaxBodyBytes),
		fetch.WithLogger(logger),
	)
	opts := []assemble.Option{assemble.WithLogger(logger)}
	if cfg.Snapshot.RespectRobots {
		opts = append(opts, assemble.WithRobots(fetch.NewRobotsPolicy(fetcher.UserAgent())))
	}
	return assemble.New(fetcher, cfg.Assembler(), opts...)
}
