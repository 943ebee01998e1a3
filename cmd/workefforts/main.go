package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rpggio/workefforts/internal/app"
	"github.com/rpggio/workefforts/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries the state shared by every subcommand.
type cli struct {
	root        string
	markerDir   string
	logLevel    string
	lockTimeout time.Duration
	jsonOut     bool

	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "workefforts",
		Short:         "Track work efforts as Markdown files in status directories",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return c.teardown()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.root, "root", "", "directory holding the status directories (default from config, then .)")
	pf.StringVar(&c.markerDir, "marker-dir", "", "marker directory name for nested layouts")
	pf.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")
	pf.DurationVar(&c.lockTimeout, "lock-timeout", 0, "how long to wait for counter and record locks")
	pf.BoolVar(&c.jsonOut, "json", false, "print results as JSON")

	rootCmd.AddCommand(
		c.createCmd(),
		c.showCmd(),
		c.transitionCmd(),
		c.discoverCmd(),
		c.relatedCmd(),
		c.historyCmd(),
		c.chainCmd(),
		c.nextIDCmd(),
		c.indexCmd(),
		c.searchCmd(),
		c.activityCmd(),
		c.serveCmd(),
	)
	return rootCmd
}

// setup loads configuration, applies flag overrides and builds the logger.
// Logs always go to stderr so stdout stays clean for results and for the
// stdio MCP transport.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root = c.root
	}
	if flags.Changed("marker-dir") {
		cfg.MarkerDir = c.markerDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = c.logLevel
	}
	if flags.Changed("lock-timeout") {
		if c.lockTimeout <= 0 {
			return fmt.Errorf("--lock-timeout must be positive")
		}
		cfg.LockTimeout = c.lockTimeout
	}
	c.cfg = cfg

	logWriter := cmd.ErrOrStderr()
	c.closeLog = func() error { return nil }
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "log file error: %v\n", err)
		} else {
			logWriter = fileWriter
			c.closeLog = file.Close
		}
	}
	c.logger = slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	return nil
}

func (c *cli) teardown() error {
	if c.closeLog == nil {
		return nil
	}
	return c.closeLog()
}

// open builds the services for one command. Callers close the result.
func (c *cli) open() (*app.App, error) {
	return app.New(c.cfg, c.logger)
}

// emit prints v as JSON with --json, and through text otherwise.
func (c *cli) emit(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if c.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(out)
	return nil
}
