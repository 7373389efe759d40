package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gobeaver/txio"
	"github.com/gobeaver/txio/internal/logging"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	dryRun     bool
	overwrite  bool
	bufferSize int
)

var rootCmd = &cobra.Command{
	Use:   "txio",
	Short: "Copy and convert files inside a rollback-able transaction",
	Long: `txio writes, copies and converts files as one transaction. If any step
fails, everything the command created is removed again.

Configuration is read from BEAVER_TXIO_* environment variables; flags
override the copy defaults.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print the summary as JSON")
	rootCmd.PersistentFlags().
		BoolVar(&dryRun, "dry-run", false, "Perform the operation, then roll it back instead of committing")
	rootCmd.PersistentFlags().BoolVar(&overwrite, "overwrite", false, "Replace existing targets")
	rootCmd.PersistentFlags().
		IntVar(&bufferSize, "buffer-size", 0, "Copy through a buffer of this many bytes (0 copies whole files)")
}

func execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// newIO builds a txio instance from the environment, with logging raised to
// debug when --verbose is set.
func newIO() (*txio.IO, error) {
	cfg, err := txio.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.LogLevel,
		Development: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return txio.New(cfg, txio.WithLogger(logger))
}

// copyOptions turns the global flags into operation options.
func copyOptions(cmd *cobra.Command) []txio.Option {
	var opts []txio.Option
	if cmd.Flags().Changed("overwrite") {
		opts = append(opts, txio.WithOverwrite(overwrite))
	}
	if cmd.Flags().Changed("buffer-size") {
		opts = append(opts, txio.WithBufferSize(bufferSize))
	}
	return opts
}

// summary is what every command reports once the transaction is settled.
type summary struct {
	Command   string `json:"command"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Changes   int    `json:"changes"`
	Files     int    `json:"files,omitempty"`
	Committed bool   `json:"committed"`
}

// runTransaction executes fn inside a transaction. With --dry-run the
// transaction is rolled back after fn succeeds.
func runTransaction(x *txio.IO, s *summary, fn func() error) error {
	if err := x.Begin(); err != nil {
		return err
	}

	if err := fn(); err != nil {
		if rbErr := x.Rollback(); rbErr != nil {
			x.Logger().Error("rollback failed", zap.Error(rbErr))
		}
		return err
	}

	s.Changes = x.Manager().Pending()
	if dryRun {
		printVerbose("Dry run: rolling back %d change(s)\n", s.Changes)
		if err := x.Rollback(); err != nil {
			return fmt.Errorf("dry-run rollback: %w", err)
		}
		return nil
	}
	if err := x.Commit(); err != nil {
		return err
	}
	s.Committed = true
	return nil
}

func report(s *summary) error {
	if jsonOut {
		return printJSON(s)
	}
	state := "committed"
	if !s.Committed {
		state = "rolled back (dry run)"
	}
	printInfo("%s %s -> %s: %d change(s) %s\n", s.Command, s.Source, s.Target, s.Changes, state)
	if s.Files > 0 {
		printVerbose("%s holds %d file(s)\n", s.Target, s.Files)
	}
	return nil
}

// Helper functions for output

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(rootCmd.OutOrStdout(), format, args...)
	}
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: "+format, args...)
}

func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(rootCmd.OutOrStdout(), format, args...)
	}
}

func printJSON(v interface{}) error {
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(rootCmd.OutOrStdout(), string(data))
	return err
}
