package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"insight-dashboard/internal/config"
	"insight-dashboard/internal/ingest"
	"insight-dashboard/internal/observability"
	"insight-dashboard/internal/services"
)

type cliOptions struct {
	sampleSize int
	maxRows    int
	cacheDir   string
	logLevel   string
	pretty     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "insight",
		Short: "Infer KPIs and charts from CSV and Excel files",
		Long: `Insight

Classifies the columns of a tabular file as numeric, categorical or date and
derives headline KPIs and bar, line and pie chart configurations from them.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.IntVar(&opts.sampleSize, "sample-size", 100, "number of leading rows used to classify columns")
	flags.IntVar(&opts.maxRows, "max-rows", ingest.DefaultMaxRows, "reject files with more data rows than this")
	flags.StringVar(&opts.cacheDir, "cache-dir", "", "directory for cached analysis results (disabled when empty)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.BoolVar(&opts.pretty, "pretty", false, "indent JSON output")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "analyze <file>",
			Short: "Print the column classification, KPIs and charts as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				session, analytics, err := load(cmd, opts, args[0])
				if err != nil {
					return err
				}
				defer analytics.Close()
				return writeJSON(cmd.OutOrStdout(), session.Analysis, opts.pretty)
			},
		},
		&cobra.Command{
			Use:   "summary <file>",
			Short: "Print column profiles, outliers and a preview as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				session, analytics, err := load(cmd, opts, args[0])
				if err != nil {
					return err
				}
				defer analytics.Close()

				summary, err := analytics.Summary(session.ID)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), summary, opts.pretty)
			},
		},
	)

	return rootCmd
}

func load(cmd *cobra.Command, opts *cliOptions, path string) (*services.Session, *services.Analytics, error) {
	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), config.LoggerConfig{
		Level:  opts.logLevel,
		Format: "text",
	})

	analytics := services.NewAnalytics(services.Options{
		MaxRows:    opts.maxRows,
		SampleSize: opts.sampleSize,
		CacheDir:   opts.cacheDir,
		Logger:     logger,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	session, err := analytics.LoadFile(ctx, path)
	if err != nil {
		analytics.Close()
		return nil, nil, fmt.Errorf("analyze %s: %w", path, err)
	}
	return session, analytics, nil
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
