// Package main provides the semenums binary entry point.
// Semenums loads an enumeration catalog from an HTTP endpoint, catalog files
// or a NATS KV bucket, keeps it current, and serves it over HTTP.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/semenums/config"
	"github.com/c360studio/semenums/paging"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semenums"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Enumeration catalog cache",
		Long: `Semenums keeps a catalog of named enumerations in memory.

The catalog is loaded from one source:
- http: a JSON endpoint, optionally with cookies and a bearer token
- file: JSON, YAML or TOML files under a directory, reloaded on change
- kv:   a key in a NATS JetStream KV bucket, followed as it changes

Configuration is read from ~/.config/semenums/config.yaml and semenums.yaml
in the current or a parent directory, or from --config.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(serveCmd(flags), fetchCmd(flags), pageCmd(flags), publishCmd(flags), versionCmd())
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

func serveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the catalog, keep it current and serve it over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(flags.logLevel, cmd.ErrOrStderr())
			cfg, err := config.NewLoader(logger).Load(flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			// Setup signal handling
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			app := NewApp(cfg, logger)
			if err := app.Start(ctx); err != nil {
				app.Shutdown(5 * time.Second)
				return err
			}
			defer app.Shutdown(30 * time.Second)

			logger.Info("Semenums ready", "version", Version, "source", cfg.Source, "addr", cfg.API.Addr)
			return app.Serve(ctx)
		},
	}
}

func fetchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Load the catalog once and list its enums",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := startOnce(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Shutdown(5 * time.Second)

			enums, err := app.client.Enums()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderSummary(enums))
			return nil
		},
	}
}

func pageCmd(flags *globalFlags) *cobra.Command {
	var (
		req   paging.Request
		match string
	)

	cmd := &cobra.Command{
		Use:   "page NAME",
		Short: "Load the catalog once and print one page of an enum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(match) {
			case "prefix":
				req.Match = paging.MatchPrefix
			case "substring":
				req.Match = paging.MatchSubstring
			default:
				return fmt.Errorf("invalid --match %q: use prefix or substring", match)
			}
			if req.ZeroBased && !cmd.Flags().Changed("page") {
				req.Page = 0
			}

			app, err := startOnce(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Shutdown(5 * time.Second)

			b, err := app.client.Bind()
			if err != nil {
				return err
			}
			defer b.Close()

			page, err := b.Page(args[0], req)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderPage(args[0], page))
			return nil
		},
	}

	cmd.Flags().IntVarP(&req.Page, "page", "p", 1, "Page number (0 when --zero-based is set)")
	cmd.Flags().IntVarP(&req.Size, "size", "s", paging.DefaultPageSize, "Page size")
	cmd.Flags().StringVarP(&req.Query, "query", "q", "", "Only values whose display text starts with this")
	cmd.Flags().BoolVar(&req.ZeroBased, "zero-based", false, "Number pages from 0")
	cmd.Flags().StringVar(&match, "match", "prefix", "Query matching (prefix, substring)")
	return cmd
}

func publishCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Publish the catalog files to the NATS KV key",
		Long: `Publish reads the catalog files configured under files: and stores the
merged catalog under nats.key in nats.bucket, creating the bucket if needed.
Instances using the kv source pick up the new revision while watching.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(flags.logLevel, cmd.ErrOrStderr())
			cfg, err := config.NewLoader(logger).Load(flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			app := NewApp(cfg, logger)
			defer app.Shutdown(5 * time.Second)

			rev, catalog, err := app.Publish(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d enums to %s/%s (revision %d)\n",
				len(catalog), cfg.NATS.Bucket, cfg.NATS.Key, rev)
			return nil
		},
	}
}

// startOnce loads config, starts the app and loads the catalog without
// serving or watching.
func startOnce(cmd *cobra.Command, flags *globalFlags) (*App, error) {
	logger := newLogger(flags.logLevel, cmd.ErrOrStderr())
	cfg, err := config.NewLoader(logger).Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	app := NewApp(cfg, logger)
	if err := app.Start(ctx); err != nil {
		app.Shutdown(5 * time.Second)
		return nil, err
	}
	return app, nil
}

// newLogger builds the text logger for the given level name and makes it
// the default.
func newLogger(logLevel string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
