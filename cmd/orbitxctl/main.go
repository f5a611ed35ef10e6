// Command orbitxctl runs OrbitX queries from the shell without the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kashacker/satellite-tracker-orbitx/internal/app"
	"github.com/kashacker/satellite-tracker-orbitx/internal/cache"
	"github.com/kashacker/satellite-tracker-orbitx/internal/config"
	"github.com/kashacker/satellite-tracker-orbitx/internal/observability"
)

type rootOptions struct {
	configPath string
	at         string
	asJSON     bool
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "orbitxctl",
		Short:        "Query satellite positions, element sets and the catalog",
		Long:         `Runs the OrbitX element store, catalog aggregator and orbit resolver in-process, using the same configuration as the server.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", os.Getenv("ORBITX_CONFIG"), "path to a YAML config file")
	pf.StringVar(&opts.at, "at", "", "evaluate positions at this RFC 3339 time instead of now")
	pf.BoolVar(&opts.asJSON, "json", false, "print JSON instead of text")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newPositionCmd(opts),
		newTLECmd(opts),
		newSearchCmd(opts),
		newSatellitesCmd(opts),
		newCategoriesCmd(opts),
	)
	return root
}

// openApp loads configuration and builds the service graph. Logs go to
// stderr so stdout stays machine-readable.
func openApp(cmd *cobra.Command, opts *rootOptions) (*app.App, error) {
	logger := observability.NewLogger(cmd.ErrOrStderr(), observability.LogConfig{Level: opts.logLevel})

	cfg, err := config.Load(opts.configPath, logger)
	if err != nil {
		return nil, err
	}

	var appOpts []app.Option
	if opts.at != "" {
		at, err := time.Parse(time.RFC3339, opts.at)
		if err != nil {
			return nil, fmt.Errorf("--at: %w", err)
		}
		appOpts = append(appOpts, app.WithClock(cache.NewManualClock(at)))
	}
	return app.New(cmd.Context(), cfg, logger, appOpts...)
}

func parseCatalogNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid catalog number %q: must be a positive integer", s)
	}
	return n, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withApp runs fn against a freshly opened App and closes it afterwards.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app.App) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			a.Logger().Warn("close failed", "error", cerr)
		}
	}()
	return fn(cmd.Context(), a)
}
