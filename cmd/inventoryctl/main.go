// Command inventoryctl is the operator CLI for the world inventory ledger
// service: it wires config, logging, the two stores, and every composite
// action into a cobra command tree, replacing the wire-protocol front-end
// that is out of scope here (§6) with a tool for manual and administrative
// use against a live deployment.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/clusterium/invledger/internal/actions"
	"github.com/clusterium/invledger/internal/buffs"
	"github.com/clusterium/invledger/internal/config"
	"github.com/clusterium/invledger/internal/filterstore"
	"github.com/clusterium/invledger/internal/inventory"
	"github.com/clusterium/invledger/internal/ledger"
)

// app bundles the wired-up dependencies every subcommand needs.
type app struct {
	cfg       *config.Config
	ledger    *ledger.Ledger
	filters   *filterstore.Store
	actions   *actions.Actions
	inventory *inventory.Manager
	buffs     *buffs.Manager
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("inventoryctl failed")
	}
}

func newRootCmd() *cobra.Command {
	var metricsAddr string

	root := &cobra.Command{
		Use:   "inventoryctl",
		Short: "Operate the world inventory ledger service",
	}
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "not read by any command; serve listens on METRICS_PORT")

	root.AddCommand(
		newServeCmd(),
		newCreateCmd(),
		newDestroyCmd(),
		newSplitCmd(),
		newDropCmd(),
		newGatherCmd(),
		newCraftCmd(),
		newTradeCmd(),
		newInventoryCmd(),
		newClaimCmd(),
		newSeedCmd(),
		newBuffCmd(),
	)
	return root
}

// newApp loads configuration and dials both stores. Every subcommand but
// `seed` needs the full wiring; commands call this once at the top of their
// RunE.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	led, err := ledger.Open(cfg.LedgerDSN)
	if err != nil {
		return nil, err
	}

	filters, err := filterstore.Connect(ctx, cfg.FilterStoreURI, cfg.FilterStoreDatabase, cfg.FilterMaxRetries)
	if err != nil {
		led.Close()
		return nil, err
	}

	act := actions.New(led.DB(), cfg.LedgerMaxRetries)
	return &app{
		cfg:       cfg,
		ledger:    led,
		filters:   filters,
		actions:   act,
		inventory: inventory.NewManager(led.DB()),
		buffs:     buffs.NewManager(led.DB(), act),
	}, nil
}

func (a *app) Close() {
	if a != nil && a.ledger != nil {
		a.ledger.Close()
	}
}

// newServeCmd runs the metrics HTTP endpoint and blocks until a shutdown
// signal arrives, for deployments that want inventoryctl itself as the
// long-running process rather than an ad hoc operator tool.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the metrics endpoint and block until shutdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			stopMetrics := runMetricsServer(ctx, a.cfg.MetricsPort)

			log.Info().Int("metrics_port", a.cfg.MetricsPort).Msg("inventoryctl serving")

			select {
			case sig := <-sigChan:
				log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			case <-ctx.Done():
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer shutdownCancel()
			stopMetrics(shutdownCtx)

			log.Info().Msg("inventoryctl stopped")
			return nil
		},
	}
}
