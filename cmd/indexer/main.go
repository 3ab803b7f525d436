package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	iconfig "github.com/goran-ethernal/DepositIndexor/internal/config"
	"github.com/goran-ethernal/DepositIndexor/internal/handlers"
	"github.com/goran-ethernal/DepositIndexor/pkg/config"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

const banner = `
╔═══════════════════════════════════════════╗
║           DepositIndexor %-8s         ║
║   Convertible deposit protocol indexer    ║
╚═══════════════════════════════════════════╝
`

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "indexer",
		Short: "DepositIndexor - convertible deposit protocol indexer",
		Long: `DepositIndexor follows the auctioneer, deposit facility and redemption vault
contracts of every configured chain and materializes their state, event history
and periodic snapshots into a queryable store.`,
		Version:      version,
		SilenceUsage: true,
		RunE:         runIndexer,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the indexer (default)",
			RunE:  runIndexer,
		},
		&cobra.Command{
			Use:   "list",
			Short: "List contract kinds and the events handled for each",
			Run: func(cmd *cobra.Command, _ []string) {
				printEvents(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "schema",
			Short: "Print the JSON schema of the configuration file",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return printSchema(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)

	return root
}

func printEvents(w io.Writer) {
	events := handlers.NewRouter(nil, config.ChainConfig{}).Events()

	for _, kind := range config.AllContractKinds {
		fmt.Fprintf(w, "%s:\n", kind)
		for _, name := range events[kind] {
			fmt.Fprintf(w, "  - %s\n", name)
		}
	}
}

func printSchema(w io.Writer) error {
	r := &jsonschema.Reflector{
		FieldNameTag:               "json",
		RequiredFromJSONSchemaTags: true,
	}
	schema := r.Reflect(&config.Config{})
	schema.Title = "DepositIndexor configuration"

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(schema)
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	fmt.Fprintf(cmd.OutOrStdout(), banner, version)

	cfg, err := iconfig.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
