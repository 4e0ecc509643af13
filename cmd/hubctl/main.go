// Command hubctl runs maintenance and one-off analysis tasks against the hub's database.
package main

import (
	"fmt"
	"os"

	"mediahub/config"
	"mediahub/logger"

	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	log = logger.Nop()
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hubctl",
		Short: "Media Literacy Hub maintenance tool",
		Long: `hubctl talks to the same database and language model as the API server.
Configuration comes from .env and the environment, exactly as for the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, _ = config.Load()
			l, err := logger.Init(cfg.AppEnv)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			log = l
			return nil
		},
	}
	root.AddCommand(
		newMigrateCmd(),
		newSeedDemoCmd(),
		newAnalyzeCmd(),
		newCleanupCmd(),
		newLintCatalogCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
