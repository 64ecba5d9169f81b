// Package cli implements the mortd command line. The daemon owns the
// database; every other command talks to it over the local HTTP API.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rp011dev/mort-mgmnt-sub000/internal/api"
)

var (
	flagConfig string
	flagServer string
	flagActor  string
)

var rootCmd = &cobra.Command{
	Use:   "mortd",
	Short: "Mortgage brokerage back-office daemon and CLI",
	Long: `mortd tracks mortgage and insurance customers through a fixed
application pipeline: stage moves with a full audit trail, a per-customer
fee ledger, and enquiry intake. Run 'mortd serve' to start the daemon;
all other commands talk to the running daemon over its HTTP API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config.toml (default ~/.mortd/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "http://127.0.0.1:8090", "Base URL of the running daemon")
	rootCmd.PersistentFlags().StringVar(&flagActor, "actor", "", "Advisor name recorded against audited actions")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the mortd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "mortd %s\n", api.Version)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
