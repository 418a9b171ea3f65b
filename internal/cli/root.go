package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	ExitSuccess       = 0
	ExitGenericError  = 1
	ExitConfigInvalid = 2
	ExitAssetsMissing = 3
	ExitBindFailure   = 4
)

// GlobalFlags holds flags shared across all commands.
type GlobalFlags struct {
	ConfigPath string
	JSON       bool
	Quiet      bool
}

var globalFlags GlobalFlags

var rootCmd = &cobra.Command{
	Use:   "shopmcp",
	Short: "MCP server for shopping widgets over pluggable product catalogs",
	Long: "shopmcp serves the product carousel, list and shopping cart widgets over MCP,\n" +
		"backed by per-project SQLite catalogs plus payment, recipe and enrichment tools.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "shopmcp.toml", "config file path")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.JSON, "json", false, "emit NDJSON events for automation/logging")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Quiet, "quiet", false, "reduce output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and returns an error; exit code is set by RunE.
func Execute() error {
	return rootCmd.Execute()
}

// exitWith prints message to stderr and exits with code.
func exitWith(code int, msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}
