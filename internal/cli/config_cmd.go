package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"shopmcp/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter shopmcp.toml",
	RunE:  runConfigInit,
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print effective config as TOML (secrets excluded)",
	RunE:  runConfigPrint,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPrintCmd)
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	configPath := globalFlags.ConfigPath
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or pass --config", configPath)
	}

	if err := os.WriteFile(configPath, []byte(config.Template), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Println("Wrote", configPath)

	if IsTTY() {
		fmt.Fprintln(os.Stderr, "Optional: enter your OpenAI API key now (input is hidden). Press Enter to skip and set OPENAI_API_KEY later.")
		key, err := ReadSecret("OpenAI API key: ")
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if key != "" {
			fmt.Fprintln(os.Stderr, "Key received. Set it in your environment before running 'shopmcp serve':")
			fmt.Fprintln(os.Stderr, "  export OPENAI_API_KEY=<your-key>")
		}
	} else {
		fmt.Println("Edit the file and set OPENAI_API_KEY (and optionally STRIPE_SECRET_KEY) in your environment.")
	}
	return nil
}

func runConfigPrint(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(globalFlags.ConfigPath)
	if err != nil {
		exitWith(ExitConfigInvalid, "ERROR: "+err.Error())
	}

	// Secrets carry toml:"-" tags, so the encoder never emits them.
	return toml.NewEncoder(os.Stdout).Encode(cfg)
}
