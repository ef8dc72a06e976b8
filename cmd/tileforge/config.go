package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tileforge/internal/config"
)

var flagDefaults bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration the editor would run with, after the config
file search and flag overrides are applied.

Config search order:
  1. --config <path>
  2. ~/.tileforge/config.yaml
  3. ./configs/editor.yaml
  4. Built-in defaults

Examples:
  tileforge config
  tileforge config --defaults > ~/.tileforge/config.yaml`,
	Args: cobra.NoArgs,
	Run:  runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&flagDefaults, "defaults", false, "Print the built-in defaults instead")
}

func runConfig(_ *cobra.Command, _ []string) {
	if flagDefaults {
		fmt.Print(string(config.DefaultYAML()))
		return
	}

	cfg, err := loadConfig()
	exitOnError("loading config", err)

	data, err := config.Marshal(cfg)
	exitOnError("encoding config", err)
	fmt.Print(string(data))
}
