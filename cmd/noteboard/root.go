package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samejima-ai/minute-board-app/infrastructure/config"
)

var (
	configDir   string
	environment string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "noteboard",
	Short: "Live force-directed layout for a board of notes",
	Long: `noteboard places short notes on a board and keeps them arranged with a
force-directed simulation: related notes attract, every note repels its
neighbours, and cards stay inside the visible area.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "config", "directory holding base.yaml and per-environment overrides")
	rootCmd.PersistentFlags().StringVarP(&environment, "env", "e", "", "environment (development, staging, production); defaults to $ENVIRONMENT")
}

// loader builds the config loader for the selected directory and environment
func loader() (*config.Loader, error) {
	env := config.GetEnvironment()
	switch config.Environment(environment) {
	case "":
	case config.Development, config.Staging, config.Production:
		env = config.Environment(environment)
	default:
		return nil, fmt.Errorf("unknown environment %q", environment)
	}
	return config.NewLoader(configDir, env), nil
}
