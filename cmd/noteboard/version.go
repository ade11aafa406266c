package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samejima-ai/minute-board-app/infrastructure/di"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of noteboard",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "noteboard version %s\n", di.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
