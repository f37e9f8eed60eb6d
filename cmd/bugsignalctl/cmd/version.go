package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/austindbirch/bugsignal/internal/webhook"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bugsignalctl %s\n", webhook.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
