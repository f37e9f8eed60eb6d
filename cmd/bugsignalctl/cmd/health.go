package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check notifier service health",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, status, err := makeRequest(http.MethodGet, "/healthz", nil)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("server returned status %d: %s", status, string(data))
		}
		printOutput(data)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
