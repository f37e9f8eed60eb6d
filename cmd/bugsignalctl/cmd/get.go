package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <delivery-id>",
	Short: "Fetch a single delivery log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, status, err := makeRequest(http.MethodGet, "/v1/deliveries/"+args[0], nil)
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
	rootCmd.AddCommand(getCmd)
}
