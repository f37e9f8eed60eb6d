package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	publishSync bool
)

var publishCmd = &cobra.Command{
	Use:   "publish <request-json>",
	Short: "Publish a delivery",
	Long: `Publish a delivery request. The argument is a JSON document with a
"destination" config and a "payload", matching the POST /v1/deliveries body.
With --sync the command waits for the terminal delivery result.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var body map[string]any
		if err := json.Unmarshal([]byte(args[0]), &body); err != nil {
			return fmt.Errorf("invalid request JSON: %w", err)
		}

		path := "/v1/deliveries"
		wantStatus := http.StatusAccepted
		if publishSync {
			path = "/v1/deliveries/sync"
			wantStatus = http.StatusOK
		}

		data, status, err := makeRequest(http.MethodPost, path, body)
		if err != nil {
			return err
		}
		if status != wantStatus {
			return fmt.Errorf("server returned status %d: %s", status, string(data))
		}
		printOutput(data)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().BoolVar(&publishSync, "sync", false, "wait for the terminal delivery result")
}
