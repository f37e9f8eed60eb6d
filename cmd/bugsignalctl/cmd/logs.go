package cmd

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	logsDestination string
	logsEventType   string
	logsSuccess     string
	logsFrom        string
	logsTo          string
	logsLimit       int
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Query delivery logs",
	Long:  `Query delivery logs with optional filters, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if logsDestination != "" {
			q.Set("destination_id", logsDestination)
		}
		if logsEventType != "" {
			q.Set("event_type", logsEventType)
		}
		if logsSuccess != "" {
			q.Set("success", logsSuccess)
		}
		if logsFrom != "" {
			q.Set("from", logsFrom)
		}
		if logsTo != "" {
			q.Set("to", logsTo)
		}
		if logsLimit > 0 {
			q.Set("limit", fmt.Sprintf("%d", logsLimit))
		}

		path := "/v1/logs"
		if enc := q.Encode(); enc != "" {
			path += "?" + enc
		}
		data, status, err := makeRequest(http.MethodGet, path, nil)
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
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().StringVar(&logsDestination, "destination", "", "filter by destination id")
	logsCmd.Flags().StringVar(&logsEventType, "event-type", "", "filter by event type")
	logsCmd.Flags().StringVar(&logsSuccess, "success", "", "filter by success flag (true/false)")
	logsCmd.Flags().StringVar(&logsFrom, "from", "", "filter by creation time lower bound (RFC3339)")
	logsCmd.Flags().StringVar(&logsTo, "to", "", "filter by creation time upper bound (RFC3339)")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 0, "maximum number of logs to return")
}
