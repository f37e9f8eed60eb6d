package cmd

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var statsDestination string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate delivery statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/v1/stats"
		if statsDestination != "" {
			path += "?destination_id=" + url.QueryEscape(statsDestination)
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
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsDestination, "destination", "", "restrict stats to one destination id")
}
