package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// alertRecord mirrors the server's alert payload.
type alertRecord struct {
	ID          string    `json:"id"`
	RoomName    string    `json:"room_name"`
	SoundLevel  float64   `json:"sound_level"`
	Threshold   float64   `json:"threshold"`
	FiredAt     time.Time `json:"fired_at"`
	DisplayTime string    `json:"display_time"`
}

// alertsCmd shows today's alert history
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show today's alert history",
	Long: `Show the alerts fired today for the watched room, most recent first.

The history resets at local midnight.

Example:
  noisectl alerts`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var history []alertRecord
		if err := newClient().do(context.Background(), http.MethodGet, "/api/v1/alerts", nil, &history); err != nil {
			return err
		}

		if GetOutput() == "json" {
			printJSON(history)
			return nil
		}

		if len(history) == 0 {
			fmt.Println("No alerts today.")
			return nil
		}

		fmt.Printf("\n%-10s  %-24s  %-10s  %s\n", "TIME", "ROOM", "LEVEL", "THRESHOLD")
		fmt.Println(strings.Repeat("-", 60))
		for _, a := range history {
			fmt.Printf("%-10s  %-24s  %7.1f dB  %7.1f dB\n",
				a.DisplayTime, truncate(a.RoomName, 24), a.SoundLevel, a.Threshold)
		}
		fmt.Printf("\nTotal: %d alert(s) today\n", len(history))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)
}
