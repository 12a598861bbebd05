package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var (
	summaryRoom   string
	summaryDate   string
	summaryOffset int
)

// dailySummary mirrors the server's daily analytics payload.
type dailySummary struct {
	Room   string `json:"room"`
	Date   string `json:"date"`
	Points []struct {
		Hour      int      `json:"hour"`
		Label     string   `json:"label"`
		AvgLevel  *float64 `json:"avg_level"`
		PeakLevel *float64 `json:"peak_level"`
	} `json:"points"`
}

// weeklySummary mirrors the server's weekly analytics payload.
type weeklySummary struct {
	Room   string `json:"room"`
	Offset int    `json:"offset"`
	Points []struct {
		Day       string   `json:"day"`
		AvgNoise  *float64 `json:"avg_noise"`
		PeakNoise *float64 `json:"peak_noise"`
	} `json:"points"`
	QuietTime []struct {
		Day             string `json:"day"`
		DurationMinutes int    `json:"duration_minutes"`
	} `json:"quiet_time"`
}

// rollingStats mirrors the server's stats payload.
type rollingStats struct {
	DailyPeak     *float64 `json:"daily_peak"`
	WeeklyAverage *float64 `json:"weekly_average"`
}

func formatLevel(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f dB", *v)
}

// dailyCmd shows the hourly summary for one day
var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Show the hourly noise summary for a day",
	Long: `Show the hourly noise summary for the selected date.

Hours run over the observed working-hours span; an hour without samples
shows "-" rather than zero.

Examples:
  noisectl daily
  noisectl daily --date 2026-08-28
  noisectl daily --room "Library" --date 2026-08-28`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if summaryRoom != "" {
			q.Set("room", summaryRoom)
		}
		if summaryDate != "" {
			q.Set("date", summaryDate)
		}

		path := "/api/v1/analytics/daily"
		if len(q) > 0 {
			path += "?" + q.Encode()
		}

		var summary dailySummary
		if err := newClient().do(context.Background(), http.MethodGet, path, nil, &summary); err != nil {
			return err
		}

		if GetOutput() == "json" {
			printJSON(summary)
			return nil
		}

		fmt.Printf("\nDaily summary for %s on %s\n\n", summary.Room, summary.Date)
		if len(summary.Points) == 0 {
			fmt.Println("No samples in the working-hours window.")
			return nil
		}

		fmt.Printf("%-8s  %-10s  %s\n", "HOUR", "AVERAGE", "PEAK")
		fmt.Println(strings.Repeat("-", 32))
		for _, p := range summary.Points {
			fmt.Printf("%-8s  %-10s  %s\n", p.Label, formatLevel(p.AvgLevel), formatLevel(p.PeakLevel))
		}
		return nil
	},
}

// weeklyCmd shows the weekday summary for one week
var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Show the weekday noise summary for a week",
	Long: `Show the Monday-Friday noise summary and quiet-time estimate.

The offset selects the week: 0 is the current week, -1 the previous,
down to -4.

Examples:
  noisectl weekly
  noisectl weekly --offset -2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if summaryRoom != "" {
			q.Set("room", summaryRoom)
		}
		if cmd.Flags().Changed("offset") {
			q.Set("offset", strconv.Itoa(summaryOffset))
		}

		path := "/api/v1/analytics/weekly"
		if len(q) > 0 {
			path += "?" + q.Encode()
		}

		var summary weeklySummary
		if err := newClient().do(context.Background(), http.MethodGet, path, nil, &summary); err != nil {
			return err
		}

		if GetOutput() == "json" {
			printJSON(summary)
			return nil
		}

		fmt.Printf("\nWeekly summary for %s (offset %d)\n\n", summary.Room, summary.Offset)
		if len(summary.Points) == 0 {
			fmt.Println("No samples in this week's working-hours window.")
			return nil
		}

		quiet := make(map[string]int, len(summary.QuietTime))
		for _, qt := range summary.QuietTime {
			quiet[qt.Day] = qt.DurationMinutes
		}

		fmt.Printf("%-10s  %-10s  %-10s  %s\n", "DAY", "AVERAGE", "PEAK", "QUIET TIME")
		fmt.Println(strings.Repeat("-", 48))
		for _, p := range summary.Points {
			fmt.Printf("%-10s  %-10s  %-10s  %d min\n",
				p.Day, formatLevel(p.AvgNoise), formatLevel(p.PeakNoise), quiet[p.Day])
		}
		return nil
	},
}

// statsCmd shows the rolling scalars
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the rolling daily-peak and weekly-average stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats rollingStats
		if err := newClient().do(context.Background(), http.MethodGet, "/api/v1/analytics/stats", nil, &stats); err != nil {
			return err
		}

		if GetOutput() == "json" {
			printJSON(stats)
			return nil
		}

		fmt.Printf("Daily peak:     %s\n", formatLevel(stats.DailyPeak))
		fmt.Printf("Weekly average: %s\n", formatLevel(stats.WeeklyAverage))
		return nil
	},
}

func init() {
	dailyCmd.Flags().StringVar(&summaryRoom, "room", "", "room name (defaults to the chosen room)")
	dailyCmd.Flags().StringVar(&summaryDate, "date", "", "date as 2006-01-02 (defaults to today)")
	weeklyCmd.Flags().StringVar(&summaryRoom, "room", "", "room name (defaults to the chosen room)")
	weeklyCmd.Flags().IntVar(&summaryOffset, "offset", 0, "week offset, 0 (current) to -4")

	rootCmd.AddCommand(dailyCmd)
	rootCmd.AddCommand(weeklyCmd)
	rootCmd.AddCommand(statsCmd)
}
