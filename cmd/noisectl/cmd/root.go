// Package cmd contains the CLI commands for noisectl.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	verbose   bool
	output    string
)

var rootCmd = &cobra.Command{
	Use:   "noisectl",
	Short: "NoiseWatch - Noise monitoring control tool",
	Long: `noisectl manages a running NoiseWatch server over its REST API.

Rooms, thresholds and the chosen room are administered here; summaries
and the day's alert history can be inspected from the terminal.

Examples:
  # List rooms and their thresholds
  noisectl room list

  # Add a room and watch it
  noisectl room add --name "Library" --threshold 65
  noisectl room choose --name "Library"

  # Today's hourly summary and this week's overview
  noisectl daily
  noisectl weekly --offset -1

  # Today's alerts
  noisectl alerts`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command; called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaultServer := "http://localhost:8080"
	if env := os.Getenv("NOISEWATCH_SERVER"); env != "" {
		defaultServer = env
	}

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultServer, "NoiseWatch server URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// GetOutput returns the output format.
func GetOutput() string {
	return output
}
