package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quiet-rooms/noisewatch/pkg/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if GetOutput() != "json" {
			fmt.Println(config.VersionString())
			return
		}
		data, _ := json.MarshalIndent(config.GetBuildInfo(), "", "  ")
		fmt.Println(string(data))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
