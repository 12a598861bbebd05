// Package main is the entry point for the noisectl CLI tool.
package main

import (
	"os"

	"github.com/quiet-rooms/noisewatch/cmd/noisectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
