// Package main is the entry point for the mfergpt bot CLI.
package main

import (
	"fmt"
	"os"

	"github.com/mferlabs/mfergpt/cmd/mfergpt/commands"
)

// version is injected at build time via ldflags.
var version = "dev"

func main() {
	rootCmd := commands.NewRootCmd(version)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
