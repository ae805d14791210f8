// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Command ringsyncd is the operator-facing entrypoint for the
// synchronization core: it validates configurations, runs an
// in-memory simulation against a fake actuator, and prints the
// resolved parameter set, mirroring the teacher's cmd/consensus tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ringsyncd",
	Short: "ringsyncd operates the tick-based synchronization core",
	Long: `ringsyncd provides operator tooling for the synchronization core:
parameter validation, an in-memory coordinator simulation for soak
testing, and a params inspector for the resolved configuration.`,
}

func main() {
	rootCmd.AddCommand(
		checkCmd(),
		simCmd(),
		paramsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
