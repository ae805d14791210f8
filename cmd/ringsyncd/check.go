// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/The404Studios/Kenshi-Online-sub006/config"
	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	var preset string
	var tickRateHz int

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a parameter preset for safety and correctness",
		Long: `check resolves a named preset (default, local, production),
applies any overrides given on the command line, and reports every
validation failure and warning found by the config package.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(preset, tickRateHz)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "default", "parameter preset: default, local, production")
	cmd.Flags().IntVar(&tickRateHz, "tick-rate", 0, "override tick rate in Hz (0 = use preset)")

	return cmd
}

func runCheck(preset string, tickRateHz int) error {
	params, err := resolvePreset(preset)
	if err != nil {
		return err
	}
	if tickRateHz > 0 {
		params.TickRateHz = tickRateHz
	}

	result := config.NewValidator().ValidateDetailed(params)

	for _, w := range result.Warnings {
		fmt.Printf("warning: %s\n", w.Error())
	}
	for _, e := range result.Errors {
		fmt.Printf("error: %s\n", e.Error())
	}

	if !result.Valid {
		return fmt.Errorf("%d validation error(s) found", len(result.Errors))
	}

	fmt.Printf("%s preset is valid (%d warning(s))\n", preset, len(result.Warnings))
	return nil
}

func resolvePreset(preset string) (config.Parameters, error) {
	switch preset {
	case "default", "":
		return config.Default(), nil
	case "local":
		return config.Local(), nil
	case "production":
		return config.Production(), nil
	default:
		return config.Parameters{}, fmt.Errorf("unknown preset %q: want default, local, or production", preset)
	}
}
