// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func paramsCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "params",
		Short: "Print a resolved parameter preset as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := resolvePreset(preset)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(params, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "default", "parameter preset: default, local, production")
	return cmd
}
