// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ManuGH/flowcatalyst/internal/version"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return render(cmd.OutOrStdout(), a.output, map[string]string{
				"version":    version.Version,
				"commit":     version.Commit,
				"build_date": version.Date,
				"go":         runtime.Version(),
			})
		},
	}
}
