// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fuellink",
	Short: "Fuel-supply telemetry/control node runner and protocol tools",
	Long: `fuellink runs any of the three nodes of a fuel-supply telemetry and
control system (controller, air relay, ground relay) speaking a shared
framed binary wire protocol over UART and a half-duplex radio link, and
provides standalone tools for inspecting that protocol offline.`,
	Version: "0.1.0",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
