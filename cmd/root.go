// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/strapline/strapline/internal/config"
	"github.com/strapline/strapline/internal/logging"
)

var (
	// BLE target, overrides the configured device address
	deviceAddress string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "strapline",
	Short: "Whoop 4.0 BLE protocol toolkit",
	Long: `Strapline - a toolkit for talking to the Whoop 4.0 strap over BLE.

Provides commands for device discovery, live sensor streaming, notification
capture, offline replay and decoding, and health-metric analysis, built on a
reverse-engineered understanding of the strap's proprietary protocol.

Most commands need a strap in range; capture files make the decoders usable
without one. Set STRAPLINE_LOG_LEVEL=debug for wire-level logging.`,
	Version: "0.3.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.InitializeFromEnv(); err != nil {
			return err
		}
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if deviceAddress == "" {
			deviceAddress = cfg.DeviceAddress
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&deviceAddress, "device", "d", "", "Strap BLE address (default: first strap found)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
