// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/strapline/strapline/internal/ble"
)

var (
	scanTimeout int
	scanMax     int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover straps advertising nearby",
	Long: `Scan for BLE advertisements carrying the strap's name prefix and list the
devices found with address, name and signal strength.

The address shown here is what --device and the config file expect.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan duration in seconds")
	scanCmd.Flags().IntVar(&scanMax, "max", 0, "Stop after this many straps (0 = scan full duration)")
}

func runScan(cmd *cobra.Command, args []string) error {
	adapter, err := ble.EnableAdapter()
	if err != nil {
		return err
	}

	fmt.Printf("Scanning for straps (%ds)...\n\n", scanTimeout)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(scanTimeout)*time.Second)
	defer cancel()

	devices, err := ble.Scan(ctx, adapter, scanMax)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No straps found. Is the strap charged and off the charger?")
		return nil
	}

	fmt.Printf("%-20s %-16s %s\n", "ADDRESS", "NAME", "RSSI")
	for _, d := range devices {
		fmt.Printf("%-20s %-16s %d dBm\n", d.Address, d.Name, d.RSSI)
	}
	return nil
}
