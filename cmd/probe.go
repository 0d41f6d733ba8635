// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/strapline/strapline/internal/ble"
	"github.com/strapline/strapline/pkg/whoopproto"
)

var probeTimeout int

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test connectivity by waiting for one valid frame",
	Long: `Connect to the strap, poke it with a hello command, and wait for any
valid protocol frame until timeout.

Exit codes:
  0 - Valid frame received before timeout
  1 - Timeout reached without a valid frame
  2 - Connection error

Useful for scripting and for checking that a strap is alive and speaking
the protocol before starting a long capture.`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVar(&probeTimeout, "timeout", 15, "Seconds to wait for a valid frame")
}

func runProbe(cmd *cobra.Command, args []string) error {
	adapter, err := ble.EnableAdapter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	deadline := time.Duration(probeTimeout) * time.Second
	ctx, cancel := context.WithTimeout(cmd.Context(), deadline)
	defer cancel()

	client, err := ble.Connect(ctx, adapter, deviceAddress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer client.Close()

	fmt.Printf("Strapline - Probe\n")
	fmt.Printf("Timeout: %d seconds\n", probeTimeout)
	fmt.Printf("Waiting for a valid frame...\n\n")

	var asm ble.Assembler
	frames := make(chan *whoopproto.Packet, 1)
	err = client.Subscribe(func(n ble.Notification) {
		for _, p := range asm.Feed(n.Data) {
			if !p.Valid() {
				continue
			}
			select {
			case frames <- p:
			default:
			}
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	if _, err := client.Send(whoopproto.CmdGetHello, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	select {
	case p := <-frames:
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Type: %s (0x%02X)\n", whoopproto.FormatPacketType(p.Type()), uint8(p.Type()))
		fmt.Printf("  Seq: %d\n", p.Seq())
		fmt.Printf("  Payload: %d bytes\n", len(p.Payload()))
		if trailer, known := p.TrailerChecksum(); known {
			fmt.Printf("  Trailer CRC: 0x%08X\n", trailer)
		}
		os.Exit(0)

	case <-ctx.Done():
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", probeTimeout)
		os.Exit(1)
	}
	return nil
}
