// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/strapline/strapline/internal/ble"
	"github.com/strapline/strapline/internal/capture"
	"github.com/strapline/strapline/pkg/sensordata"
	"github.com/strapline/strapline/pkg/whoopproto"
)

var (
	sniffOutput  string
	sniffDecode  bool
	sniffStatsIv int
)

var sniffCmd = &cobra.Command{
	Use:   "sniff",
	Short: "Decode strap traffic from a serial tap or websocket bridge",
	Long: `Read raw strap bytes from outside the host's BLE stack and run them
through the frame scanner, printing each packet as it is recovered.

Sources:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]   (UART sniffer dongle)
  Websocket: --url ws://host/path [--username user] (remote capture bridge)

For bridge authentication the password is read from the STRAPLINE_PASSWORD
environment variable, or prompted interactively if unset.

Bytes can arrive split or glued arbitrarily; the scanner resynchronizes on
the frame sync byte. Periodic link statistics go to stderr.`,
	RunE: runSniff,
}

func init() {
	rootCmd.AddCommand(sniffCmd)
	sniffCmd.Flags().StringVarP(&sniffPort, "port", "p", "", "Serial port device")
	sniffCmd.Flags().IntVarP(&sniffBaud, "baud", "b", 115200, "Baud rate (serial only)")
	sniffCmd.Flags().StringVarP(&sniffURL, "url", "u", "", "Websocket bridge URL (ws:// or wss://)")
	sniffCmd.Flags().StringVar(&sniffUsername, "username", "", "Username for HTTP Basic auth")
	sniffCmd.Flags().BoolVar(&sniffNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
	sniffCmd.Flags().StringVarP(&sniffOutput, "output", "o", "", "Also append traffic to a capture file")
	sniffCmd.Flags().BoolVar(&sniffDecode, "decode", true, "Decode sensor records from recovered frames")
	sniffCmd.Flags().IntVar(&sniffStatsIv, "stats-interval", 30, "Seconds between statistics reports (0 = never)")
}

func runSniff(cmd *cobra.Command, args []string) error {
	src, info, err := openSniffSource()
	if err != nil {
		return err
	}
	defer src.Close()

	var writer *capture.Writer
	if sniffOutput != "" {
		writer, err = capture.NewWriter(sniffOutput)
		if err != nil {
			return err
		}
		defer writer.Close()
	}

	fmt.Printf("Strapline - Traffic Sniffer\n")
	fmt.Printf("Source: %s\n", info)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		src.Close()
	}()

	stats := whoopproto.NewStatistics()
	var asm ble.Assembler
	buf := make([]byte, 512)
	lastStats := time.Now()

	for {
		n, err := src.Read(buf)
		if err != nil {
			if ctx.Err() != nil || err == ErrBridgeClosed {
				fmt.Fprintf(os.Stderr, "\n%s\n", stats)
				return nil
			}
			fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
			continue
		}

		if writer != nil && n > 0 {
			entry := capture.NewEntry(0, whoopproto.CharDataUUID, buf[:n])
			if err := writer.Write(entry); err != nil {
				return fmt.Errorf("write capture: %w", err)
			}
		}

		for _, p := range asm.Feed(buf[:n]) {
			stats.Update(p)
			fmt.Printf("%s\n", whoopproto.FormatPacket(p))
			if sniffDecode && p.Valid() {
				for _, rec := range sensordata.DecodePacket(p) {
					fmt.Printf("  %s\n", describeRecord(rec))
				}
			}
		}

		if sniffStatsIv > 0 && time.Since(lastStats) >= time.Duration(sniffStatsIv)*time.Second {
			stats.CalculateRates()
			fmt.Fprintf(os.Stderr, "%s\n", stats)
			lastStats = time.Now()
		}
	}
}
