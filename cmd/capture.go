// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package cmd

import (
	"context"
	"encoding/binary"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/strapline/strapline/internal/ble"
	"github.com/strapline/strapline/internal/capture"
	"github.com/strapline/strapline/pkg/whoopproto"
)

var (
	captureOutput     string
	captureHistorical bool
	captureRealtime   bool
	captureReadFrom   uint32
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record strap notifications to a capture file",
	Long: `Connect to the strap and append every notification to a capture file,
byte-for-byte. The extension picks the format: .jsonl for line-delimited
JSON, .cbor for the compact binary framing.

With --historical the strap is asked to play back its stored records into
the capture; --realtime additionally enables the live heart-rate stream.
Captured files replay offline with the replay command.`,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().StringVarP(&captureOutput, "output", "o", "", "Capture file path (.jsonl or .cbor)")
	captureCmd.Flags().BoolVar(&captureHistorical, "historical", false, "Request historical data playback")
	captureCmd.Flags().Uint32Var(&captureReadFrom, "read-from", 0, "Historical read pointer to rewind to before playback")
	captureCmd.Flags().BoolVar(&captureRealtime, "realtime", false, "Enable the live heart-rate stream")
	captureCmd.MarkFlagRequired("output")
}

func runCapture(cmd *cobra.Command, args []string) error {
	if cfg.CaptureDir != "" && !filepath.IsAbs(captureOutput) {
		captureOutput = filepath.Join(cfg.CaptureDir, captureOutput)
	}
	writer, err := capture.NewWriter(captureOutput)
	if err != nil {
		return err
	}
	defer writer.Close()

	adapter, err := ble.EnableAdapter()
	if err != nil {
		return err
	}
	findCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	client, err := ble.Connect(findCtx, adapter, deviceAddress)
	if err != nil {
		return err
	}
	defer client.Close()

	// The stack delivers notifications on its own goroutine; entries are
	// stamped there so buffering never skews timestamps.
	entries := make(chan capture.Entry, 256)
	err = client.Subscribe(func(n ble.Notification) {
		select {
		case entries <- capture.NewEntry(0, n.CharUUID, n.Data):
		default:
		}
	})
	if err != nil {
		return err
	}

	if captureRealtime {
		if _, err := client.Send(whoopproto.CmdToggleRealtimeHR, []byte{0x01}); err != nil {
			return err
		}
		defer client.Send(whoopproto.CmdToggleRealtimeHR, []byte{0x00})
	}
	if captureHistorical {
		if captureReadFrom > 0 {
			var ptr [4]byte
			binary.LittleEndian.PutUint32(ptr[:], captureReadFrom)
			if _, err := client.Send(whoopproto.CmdSetReadPointer, ptr[:]); err != nil {
				return err
			}
		}
		frame, err := client.Send(whoopproto.CmdSendHistoricalData, []byte{0x00})
		if err != nil {
			return err
		}
		fmt.Printf("Requested historical playback (% X)\n", frame)
	}

	fmt.Printf("Capturing to %s. Press Ctrl+C to stop.\n", captureOutput)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lastReport := time.Now()
	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\nCaptured %d notifications to %s\n", writer.Count(), captureOutput)
			return nil
		case entry := <-entries:
			if err := writer.Write(entry); err != nil {
				return fmt.Errorf("write capture: %w", err)
			}
			if time.Since(lastReport) >= 5*time.Second {
				fmt.Printf("  %d notifications...\n", writer.Count())
				lastReport = time.Now()
			}
		}
	}
}
