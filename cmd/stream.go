// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/strapline/strapline/internal/ble"
	"github.com/strapline/strapline/pkg/sensordata"
	"github.com/strapline/strapline/pkg/whoopproto"
)

var (
	streamIMU     bool
	streamRawHex  bool
	streamTimeout int
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream live sensor data from the strap",
	Long: `Connect to the strap, enable real-time heart-rate notifications, and print
each decoded record as it arrives. With --imu the accelerometer stream is
enabled as well.

Real-time mode is switched back off on exit so the strap returns to its
normal battery-friendly behavior.`,
	RunE: runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)
	streamCmd.Flags().BoolVar(&streamIMU, "imu", false, "Also enable the accelerometer stream")
	streamCmd.Flags().BoolVar(&streamRawHex, "raw", false, "Print frame hex alongside decoded records")
	streamCmd.Flags().IntVar(&streamTimeout, "connect-timeout", 30, "Seconds to wait for the strap during discovery")
}

func runStream(cmd *cobra.Command, args []string) error {
	adapter, err := ble.EnableAdapter()
	if err != nil {
		return err
	}

	findCtx, cancel := context.WithTimeout(cmd.Context(), time.Duration(streamTimeout)*time.Second)
	defer cancel()
	client, err := ble.Connect(findCtx, adapter, deviceAddress)
	if err != nil {
		return err
	}
	defer client.Close()

	var asm ble.Assembler
	packets := make(chan *whoopproto.Packet, 64)
	err = client.Subscribe(func(n ble.Notification) {
		for _, p := range asm.Feed(n.Data) {
			select {
			case packets <- p:
			default:
			}
		}
	})
	if err != nil {
		return err
	}

	if _, err := client.Send(whoopproto.CmdToggleRealtimeHR, []byte{0x01}); err != nil {
		return err
	}
	defer client.Send(whoopproto.CmdToggleRealtimeHR, []byte{0x00})
	if streamIMU {
		if _, err := client.Send(whoopproto.CmdToggleIMUMode, []byte{0x01}); err != nil {
			return err
		}
		defer client.Send(whoopproto.CmdToggleIMUMode, []byte{0x00})
	}

	fmt.Println("Streaming. Press Ctrl+C to stop.")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats := whoopproto.NewStatistics()
	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\n%s\n", stats)
			return nil
		case p := <-packets:
			stats.Update(p)
			if streamRawHex {
				fmt.Printf("%s\n", whoopproto.FormatPacket(p))
			}
			if !p.Valid() {
				continue
			}
			for _, rec := range sensordata.DecodePacket(p) {
				fmt.Printf("%s  %s\n", time.Now().Format("15:04:05.000"), describeRecord(rec))
			}
		}
	}
}
