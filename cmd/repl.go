// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/strapline/strapline/internal/ble"
	"github.com/strapline/strapline/pkg/sensordata"
	"github.com/strapline/strapline/pkg/whoopproto"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive command console for the strap",
	Long: `Connect to the strap and send commands interactively. Responses and any
other notifications are decoded and printed as they arrive.

Input forms:
  cmd <hex> [data-hex]   frame and send a command byte with optional payload
                         e.g. "cmd 16 00" requests historical playback
  raw <hex>              send pre-framed bytes verbatim
  hello | battery | clock | hr on | hr off | sync
                         shortcuts for common commands
  quit                   disconnect and exit

Hex input tolerates spaces and colons. Unknown command bytes go to the
strap unchanged; this console exists for protocol exploration.`,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
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

	var asm ble.Assembler
	err = client.Subscribe(func(n ble.Notification) {
		for _, p := range asm.Feed(n.Data) {
			fmt.Printf("\r< %s\n", whoopproto.FormatPacket(p))
			if p.Valid() {
				for _, rec := range sensordata.DecodePacket(p) {
					fmt.Printf("\r  %s\n", describeRecord(rec))
				}
			}
			fmt.Print("> ")
		}
	})
	if err != nil {
		return err
	}

	fmt.Println("Connected. Type 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if err := replDispatch(client, line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
		fmt.Print("> ")
	}
	return scanner.Err()
}

func replDispatch(client *ble.Client, line string) error {
	fields := strings.Fields(line)
	verb := strings.ToLower(fields[0])

	switch verb {
	case "hello":
		return sendAndEcho(client, whoopproto.CmdGetHello, nil)
	case "battery":
		return sendAndEcho(client, whoopproto.CmdGetBatteryLevel, nil)
	case "clock":
		return sendAndEcho(client, whoopproto.CmdGetClock, nil)
	case "sync":
		return sendAndEcho(client, whoopproto.CmdSendHistoricalData, []byte{0x00})
	case "hr":
		if len(fields) != 2 || (fields[1] != "on" && fields[1] != "off") {
			return fmt.Errorf("usage: hr on|off")
		}
		enable := byte(0x00)
		if fields[1] == "on" {
			enable = 0x01
		}
		return sendAndEcho(client, whoopproto.CmdToggleRealtimeHR, []byte{enable})

	case "cmd":
		if len(fields) < 2 {
			return fmt.Errorf("usage: cmd <hex> [data-hex]")
		}
		cmdBytes, err := whoopproto.HexToBytes(fields[1])
		if err != nil || len(cmdBytes) != 1 {
			return fmt.Errorf("command must be one hex byte")
		}
		var data []byte
		if len(fields) > 2 {
			data, err = whoopproto.HexToBytes(strings.Join(fields[2:], " "))
			if err != nil {
				return fmt.Errorf("bad data hex: %w", err)
			}
		}
		return sendAndEcho(client, whoopproto.Command(cmdBytes[0]), data)

	case "raw":
		frame, err := whoopproto.HexToBytes(strings.Join(fields[1:], " "))
		if err != nil {
			return fmt.Errorf("bad hex: %w", err)
		}
		if len(frame) == 0 {
			return fmt.Errorf("usage: raw <hex>")
		}
		fmt.Printf("> % X\n", frame)
		return client.SendRaw(frame)

	default:
		return fmt.Errorf("unknown input %q (try cmd, raw, hello, battery, clock, hr, sync, quit)", verb)
	}
}

func sendAndEcho(client *ble.Client, c whoopproto.Command, data []byte) error {
	frame, err := client.Send(c, data)
	if err != nil {
		return err
	}
	fmt.Printf("> %s % X\n", whoopproto.FormatCommand(c), frame)
	return nil
}
