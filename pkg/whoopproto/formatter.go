// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package whoopproto

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// FormatPacket formats a packet into a human-readable string
func FormatPacket(p *Packet) string {
	timestamp := p.timestamp.Format("15:04:05.000")

	flags := make([]string, 0, 3)
	if !p.headerValid {
		flags = append(flags, "HDR-CRC-BAD")
	}
	if p.trailerKnown && !p.trailerValid {
		flags = append(flags, "TRL-CRC-BAD")
	}
	if !p.complete {
		flags = append(flags, "TRUNCATED")
	}
	flagStr := ""
	if len(flags) > 0 {
		flagStr = " [" + strings.Join(flags, ",") + "]"
	}

	result := fmt.Sprintf("[%s] %s (0x%02X) seq=%d cmd=0x%02X len=%d%s\n",
		timestamp, FormatPacketType(p.packetType), uint8(p.packetType),
		p.seq, p.cmd, len(p.payload), flagStr)

	if p.IsHistorical() && p.packetType == PacketHistoricalData {
		result += fmt.Sprintf("  Record: %s (0x%02X)\n", FormatRecordType(p.RecordSubtype()), p.cmd)
	}
	if p.packetType == PacketCommand || p.packetType == PacketCommandResponse {
		result += fmt.Sprintf("  Command: %s (0x%02X)\n", FormatCommand(Command(p.cmd)), p.cmd)
	}
	if len(p.payload) > 0 {
		result += fmt.Sprintf("  Payload: %s\n", hex.EncodeToString(p.payload))
	}
	return result
}

// FormatPacketType returns the human-readable name for a packet type
func FormatPacketType(t PacketType) string {
	switch t {
	case PacketCommand:
		return "COMMAND"
	case PacketCommandResponse:
		return "COMMAND_RESPONSE"
	case PacketRealtimeData:
		return "REALTIME_DATA"
	case PacketRealtimeRaw:
		return "REALTIME_RAW"
	case PacketHistoricalData:
		return "HISTORICAL_DATA"
	case PacketEvent:
		return "EVENT"
	case PacketRealtimeIMU:
		return "REALTIME_IMU"
	case PacketHistoricalIMU:
		return "HISTORICAL_IMU"
	default:
		return "UNKNOWN"
	}
}

// FormatRecordType returns the human-readable name for a historical record subtype
func FormatRecordType(t RecordType) string {
	switch t {
	case RecordHeartRateRR:
		return "HR_RR"
	case RecordEvent:
		return "EVENT"
	case RecordAccelBatch:
		return "ACCEL_BATCH"
	case RecordComprehensive:
		return "COMPREHENSIVE"
	default:
		return "UNKNOWN"
	}
}

// FormatCommand returns the human-readable name for a command byte
func FormatCommand(c Command) string {
	switch c {
	case CmdGetHello:
		return "GET_HELLO"
	case CmdToggleRealtimeHR:
		return "TOGGLE_REALTIME_HR"
	case CmdSetClock:
		return "SET_CLOCK"
	case CmdGetClock:
		return "GET_CLOCK"
	case CmdGetBatteryLevel:
		return "GET_BATTERY_LEVEL"
	case CmdReboot:
		return "REBOOT"
	case CmdRunAlarm:
		return "RUN_ALARM"
	case CmdRunHapticsPattern:
		return "RUN_HAPTICS_PATTERN"
	case CmdGetDataRange:
		return "GET_DATA_RANGE"
	case CmdSetReadPointer:
		return "SET_READ_POINTER"
	case CmdSendHistoricalData:
		return "SEND_HISTORICAL_DATA"
	case CmdToggleIMUMode:
		return "TOGGLE_IMU_MODE"
	default:
		return "UNKNOWN"
	}
}

// HexToBytes parses a hex dump, tolerating spaces, colons, and mixed case.
func HexToBytes(s string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return b, nil
}
