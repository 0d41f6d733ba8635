// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

// Package whoopproto implements the Whoop 4.0 proprietary BLE framing protocol.
//
// The strap frames every message the same way regardless of content:
// a sync byte, a little-endian length, a CRC-8 protecting the length,
// an inner frame of type/sequence/command plus data, and a trailing
// CRC-32 over the inner frame. This package provides packet building,
// parsing, stream scanning with resynchronization, and command
// construction. Field meanings beyond the framing layer were recovered
// by observation and are decoded in pkg/sensordata.
package whoopproto

// Protocol framing
const (
	SyncByte = 0xAA

	HeaderSize    = 4 // sync + length(2) + crc8
	InnerOverhead = 3 // type + seq + cmd
	TrailerSize   = 4 // crc32, little-endian
	MinPacketSize = 8 // header + shortest possible inner + no trailer bytes spare

	// MaxLengthField bounds the declared length a stream scanner will
	// trust. Observed packets never exceed a few hundred bytes; anything
	// larger is treated as line noise that happened to start with 0xAA.
	MaxLengthField = 4096
)

// PacketType identifies the transport-level frame type.
type PacketType uint8

// Frame types observed from the strap
const (
	PacketCommand         PacketType = 0x23 // host -> strap
	PacketCommandResponse PacketType = 0x24
	PacketRealtimeData    PacketType = 0x28
	PacketRealtimeRaw     PacketType = 0x2B
	PacketHistoricalData  PacketType = 0x2F
	PacketEvent           PacketType = 0x30
	PacketRealtimeIMU     PacketType = 0x33
	PacketHistoricalIMU   PacketType = 0x34
)

// RecordType identifies the first payload byte of historical frames.
// It is a separate namespace from PacketType even though some values
// collide (0x2F, 0x34 appear in both).
type RecordType uint8

// Historical record subtypes
const (
	RecordHeartRateRR   RecordType = 0x2F
	RecordEvent         RecordType = 0x30
	RecordAccelBatch    RecordType = 0x34
	RecordComprehensive RecordType = 0x5C
)

// Command identifies the third inner byte of command frames.
type Command uint8

// Commands accepted by the strap
const (
	CmdGetHello           Command = 0x02
	CmdToggleRealtimeHR   Command = 0x03
	CmdSetClock           Command = 0x05
	CmdGetClock           Command = 0x06
	CmdGetBatteryLevel    Command = 0x07
	CmdReboot             Command = 0x08
	CmdRunAlarm           Command = 0x0A
	CmdRunHapticsPattern  Command = 0x0B
	CmdGetDataRange       Command = 0x14
	CmdSetReadPointer     Command = 0x15
	CmdSendHistoricalData Command = 0x16
	CmdToggleIMUMode      Command = 0x1B
)

// GATT identifiers for the proprietary service
const (
	DeviceNamePrefix = "WHOOP"

	ServiceUUID   = "61080001-8d6d-82b8-614a-1c8cb0f8dcc6"
	CharCmdToUUID = "61080002-8d6d-82b8-614a-1c8cb0f8dcc6" // host -> strap commands
	CharCmdFrUUID = "61080003-8d6d-82b8-614a-1c8cb0f8dcc6" // command responses
	CharDataUUID  = "61080004-8d6d-82b8-614a-1c8cb0f8dcc6" // sensor data notifications
)
