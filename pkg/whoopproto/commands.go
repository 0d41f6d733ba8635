// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package whoopproto

import (
	"encoding/binary"
	"time"
)

// Command builder functions produce fully framed command packets ready
// to write to the CMD_TO_STRAP characteristic. The caller supplies the
// sequence byte; the strap echoes it in the matching response frame.

// BuildCommand frames an arbitrary command with the given data bytes.
func BuildCommand(cmd Command, seq uint8, data []byte) []byte {
	return Build(PacketCommand, seq, uint8(cmd), data)
}

func boolByte(on bool) byte {
	if on {
		return 0x01
	}
	return 0x00
}

// NewGetHello builds a GET_HELLO probe. The strap answers with a short
// identity blob; useful as a liveness check after connecting.
func NewGetHello(seq uint8) []byte {
	return BuildCommand(CmdGetHello, seq, nil)
}

// NewToggleRealtimeHR builds a TOGGLE_REALTIME_HR command. While enabled
// the strap streams heart-rate frames roughly once per second.
func NewToggleRealtimeHR(seq uint8, enable bool) []byte {
	return BuildCommand(CmdToggleRealtimeHR, seq, []byte{boolByte(enable)})
}

// NewToggleIMUMode builds a TOGGLE_IMU_MODE command enabling or
// disabling raw accelerometer streaming.
func NewToggleIMUMode(seq uint8, enable bool) []byte {
	return BuildCommand(CmdToggleIMUMode, seq, []byte{boolByte(enable)})
}

// NewSetClock builds a SET_CLOCK command carrying the Unix time as a
// 32-bit little-endian value.
func NewSetClock(seq uint8, t time.Time) []byte {
	data := binary.LittleEndian.AppendUint32(nil, uint32(t.Unix()))
	return BuildCommand(CmdSetClock, seq, data)
}

// NewGetClock builds a GET_CLOCK query.
func NewGetClock(seq uint8) []byte {
	return BuildCommand(CmdGetClock, seq, nil)
}

// NewGetBatteryLevel builds a GET_BATTERY_LEVEL query.
func NewGetBatteryLevel(seq uint8) []byte {
	return BuildCommand(CmdGetBatteryLevel, seq, nil)
}

// NewReboot builds a REBOOT command. The connection drops immediately.
func NewReboot(seq uint8) []byte {
	return BuildCommand(CmdReboot, seq, nil)
}

// NewRunAlarm builds a RUN_ALARM command triggering the wake haptics.
func NewRunAlarm(seq uint8) []byte {
	return BuildCommand(CmdRunAlarm, seq, nil)
}

// NewRunHapticsPattern builds a RUN_HAPTICS_PATTERN command for the
// given pattern index.
func NewRunHapticsPattern(seq uint8, pattern uint8) []byte {
	return BuildCommand(CmdRunHapticsPattern, seq, []byte{pattern})
}

// NewGetDataRange builds a GET_DATA_RANGE query for the on-device history
// buffer bounds.
func NewGetDataRange(seq uint8) []byte {
	return BuildCommand(CmdGetDataRange, seq, nil)
}

// NewSetReadPointer builds a SET_READ_POINTER command positioning the
// history read cursor.
func NewSetReadPointer(seq uint8, pointer uint32) []byte {
	data := binary.LittleEndian.AppendUint32(nil, pointer)
	return BuildCommand(CmdSetReadPointer, seq, data)
}

// NewSendHistoricalData builds a SEND_HISTORICAL_DATA command. The strap
// responds by streaming historical frames from the read pointer onward.
func NewSendHistoricalData(seq uint8) []byte {
	return BuildCommand(CmdSendHistoricalData, seq, []byte{0x00})
}

// Sequencer hands out consecutive sequence bytes for a command session.
// Not safe for concurrent use; each connection owns one.
type Sequencer struct {
	next uint8
}

// Next returns the current sequence byte and advances, wrapping at 0xFF.
func (s *Sequencer) Next() uint8 {
	n := s.next
	s.next++
	return n
}
