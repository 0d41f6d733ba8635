// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package sensordata

import (
	"encoding/binary"

	"github.com/strapline/strapline/pkg/whoopproto"
)

// Accelerometer samples are int16 LE triples; full scale maps to ±16 g.
const accelScale = 16.0 / 32768.0

// AccelDecoder extracts accelerometer batches from IMU frames, or from
// other frames whose payload shape matches a triple run.
type AccelDecoder struct{}

// Name returns the decoder's short identifier.
func (AccelDecoder) Name() string { return "accelerometer" }

// CanDecode accepts dedicated IMU frame types outright. For anything
// else it falls back to a shape test: at least two complete triples
// after the leading record byte, with no remainder.
func (AccelDecoder) CanDecode(p *whoopproto.Packet) bool {
	switch p.Type() {
	case whoopproto.PacketRealtimeIMU, whoopproto.PacketHistoricalIMU:
		return true
	}
	n := len(p.Payload()) - 1
	return n >= 12 && n%6 == 0
}

// Decode extracts the sample run, discarding any trailing partial triple.
func (AccelDecoder) Decode(p *whoopproto.Packet) (Record, bool) {
	return decodeAccelBatch(p.Payload())
}

func decodeAccelBatch(payload []byte) (Record, bool) {
	if len(payload) < 1 {
		return nil, false
	}
	body := payload[1:] // skip the leading record byte

	count := len(body) / 6
	if count == 0 {
		return nil, false
	}

	samples := make([]AccelSample, 0, count)
	for i := 0; i < count; i++ {
		off := i * 6
		samples = append(samples, AccelSample{
			X: float64(int16(binary.LittleEndian.Uint16(body[off:]))) * accelScale,
			Y: float64(int16(binary.LittleEndian.Uint16(body[off+2:]))) * accelScale,
			Z: float64(int16(binary.LittleEndian.Uint16(body[off+4:]))) * accelScale,
		})
	}
	return AccelBatch{Samples: samples}, true
}
