// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package sensordata

import (
	"encoding/binary"
	"math"

	"github.com/strapline/strapline/pkg/whoopproto"
)

// Heart-rate payload layout (confirmed):
//
//	[0:4]  device tick counter, u32 LE
//	[4:6]  heart rate in 1/256 bpm units, u16 LE
//	[6]    RR interval count
//	[7:9]  RR interval 1, u16 LE ms
//	[9:11] RR interval 2, u16 LE ms
//	[15]   wearing flag (0x01 = on wrist)
const (
	hrMinPayload    = 7
	hrWearingOffset = 15

	minPlausibleBPM = 1
	maxPlausibleBPM = 250

	minPlausibleRRMs = 200
	maxPlausibleRRMs = 2500
)

// HeartRateDecoder extracts heart-rate samples from real-time frames.
type HeartRateDecoder struct{}

// Name returns the decoder's short identifier.
func (HeartRateDecoder) Name() string { return "heart_rate" }

// CanDecode reports whether the frame is a heart-rate candidate. The
// raw real-time stream carries the same confirmed layout.
func (HeartRateDecoder) CanDecode(p *whoopproto.Packet) bool {
	switch p.Type() {
	case whoopproto.PacketRealtimeData, whoopproto.PacketRealtimeRaw:
		return len(p.Payload()) >= hrMinPayload
	default:
		return false
	}
}

// Decode extracts a heart-rate record from the payload, or reports
// absence when the encoded rate is implausible.
func (HeartRateDecoder) Decode(p *whoopproto.Packet) (Record, bool) {
	return decodeHeartRate(p.Payload())
}

func decodeHeartRate(payload []byte) (Record, bool) {
	if len(payload) < hrMinPayload {
		return nil, false
	}

	counter := binary.LittleEndian.Uint32(payload[0:4])
	precise := float64(binary.LittleEndian.Uint16(payload[4:6])) / 256.0
	bpm := int(math.Round(precise))
	if bpm < minPlausibleBPM || bpm > maxPlausibleBPM {
		return nil, false
	}

	rrCount := int(payload[6])
	var rr []int
	for i := 0; i < 2 && i < rrCount; i++ {
		off := 7 + i*2
		if off+2 > len(payload) {
			break
		}
		interval := int(binary.LittleEndian.Uint16(payload[off : off+2]))
		if interval >= minPlausibleRRMs && interval <= maxPlausibleRRMs {
			rr = append(rr, interval)
		}
	}

	// Short payloads predate the wearing flag; assume on-wrist.
	wearing := true
	if len(payload) > hrWearingOffset {
		wearing = payload[hrWearingOffset] == 0x01
	}

	return HeartRateData{
		BPM:         bpm,
		PreciseBPM:  precise,
		RRIntervals: rr,
		Wearing:     wearing,
		RawCounter:  counter,
		RMSSD:       RMSSD(rr),
	}, true
}
