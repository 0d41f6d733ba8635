// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package sensordata

import (
	"encoding/binary"

	"github.com/strapline/strapline/pkg/whoopproto"
)

// Plausible SpO2 percentage range. Healthy wearers sit in the high 90s;
// anything under 70 from this sensor is a decode artifact.
const (
	minPlausibleSpO2 = 70.0
	maxPlausibleSpO2 = 100.0
)

// SpO2Decoder extracts blood-oxygen percentages, trying a direct
// percentage byte first and a tenths-of-a-percent u16 second.
type SpO2Decoder struct{}

// Name returns the decoder's short identifier.
func (SpO2Decoder) Name() string { return "spo2" }

// CanDecode reports whether the frame is an SpO2 candidate.
func (SpO2Decoder) CanDecode(p *whoopproto.Packet) bool {
	switch p.Type() {
	case whoopproto.PacketRealtimeData, whoopproto.PacketRealtimeRaw:
		return len(p.Payload()) >= 2
	}
	return false
}

// Decode returns the first plausible SpO2 interpretation.
func (SpO2Decoder) Decode(p *whoopproto.Packet) (Record, bool) {
	return decodeSpO2(p.Payload())
}

func decodeSpO2(payload []byte) (Record, bool) {
	if len(payload) >= 2 {
		pct := float64(payload[1])
		if pct >= minPlausibleSpO2 && pct <= maxPlausibleSpO2 {
			rec := SpO2Data{Percentage: pct}
			if len(payload) >= 3 {
				conf := float64(payload[2])
				if conf >= 0 && conf <= 100 {
					rec.Confidence = conf
					rec.HasConfidence = true
				}
			}
			return rec, true
		}
	}

	if len(payload) >= 3 {
		pct := float64(binary.LittleEndian.Uint16(payload[1:3])) / 10.0
		if pct >= minPlausibleSpO2 && pct <= maxPlausibleSpO2 {
			rec := SpO2Data{Percentage: pct}
			if len(payload) >= 4 {
				conf := float64(payload[3])
				if conf >= 0 && conf <= 100 {
					rec.Confidence = conf
					rec.HasConfidence = true
				}
			}
			return rec, true
		}
	}
	return nil, false
}
