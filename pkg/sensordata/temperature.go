// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package sensordata

import (
	"encoding/binary"

	"github.com/strapline/strapline/pkg/whoopproto"
)

// Plausible skin-temperature range in Celsius. Readings outside it mean
// the candidate byte layout was wrong, not that the wearer is in danger.
const (
	minPlausibleTempC = 25.0
	maxPlausibleTempC = 45.0
)

// tempStrategy is one candidate byte-layout hypothesis. Strategies run
// in priority order; the first plausible result wins. New hypotheses
// append to the list without touching control flow.
type tempStrategy func(payload []byte) (raw int, celsius float64, ok bool)

var tempStrategies = []tempStrategy{
	// u16 LE at offset 1, hundredths of a degree
	func(p []byte) (int, float64, bool) {
		if len(p) < 3 {
			return 0, 0, false
		}
		raw := int(binary.LittleEndian.Uint16(p[1:3]))
		return raw, float64(raw) / 100.0, true
	},
	// i16 LE at offset 1, tenths of a degree
	func(p []byte) (int, float64, bool) {
		if len(p) < 3 {
			return 0, 0, false
		}
		raw := int(int16(binary.LittleEndian.Uint16(p[1:3])))
		return raw, float64(raw) / 10.0, true
	},
	// single byte at offset 1, whole degrees
	func(p []byte) (int, float64, bool) {
		if len(p) < 2 {
			return 0, 0, false
		}
		raw := int(p[1])
		return raw, float64(raw), true
	},
}

// TemperatureDecoder extracts skin-temperature samples by trying each
// layout hypothesis in turn.
type TemperatureDecoder struct{}

// Name returns the decoder's short identifier.
func (TemperatureDecoder) Name() string { return "temperature" }

// CanDecode reports whether the frame is a temperature candidate.
func (TemperatureDecoder) CanDecode(p *whoopproto.Packet) bool {
	switch p.Type() {
	case whoopproto.PacketRealtimeData, whoopproto.PacketRealtimeRaw:
		return len(p.Payload()) >= 3
	}
	return false
}

// Decode returns the first plausible temperature interpretation.
func (TemperatureDecoder) Decode(p *whoopproto.Packet) (Record, bool) {
	return decodeTemperature(p.Payload())
}

func decodeTemperature(payload []byte) (Record, bool) {
	if len(payload) < 3 {
		return nil, false
	}
	for _, strategy := range tempStrategies {
		raw, c, ok := strategy(payload)
		if !ok {
			continue
		}
		if c >= minPlausibleTempC && c <= maxPlausibleTempC {
			return TemperatureData{
				Celsius:    c,
				Fahrenheit: CelsiusToFahrenheit(c),
				Raw:        raw,
			}, true
		}
	}
	return nil, false
}
