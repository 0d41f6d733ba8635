// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package sensordata

import (
	"encoding/binary"

	"github.com/strapline/strapline/pkg/whoopproto"
)

// Comprehensive record layout. The temperature block sits at a fixed
// absolute offset regardless of how many RR intervals precede it; the
// bytes between the RR block and the temperature block are part of the
// undeciphered region.
const (
	comprehensiveMinLen = 6

	compTempOffset = 22
	compTempWidth  = 12

	compSpO2Offset = 34
	compSpO2Width  = 50
	compSpO2Quad   = 16 // four u32 channel values

	// Acceptance window for the red/infrared ratio-of-ratios. Values
	// outside it indicate garbage channels rather than extreme hypoxia.
	minPlausibleRatio = 0.2
	maxPlausibleRatio = 1.5
)

// HistoricalDecoder routes bulk historical frames to the per-subtype
// record decoders.
type HistoricalDecoder struct{}

// Name returns the decoder's short identifier.
func (HistoricalDecoder) Name() string { return "historical" }

// CanDecode accepts both historical frame types.
func (HistoricalDecoder) CanDecode(p *whoopproto.Packet) bool {
	return p.IsHistorical()
}

// Decode dispatches on the record subtype. Accelerometer-history frames
// have no subtype byte and always hold a sample batch. Unrecognized
// subtypes fall through to a generic record that preserves every byte.
func (HistoricalDecoder) Decode(p *whoopproto.Packet) (Record, bool) {
	if p.Type() == whoopproto.PacketHistoricalIMU {
		return decodeAccelBatch(p.Payload())
	}

	payload := p.Payload()
	switch p.RecordSubtype() {
	case whoopproto.RecordComprehensive:
		return decodeComprehensive(payload)
	case whoopproto.RecordHeartRateRR:
		return decodeHistoricalHR(payload)
	case whoopproto.RecordEvent:
		return decodeEvent(payload)
	case whoopproto.RecordAccelBatch:
		return decodeAccelBatch(payload)
	default:
		return decodeUnknown(uint8(p.RecordSubtype()), payload)
	}
}

// decodeComprehensive unpacks the multiplexed historical record. Each
// section decodes independently: a payload long enough for the header
// but too short for the temperature or SpO2 blocks yields a record with
// those sub-fields absent rather than no record at all.
func decodeComprehensive(payload []byte) (Record, bool) {
	if len(payload) < comprehensiveMinLen {
		return nil, false
	}

	rec := ComprehensiveRecord{
		Timestamp: binary.LittleEndian.Uint32(payload[0:4]),
	}

	bpm := int(payload[4])
	rrCount := int(payload[5])
	var rr []int
	for i := 0; i < rrCount; i++ {
		off := 6 + i*2
		if off+2 > len(payload) {
			break
		}
		// Buffered records carry the intervals as logged; only the live
		// stream re-validates them.
		rr = append(rr, int(binary.LittleEndian.Uint16(payload[off:off+2])))
	}
	if bpm >= minPlausibleBPM && bpm <= maxPlausibleBPM {
		rec.HeartRate = &HeartRateData{
			BPM:         bpm,
			PreciseBPM:  float64(bpm),
			RRIntervals: rr,
			Wearing:     true,
			RMSSD:       RMSSD(rr),
		}
	}

	if t, ok := decodeCompTemperature(payload); ok {
		rec.Temperature = &t
	}
	if s, ok := decodeCompSpO2(payload); ok {
		rec.SpO2 = &s
	}

	tailStart := compSpO2Offset + compSpO2Width
	if tailStart > len(payload) {
		tailStart = len(payload)
	}
	if tailStart < comprehensiveMinLen {
		tailStart = comprehensiveMinLen
	}
	rec.UnknownTail = append([]byte(nil), payload[tailStart:]...)

	return rec, true
}

// decodeCompTemperature reads the fixed temperature block, trying
// successively narrower little-endian widths until one lands in the
// plausible range. The raw value scales by 1/100000. A payload that
// ends inside the block leaves the field absent; decoding a truncated
// section would reinterpret partial bytes as a narrower reading.
func decodeCompTemperature(payload []byte) (TemperatureData, bool) {
	if len(payload) < compTempOffset+compTempWidth {
		return TemperatureData{}, false
	}
	for _, width := range []int{12, 8, 6, 4, 2} {
		end := compTempOffset + width
		raw, ok := leUint(payload[compTempOffset:end])
		if !ok {
			continue
		}
		c := float64(raw) / 100000.0
		if c >= minPlausibleTempC && c <= maxPlausibleTempC {
			return TemperatureData{
				Celsius:    c,
				Fahrenheit: CelsiusToFahrenheit(c),
				Raw:        int(raw),
			}, true
		}
	}
	return TemperatureData{}, false
}

// decodeCompSpO2 reads the four photoplethysmography channel values.
// The section bytes are kept on the record whether or not the channels
// yield an acceptable ratio; the saturation estimate is filled in only
// when they do.
func decodeCompSpO2(payload []byte) (SpO2Raw, bool) {
	end := compSpO2Offset + compSpO2Width
	if end > len(payload) {
		end = len(payload)
	}
	if end-compSpO2Offset < compSpO2Quad {
		return SpO2Raw{}, false
	}
	section := payload[compSpO2Offset:end]

	s := SpO2Raw{
		ACRed: binary.LittleEndian.Uint32(section[0:4]),
		DCRed: binary.LittleEndian.Uint32(section[4:8]),
		ACIr:  binary.LittleEndian.Uint32(section[8:12]),
		DCIr:  binary.LittleEndian.Uint32(section[12:16]),
		Raw:   append([]byte(nil), section...),
	}
	if s.DCRed == 0 || s.DCIr == 0 || s.ACIr == 0 {
		return s, true
	}

	s.Ratio = (float64(s.ACRed) / float64(s.DCRed)) / (float64(s.ACIr) / float64(s.DCIr))
	if s.Ratio >= minPlausibleRatio && s.Ratio <= maxPlausibleRatio {
		s.EstimatedPct = EstimateSpO2(s.Ratio)
	}
	return s, true
}

// leUint reads a little-endian unsigned integer of arbitrary width.
// Widths past 8 bytes must be zero-padded; a value overflowing uint64
// cannot be a plausible reading anyway.
func leUint(b []byte) (uint64, bool) {
	var v uint64
	for i, x := range b {
		if i >= 8 {
			if x != 0 {
				return 0, false
			}
			continue
		}
		v |= uint64(x) << (8 * i)
	}
	return v, true
}

// decodeHistoricalHR unpacks the simpler buffered heart-rate subtype:
// timestamp, rate byte, RR count, then as many intervals as the buffer
// actually holds.
func decodeHistoricalHR(payload []byte) (Record, bool) {
	if len(payload) < 5 {
		return nil, false
	}

	rec := HeartRateData{
		BPM:        int(payload[4]),
		PreciseBPM: float64(payload[4]),
		Wearing:    true,
		RawCounter: binary.LittleEndian.Uint32(payload[0:4]),
	}

	if len(payload) >= 6 {
		rrCount := int(payload[5])
		for i := 0; i < rrCount; i++ {
			off := 6 + i*2
			if off+2 > len(payload) {
				break
			}
			rec.RRIntervals = append(rec.RRIntervals,
				int(binary.LittleEndian.Uint16(payload[off:off+2])))
		}
	}
	rec.RMSSD = RMSSD(rec.RRIntervals)
	return rec, true
}

// decodeEvent unpacks a discrete event: timestamp, event id, opaque data.
func decodeEvent(payload []byte) (Record, bool) {
	if len(payload) < 5 {
		return nil, false
	}
	return EventRecord{
		Timestamp: binary.LittleEndian.Uint32(payload[0:4]),
		EventID:   payload[4],
		Data:      append([]byte(nil), payload[5:]...),
	}, true
}

// decodeUnknown wraps an unrecognized subtype without dropping anything.
func decodeUnknown(subtype uint8, payload []byte) (Record, bool) {
	rec := UnknownRecord{
		Subtype: subtype,
		Raw:     append([]byte(nil), payload...),
	}
	if len(payload) >= 4 {
		rec.Timestamp = binary.LittleEndian.Uint32(payload[0:4])
		rec.HasTime = true
	}
	return rec, true
}
