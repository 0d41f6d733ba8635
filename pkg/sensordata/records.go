// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

// Package sensordata decodes typed sensor records from parsed protocol
// frames. Layouts marked confirmed were verified against live captures;
// the rest are recovered heuristically, with plausibility-range checks
// standing in for a format specification. Decoders never fail loudly:
// absence of a record is the only failure signal.
package sensordata

import "math"

// Kind identifies the concrete record type behind the Record interface.
type Kind int

// Record kinds
const (
	KindHeartRate Kind = iota
	KindAccelBatch
	KindTemperature
	KindSpO2
	KindComprehensive
	KindEvent
	KindUnknown
)

// Record is the variant family of decoded sensor records. All records
// are value types owned by the caller; none alias the source buffer.
type Record interface {
	Kind() Kind
}

// HeartRateData is a decoded heart-rate sample with optional beat-to-beat
// intervals. The layout is confirmed.
type HeartRateData struct {
	BPM         int
	PreciseBPM  float64 // 1/256-bpm resolution
	RRIntervals []int   // milliseconds
	Wearing     bool
	RawCounter  uint32 // device-internal tick, not wall time
	RMSSD       float64
}

// Kind implements Record.
func (HeartRateData) Kind() Kind { return KindHeartRate }

// AccelSample is one accelerometer reading in g.
type AccelSample struct {
	X, Y, Z float64
}

// Magnitude returns the vector magnitude in g.
func (s AccelSample) Magnitude() float64 {
	return math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
}

// AccelBatch is an ordered run of accelerometer samples from a single frame.
type AccelBatch struct {
	Samples []AccelSample
}

// Kind implements Record.
func (AccelBatch) Kind() Kind { return KindAccelBatch }

// TemperatureData is a decoded skin-temperature sample.
type TemperatureData struct {
	Celsius    float64
	Fahrenheit float64
	Raw        int // encoded integer before scaling
}

// Kind implements Record.
func (TemperatureData) Kind() Kind { return KindTemperature }

// SpO2Data is a decoded blood-oxygen percentage.
type SpO2Data struct {
	Percentage    float64
	Confidence    float64
	HasConfidence bool
}

// Kind implements Record.
func (SpO2Data) Kind() Kind { return KindSpO2 }

// SpO2Raw carries unvalidated photoplethysmography channel values from a
// comprehensive record. The ratio-of-ratios feeds the standard empirical
// calibration; no clinical accuracy is implied. EstimatedPct is zero
// when the channels failed the acceptance window; Raw always holds the
// section bytes so rejected channels remain inspectable.
type SpO2Raw struct {
	ACRed, DCRed uint32
	ACIr, DCIr   uint32
	Ratio        float64
	EstimatedPct float64
	Raw          []byte
}

// Accepted reports whether the channels produced a usable estimate.
func (s SpO2Raw) Accepted() bool { return s.EstimatedPct > 0 }

// ComprehensiveRecord is the densely packed historical record that
// multiplexes several modalities. Sub-records decode independently;
// any one of them may be absent without failing the others.
type ComprehensiveRecord struct {
	Timestamp   uint32 // Unix epoch seconds
	HeartRate   *HeartRateData
	Temperature *TemperatureData
	SpO2        *SpO2Raw
	UnknownTail []byte // undecoded trailing bytes, preserved verbatim
}

// Kind implements Record.
func (ComprehensiveRecord) Kind() Kind { return KindComprehensive }

// EventRecord is a discrete on-device event.
type EventRecord struct {
	Timestamp uint32
	EventID   uint8
	Data      []byte
}

// Kind implements Record.
func (EventRecord) Kind() Kind { return KindEvent }

// UnknownRecord preserves a historical record whose subtype no decoder
// recognizes. Nothing is discarded.
type UnknownRecord struct {
	Subtype   uint8
	Timestamp uint32 // leading 4 bytes when present, else 0
	HasTime   bool
	Raw       []byte
}

// Kind implements Record.
func (UnknownRecord) Kind() Kind { return KindUnknown }
