// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package sensordata

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/strapline/strapline/pkg/whoopproto"
)

// ============================================================
// Test Helpers
// ============================================================

func packetFrom(t *testing.T, ptype whoopproto.PacketType, cmd uint8, payload []byte) *whoopproto.Packet {
	t.Helper()
	p, ok := whoopproto.Parse(whoopproto.Build(ptype, 1, cmd, payload))
	if !ok {
		t.Fatal("failed to build test packet")
	}
	return p
}

// hrPayload builds a realtime heart-rate payload with the confirmed layout
func hrPayload(counter uint32, bpm256 uint16, rr []uint16, wearing byte) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, counter)
	buf = binary.LittleEndian.AppendUint16(buf, bpm256)
	buf = append(buf, byte(len(rr)))
	for _, interval := range rr {
		buf = binary.LittleEndian.AppendUint16(buf, interval)
	}
	for len(buf) < 15 {
		buf = append(buf, 0x00)
	}
	return append(buf, wearing)
}

// comprehensivePayload builds the multiplexed historical record layout
func comprehensivePayload(ts uint32, hr byte, rr []uint16, tempRaw uint64, quad []uint32) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, ts)
	buf = append(buf, hr, byte(len(rr)))
	for _, interval := range rr {
		buf = binary.LittleEndian.AppendUint16(buf, interval)
	}
	for len(buf) < compTempOffset {
		buf = append(buf, 0x00)
	}
	temp := binary.LittleEndian.AppendUint64(nil, tempRaw)
	temp = append(temp, 0, 0, 0, 0) // zero-pad to the full 12-byte width
	buf = append(buf, temp...)
	for _, v := range quad {
		buf = binary.LittleEndian.AppendUint32(buf, v)
	}
	return buf
}

// ============================================================
// Heart Rate Decoder Tests
// ============================================================

func TestHeartRate_ConfirmedLayout(t *testing.T) {
	payload := hrPayload(123456, 72*256+128, []uint16{830, 820}, 0x01)
	rec, ok := decodeHeartRate(payload)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	hr := rec.(HeartRateData)
	if hr.BPM != 73 { // 72.5 rounds up
		t.Errorf("bpm: expected 73, got %d", hr.BPM)
	}
	if hr.PreciseBPM != 72.5 {
		t.Errorf("precise bpm: expected 72.5, got %v", hr.PreciseBPM)
	}
	if len(hr.RRIntervals) != 2 || hr.RRIntervals[0] != 830 || hr.RRIntervals[1] != 820 {
		t.Errorf("rr: expected [830 820], got %v", hr.RRIntervals)
	}
	if !hr.Wearing {
		t.Error("expected wearing")
	}
	if hr.RawCounter != 123456 {
		t.Errorf("counter: got %d", hr.RawCounter)
	}
}

func TestHeartRate_RawRealtimeFrame(t *testing.T) {
	// The raw real-time stream carries the same layout and must reach
	// the heart-rate decoder too.
	payload := hrPayload(10, 72*256, []uint16{830}, 0x01)
	p := packetFrom(t, whoopproto.PacketRealtimeRaw, 0x00, payload)

	var hr *HeartRateData
	for _, rec := range DecodePacket(p) {
		if rec.Kind() == KindHeartRate {
			v := rec.(HeartRateData)
			hr = &v
		}
	}
	if hr == nil {
		t.Fatal("expected a heart-rate record from a raw real-time frame")
	}
	if hr.BPM != 72 {
		t.Errorf("bpm: expected 72, got %d", hr.BPM)
	}
	if len(hr.RRIntervals) != 1 || hr.RRIntervals[0] != 830 {
		t.Errorf("rr: expected [830], got %v", hr.RRIntervals)
	}
}

func TestHeartRate_PlausibilityBoundary(t *testing.T) {
	tests := []struct {
		bpm      uint16
		accepted bool
	}{
		{0, false},
		{1, true},
		{250, true},
		{251, false},
	}
	for _, tt := range tests {
		payload := hrPayload(0, tt.bpm*256, nil, 0x01)
		_, ok := decodeHeartRate(payload)
		if ok != tt.accepted {
			t.Errorf("bpm %d: accepted=%v, expected %v", tt.bpm, ok, tt.accepted)
		}
	}
}

func TestHeartRate_RRPlausibility(t *testing.T) {
	// 100 ms and 3000 ms are outside the plausible beat interval window
	payload := hrPayload(0, 60*256, []uint16{100, 830}, 0x01)
	rec, ok := decodeHeartRate(payload)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	hr := rec.(HeartRateData)
	if len(hr.RRIntervals) != 1 || hr.RRIntervals[0] != 830 {
		t.Errorf("expected only the plausible interval, got %v", hr.RRIntervals)
	}
}

func TestHeartRate_OnlyFirstTwoIntervalsRead(t *testing.T) {
	payload := hrPayload(0, 60*256, []uint16{830, 820, 840, 850}, 0x01)
	rec, _ := decodeHeartRate(payload)
	hr := rec.(HeartRateData)
	if len(hr.RRIntervals) != 2 {
		t.Errorf("expected 2 intervals, got %v", hr.RRIntervals)
	}
}

func TestHeartRate_WearingFlag(t *testing.T) {
	offWrist := hrPayload(0, 60*256, nil, 0x00)
	rec, _ := decodeHeartRate(offWrist)
	if rec.(HeartRateData).Wearing {
		t.Error("flag 0x00 should decode as off-wrist")
	}

	// Payload too short to hold the flag defaults to worn.
	short := hrPayload(0, 60*256, nil, 0x00)[:7]
	rec, ok := decodeHeartRate(short)
	if !ok {
		t.Fatal("7-byte payload should decode")
	}
	if !rec.(HeartRateData).Wearing {
		t.Error("short payload should default to worn")
	}
}

func TestHeartRate_TooShort(t *testing.T) {
	if _, ok := decodeHeartRate(make([]byte, 6)); ok {
		t.Error("6-byte payload must not decode")
	}
}

func TestRMSSD_KnownValue(t *testing.T) {
	// diffs -10, +20 -> sqrt((100+400)/2) = sqrt(250)
	got := RMSSD([]int{830, 820, 840})
	want := math.Sqrt(250)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, got)
	}
	if RMSSD([]int{830}) != 0 {
		t.Error("single interval should give 0")
	}
}

// ============================================================
// Accelerometer Decoder Tests
// ============================================================

func TestAccel_ScaleAndTriples(t *testing.T) {
	// 2048 raw = 1 g at ±16 g full scale
	payload := []byte{0x00}
	for _, v := range []int16{2048, -2048, 0, 4096, 0, -4096} {
		payload = binary.LittleEndian.AppendUint16(payload, uint16(v))
	}
	rec, ok := decodeAccelBatch(payload)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	batch := rec.(AccelBatch)
	if len(batch.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(batch.Samples))
	}
	s := batch.Samples[0]
	if s.X != 1.0 || s.Y != -1.0 || s.Z != 0.0 {
		t.Errorf("sample 0: got (%v,%v,%v)", s.X, s.Y, s.Z)
	}
	if batch.Samples[1].X != 2.0 {
		t.Errorf("sample 1 X: got %v", batch.Samples[1].X)
	}
}

func TestAccel_TrailingPartialDiscarded(t *testing.T) {
	payload := make([]byte, 1+6*2+3) // two triples plus half a triple
	rec, ok := decodeAccelBatch(payload)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if n := len(rec.(AccelBatch).Samples); n != 2 {
		t.Errorf("expected 2 samples, got %d", n)
	}
}

func TestAccel_NoSamples(t *testing.T) {
	if _, ok := decodeAccelBatch([]byte{0x00, 0x01, 0x02}); ok {
		t.Error("payload without a full triple must not decode")
	}
}

func TestAccel_CanDecode(t *testing.T) {
	imu := packetFrom(t, whoopproto.PacketRealtimeIMU, 0, make([]byte, 4))
	if !(AccelDecoder{}).CanDecode(imu) {
		t.Error("IMU frame type should always be a candidate")
	}

	shaped := packetFrom(t, whoopproto.PacketRealtimeRaw, 0, make([]byte, 13)) // 12 after record byte
	if !(AccelDecoder{}).CanDecode(shaped) {
		t.Error("12-byte triple run should pass the shape test")
	}

	misshaped := packetFrom(t, whoopproto.PacketRealtimeRaw, 0, make([]byte, 12)) // 11 after record byte
	if (AccelDecoder{}).CanDecode(misshaped) {
		t.Error("non-multiple-of-6 body should fail the shape test")
	}
}

func TestAccelSample_Magnitude(t *testing.T) {
	m := AccelSample{X: 3, Y: 4, Z: 0}.Magnitude()
	if math.Abs(m-5) > 1e-12 {
		t.Errorf("expected 5, got %v", m)
	}
}

// ============================================================
// Temperature Decoder Tests
// ============================================================

func TestTemperature_StrategyOrder(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    float64
		ok      bool
	}{
		{"u16 hundredths", append([]byte{0x00}, binary.LittleEndian.AppendUint16(nil, 3650)...), 36.5, true},
		{"i16 tenths", append([]byte{0x00}, binary.LittleEndian.AppendUint16(nil, 380)...), 38.0, true},
		{"single byte degrees", []byte{0x00, 37, 0x00}, 37.0, true},
		{"nothing plausible", []byte{0x00, 0xFF, 0xFF}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := decodeTemperature(tt.payload)
			if ok != tt.ok {
				t.Fatalf("ok=%v, expected %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			temp := rec.(TemperatureData)
			if math.Abs(temp.Celsius-tt.want) > 1e-9 {
				t.Errorf("celsius: expected %v, got %v", tt.want, temp.Celsius)
			}
			wantF := tt.want*9/5 + 32
			if math.Abs(temp.Fahrenheit-wantF) > 1e-9 {
				t.Errorf("fahrenheit: expected %v, got %v", wantF, temp.Fahrenheit)
			}
		})
	}
}

// ============================================================
// SpO2 Decoder Tests
// ============================================================

func TestSpO2_DirectByte(t *testing.T) {
	rec, ok := decodeSpO2([]byte{0x00, 98, 85})
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	s := rec.(SpO2Data)
	if s.Percentage != 98 {
		t.Errorf("pct: got %v", s.Percentage)
	}
	if !s.HasConfidence || s.Confidence != 85 {
		t.Errorf("confidence: got %v (has=%v)", s.Confidence, s.HasConfidence)
	}
}

func TestSpO2_TenthsFallback(t *testing.T) {
	payload := append([]byte{0x00}, binary.LittleEndian.AppendUint16(nil, 978)...)
	payload = append(payload, 90)
	rec, ok := decodeSpO2(payload)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	s := rec.(SpO2Data)
	if math.Abs(s.Percentage-97.8) > 1e-9 {
		t.Errorf("pct: got %v", s.Percentage)
	}
	if !s.HasConfidence || s.Confidence != 90 {
		t.Errorf("confidence: got %v", s.Confidence)
	}
}

func TestSpO2_Implausible(t *testing.T) {
	if _, ok := decodeSpO2([]byte{0x00, 50}); ok {
		t.Error("50%% should be rejected by both strategies")
	}
}

// ============================================================
// Comprehensive Record Tests
// ============================================================

func TestComprehensive_FullExample(t *testing.T) {
	payload := comprehensivePayload(
		1707840000, 72, []uint16{830, 820, 840},
		3650000, // 36.50 C in hundred-thousandths
		[]uint32{500, 10000, 1000, 10000},
	)

	rec, ok := decodeComprehensive(payload)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	comp := rec.(ComprehensiveRecord)

	if comp.Timestamp != 1707840000 {
		t.Errorf("timestamp: got %d", comp.Timestamp)
	}
	if comp.HeartRate == nil {
		t.Fatal("expected heart-rate sub-record")
	}
	if comp.HeartRate.BPM != 72 {
		t.Errorf("bpm: got %d", comp.HeartRate.BPM)
	}
	wantRR := []int{830, 820, 840}
	if len(comp.HeartRate.RRIntervals) != 3 {
		t.Fatalf("rr: got %v", comp.HeartRate.RRIntervals)
	}
	for i, v := range wantRR {
		if comp.HeartRate.RRIntervals[i] != v {
			t.Errorf("rr[%d]: expected %d, got %d", i, v, comp.HeartRate.RRIntervals[i])
		}
	}

	if comp.Temperature == nil {
		t.Fatal("expected temperature sub-record")
	}
	if comp.Temperature.Celsius < 36.0 || comp.Temperature.Celsius > 37.0 {
		t.Errorf("temperature: got %v", comp.Temperature.Celsius)
	}

	if comp.SpO2 == nil {
		t.Fatal("expected SpO2 sub-record")
	}
	if math.Abs(comp.SpO2.Ratio-0.5) > 1e-12 {
		t.Errorf("ratio: expected exactly 0.5, got %v", comp.SpO2.Ratio)
	}
	if math.Abs(comp.SpO2.EstimatedPct-97.5) > 1e-9 {
		t.Errorf("estimated SpO2: expected 97.5, got %v", comp.SpO2.EstimatedPct)
	}
}

func TestComprehensive_TooShort(t *testing.T) {
	if _, ok := decodeComprehensive(make([]byte, 5)); ok {
		t.Error("5-byte payload must not decode")
	}
}

func TestComprehensive_HeaderOnly(t *testing.T) {
	payload := comprehensivePayload(1700000000, 65, nil, 0, nil)[:6]
	rec, ok := decodeComprehensive(payload)
	if !ok {
		t.Fatal("header-only payload should still yield a record")
	}
	comp := rec.(ComprehensiveRecord)
	if comp.HeartRate == nil || comp.HeartRate.BPM != 65 {
		t.Error("heart-rate byte should decode without the later sections")
	}
	if comp.Temperature != nil || comp.SpO2 != nil {
		t.Error("missing sections must read as absent, not zero")
	}
}

func TestComprehensive_BadChannelsRejected(t *testing.T) {
	tests := []struct {
		name string
		quad []uint32
	}{
		{"zero dc red", []uint32{500, 0, 1000, 10000}},
		{"zero dc ir", []uint32{500, 10000, 1000, 0}},
		{"zero ac ir", []uint32{500, 10000, 0, 10000}},
		{"ratio out of range", []uint32{50000, 10000, 100, 10000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := comprehensivePayload(1700000000, 70, nil, 3650000, tt.quad)
			rec, ok := decodeComprehensive(payload)
			if !ok {
				t.Fatal("record itself should still decode")
			}
			s := rec.(ComprehensiveRecord).SpO2
			if s == nil {
				t.Fatal("section bytes must be kept even for implausible channels")
			}
			if s.Accepted() || s.EstimatedPct != 0 {
				t.Error("implausible channels must not yield an estimate")
			}
			if len(s.Raw) < compSpO2Quad {
				t.Errorf("raw section bytes missing, got %d", len(s.Raw))
			}
		})
	}
}

func TestComprehensive_RejectedChannelsKeepRawBytes(t *testing.T) {
	quad := []uint32{500, 0, 1000, 10000} // dead red DC channel
	payload := comprehensivePayload(1700000000, 70, nil, 3650000, quad)

	rec, ok := decodeComprehensive(payload)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	s := rec.(ComprehensiveRecord).SpO2
	if s == nil {
		t.Fatal("expected SpO2 sub-record")
	}
	if !bytes.Equal(s.Raw, payload[compSpO2Offset:]) {
		t.Errorf("raw: expected %X, got %X", payload[compSpO2Offset:], s.Raw)
	}
	if s.ACRed != 500 || s.DCRed != 0 || s.ACIr != 1000 || s.DCIr != 10000 {
		t.Error("channel values must decode even when rejected")
	}
}

func TestComprehensive_RRIntervalsKeptAsLogged(t *testing.T) {
	// Buffered records keep extreme intervals; only the live stream
	// re-validates them.
	payload := comprehensivePayload(1700000000, 70, []uint16{100, 830, 3000}, 0, nil)

	rec, ok := decodeComprehensive(payload)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	hr := rec.(ComprehensiveRecord).HeartRate
	if hr == nil {
		t.Fatal("expected heart-rate sub-record")
	}
	want := []int{100, 830, 3000}
	if len(hr.RRIntervals) != len(want) {
		t.Fatalf("rr: expected %v, got %v", want, hr.RRIntervals)
	}
	for i, v := range want {
		if hr.RRIntervals[i] != v {
			t.Errorf("rr[%d]: expected %d, got %d", i, v, hr.RRIntervals[i])
		}
	}
}

func TestComprehensive_TruncatedTemperatureAbsent(t *testing.T) {
	// Payload ends 4 bytes into the 12-byte temperature block. A
	// narrower width would decode those partial bytes as a plausible
	// reading, so the field must read as absent instead.
	full := comprehensivePayload(1700000000, 70, nil, 3650000, nil)
	payload := full[:compTempOffset+4]

	rec, ok := decodeComprehensive(payload)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if rec.(ComprehensiveRecord).Temperature != nil {
		t.Error("truncated temperature block must leave the field absent")
	}
}

func TestComprehensive_UnknownTailPreserved(t *testing.T) {
	tail := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	payload := comprehensivePayload(1700000000, 70, nil, 3650000, []uint32{500, 10000, 1000, 10000})
	payload = append(payload, make([]byte, compSpO2Width-compSpO2Quad)...) // rest of the SpO2 section
	payload = append(payload, tail...)

	rec, _ := decodeComprehensive(payload)
	if got := rec.(ComprehensiveRecord).UnknownTail; !bytes.Equal(got, tail) {
		t.Errorf("tail: expected %X, got %X", tail, got)
	}
}

// ============================================================
// Historical HR / Event / Unknown Tests
// ============================================================

func TestHistoricalHR_GracefulTruncation(t *testing.T) {
	// Claims 5 intervals but only holds 2.
	payload := binary.LittleEndian.AppendUint32(nil, 1700000000)
	payload = append(payload, 64, 5)
	payload = binary.LittleEndian.AppendUint16(payload, 810)
	payload = binary.LittleEndian.AppendUint16(payload, 790)

	rec, ok := decodeHistoricalHR(payload)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	hr := rec.(HeartRateData)
	if hr.BPM != 64 {
		t.Errorf("bpm: got %d", hr.BPM)
	}
	if len(hr.RRIntervals) != 2 {
		t.Errorf("expected 2 intervals, got %v", hr.RRIntervals)
	}
}

func TestEvent_Fields(t *testing.T) {
	payload := binary.LittleEndian.AppendUint32(nil, 1700000001)
	payload = append(payload, 0x07, 0x01, 0x02)

	rec, ok := decodeEvent(payload)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	ev := rec.(EventRecord)
	if ev.Timestamp != 1700000001 || ev.EventID != 0x07 {
		t.Errorf("fields: got %+v", ev)
	}
	if !bytes.Equal(ev.Data, []byte{0x01, 0x02}) {
		t.Errorf("data: got %X", ev.Data)
	}
}

func TestUnknownSubtype_PreservesData(t *testing.T) {
	payload := make([]byte, 20)
	for i := range payload {
		payload[i] = byte(i * 11)
	}
	p := packetFrom(t, whoopproto.PacketHistoricalData, 0xFF, payload)

	records := DecodePacket(p)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	unk, okType := records[0].(UnknownRecord)
	if !okType {
		t.Fatalf("expected UnknownRecord, got %T", records[0])
	}
	if unk.Subtype != 0xFF {
		t.Errorf("subtype: got 0x%02X", unk.Subtype)
	}
	if len(unk.Raw) != 20 || !bytes.Equal(unk.Raw, payload) {
		t.Errorf("raw bytes must match input exactly: got %X", unk.Raw)
	}
}

// ============================================================
// Dispatch Tests
// ============================================================

func TestDispatch_HistoricalSubtypes(t *testing.T) {
	comp := comprehensivePayload(1700000000, 70, nil, 3650000, nil)
	p := packetFrom(t, whoopproto.PacketHistoricalData, uint8(whoopproto.RecordComprehensive), comp)
	records := DecodePacket(p)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Kind() != KindComprehensive {
		t.Errorf("expected comprehensive record, got kind %d", records[0].Kind())
	}
}

func TestDispatch_HistoricalIMUAlwaysAccel(t *testing.T) {
	payload := make([]byte, 1+6*3)
	binary.LittleEndian.PutUint16(payload[1:], uint16(2048))
	p := packetFrom(t, whoopproto.PacketHistoricalIMU, 0x00, payload)

	records := DecodePacket(p)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Kind() != KindAccelBatch {
		t.Errorf("expected accel batch, got kind %d", records[0].Kind())
	}
}

func TestDispatch_RealtimeMultiClaim(t *testing.T) {
	// 19-byte payload: decodes as heart rate, and its 18-byte body also
	// satisfies the accelerometer shape test. Both claims are kept.
	payload := hrPayload(1000, 70*256, []uint16{800}, 0x01)
	payload = append(payload, 0x00, 0x00, 0x00)
	if (len(payload)-1)%6 != 0 {
		t.Fatal("test payload should satisfy the accel shape heuristic")
	}
	p := packetFrom(t, whoopproto.PacketRealtimeData, 0x00, payload)

	records := DecodePacket(p)
	kinds := map[Kind]bool{}
	for _, r := range records {
		kinds[r.Kind()] = true
	}
	if !kinds[KindHeartRate] {
		t.Error("expected a heart-rate claim")
	}
	if !kinds[KindAccelBatch] {
		t.Error("expected an accelerometer claim")
	}
}

func TestDecodeStream_EndToEnd(t *testing.T) {
	hr := whoopproto.Build(whoopproto.PacketRealtimeData, 1, 0x00, hrPayload(1, 65*256, nil, 0x01))
	comp := whoopproto.Build(whoopproto.PacketHistoricalData, 2, uint8(whoopproto.RecordComprehensive),
		comprehensivePayload(1700000000, 72, []uint16{830}, 3650000, nil))

	stream := append([]byte{0x13, 0x37}, hr...)
	stream = append(stream, 0xAA) // stray sync between frames
	stream = append(stream, comp...)

	records := DecodeStream(stream)
	if len(records) < 2 {
		t.Fatalf("expected at least 2 records, got %d", len(records))
	}
}
