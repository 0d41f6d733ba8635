// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package whoopproto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// ============================================================
// CRC Tests
// ============================================================

func TestChecksum8_Empty(t *testing.T) {
	if crc := Checksum8(nil); crc != 0 {
		t.Errorf("CRC-8 of empty data should be 0, got 0x%02X", crc)
	}
}

func TestChecksum8_KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint8
	}{
		{
			name:     "length field 0x0008",
			data:     []byte{0x08, 0x00},
			expected: 0xA8, // from a captured SEND_HISTORICAL_DATA frame
		},
		{
			name:     "single zero byte",
			data:     []byte{0x00},
			expected: 0x00,
		},
		{
			name:     "single 0x01",
			data:     []byte{0x01},
			expected: 0x07,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crc := Checksum8(tt.data)
			if crc != tt.expected {
				t.Errorf("CRC mismatch: expected 0x%02X, got 0x%02X", tt.expected, crc)
			}
		})
	}
}

func TestChecksum8_Deterministic(t *testing.T) {
	data := []byte{0x10, 0x30, 0x01, 0x02, 0x03, 0x04}
	if Checksum8(data) != Checksum8(data) {
		t.Error("CRC-8 should be deterministic")
	}
}

func TestChecksum32_KnownValues(t *testing.T) {
	if crc := Checksum32([]byte("123456789")); crc != 0xCBF43926 {
		t.Errorf("CRC-32 check value mismatch: got 0x%08X", crc)
	}
	if crc := Checksum32(nil); crc != 0 {
		t.Errorf("CRC-32 of empty data should be 0, got 0x%08X", crc)
	}
}

// ============================================================
// Codec Tests
// ============================================================

func TestBuild_CapturedFrame(t *testing.T) {
	// SEND_HISTORICAL_DATA, seq 0x0E, captured from a live session
	expected, _ := hex.DecodeString("aa0800a8230e16001147c585")
	got := Build(PacketCommand, 0x0E, uint8(CmdSendHistoricalData), []byte{0x00})
	if !bytes.Equal(got, expected) {
		t.Errorf("frame mismatch:\n  expected %s\n  got      %s",
			hex.EncodeToString(expected), hex.EncodeToString(got))
	}
}

func TestParse_CapturedFrame(t *testing.T) {
	raw, _ := hex.DecodeString("aa0800a8230e16001147c585")
	p, ok := Parse(raw)
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if p.Type() != PacketCommand {
		t.Errorf("type: expected 0x23, got 0x%02X", uint8(p.Type()))
	}
	if p.Seq() != 0x0E {
		t.Errorf("seq: expected 0x0E, got 0x%02X", p.Seq())
	}
	if p.Cmd() != uint8(CmdSendHistoricalData) {
		t.Errorf("cmd: expected 0x16, got 0x%02X", p.Cmd())
	}
	if !bytes.Equal(p.Payload(), []byte{0x00}) {
		t.Errorf("payload: expected [00], got %X", p.Payload())
	}
	if !p.Valid() {
		t.Error("captured frame should be fully valid")
	}
}

func TestRoundTrip_AllPayloadSizes(t *testing.T) {
	for size := 0; size <= 500; size++ {
		data := make([]byte, size)
		for i := range data {
			data[i] = byte((i*7 + size) & 0xFF)
		}

		raw := Build(PacketRealtimeData, byte(size&0xFF), 0x42, data)
		p, ok := Parse(raw)
		if !ok {
			t.Fatalf("size %d: parse rejected built frame", size)
		}
		if p.Type() != PacketRealtimeData || p.Seq() != byte(size&0xFF) || p.Cmd() != 0x42 {
			t.Fatalf("size %d: inner header mismatch", size)
		}
		if !bytes.Equal(p.Payload(), data) {
			t.Fatalf("size %d: payload mismatch", size)
		}
		if !p.HeaderValid() || !p.TrailerValid() || !p.Complete() {
			t.Fatalf("size %d: expected fully valid packet", size)
		}
		if _, known := p.TrailerChecksum(); !known {
			t.Fatalf("size %d: complete packet should have a known trailer", size)
		}
	}
}

func TestParse_StructuralRejection(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"too short", []byte{SyncByte, 0x08, 0x00, 0xA8, 0x23, 0x0E, 0x16}},
		{"wrong sync", []byte{0xAB, 0x08, 0x00, 0xA8, 0x23, 0x0E, 0x16, 0x00}},
		{"length below inner header", []byte{SyncByte, 0x06, 0x00, 0x00, 0x23, 0x0E, 0x16, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if p, ok := Parse(tt.buf); ok || p != nil {
				t.Errorf("expected structural rejection, got %+v", p)
			}
		})
	}
}

func TestParse_HeaderCorruption(t *testing.T) {
	raw := Build(PacketCommand, 1, uint8(CmdGetBatteryLevel), nil)
	for bit := 0; bit < 8; bit++ {
		buf := append([]byte(nil), raw...)
		buf[3] ^= 1 << bit
		p, ok := Parse(buf)
		if !ok {
			t.Fatalf("bit %d: corruption of the CRC byte must not reject parse", bit)
		}
		if p.HeaderValid() {
			t.Errorf("bit %d: expected header CRC failure", bit)
		}
		if !p.TrailerValid() || !p.Complete() {
			t.Errorf("bit %d: trailer and completeness should be unaffected", bit)
		}
	}
}

func TestParse_TrailerCorruption(t *testing.T) {
	raw := Build(PacketRealtimeData, 9, 0x00, []byte{1, 2, 3, 4})
	for i := len(raw) - TrailerSize; i < len(raw); i++ {
		for bit := 0; bit < 8; bit++ {
			buf := append([]byte(nil), raw...)
			buf[i] ^= 1 << bit
			p, ok := Parse(buf)
			if !ok {
				t.Fatalf("byte %d bit %d: trailer corruption must not reject parse", i, bit)
			}
			if p.TrailerValid() {
				t.Errorf("byte %d bit %d: expected trailer CRC failure", i, bit)
			}
			if !p.HeaderValid() || !p.Complete() {
				t.Errorf("byte %d bit %d: header and completeness should be unaffected", i, bit)
			}
		}
	}
}

func TestParse_Truncation(t *testing.T) {
	raw := Build(PacketHistoricalData, 3, uint8(RecordComprehensive), []byte{0xAA, 0xBB, 0xCC})
	for cut := 1; cut <= 3; cut++ {
		buf := raw[:len(raw)-cut]
		p, ok := Parse(buf)
		if !ok {
			t.Fatalf("cut %d: truncation must not reject parse", cut)
		}
		if p.Complete() {
			t.Errorf("cut %d: expected incomplete packet", cut)
		}
		if _, known := p.TrailerChecksum(); known {
			t.Errorf("cut %d: truncated packet must have an unknown trailer", cut)
		}
		if p.TrailerValid() {
			t.Errorf("cut %d: unknown trailer must not read as valid", cut)
		}
		if p.Type() != PacketHistoricalData || p.Seq() != 3 {
			t.Errorf("cut %d: header fields should still be populated", cut)
		}
	}
}

func TestParse_ExtraBytesIgnored(t *testing.T) {
	raw := Build(PacketCommand, 7, uint8(CmdGetClock), nil)
	buf := append(append([]byte(nil), raw...), 0xDE, 0xAD, 0xBE, 0xEF)
	p, ok := Parse(buf)
	if !ok || !p.Valid() {
		t.Fatal("trailing bytes past the declared extent must be ignored")
	}
	if len(p.Raw()) != len(raw) {
		t.Errorf("raw should stop at the declared extent: expected %d bytes, got %d", len(raw), len(p.Raw()))
	}
}

// ============================================================
// Scanner Tests
// ============================================================

func TestScanStream_Empty(t *testing.T) {
	if got := ScanStream(nil); len(got) != 0 {
		t.Errorf("expected no packets, got %d", len(got))
	}
}

func TestScanStream_SinglePacket(t *testing.T) {
	raw := Build(PacketRealtimeData, 1, 0x00, []byte{10, 20, 30})
	packets := ScanStream(raw)
	if len(packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(packets))
	}
	if !bytes.Equal(packets[0].Payload(), []byte{10, 20, 30}) {
		t.Error("payload mismatch")
	}
}

func TestScanStream_ConcatenatedWithGarbage(t *testing.T) {
	var stream []byte
	var seqs []uint8

	garbage := [][]byte{
		{0x00, 0xFF, 0x13},
		{SyncByte, 0x03},                   // sync byte inside garbage
		{SyncByte, 0xFF, 0xFF, 0x00, 0x01}, // sync with absurd length
		{},
	}

	for i := 0; i < 8; i++ {
		stream = append(stream, garbage[i%len(garbage)]...)
		seq := uint8(i + 1)
		stream = append(stream, Build(PacketRealtimeData, seq, 0x00, []byte{byte(i), byte(i * 2)})...)
		seqs = append(seqs, seq)
	}
	stream = append(stream, 0xAA, 0x01) // truncated tail

	packets := ScanStream(stream)
	if len(packets) != len(seqs) {
		t.Fatalf("expected %d packets, got %d", len(seqs), len(packets))
	}
	for i, p := range packets {
		if p.Seq() != seqs[i] {
			t.Errorf("packet %d: expected seq %d, got %d (out of order?)", i, seqs[i], p.Seq())
		}
	}
}

func TestScanStream_NoFalseResync(t *testing.T) {
	// Payload full of sync bytes must decode as one packet, not split.
	payload := bytes.Repeat([]byte{SyncByte}, 32)
	raw := Build(PacketRealtimeRaw, 5, 0x00, payload)

	packets := ScanStream(raw)
	if len(packets) != 1 {
		t.Fatalf("expected exactly 1 packet, got %d", len(packets))
	}
	if !bytes.Equal(packets[0].Payload(), payload) {
		t.Error("payload mismatch after scan")
	}
}

func TestScanStream_CorruptedThenValid(t *testing.T) {
	bad := Build(PacketRealtimeData, 1, 0x00, []byte{1, 2, 3})
	bad[len(bad)-1] ^= 0xFF // break the trailer
	good := Build(PacketRealtimeData, 2, 0x00, []byte{4, 5, 6})

	packets := ScanStream(append(bad, good...))
	if len(packets) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(packets))
	}
	if packets[0].Seq() != 1 || packets[0].Valid() {
		t.Errorf("expected seq 1 flagged invalid, got seq %d valid=%v", packets[0].Seq(), packets[0].Valid())
	}
	if packets[1].Seq() != 2 || !packets[1].Valid() {
		t.Errorf("expected seq 2 valid, got seq %d valid=%v", packets[1].Seq(), packets[1].Valid())
	}
}

func TestScanStream_TrailerBitFlipStillEmitted(t *testing.T) {
	// A complete frame with one flipped trailer bit is emitted with its
	// validity flag down, not silently dropped. The caller decides.
	raw := Build(PacketRealtimeData, 3, 0x00, []byte{72, 0, 0, 0})
	raw[len(raw)-2] ^= 0x01

	packets := ScanStream(raw)
	if len(packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(packets))
	}
	p := packets[0]
	if !p.Complete() {
		t.Error("packet should be complete")
	}
	if !p.HeaderValid() {
		t.Error("header checksum should still verify")
	}
	if p.TrailerValid() || p.Valid() {
		t.Error("flipped trailer bit must clear the validity flags")
	}
	if !bytes.Equal(p.Payload(), []byte{72, 0, 0, 0}) {
		t.Error("payload must survive intact for the caller to inspect")
	}
}

func TestScanStream_PacketStartsOneByteAfterFalseSync(t *testing.T) {
	// A stray sync byte immediately before a real frame must not hide it.
	good := Build(PacketRealtimeData, 7, 0x00, []byte{9, 9})
	stream := append([]byte{SyncByte}, good...)

	packets := ScanStream(stream)
	if len(packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(packets))
	}
	if packets[0].Seq() != 7 {
		t.Errorf("expected seq 7, got %d", packets[0].Seq())
	}
}

// ============================================================
// Command Builder Tests
// ============================================================

func TestNewSendHistoricalData_MatchesCapture(t *testing.T) {
	expected, _ := hex.DecodeString("aa0800a8230e16001147c585")
	if got := NewSendHistoricalData(0x0E); !bytes.Equal(got, expected) {
		t.Errorf("frame mismatch: got %s", hex.EncodeToString(got))
	}
}

func TestNewToggleRealtimeHR_EnableByte(t *testing.T) {
	on, _ := Parse(NewToggleRealtimeHR(0, true))
	off, _ := Parse(NewToggleRealtimeHR(1, false))
	if !bytes.Equal(on.Payload(), []byte{0x01}) {
		t.Errorf("enable payload: got %X", on.Payload())
	}
	if !bytes.Equal(off.Payload(), []byte{0x00}) {
		t.Errorf("disable payload: got %X", off.Payload())
	}
	if on.Cmd() != uint8(CmdToggleRealtimeHR) {
		t.Errorf("cmd byte: got 0x%02X", on.Cmd())
	}
}

func TestSequencer_Wraps(t *testing.T) {
	var s Sequencer
	for i := 0; i < 256; i++ {
		if got := s.Next(); got != uint8(i) {
			t.Fatalf("step %d: got %d", i, got)
		}
	}
	if got := s.Next(); got != 0 {
		t.Errorf("expected wrap to 0, got %d", got)
	}
}

// ============================================================
// Formatter Tests
// ============================================================

func TestHexToBytes(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []byte
		wantErr bool
	}{
		{"plain", "aa0800", []byte{0xAA, 0x08, 0x00}, false},
		{"spaced", "aa 08 00", []byte{0xAA, 0x08, 0x00}, false},
		{"colons", "AA:08:00", []byte{0xAA, 0x08, 0x00}, false},
		{"odd length", "aa0", nil, true},
		{"not hex", "zz", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HexToBytes(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !bytes.Equal(got, tt.want) {
				t.Errorf("got %X, want %X", got, tt.want)
			}
		})
	}
}

func TestFormatPacket_FlagsCorruption(t *testing.T) {
	raw := Build(PacketRealtimeData, 1, 0x00, []byte{1})
	raw[len(raw)-1] ^= 0x01
	p, _ := Parse(raw)
	out := FormatPacket(p)
	if !bytes.Contains([]byte(out), []byte("TRL-CRC-BAD")) {
		t.Errorf("expected trailer flag in output:\n%s", out)
	}
}

// ============================================================
// Statistics Tests
// ============================================================

func TestStatistics_Counters(t *testing.T) {
	s := NewStatistics()

	good, _ := Parse(Build(PacketRealtimeData, 1, 0, []byte{1}))
	s.Update(good)

	badTrailer := Build(PacketRealtimeData, 2, 0, []byte{1})
	badTrailer[len(badTrailer)-1] ^= 0xFF
	p, _ := Parse(badTrailer)
	s.Update(p)

	truncated := Build(PacketRealtimeData, 3, 0, []byte{1})
	p, _ = Parse(truncated[:len(truncated)-2])
	s.Update(p)

	if s.TotalPackets != 3 {
		t.Errorf("total: expected 3, got %d", s.TotalPackets)
	}
	if s.ValidPackets != 1 {
		t.Errorf("valid: expected 1, got %d", s.ValidPackets)
	}
	if s.TrailerErrors != 1 {
		t.Errorf("trailer errors: expected 1, got %d", s.TrailerErrors)
	}
	if s.Incomplete != 1 {
		t.Errorf("incomplete: expected 1, got %d", s.Incomplete)
	}
	if s.ByType[PacketRealtimeData] != 3 {
		t.Errorf("by-type: expected 3, got %d", s.ByType[PacketRealtimeData])
	}

	s.Reset()
	if s.TotalPackets != 0 || len(s.ByType) != 0 {
		t.Error("reset should clear all counters")
	}
}
