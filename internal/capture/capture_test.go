package capture

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strapline/strapline/pkg/sensordata"
	"github.com/strapline/strapline/pkg/whoopproto"
)

func hrFrame(seq uint8, bpm int) []byte {
	payload := binary.LittleEndian.AppendUint32(nil, 1000)
	payload = binary.LittleEndian.AppendUint16(payload, uint16(bpm*256))
	payload = append(payload, 0x00)
	return whoopproto.Build(whoopproto.PacketRealtimeData, seq, 0x00, payload)
}

func TestEntry_BytesRoundTrip(t *testing.T) {
	data := []byte{0xAA, 0x01, 0x02, 0xFF}
	e := NewEntry(42, whoopproto.CharDataUUID, data)

	assert.Equal(t, len(data), e.Length)
	got, err := e.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestEntry_HexFallback(t *testing.T) {
	e := Entry{HexData: "aa0102"}
	got, err := e.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0x01, 0x02}, got)
}

func TestEntry_IsProprietary(t *testing.T) {
	assert.True(t, (&Entry{UUID: whoopproto.CharDataUUID}).IsProprietary())
	assert.True(t, (&Entry{UUID: "61080003-8D6D-82B8-614A-1C8CB0F8DCC6"}).IsProprietary())
	assert.False(t, (&Entry{UUID: "00002a19-0000-1000-8000-00805f9b34fb"}).IsProprietary())
}

func TestWriterReader_JSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")

	w, err := NewWriter(path)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, w.Write(NewEntry(i, whoopproto.CharDataUUID, hrFrame(uint8(i), 60+i))))
	}
	assert.Equal(t, 3, w.Count())
	require.NoError(t, w.Close())

	entries, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[1].Handle)
}

func TestWriterReader_CBOR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.cbor")

	w, err := NewWriter(path)
	require.NoError(t, err)
	e := NewEntry(7, whoopproto.CharDataUUID, hrFrame(1, 70))
	require.NoError(t, w.Write(e))
	require.NoError(t, w.Close())

	entries, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, e.RawB64, entries[0].RawB64)
	assert.Equal(t, 7, entries[0].Handle)
}

func TestReader_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "damaged.jsonl")

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(NewEntry(1, whoopproto.CharDataUUID, hrFrame(1, 65))))
	require.NoError(t, w.Close())

	// Simulate a capture cut off mid-write.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{\"timestamp\": 12\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	entries, err := ReadAll(path)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReplay_DecodesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.jsonl")

	w, err := NewWriter(path)
	require.NoError(t, err)
	// Two frames concatenated into one notification, plus a standard
	// GATT battery notification that must be ignored.
	combined := append(hrFrame(1, 62), hrFrame(2, 63)...)
	require.NoError(t, w.Write(NewEntry(1, whoopproto.CharDataUUID, combined)))
	require.NoError(t, w.Write(NewEntry(2, "00002a19-0000-1000-8000-00805f9b34fb", []byte{0x59})))
	require.NoError(t, w.Close())

	result, err := Replay(path)
	require.NoError(t, err)

	assert.Equal(t, 1, result.NonProto)
	require.Len(t, result.Entries, 1)
	assert.Len(t, result.Entries[0].Packets, 2)

	records := result.Records()
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, sensordata.KindHeartRate, rec.Kind())
	}
	assert.EqualValues(t, 2, result.Stats.TotalPackets)
	assert.EqualValues(t, 2, result.Stats.ValidPackets)
}

func TestReplay_CountsCorruptFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.jsonl")

	bad := hrFrame(1, 62)
	bad[len(bad)-1] ^= 0x01 // flip one trailer bit

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(NewEntry(1, whoopproto.CharDataUUID, bad)))
	require.NoError(t, w.Write(NewEntry(2, whoopproto.CharDataUUID, hrFrame(2, 63))))
	require.NoError(t, w.Close())

	result, err := Replay(path)
	require.NoError(t, err)

	// The corrupt frame surfaces in the link statistics but contributes
	// no records.
	assert.EqualValues(t, 2, result.Stats.TotalPackets)
	assert.EqualValues(t, 1, result.Stats.ValidPackets)
	assert.EqualValues(t, 1, result.Stats.TrailerErrors)
	assert.Len(t, result.Records(), 1)
}
