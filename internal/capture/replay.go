package capture

import (
	"io"

	"go.uber.org/zap"

	"github.com/strapline/strapline/internal/logging"
	"github.com/strapline/strapline/pkg/sensordata"
	"github.com/strapline/strapline/pkg/whoopproto"
)

// DecodedEntry pairs a capture entry with everything the decoders
// extracted from it.
type DecodedEntry struct {
	Entry   Entry
	Packets []*whoopproto.Packet
	Records []sensordata.Record
}

// ReplayResult summarizes one replay pass over a capture file.
type ReplayResult struct {
	Entries     []DecodedEntry
	Stats       *whoopproto.Statistics
	TotalBytes  int
	Skipped     int // malformed capture lines
	NonProto    int // entries from standard GATT characteristics
	RecordCount int
}

// Replay re-decodes every proprietary-service entry of a capture file.
// Each notification is scanned independently; the strap occasionally
// concatenates frames into one notification and the scanner deals with
// that per buffer.
func Replay(path string) (*ReplayResult, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	result := &ReplayResult{Stats: whoopproto.NewStatistics()}
	for {
		e, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if !e.IsProprietary() {
			result.NonProto++
			continue
		}

		data, err := e.Bytes()
		if err != nil || len(data) == 0 {
			result.Skipped++
			continue
		}
		result.TotalBytes += len(data)

		de := DecodedEntry{Entry: e}
		for _, p := range whoopproto.ScanStream(data) {
			result.Stats.Update(p)
			de.Packets = append(de.Packets, p)
			if p.Valid() {
				de.Records = append(de.Records, sensordata.DecodePacket(p)...)
			}
		}
		result.RecordCount += len(de.Records)
		result.Entries = append(result.Entries, de)
	}
	result.Skipped += r.Skipped()

	logging.Info("Replay finished",
		zap.String("file", path),
		zap.Int("entries", len(result.Entries)),
		zap.Int("records", result.RecordCount),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// Records flattens the decoded records of a replay in capture order.
func (r *ReplayResult) Records() []sensordata.Record {
	var out []sensordata.Record
	for _, de := range r.Entries {
		out = append(out, de.Records...)
	}
	return out
}
