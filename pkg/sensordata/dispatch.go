// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package sensordata

import "github.com/strapline/strapline/pkg/whoopproto"

// Decoder is one sub-decoder in the dispatch chain. CanDecode must be
// cheap; Decode reports absence instead of erroring on malformed input.
type Decoder interface {
	Name() string
	CanDecode(p *whoopproto.Packet) bool
	Decode(p *whoopproto.Packet) (Record, bool)
}

// Decoders lists the sub-decoders in dispatch priority order. Historical
// frames must be claimed before the real-time heuristics get a look at
// their payload shapes.
var Decoders = []Decoder{
	HistoricalDecoder{},
	HeartRateDecoder{},
	AccelDecoder{},
	TemperatureDecoder{},
	SpO2Decoder{},
}

// DecodePacket offers the packet to every matching sub-decoder and
// returns all produced records.
//
// Historical frames resolve to exactly one decoder via their subtype
// byte. Real-time frames have no subtype; payload bytes can satisfy
// more than one plausibility test, and every claim is returned rather
// than guessing a winner.
func DecodePacket(p *whoopproto.Packet) []Record {
	var records []Record
	for _, d := range Decoders {
		if !d.CanDecode(p) {
			continue
		}
		if rec, ok := d.Decode(p); ok {
			records = append(records, rec)
		}
		if p.IsHistorical() {
			break
		}
	}
	return records
}

// DecodeStream scans a raw buffer for frames and decodes every record
// carried by the ones that verify.
func DecodeStream(buf []byte) []Record {
	var records []Record
	for _, p := range whoopproto.ScanStream(buf) {
		if !p.Valid() {
			continue
		}
		records = append(records, DecodePacket(p)...)
	}
	return records
}
