// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package whoopproto

import "time"

// Packet represents a parsed protocol frame. Packets are immutable once
// constructed; Parse is the only producer.
type Packet struct {
	raw        []byte
	packetType PacketType
	seq        uint8
	cmd        uint8
	payload    []byte

	headerValid bool

	// Trailer checksum state. The value and validity are meaningful only
	// when trailerKnown is set; a truncated buffer leaves them unknown
	// rather than failed.
	trailerValue uint32
	trailerValid bool
	trailerKnown bool

	complete  bool
	timestamp time.Time
}

// Raw returns the packet's wire bytes, truncated to what was available.
func (p *Packet) Raw() []byte {
	return p.raw
}

// Type returns the transport-level frame type.
func (p *Packet) Type() PacketType {
	return p.packetType
}

// Seq returns the sequence byte.
func (p *Packet) Seq() uint8 {
	return p.seq
}

// Cmd returns the command byte. For historical frames this byte selects
// the record subtype instead; see RecordSubtype.
func (p *Packet) Cmd() uint8 {
	return p.cmd
}

// RecordSubtype reinterprets the command byte as a historical record
// subtype selector.
func (p *Packet) RecordSubtype() RecordType {
	return RecordType(p.cmd)
}

// Payload returns the payload bytes following the inner header.
func (p *Packet) Payload() []byte {
	return p.payload
}

// HeaderValid reports whether the stored CRC-8 matched the length field.
func (p *Packet) HeaderValid() bool {
	return p.headerValid
}

// TrailerChecksum returns the stored CRC-32 and whether it was present.
// Truncated packets have no trailer to read.
func (p *Packet) TrailerChecksum() (uint32, bool) {
	return p.trailerValue, p.trailerKnown
}

// TrailerValid reports whether the stored CRC-32 matched the inner frame.
// Always false when the trailer was never read; check TrailerChecksum to
// distinguish failed from unknown.
func (p *Packet) TrailerValid() bool {
	return p.trailerValid
}

// Complete reports whether the buffer held the packet's full declared extent.
func (p *Packet) Complete() bool {
	return p.complete
}

// Valid reports whether the packet is complete with both checksums passing.
func (p *Packet) Valid() bool {
	return p.complete && p.headerValid && p.trailerValid
}

// Timestamp returns the packet's parse timestamp.
func (p *Packet) Timestamp() time.Time {
	return p.timestamp
}

// IsHistorical reports whether the frame carries buffered on-device data.
func (p *Packet) IsHistorical() bool {
	return p.packetType == PacketHistoricalData || p.packetType == PacketHistoricalIMU
}

// IsRealtime reports whether the frame carries live streamed data.
func (p *Packet) IsRealtime() bool {
	switch p.packetType {
	case PacketRealtimeData, PacketRealtimeRaw, PacketRealtimeIMU:
		return true
	}
	return false
}
