// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package whoopproto

import (
	"encoding/binary"
	"time"
)

// Build constructs a complete wire frame from its inner fields.
//
// Layout: [sync][length:u16 LE][crc8 of length][type][seq][cmd][data][crc32:u32 LE]
// where length covers the inner frame plus the trailer.
func Build(packetType PacketType, seq uint8, cmd uint8, data []byte) []byte {
	inner := make([]byte, 0, InnerOverhead+len(data))
	inner = append(inner, uint8(packetType), seq, cmd)
	inner = append(inner, data...)

	lengthField := uint16(len(inner) + TrailerSize)

	buf := make([]byte, 0, HeaderSize+len(inner)+TrailerSize)
	buf = append(buf, SyncByte)
	buf = binary.LittleEndian.AppendUint16(buf, lengthField)
	buf = append(buf, Checksum8(buf[1:3]))
	buf = append(buf, inner...)
	buf = binary.LittleEndian.AppendUint32(buf, Checksum32(inner))
	return buf
}

// Parse interprets buf as a single frame starting at its first byte.
//
// A missing sync byte, a too-short buffer, or a length field that cannot
// hold the inner header is a structural rejection (nil, false). Checksum
// mismatches and truncation do not reject: the packet is returned with
// the corresponding validity and completeness flags for the caller to
// judge. Extra bytes past the declared extent are ignored.
func Parse(buf []byte) (*Packet, bool) {
	if len(buf) < MinPacketSize || buf[0] != SyncByte {
		return nil, false
	}

	lengthField := binary.LittleEndian.Uint16(buf[1:3])
	innerSize := int(lengthField) - TrailerSize
	if innerSize < InnerOverhead {
		return nil, false
	}

	p := &Packet{
		headerValid: buf[3] == Checksum8(buf[1:3]),
		timestamp:   time.Now(),
	}

	extent := HeaderSize + int(lengthField)
	p.complete = len(buf) >= extent

	innerEnd := HeaderSize + innerSize
	if innerEnd > len(buf) {
		innerEnd = len(buf)
	}
	inner := buf[HeaderSize:innerEnd]

	p.packetType = PacketType(inner[0])
	p.seq = inner[1]
	p.cmd = inner[2]
	p.payload = append([]byte(nil), inner[InnerOverhead:]...)

	rawEnd := extent
	if rawEnd > len(buf) {
		rawEnd = len(buf)
	}
	p.raw = append([]byte(nil), buf[:rawEnd]...)

	if p.complete {
		p.trailerValue = binary.LittleEndian.Uint32(buf[HeaderSize+innerSize:])
		p.trailerKnown = true
		p.trailerValid = p.trailerValue == Checksum32(inner)
	}
	return p, true
}
