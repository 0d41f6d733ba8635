// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package whoopproto

import (
	"bytes"
	"encoding/binary"
)

// ScanStream extracts every complete frame from buf, which may contain
// multiple concatenated frames, leading or trailing garbage, and a
// truncated tail. Frames that fail a checksum are still emitted with
// their validity flags set false; callers filter on Valid() when they
// only want verified frames.
//
// Resynchronization policy: when a candidate starting at a sync byte
// fails to parse or is incomplete, the scan advances by exactly one
// byte rather than past the candidate. A payload byte that happens to
// equal the sync value must not shadow a real frame starting just
// after it.
func ScanStream(buf []byte) []*Packet {
	var packets []*Packet

	offset := 0
	for {
		idx := bytes.IndexByte(buf[offset:], SyncByte)
		if idx < 0 {
			break
		}
		offset += idx

		remaining := len(buf) - offset
		if remaining < MinPacketSize {
			break
		}

		lengthField := binary.LittleEndian.Uint16(buf[offset+1 : offset+3])
		extent := HeaderSize + int(lengthField)

		if lengthField <= MaxLengthField && extent <= remaining {
			if p, ok := Parse(buf[offset : offset+extent]); ok && p.Complete() {
				packets = append(packets, p)
				offset += extent
				continue
			}
		}
		offset++
	}
	return packets
}

// ScanCount reports how many complete frames ScanStream would yield
// without retaining them.
func ScanCount(buf []byte) int {
	return len(ScanStream(buf))
}
