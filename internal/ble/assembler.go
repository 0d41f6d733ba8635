// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package ble

import (
	"bytes"

	"github.com/strapline/strapline/pkg/whoopproto"
)

// maxPending bounds the reassembly buffer. A frame larger than this is
// not a frame, it is garbage that will never complete.
const maxPending = 16 * 1024

// Assembler reassembles protocol frames from notification values. A
// historical frame larger than the negotiated MTU arrives split across
// notifications, so frame extraction has to span them; leading garbage
// and stale fragments resynchronize on the next sync byte. Not safe for
// concurrent use.
type Assembler struct {
	pending []byte
}

// Feed appends one notification value and returns every frame that is
// now complete, in arrival order. A frame that fails a checksum is
// still returned with its validity flags set false so the caller can
// count it; filter on Valid() when only verified frames matter.
func (a *Assembler) Feed(data []byte) []*whoopproto.Packet {
	a.pending = append(a.pending, data...)

	var out []*whoopproto.Packet
	for {
		start := bytes.IndexByte(a.pending, whoopproto.SyncByte)
		if start < 0 {
			a.pending = a.pending[:0]
			return out
		}
		if start > 0 {
			a.pending = append(a.pending[:0], a.pending[start:]...)
		}

		p, ok := whoopproto.Parse(a.pending)
		if ok && p.Complete() {
			out = append(out, p)
			end := whoopproto.HeaderSize + len(p.Payload()) + whoopproto.InnerOverhead + whoopproto.TrailerSize
			a.pending = append(a.pending[:0], a.pending[end:]...)
			continue
		}
		if a.incomplete() {
			// Wait for the rest of the frame.
			return out
		}
		// Structurally bad: skip the sync byte and resync.
		a.pending = append(a.pending[:0], a.pending[1:]...)
	}
}

// incomplete reports whether pending could still grow into a complete
// frame, rather than already being a proven-bad one.
func (a *Assembler) incomplete() bool {
	if len(a.pending) > maxPending {
		return false
	}
	if len(a.pending) < whoopproto.MinPacketSize {
		return true
	}
	lengthField := int(uint16(a.pending[1]) | uint16(a.pending[2])<<8)
	if lengthField > whoopproto.MaxLengthField {
		return false
	}
	return len(a.pending) < whoopproto.HeaderSize+lengthField
}

// Pending returns the number of buffered bytes awaiting completion.
func (a *Assembler) Pending() int { return len(a.pending) }

// Reset discards any buffered fragment.
func (a *Assembler) Reset() { a.pending = a.pending[:0] }
