// Package capture persists raw BLE notification traffic to disk and
// replays it through the protocol decoders. The decoders owe the file
// format nothing beyond "bytes in, same bytes out": entries store the
// raw notification verbatim and decoding happens again on replay.
package capture

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Entry is one captured notification. Both hex and base64 renderings of
// the payload are stored; hex for human greps, base64 as the compact
// authoritative copy.
type Entry struct {
	Timestamp float64 `json:"timestamp" cbor:"1,keyasint"` // Unix seconds
	Handle    int     `json:"handle" cbor:"2,keyasint"`
	UUID      string  `json:"uuid" cbor:"3,keyasint"`
	HexData   string  `json:"hex_data" cbor:"4,keyasint"`
	RawB64    string  `json:"raw_bytes_b64" cbor:"5,keyasint"`
	Length    int     `json:"length" cbor:"6,keyasint"`
}

// NewEntry builds an entry for a notification received now.
func NewEntry(handle int, uuid string, data []byte) Entry {
	return Entry{
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
		Handle:    handle,
		UUID:      uuid,
		HexData:   hex.EncodeToString(data),
		RawB64:    base64.StdEncoding.EncodeToString(data),
		Length:    len(data),
	}
}

// Bytes recovers the raw notification payload, preferring the base64
// copy and falling back to hex for hand-edited files.
func (e *Entry) Bytes() ([]byte, error) {
	if e.RawB64 != "" {
		b, err := base64.StdEncoding.DecodeString(e.RawB64)
		if err == nil {
			return b, nil
		}
	}
	if e.HexData != "" {
		b, err := hex.DecodeString(e.HexData)
		if err != nil {
			return nil, fmt.Errorf("entry has no decodable payload: %w", err)
		}
		return b, nil
	}
	return nil, nil
}

// Time returns the entry timestamp as a time.Time.
func (e *Entry) Time() time.Time {
	sec := int64(e.Timestamp)
	nsec := int64((e.Timestamp - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// IsProprietary reports whether the entry came from the strap's
// proprietary service rather than a standard GATT characteristic.
func (e *Entry) IsProprietary() bool {
	return strings.HasPrefix(strings.ToLower(e.UUID), "6108")
}
