// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package whoopproto

import "hash/crc32"

// CRC-8 configuration: polynomial 0x07, zero initial value, no final XOR.
// The strap applies it only to the two length bytes of the header.
const crc8Polynomial = 0x07

var crc8Table [256]uint8

func init() {
	for i := range crc8Table {
		crc := uint8(i)
		for bit := 0; bit < 8; bit++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ crc8Polynomial
			} else {
				crc <<= 1
			}
		}
		crc8Table[i] = crc
	}
}

// Checksum8 computes the CRC-8 checksum used over the header length field.
func Checksum8(data []byte) uint8 {
	var crc uint8
	for _, b := range data {
		crc = crc8Table[crc^b]
	}
	return crc
}

// Checksum32 computes the CRC-32 checksum used over the inner frame.
// The strap uses the standard IEEE polynomial with the usual reflected,
// inverted parameters, so ("123456789") checks to 0xCBF43926.
func Checksum32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
