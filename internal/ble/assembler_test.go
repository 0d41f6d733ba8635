package ble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strapline/strapline/pkg/whoopproto"
)

func testFrame(seq uint8, payload []byte) []byte {
	return whoopproto.Build(whoopproto.PacketRealtimeData, seq, 0x00, payload)
}

func TestAssembler_WholeFrame(t *testing.T) {
	var a Assembler
	pkts := a.Feed(testFrame(1, []byte{0xDE, 0xAD}))
	require.Len(t, pkts, 1)
	assert.Equal(t, uint8(1), pkts[0].Seq())
	assert.Zero(t, a.Pending())
}

func TestAssembler_SplitAcrossNotifications(t *testing.T) {
	frame := testFrame(2, make([]byte, 300))

	var a Assembler
	assert.Empty(t, a.Feed(frame[:10]))
	assert.Empty(t, a.Feed(frame[10:200]))
	assert.Greater(t, a.Pending(), 0)

	pkts := a.Feed(frame[200:])
	require.Len(t, pkts, 1)
	assert.Equal(t, uint8(2), pkts[0].Seq())
	assert.Zero(t, a.Pending())
}

func TestAssembler_MultipleFramesOneNotification(t *testing.T) {
	buf := append(testFrame(3, []byte{0x01}), testFrame(4, []byte{0x02})...)

	var a Assembler
	pkts := a.Feed(buf)
	require.Len(t, pkts, 2)
	assert.Equal(t, uint8(3), pkts[0].Seq())
	assert.Equal(t, uint8(4), pkts[1].Seq())
}

func TestAssembler_LeadingGarbageResyncs(t *testing.T) {
	buf := append([]byte{0x00, 0x13, 0x37}, testFrame(5, []byte{0x01})...)

	var a Assembler
	pkts := a.Feed(buf)
	require.Len(t, pkts, 1)
	assert.Equal(t, uint8(5), pkts[0].Seq())
}

func TestAssembler_CorruptFrameFlagged(t *testing.T) {
	bad := testFrame(6, []byte{0x01, 0x02})
	bad[len(bad)-1] ^= 0xFF // break the trailer checksum
	buf := append(bad, testFrame(7, []byte{0x03})...)

	var a Assembler
	pkts := a.Feed(buf)
	require.Len(t, pkts, 2)
	assert.Equal(t, uint8(6), pkts[0].Seq())
	assert.False(t, pkts[0].Valid(), "corrupt frame must carry its validity flag down")
	assert.False(t, pkts[0].TrailerValid())
	assert.Equal(t, uint8(7), pkts[1].Seq())
	assert.True(t, pkts[1].Valid())
}

func TestAssembler_Reset(t *testing.T) {
	var a Assembler
	a.Feed(testFrame(8, make([]byte, 100))[:20])
	assert.Greater(t, a.Pending(), 0)
	a.Reset()
	assert.Zero(t, a.Pending())
}
