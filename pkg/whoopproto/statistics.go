// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package whoopproto

import (
	"fmt"
	"time"
)

// Statistics tracks frame counters and error rates for a capture or a
// live link. Systematic checksum failures across many frames usually
// mean a transport problem rather than isolated corruption.
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalPackets  uint64
	ValidPackets  uint64
	HeaderErrors  uint64
	TrailerErrors uint64
	Incomplete    uint64
	UnknownTypes  uint64

	ByType map[PacketType]uint64

	// Rates (calculated)
	PacketRate float64 // packets/sec
	ErrorRate  float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
		ByType:         make(map[PacketType]uint64),
	}
}

// Update records one parsed packet's outcome
func (s *Statistics) Update(p *Packet) {
	s.TotalPackets++
	s.ByType[p.Type()]++

	if FormatPacketType(p.Type()) == "UNKNOWN" {
		s.UnknownTypes++
	}

	errored := false
	if !p.HeaderValid() {
		s.HeaderErrors++
		errored = true
	}
	if !p.Complete() {
		s.Incomplete++
		errored = true
	} else if !p.TrailerValid() {
		s.TrailerErrors++
		errored = true
	}
	if !errored {
		s.ValidPackets++
	}

	s.LastUpdateTime = time.Now()
}

// CalculateRates calculates packet and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.PacketRate = float64(s.TotalPackets) / elapsed
		errorCount := s.HeaderErrors + s.TrailerErrors + s.Incomplete
		s.ErrorRate = float64(errorCount) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, headerPercent, trailerPercent, incompletePercent float64
	if s.TotalPackets > 0 {
		validPercent = float64(s.ValidPackets) * 100.0 / float64(s.TotalPackets)
		headerPercent = float64(s.HeaderErrors) * 100.0 / float64(s.TotalPackets)
		trailerPercent = float64(s.TrailerErrors) * 100.0 / float64(s.TotalPackets)
		incompletePercent = float64(s.Incomplete) * 100.0 / float64(s.TotalPackets)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Packets:   %8d\n", s.TotalPackets)
	result += fmt.Sprintf("Valid Packets:   %8d (%.1f%%)\n", s.ValidPackets, validPercent)

	if s.HeaderErrors > 0 {
		result += fmt.Sprintf("Header CRC Err:  %8d (%.1f%%)\n", s.HeaderErrors, headerPercent)
	}
	if s.TrailerErrors > 0 {
		result += fmt.Sprintf("Trailer CRC Err: %8d (%.1f%%)\n", s.TrailerErrors, trailerPercent)
	}
	if s.Incomplete > 0 {
		result += fmt.Sprintf("Incomplete:      %8d (%.1f%%)\n", s.Incomplete, incompletePercent)
	}
	if s.UnknownTypes > 0 {
		result += fmt.Sprintf("Unknown Types:   %8d\n", s.UnknownTypes)
	}

	for _, t := range []PacketType{
		PacketCommand, PacketCommandResponse, PacketRealtimeData,
		PacketRealtimeRaw, PacketHistoricalData, PacketEvent,
		PacketRealtimeIMU, PacketHistoricalIMU,
	} {
		if n := s.ByType[t]; n > 0 {
			result += fmt.Sprintf("  %-17s %6d\n", FormatPacketType(t)+":", n)
		}
	}

	result += fmt.Sprintf("Packet Rate:     %8.1f pkts/sec\n", s.PacketRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.TotalPackets = 0
	s.ValidPackets = 0
	s.HeaderErrors = 0
	s.TrailerErrors = 0
	s.Incomplete = 0
	s.UnknownTypes = 0
	s.ByType = make(map[PacketType]uint64)
	s.PacketRate = 0
	s.ErrorRate = 0
}
