// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package diag holds ambient, observational-only tooling: packet
// statistics and an optional CBOR session recorder. Nothing here
// influences control, scheduling, or retry decisions — it exists purely
// for the `lora stat` shell command and offline debugging.
package diag

import (
	"fmt"
	"time"

	"github.com/fuellink/fuellink/pkg/wire"
)

// Statistics tracks per-link packet counts and error rates. Grounded on
// pkg/helios_protocol/statistics.go, adapted from that package's
// RPM/PWM-specific anomaly counters to this protocol's msg_type catalogue
// and Ack status split.
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	TotalFrames      uint64
	ByMsgType        map[uint8]uint64
	AckOK            uint64
	AckErr           uint64
	ValidationErrors uint64
	DroppedFrames    uint64

	PacketRate float64
	ErrorRate  float64
}

// NewStatistics returns a zeroed tracker starting now.
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
		ByMsgType:      make(map[uint8]uint64),
	}
}

// RecordFrame tallies one successfully-parsed frame. validationErrs is
// whatever wire.Validate returned for it, possibly empty.
func (s *Statistics) RecordFrame(f wire.Frame, validationErrs []wire.ValidationError) {
	s.TotalFrames++
	s.ByMsgType[f.MsgType]++
	s.ValidationErrors += uint64(len(validationErrs))

	if f.MsgType == wire.MsgAck && len(f.Payload) == 2 {
		a := wire.DecodeAck(f.Payload)
		if a.Status == wire.AckOK {
			s.AckOK++
		} else {
			s.AckErr++
		}
	}

	s.LastUpdateTime = time.Now()
}

// RecordDrop tallies a frame the caller chose not to forward (e.g. the air
// relay's congestion drop, or a whitelist rejection).
func (s *Statistics) RecordDrop() {
	s.DroppedFrames++
}

// CalculateRates refreshes PacketRate/ErrorRate from elapsed wall time.
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed <= 0 {
		return
	}
	s.PacketRate = float64(s.TotalFrames) / elapsed
	s.ErrorRate = float64(s.ValidationErrors+s.DroppedFrames) / elapsed
}

// String renders the `lora stat` summary block.
func (s *Statistics) String() string {
	s.CalculateRates()
	elapsed := time.Since(s.StartTime)

	out := fmt.Sprintf("=== lora stat (%.0fs) ===\n", elapsed.Seconds())
	out += fmt.Sprintf("Total Frames:   %8d\n", s.TotalFrames)
	out += fmt.Sprintf("Ack OK/ERR:     %8d / %d\n", s.AckOK, s.AckErr)
	if s.ValidationErrors > 0 {
		out += fmt.Sprintf("Validation Err: %8d\n", s.ValidationErrors)
	}
	if s.DroppedFrames > 0 {
		out += fmt.Sprintf("Dropped:        %8d\n", s.DroppedFrames)
	}
	out += fmt.Sprintf("Frame Rate:     %8.1f frames/sec\n", s.PacketRate)
	out += fmt.Sprintf("Error Rate:     %8.1f errors/sec\n", s.ErrorRate)
	out += "========================\n"
	return out
}

// Reset clears all counters and restarts the rate window.
func (s *Statistics) Reset() {
	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.TotalFrames = 0
	s.ByMsgType = make(map[uint8]uint64)
	s.AckOK = 0
	s.AckErr = 0
	s.ValidationErrors = 0
	s.DroppedFrames = 0
	s.PacketRate = 0
	s.ErrorRate = 0
}
