// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package airctl

import (
	"log"

	"github.com/fuellink/fuellink/pkg/radio"
	"github.com/fuellink/fuellink/pkg/wire"
)

// Scheduler arbitrates a single half-duplex radio between two logical TX
// slots, both last-writer-wins: high-priority (ACKs, idempotent per
// (seq, msg_type)) and telemetry (lossy by design). Grounded on spec.md
// §4.5; the radio contract itself (OK/BUSY/FAIL, never collapsed) comes
// from pkg/radio.Radio.
type Scheduler struct {
	Config Config
	Radio  radio.Radio

	highPriority []byte
	telemetry    []byte

	lastTelemTxMs  uint32
	lastDownlinkMs uint32
	haveDownlink   bool
}

// NewScheduler returns a scheduler with both slots empty.
func NewScheduler(cfg Config, r radio.Radio) *Scheduler {
	return &Scheduler{Config: cfg, Radio: r}
}

// EnqueueHighPriority overwrites the high-priority slot (e.g. a
// controller-issued Ack frame observed on UART).
func (s *Scheduler) EnqueueHighPriority(frame []byte) {
	s.highPriority = frame
}

// EnqueueTelemetry overwrites the telemetry slot, silently discarding
// whatever sample was queued and not yet transmitted.
func (s *Scheduler) EnqueueTelemetry(frame []byte) {
	s.telemetry = frame
}

// NotifyDownlinkReceived records that a downlink packet just arrived, so
// the next `DownlinkSuppressMs` window suppresses telemetry TX.
func (s *Scheduler) NotifyDownlinkReceived(nowMs uint32) {
	s.lastDownlinkMs = nowMs
	s.haveDownlink = true
}

// wellFormed is the scheduler's cheap sanity check before spending a TX
// attempt on the high-priority slot: it must at least begin with the two
// sync octets a real encoded frame always carries.
func wellFormed(frame []byte) bool {
	return len(frame) >= 2 && frame[0] == wire.Sync1 && frame[1] == wire.Sync2
}

// Tick runs one scheduling decision (spec.md §4.5). It attempts at most
// one radio TX: high-priority takes strict precedence over telemetry.
func (s *Scheduler) Tick(nowMs uint32) error {
	suppressTelemetry := s.haveDownlink && elapsedMs(s.lastDownlinkMs, nowMs) < s.Config.DownlinkSuppressMs

	if len(s.highPriority) > 0 {
		if wellFormed(s.highPriority) {
			result, err := s.Radio.Send(s.highPriority)
			switch result {
			case radio.TxOK:
				s.highPriority = nil
			case radio.TxBusy:
				// leave the slot; no retry bookkeeping at this layer.
			case radio.TxFail:
				log.Printf("airctl: high-priority TX failed: %v", err)
			}
		} else {
			// malformed: drop rather than retry forever on garbage.
			s.highPriority = nil
		}
		return nil
	}

	if suppressTelemetry {
		return nil
	}

	if len(s.telemetry) > 0 && elapsedMs(s.lastTelemTxMs, nowMs) >= s.Config.TelemetryPeriodMs {
		result, err := s.Radio.Send(s.telemetry)
		switch result {
		case radio.TxOK:
			s.telemetry = nil
			s.lastTelemTxMs = nowMs
		case radio.TxBusy:
			// keep the slot, try again next eligible tick.
		case radio.TxFail:
			log.Printf("airctl: telemetry TX failed: %v", err)
			// keep the slot per spec.md §4.5.
		}
	}
	return nil
}

func elapsedMs(then, now uint32) uint32 {
	return now - then
}
