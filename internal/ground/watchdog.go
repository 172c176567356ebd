// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ground

import "github.com/fuellink/fuellink/pkg/radio"

// Watchdog self-heals a radio that has gone quiet: if at least one packet
// has ever been received and none has arrived for RxWatchdogMs, and the
// last self-heal attempt was at least ReinitCooldownMs ago, it
// reinitializes the radio. Grounded on spec.md §4.6's RX watchdog rule.
type Watchdog struct {
	Config Config
	Radio  radio.Radio

	everReceived  bool
	lastPacketMs  uint32
	lastReinitMs  uint32
	haveReinitted bool
}

// NewWatchdog returns a watchdog that will not fire until at least one
// packet has been observed via NotifyPacketReceived.
func NewWatchdog(cfg Config, r radio.Radio) *Watchdog {
	return &Watchdog{Config: cfg, Radio: r}
}

// NotifyPacketReceived records that a packet just arrived, resetting the
// quiet-link timer.
func (w *Watchdog) NotifyPacketReceived(nowMs uint32) {
	w.everReceived = true
	w.lastPacketMs = nowMs
}

// Alive reports whether the link is currently within the quiet-link
// threshold: a packet has been received at least once and not more than
// RxWatchdogMs ago. Exposed for the status TUI/websocket fan-out, which
// only ever read this snapshot, never the watchdog's internal timers.
func (w *Watchdog) Alive(nowMs uint32) bool {
	return w.everReceived && elapsedMs(w.lastPacketMs, nowMs) < w.Config.RxWatchdogMs
}

// Tick checks the quiet-link condition and self-heals if it holds.
func (w *Watchdog) Tick(nowMs uint32) error {
	if !w.everReceived {
		return nil
	}
	quiet := elapsedMs(w.lastPacketMs, nowMs) >= w.Config.RxWatchdogMs
	if !quiet {
		return nil
	}
	if w.haveReinitted && elapsedMs(w.lastReinitMs, nowMs) < w.Config.ReinitCooldownMs {
		return nil
	}

	if err := w.Radio.Begin(); err != nil {
		return err
	}
	w.lastReinitMs = nowMs
	w.haveReinitted = true
	// reset the reference point to avoid immediate re-trigger next tick.
	w.lastPacketMs = nowMs
	return nil
}
