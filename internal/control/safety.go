// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package control

import "github.com/fuellink/fuellink/pkg/wire"

// ApplyInterlock runs the safety rules in the order spec.md §4.3 mandates
// and may force state.Mode to SAFE. It runs after mode compute so a
// MANUAL command can never evade the interlock by being evaluated last.
//
// Grounded on SafetyManager::checkAndClamp, generalized from the
// original's single-channel (temp_c[0]) check to all temp_count channels
// per spec.md's explicit broadening of that rule.
func ApplyInterlock(state *ControlState, telem SensorSample, out *Outputs, nowMs uint32, cfg Config) {
	// Link timeout.
	if state.LinkAlive && elapsedMs(state.LastLinkHeartbeatMs, nowMs) > cfg.LinkTimeoutMs {
		state.LinkAlive = false
	}
	if !state.LinkAlive {
		state.Mode = wire.ModeSafe
	}

	// Overtemperature. NaN readings are ignored for this rule; only
	// finite values can trip it.
	for i := 0; i < int(telem.TempCount) && i < len(telem.TempC); i++ {
		t := telem.TempC[i]
		if isNonFinite(t) {
			continue
		}
		if t > cfg.MaxTempC {
			state.Mode = wire.ModeSafe
			break
		}
	}

	// SAFE output clamp.
	if state.Mode == wire.ModeSafe {
		*out = Outputs{}
	}
}

// elapsedMs computes now-then modulo 2^32, tolerating millisecond-counter
// wraparound (spec.md's "Time source" design note).
func elapsedMs(then, now uint32) uint32 {
	return now - then
}
