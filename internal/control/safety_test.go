// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package control

import (
	"testing"

	"github.com/fuellink/fuellink/pkg/wire"
)

func TestApplyInterlock_OvertemperatureForcesSafe(t *testing.T) {
	state := NewControlState()
	state.Mode = wire.ModeManual
	state.LinkAlive = true
	state.LastLinkHeartbeatMs = 1000

	telem := SensorSample{TempCount: 1, TempC: [4]float32{85.0}}
	out := Outputs{HeaterPct: 80}

	ApplyInterlock(state, telem, &out, 1000, DefaultConfig())

	if state.Mode != wire.ModeSafe {
		t.Errorf("Mode = %v, want SAFE", state.Mode)
	}
	if out != (Outputs{}) {
		t.Errorf("Outputs = %+v, want zero after SAFE clamp", out)
	}
}

func TestApplyInterlock_NaNReadingIgnored(t *testing.T) {
	state := NewControlState()
	state.Mode = wire.ModeManual
	state.LinkAlive = true
	state.LastLinkHeartbeatMs = 1000

	nan := float32(0)
	nan = nan / nan
	telem := SensorSample{TempCount: 1, TempC: [4]float32{nan}}
	out := Outputs{HeaterPct: 50}

	ApplyInterlock(state, telem, &out, 1000, DefaultConfig())

	if state.Mode != wire.ModeManual {
		t.Errorf("Mode = %v, want unchanged MANUAL (NaN must not trip overtemp)", state.Mode)
	}
}

func TestApplyInterlock_LinkTimeoutForcesSafe(t *testing.T) {
	state := NewControlState()
	state.Mode = wire.ModeAuto
	state.LinkAlive = true
	state.LastLinkHeartbeatMs = 0

	out := Outputs{}
	ApplyInterlock(state, SensorSample{}, &out, 2000, DefaultConfig()) // 2000ms > 1500ms timeout

	if state.LinkAlive {
		t.Error("LinkAlive should be false after timeout")
	}
	if state.Mode != wire.ModeSafe {
		t.Errorf("Mode = %v, want SAFE after link timeout", state.Mode)
	}
}

func TestApplyInterlock_LinkStillAliveWithinTimeout(t *testing.T) {
	state := NewControlState()
	state.Mode = wire.ModeAuto
	state.LinkAlive = true
	state.LastLinkHeartbeatMs = 0

	out := Outputs{}
	ApplyInterlock(state, SensorSample{}, &out, 1000, DefaultConfig()) // within 1500ms

	if !state.LinkAlive {
		t.Error("LinkAlive should remain true within the timeout window")
	}
	if state.Mode != wire.ModeAuto {
		t.Errorf("Mode = %v, want unchanged AUTO", state.Mode)
	}
}

func TestApplyInterlock_SafeAlwaysZeroed(t *testing.T) {
	state := NewControlState()
	state.Mode = wire.ModeSafe
	state.LinkAlive = true
	state.LastLinkHeartbeatMs = 1000

	out := Outputs{HeaterPct: 1, ValvePct: 1, PumpTempC: 1}
	ApplyInterlock(state, SensorSample{}, &out, 1000, DefaultConfig())

	if out != (Outputs{}) {
		t.Errorf("Outputs = %+v, want zero in SAFE", out)
	}
}
