// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package control

import (
	"testing"

	"github.com/fuellink/fuellink/pkg/wire"
)

func TestComputeOutputs_SafeIsAlwaysZero(t *testing.T) {
	state := NewControlState()
	state.Mode = wire.ModeSafe
	state.ManualCmd = ManualCmd{HasHeaterCmd: true, HeaterPct: 99}

	out := ComputeOutputs(state, SensorSample{}, ZeroAutoController{})
	if out != (Outputs{}) {
		t.Errorf("SAFE outputs = %+v, want zero", out)
	}
}

func TestComputeOutputs_ManualOnlySetsFlaggedFields(t *testing.T) {
	state := NewControlState()
	state.Mode = wire.ModeManual
	state.ManualCmd = ManualCmd{
		HasHeaterCmd: true, HeaterPct: 60,
		HasValveCmd: false, ValvePct: 40, // no flag: must stay 0
	}

	out := ComputeOutputs(state, SensorSample{}, ZeroAutoController{})
	if out.HeaterPct != 60 {
		t.Errorf("HeaterPct = %v, want 60", out.HeaterPct)
	}
	if out.ValvePct != 0 {
		t.Errorf("ValvePct = %v, want 0 (no presence flag)", out.ValvePct)
	}
}

func TestComputeOutputs_ManualClampsPercentFields(t *testing.T) {
	state := NewControlState()
	state.Mode = wire.ModeManual
	state.ManualCmd = ManualCmd{HasHeaterCmd: true, HeaterPct: 150, HasValveCmd: true, ValvePct: -10}

	out := ComputeOutputs(state, SensorSample{}, ZeroAutoController{})
	if out.HeaterPct != 100 {
		t.Errorf("HeaterPct = %v, want clamped to 100", out.HeaterPct)
	}
	if out.ValvePct != 0 {
		t.Errorf("ValvePct = %v, want clamped to 0", out.ValvePct)
	}
}

func TestComputeOutputs_ManualPumpTempPassesThroughUnclamped(t *testing.T) {
	state := NewControlState()
	state.Mode = wire.ModeManual
	state.ManualCmd = ManualCmd{HasPumpTempCmd: true, PumpTempC: 500}

	out := ComputeOutputs(state, SensorSample{}, ZeroAutoController{})
	if out.PumpTempC != 500 {
		t.Errorf("PumpTempC = %v, want 500 (unclamped)", out.PumpTempC)
	}
}

type recordingAuto struct {
	out   Outputs
	calls int
}

func (r *recordingAuto) Compute(ControlState, SensorSample) Outputs {
	r.calls++
	return r.out
}

func TestComputeOutputs_AutoDelegates(t *testing.T) {
	state := NewControlState()
	state.Mode = wire.ModeAuto
	auto := &recordingAuto{out: Outputs{HeaterPct: 42}}

	out := ComputeOutputs(state, SensorSample{}, auto)
	if auto.calls != 1 {
		t.Fatalf("expected AutoController.Compute to be called once, got %d", auto.calls)
	}
	if out.HeaterPct != 42 {
		t.Errorf("HeaterPct = %v, want 42", out.HeaterPct)
	}
}
