// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package control

import (
	"math"

	"github.com/fuellink/fuellink/pkg/wire"
)

func isNonFinite(v float32) bool {
	f := float64(v)
	return math.IsNaN(f) || math.IsInf(f, 0)
}

// AutoController is the AUTO-mode strategy hook. Its contract is a pure
// function: it MUST NOT mutate state. Grounded on ModeManager::compute's
// delegation to auto_ctrl_.compute() (ModeManager.cpp), which the source
// leaves as a placeholder — this module keeps that same shape rather than
// inventing a control algorithm the spec doesn't define.
type AutoController interface {
	Compute(state ControlState, telem SensorSample) Outputs
}

// ZeroAutoController is the reference placeholder: it always commands
// zero outputs, exactly like the original firmware's unimplemented
// auto_ctrl_.
type ZeroAutoController struct{}

func (ZeroAutoController) Compute(ControlState, SensorSample) Outputs {
	return Outputs{}
}

// clampPct clamps v to [0, 100], mapping non-finite input to 0. Grounded
// on the clampPct() helper shared by ValveDriver.cpp and HeaterDriver.cpp.
func clampPct(v float32) float32 {
	if isNonFinite(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ComputeOutputs applies the mode policy (spec.md §4.2) to produce this
// tick's pre-safety Outputs. Grounded on ModeManager::compute.
func ComputeOutputs(state *ControlState, telem SensorSample, auto AutoController) Outputs {
	switch state.Mode {
	case wire.ModeSafe:
		return Outputs{}

	case wire.ModeManual:
		var out Outputs
		if state.ManualCmd.HasHeaterCmd {
			out.HeaterPct = clampPct(state.ManualCmd.HeaterPct)
		}
		if state.ManualCmd.HasValveCmd {
			out.ValvePct = clampPct(state.ManualCmd.ValvePct)
		}
		if state.ManualCmd.HasPumpTempCmd {
			// pump_T is passed through unclamped per spec.md §4.2.
			out.PumpTempC = state.ManualCmd.PumpTempC
		}
		return out

	case wire.ModeAuto:
		return auto.Compute(*state, telem)

	default:
		return Outputs{}
	}
}
