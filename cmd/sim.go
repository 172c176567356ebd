// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"math"

	"github.com/fuellink/fuellink/internal/control"
)

// simSensor is the reference SensorSource used when no real RTD/ADC
// hardware is wired: it synthesizes a slowly-varying two-channel
// temperature and pressure reading so the controller loop is runnable and
// testable without a plant. Register-level sensor drivers are out of
// scope; this stands in for "whatever produces a SensorSample" behind the
// SensorSource boundary.
type simSensor struct {
	baseTempC    float32
	basePressure float32
	startMs      uint32
	haveStart    bool
}

func newSimSensor() *simSensor {
	return &simSensor{baseTempC: 20, basePressure: 101325}
}

func (s *simSensor) Sample(nowMs uint32) control.SensorSample {
	if !s.haveStart {
		s.startMs = nowMs
		s.haveStart = true
	}
	t := float64(nowMs-s.startMs) / 1000.0
	wobble := float32(5 * math.Sin(t/10))

	return control.SensorSample{
		TimestampMs: nowMs,
		TempCount:   2,
		TempC:       [4]float32{s.baseTempC + wobble, s.baseTempC + wobble/2},
		PressurePa:  s.basePressure,
	}
}

// recordingActuator is the reference ActuatorSink: it simply remembers the
// most recent commanded state for inspection, matching no real GPIO pin.
type recordingActuator struct {
	ValveHigh  bool
	HeaterDuty uint8
}

func (a *recordingActuator) SetValve(high bool)         { a.ValveHigh = high }
func (a *recordingActuator) SetHeaterDuty(duty8 uint8)  { a.HeaterDuty = duty8 }
