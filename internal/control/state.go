// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package control implements the field controller's node: mode state
// machine, safety interlock, and the time-proportional/PWM actuator
// drivers, all built around a single owned ControlState passed by
// pointer through the loop rather than the process-wide singletons the
// original firmware used (grounded on ControlState.h from
// Nano33BLE_Controller, generalized to a language with no globals).
package control

import "github.com/fuellink/fuellink/pkg/wire"

// Setpoints is the last-validated AUTO-mode target set, mirroring
// Proto::Setpoints (Messages.h) with the enable flags as booleans instead
// of a wire bitmask; Node.dispatch (loop.go) handles the bitmask
// translation at the wire boundary.
type Setpoints struct {
	TargetTempC      float32
	TargetPressurePa float32
	TargetValvePct   float32
	TargetPumpTempC  float32
	EnableTemp       bool
	EnablePressure   bool
	EnableValve      bool
	EnablePump       bool
}

// ManualCmd is the last-validated MANUAL-mode command, mirroring
// Proto::ManualCmd: each actuator field only takes effect if its presence
// flag is set. Each accepted command replaces the previous one whole, so
// a field a partial command leaves unflagged is driven to zero.
type ManualCmd struct {
	HasHeaterCmd bool
	HeaterPct    float32

	HasValveCmd bool
	ValvePct    float32

	HasPumpTempCmd bool
	PumpTempC      float32

	CmdSeq uint32
}

// Outputs is what the mode policy computed for this tick, before or after
// the safety clamp depending on where it's read from.
type Outputs struct {
	HeaterPct float32
	ValvePct  float32
	PumpTempC float32
}

// SensorSample is one tick's fresh reading from the sensor collaborator.
// Non-finite temperature values are passed through unmodified; the safety
// stage is what decides what to do about them.
type SensorSample struct {
	TimestampMs uint32
	TempCount   uint8
	TempC       [4]float32
	PressurePa  float32
}

// ControlState is the controller's single owned piece of mutable state.
// Constructed once at node start and threaded through every tick by
// pointer.
type ControlState struct {
	Mode      wire.Mode
	Setpoints Setpoints
	ManualCmd ManualCmd

	LastCmdMs            uint32
	LastSetpointMs       uint32
	LastManualMs         uint32
	LastLinkHeartbeatMs  uint32
	LinkAlive            bool

	// LastAppliedOutputs holds the post-safety-clamp values most recently
	// handed to the actuators, which spec.md §4.2 requires telemetry to
	// report instead of the raw commanded values.
	LastAppliedOutputs Outputs
}

// NewControlState returns a state initialized to the mandated boot
// condition: SAFE mode, no link, zero everything else.
func NewControlState() *ControlState {
	s := &ControlState{}
	s.Reset()
	return s
}

// Reset restores the boot condition. Grounded on ControlState::reset()
// (ControlState.h).
func (s *ControlState) Reset() {
	s.Mode = wire.ModeSafe
	s.Setpoints = Setpoints{}
	s.ManualCmd = ManualCmd{}
	s.LastCmdMs = 0
	s.LastSetpointMs = 0
	s.LastManualMs = 0
	s.LinkAlive = false
	s.LastLinkHeartbeatMs = 0
	s.LastAppliedOutputs = Outputs{}
}
