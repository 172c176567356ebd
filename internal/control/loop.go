// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package control

import (
	"io"

	"github.com/fuellink/fuellink/pkg/wire"
)

// maxUARTBytesPerTick bounds per-tick UART drain work (spec.md §5).
const maxUARTBytesPerTick = 256

// SensorSource is the external collaborator that reports plant state.
// Non-finite temperature values are passed through as-is; the safety
// stage decides what to do with them.
type SensorSource interface {
	Sample(nowMs uint32) SensorSample
}

// Node is the controller's single-threaded cooperative loop, holding all
// of its owned state. Constructed once at start and ticked repeatedly by
// the caller; there is no internal goroutine or hidden clock read.
//
// Grounded on spec.md §4.2's six-step tick, reusing ControlState.h /
// ModeManager.cpp / SafetyManager.cpp / ValveDriver.cpp / HeaterDriver.cpp
// for the behavior of each step.
type Node struct {
	State  *ControlState
	Config Config

	Auto     AutoController
	Sensor   SensorSource
	Actuator ActuatorSink

	Valve  *Valve
	Heater *Heater

	UART   io.ReadWriter
	parser *wire.Parser
	outSeq *wire.SeqCounter

	lastTelemetryTxMs uint32
	readBuf           [maxUARTBytesPerTick]byte
}

// NewNode wires up a Node ready to tick. nowMs establishes the valve's
// initial cycle origin and the telemetry-TX baseline.
func NewNode(cfg Config, auto AutoController, sensor SensorSource, actuator ActuatorSink, uart io.ReadWriter, nowMs uint32) *Node {
	if auto == nil {
		auto = ZeroAutoController{}
	}
	return &Node{
		State:             NewControlState(),
		Config:            cfg,
		Auto:              auto,
		Sensor:            sensor,
		Actuator:          actuator,
		Valve:             NewValve(cfg.ValveCycleMs, nowMs),
		Heater:            &Heater{},
		UART:              uart,
		parser:            wire.NewParser(),
		outSeq:            wire.NewSeqCounter(),
		lastTelemetryTxMs: nowMs,
	}
}

// Tick runs one full iteration: link poll, sample, compute, safety clamp,
// apply, telemetry TX, in that strict order.
func (n *Node) Tick(nowMs uint32) error {
	if err := n.linkPoll(nowMs); err != nil {
		return err
	}

	telem := n.Sensor.Sample(nowMs)

	out := ComputeOutputs(n.State, telem, n.Auto)
	ApplyInterlock(n.State, telem, &out, nowMs, n.Config)
	n.apply(out, nowMs)
	return n.maybeSendTelemetry(telem, nowMs)
}

func (n *Node) linkPoll(nowMs uint32) error {
	nRead, err := n.UART.Read(n.readBuf[:])
	if err != nil && err != io.EOF {
		return err
	}
	for i := 0; i < nRead; i++ {
		frame := n.parser.Feed(n.readBuf[i])
		if frame == nil {
			continue
		}
		if err := n.dispatch(frame.Clone(), nowMs); err != nil {
			return err
		}
	}
	return nil
}

// dispatch applies one decoded frame to ControlState (spec.md §4.2 step 1).
func (n *Node) dispatch(f wire.Frame, nowMs uint32) error {
	n.State.LastCmdMs = nowMs
	n.State.LinkAlive = true
	n.State.LastLinkHeartbeatMs = nowMs

	length, known := wire.ExpectedLength(f.MsgType)
	if !known {
		// unknown msg_type: silently ignored, no Ack, to avoid feedback
		// loops with the ground relay's retry engine.
		return nil
	}
	if len(f.Payload) != length {
		return n.sendAck(f.MsgType, f.Seq, wire.AckErr)
	}

	switch f.MsgType {
	case wire.MsgModeSwitch:
		ms := wire.DecodeModeSwitch(f.Payload)
		n.State.Mode = ms.Mode
		return n.sendAck(f.MsgType, f.Seq, wire.AckOK)

	case wire.MsgSetpoints:
		sp := wire.DecodeSetpoints(f.Payload)
		n.State.Setpoints = Setpoints{
			TargetTempC:      sp.TargetTempC,
			TargetPressurePa: sp.TargetPressurePa,
			TargetValvePct:   sp.TargetValvePct,
			TargetPumpTempC:  sp.TargetPumpTempC,
			EnableTemp:       sp.TempEnabled(),
			EnablePressure:   sp.PressEnabled(),
			EnableValve:      sp.ValveEnabled(),
			EnablePump:       sp.PumpEnabled(),
		}
		n.State.LastSetpointMs = nowMs
		return n.sendAck(f.MsgType, f.Seq, wire.AckOK)

	case wire.MsgManualCmd:
		mc := wire.DecodeManualCmd(f.Payload)
		n.State.ManualCmd = ManualCmd{
			HasHeaterCmd:   mc.HasHeater(),
			HeaterPct:      mc.HeaterPct,
			HasValveCmd:    mc.HasValve(),
			ValvePct:       mc.ValvePct,
			HasPumpTempCmd: mc.HasPump(),
			PumpTempC:      mc.PumpTempC,
		}
		n.State.LastManualMs = nowMs
		return n.sendAck(f.MsgType, f.Seq, wire.AckOK)

	case wire.MsgHeartbeat:
		// silent: liveness was already refreshed above.
		return nil

	default:
		// Telemetry/Ack arriving at the controller are not part of its
		// inbound grammar; ignore rather than guess at intent.
		return nil
	}
}

// sendAck replies with the same sequence number as the triggering frame,
// since the ground relay's retry engine matches on (msg_type, seq), not
// on whatever sequence numbering the controller itself would otherwise
// assign outgoing frames.
func (n *Node) sendAck(ackedMsgType, seq uint8, status uint8) error {
	payload := wire.EncodeAck(wire.Ack{AckedMsgType: ackedMsgType, Status: status})
	buf, err := wire.Encode(wire.MsgAck, seq, payload)
	if err != nil {
		return err
	}
	_, err = n.UART.Write(buf)
	return err
}

func (n *Node) apply(out Outputs, nowMs uint32) {
	valveHigh := n.Valve.Decide(out.ValvePct, nowMs)
	heaterDuty := n.Heater.Decide(out.HeaterPct)

	n.Actuator.SetValve(valveHigh)
	n.Actuator.SetHeaterDuty(heaterDuty)

	n.State.LastAppliedOutputs = Outputs{
		HeaterPct: n.Heater.LastPowerPct(),
		ValvePct:  n.Valve.LastOpeningPct(),
		PumpTempC: out.PumpTempC,
	}
}

func (n *Node) maybeSendTelemetry(telem SensorSample, nowMs uint32) error {
	if elapsedMs(n.lastTelemetryTxMs, nowMs) < n.Config.TelemetryPeriodMs {
		return nil
	}

	t := wire.Telemetry{
		TimestampMs: telem.TimestampMs,
		TempCount:   telem.TempCount,
		TempC:       telem.TempC,
		PressurePa:  telem.PressurePa,
		HeaterPct:   n.State.LastAppliedOutputs.HeaterPct,
		ValvePct:    n.State.LastAppliedOutputs.ValvePct,
	}
	buf, err := wire.Encode(wire.MsgTelemetry, n.outSeq.Next(), wire.EncodeTelemetry(t))
	if err != nil {
		return err
	}
	if _, err := n.UART.Write(buf); err != nil {
		return err
	}
	n.lastTelemetryTxMs = nowMs
	return nil
}
