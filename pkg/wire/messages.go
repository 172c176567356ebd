// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wire

import (
	"encoding/binary"
	"math"
)

// Fixed payload lengths per message type, used both for encoding and by
// Validate (validate.go).
const (
	lenTelemetry  = 4 + 1 + 4*4 + 4 + 4 + 4 // timestamp, temp_count, temp_c[4], pressure, heater, valve
	lenModeSwitch = 1
	lenSetpoints  = 4 + 4 + 4 + 4 + 1
	lenManualCmd  = 1 + 4 + 4 + 4
	lenAck        = 2
	lenHeartbeat  = 0
)

// Telemetry is the MsgTelemetry payload (spec.md §3).
type Telemetry struct {
	TimestampMs uint32
	TempCount   uint8
	TempC       [4]float32
	PressurePa  float32
	HeaterPct   float32
	ValvePct    float32
}

// EncodeTelemetry packs a Telemetry payload.
func EncodeTelemetry(t Telemetry) []byte {
	buf := make([]byte, lenTelemetry)
	binary.LittleEndian.PutUint32(buf[0:4], t.TimestampMs)
	buf[4] = t.TempCount
	off := 5
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(t.TempC[i]))
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(t.PressurePa))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(t.HeaterPct))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(t.ValvePct))
	return buf
}

// DecodeTelemetry unpacks a Telemetry payload. Caller must have validated
// the length already (e.g. via Validate); DecodeTelemetry panics on a
// short buffer rather than silently misreading, since by the time decoding
// runs the length check has already happened at the message dispatch site.
func DecodeTelemetry(payload []byte) Telemetry {
	var t Telemetry
	t.TimestampMs = binary.LittleEndian.Uint32(payload[0:4])
	t.TempCount = payload[4]
	off := 5
	for i := 0; i < 4; i++ {
		t.TempC[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[off : off+4]))
		off += 4
	}
	t.PressurePa = math.Float32frombits(binary.LittleEndian.Uint32(payload[off : off+4]))
	off += 4
	t.HeaterPct = math.Float32frombits(binary.LittleEndian.Uint32(payload[off : off+4]))
	off += 4
	t.ValvePct = math.Float32frombits(binary.LittleEndian.Uint32(payload[off : off+4]))
	return t
}

// ModeSwitch is the MsgModeSwitch payload.
type ModeSwitch struct {
	Mode Mode
}

func EncodeModeSwitch(m ModeSwitch) []byte {
	return []byte{uint8(m.Mode)}
}

func DecodeModeSwitch(payload []byte) ModeSwitch {
	return ModeSwitch{Mode: Mode(payload[0])}
}

// Setpoints is the MsgSetpoints payload.
type Setpoints struct {
	TargetTempC       float32
	TargetPressurePa  float32
	TargetValvePct    float32
	TargetPumpTempC   float32
	EnableMask        uint8
}

func (s Setpoints) TempEnabled() bool  { return s.EnableMask&EnableTemp != 0 }
func (s Setpoints) PressEnabled() bool { return s.EnableMask&EnablePress != 0 }
func (s Setpoints) ValveEnabled() bool { return s.EnableMask&EnableValve != 0 }
func (s Setpoints) PumpEnabled() bool  { return s.EnableMask&EnablePump != 0 }

func EncodeSetpoints(s Setpoints) []byte {
	buf := make([]byte, lenSetpoints)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(s.TargetTempC))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(s.TargetPressurePa))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(s.TargetValvePct))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(s.TargetPumpTempC))
	buf[16] = s.EnableMask
	return buf
}

func DecodeSetpoints(payload []byte) Setpoints {
	return Setpoints{
		TargetTempC:      math.Float32frombits(binary.LittleEndian.Uint32(payload[0:4])),
		TargetPressurePa: math.Float32frombits(binary.LittleEndian.Uint32(payload[4:8])),
		TargetValvePct:   math.Float32frombits(binary.LittleEndian.Uint32(payload[8:12])),
		TargetPumpTempC:  math.Float32frombits(binary.LittleEndian.Uint32(payload[12:16])),
		EnableMask:       payload[16],
	}
}

// ManualCmd is the MsgManualCmd payload.
type ManualCmd struct {
	Flags     uint8
	HeaterPct float32
	ValvePct  float32
	PumpTempC float32
}

func (m ManualCmd) HasHeater() bool { return m.Flags&ManualFlagHeater != 0 }
func (m ManualCmd) HasValve() bool  { return m.Flags&ManualFlagValve != 0 }
func (m ManualCmd) HasPump() bool   { return m.Flags&ManualFlagPump != 0 }

func EncodeManualCmd(m ManualCmd) []byte {
	buf := make([]byte, lenManualCmd)
	buf[0] = m.Flags
	binary.LittleEndian.PutUint32(buf[1:5], math.Float32bits(m.HeaterPct))
	binary.LittleEndian.PutUint32(buf[5:9], math.Float32bits(m.ValvePct))
	binary.LittleEndian.PutUint32(buf[9:13], math.Float32bits(m.PumpTempC))
	return buf
}

func DecodeManualCmd(payload []byte) ManualCmd {
	return ManualCmd{
		Flags:     payload[0],
		HeaterPct: math.Float32frombits(binary.LittleEndian.Uint32(payload[1:5])),
		ValvePct:  math.Float32frombits(binary.LittleEndian.Uint32(payload[5:9])),
		PumpTempC: math.Float32frombits(binary.LittleEndian.Uint32(payload[9:13])),
	}
}

// Ack is the MsgAck payload.
type Ack struct {
	AckedMsgType uint8
	Status       uint8
}

func EncodeAck(a Ack) []byte {
	return []byte{a.AckedMsgType, a.Status}
}

func DecodeAck(payload []byte) Ack {
	return Ack{AckedMsgType: payload[0], Status: payload[1]}
}
