// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ground

import (
	"fmt"
	"io"

	"github.com/fuellink/fuellink/internal/diag"
	"github.com/fuellink/fuellink/pkg/radio"
	"github.com/fuellink/fuellink/pkg/wire"
)

// Relay is the ground relay's radio-facing dataplane: it polls the radio
// for uplink traffic (Telemetry, Ack) and prints the exact line formats
// spec.md §6 mandates, feeding Ack frames to the RetryEngine and every
// received packet to the Watchdog. Command submission flows the other
// way, through RetryEngine.Submit, driven by Shell.
type Relay struct {
	Radio    radio.Radio
	Retry    *RetryEngine
	Watchdog *Watchdog
	Out      io.Writer
	Stats    *diag.Statistics

	// LastTelemetry is the most recently decoded sample, exposed for the
	// status TUI; it is a read-only snapshot, never mutated by a reader.
	LastTelemetry wire.Telemetry
	HasTelemetry  bool

	// Bridge, if non-nil, receives a copy of every decoded event for
	// fan-out to websocket subscribers. Optional: nil means no bridge.
	Bridge *WSBridge

	downParser *wire.Parser
}

// NewRelay wires a Relay around already-constructed collaborators.
func NewRelay(r radio.Radio, retry *RetryEngine, wd *Watchdog, out io.Writer, stats *diag.Statistics) *Relay {
	return &Relay{Radio: r, Retry: retry, Watchdog: wd, Out: out, Stats: stats, downParser: wire.NewParser()}
}

// Tick polls one radio packet, dispatches every frame within it, then
// runs the retry service and the watchdog, in that order (spec.md §5:
// "radio RX, including Ack matching, precedes retry service").
func (r *Relay) Tick(nowMs uint32) error {
	pkt, ok, err := r.Radio.Poll(0)
	if err != nil {
		return err
	}
	if ok {
		r.Watchdog.NotifyPacketReceived(nowMs)
		for _, b := range pkt.Data {
			frame := r.downParser.Feed(b)
			if frame == nil {
				continue
			}
			r.handleFrame(frame.Clone())
		}
	}

	if err := r.Retry.Tick(nowMs); err != nil {
		return err
	}
	return r.Watchdog.Tick(nowMs)
}

func (r *Relay) handleFrame(f wire.Frame) {
	if r.Stats != nil {
		r.Stats.RecordFrame(f, wire.Validate(f.MsgType, f.Payload))
	}

	switch f.MsgType {
	case wire.MsgTelemetry:
		length, known := wire.ExpectedLength(wire.MsgTelemetry)
		if !known || len(f.Payload) != length {
			return
		}
		t := wire.DecodeTelemetry(f.Payload)
		r.LastTelemetry = t
		r.HasTelemetry = true
		fmt.Fprintf(r.Out, "[TELEM] t=%d T0=%.2f T1=%.2f P(Pa)=%.2f heater=%%=%.2f valve=%%=%.2f\n",
			t.TimestampMs, t.TempC[0], t.TempC[1], t.PressurePa, t.HeaterPct, t.ValvePct)
		if r.Bridge != nil {
			r.Bridge.Publish(Event{Kind: "telemetry", Telemetry: &t})
		}

	case wire.MsgAck:
		if len(f.Payload) != 2 {
			return
		}
		a := wire.DecodeAck(f.Payload)
		fmt.Fprintf(r.Out, "[ACK] for=0x%02x status=%d\n", a.AckedMsgType, a.Status)
		r.Retry.HandleAck(f)
		if r.Bridge != nil {
			r.Bridge.Publish(Event{Kind: "ack", Ack: &a})
		}
	}
}
