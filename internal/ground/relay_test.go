// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ground

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fuellink/fuellink/internal/diag"
	"github.com/fuellink/fuellink/pkg/radio"
	"github.com/fuellink/fuellink/pkg/wire"
)

func TestRelay_TelemetryPrintsTelemLine(t *testing.T) {
	a, peer := radio.NewLoopbackPair()
	var out bytes.Buffer
	retry := NewRetryEngine(DefaultConfig(), a, &out)
	wd := NewWatchdog(DefaultConfig(), a)
	stats := diag.NewStatistics()
	r := NewRelay(a, retry, wd, &out, stats)

	telem := wire.Telemetry{TimestampMs: 42, TempC: [4]float32{10, 20}, PressurePa: 1000, HeaterPct: 50, ValvePct: 25}
	buf, _ := wire.Encode(wire.MsgTelemetry, 1, wire.EncodeTelemetry(telem))
	peer.Send(buf)

	if err := r.Tick(0); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !strings.Contains(out.String(), "[TELEM] t=42") {
		t.Errorf("output = %q, want a [TELEM] line", out.String())
	}
	if !r.HasTelemetry || r.LastTelemetry.TimestampMs != 42 {
		t.Errorf("LastTelemetry = %+v, want TimestampMs=42", r.LastTelemetry)
	}
	if stats.TotalFrames != 1 {
		t.Errorf("TotalFrames = %d, want 1", stats.TotalFrames)
	}
}

func TestRelay_AckPrintsAckLineAndMatchesPending(t *testing.T) {
	a, peer := radio.NewLoopbackPair()
	var out bytes.Buffer
	retry := NewRetryEngine(DefaultConfig(), a, &out)
	wd := NewWatchdog(DefaultConfig(), a)
	r := NewRelay(a, retry, wd, &out, nil)

	retry.Pending = PendingCommand{Active: true, MsgType: wire.MsgModeSwitch, Seq: 9, SentOnce: true}

	ackBuf, _ := wire.Encode(wire.MsgAck, 9, wire.EncodeAck(wire.Ack{AckedMsgType: wire.MsgModeSwitch, Status: wire.AckOK}))
	peer.Send(ackBuf)

	if err := r.Tick(0); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !strings.Contains(out.String(), "[ACK] for=0x10 status=0") {
		t.Errorf("output = %q, want an [ACK] line", out.String())
	}
	if retry.Pending.Active {
		t.Error("matching Ack should have deactivated the pending command")
	}
}

func TestRelay_NotifiesWatchdogOnAnyPacket(t *testing.T) {
	a, peer := radio.NewLoopbackPair()
	var out bytes.Buffer
	retry := NewRetryEngine(DefaultConfig(), a, &out)
	wd := NewWatchdog(DefaultConfig(), a)
	r := NewRelay(a, retry, wd, &out, nil)

	buf, _ := wire.Encode(wire.MsgHeartbeat, 1, nil)
	peer.Send(buf)

	if err := r.Tick(777); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !wd.everReceived || wd.lastPacketMs != 777 {
		t.Error("watchdog should be notified of any received packet, not just Ack/Telemetry")
	}
}
