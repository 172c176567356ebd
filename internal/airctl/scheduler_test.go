// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package airctl

import (
	"testing"

	"github.com/fuellink/fuellink/pkg/radio"
	"github.com/fuellink/fuellink/pkg/wire"
)

func encodeFrame(t *testing.T, msgType, seq uint8, payload []byte) []byte {
	t.Helper()
	buf, err := wire.Encode(msgType, seq, payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buf
}

func TestScheduler_HighPriorityTakesPrecedence(t *testing.T) {
	a, b := radio.NewLoopbackPair()
	s := NewScheduler(DefaultConfig(), a)

	s.EnqueueTelemetry(encodeFrame(t, wire.MsgTelemetry, 1, wire.EncodeTelemetry(wire.Telemetry{})))
	s.EnqueueHighPriority(encodeFrame(t, wire.MsgAck, 2, wire.EncodeAck(wire.Ack{})))

	if err := s.Tick(0); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if s.highPriority != nil {
		t.Error("high-priority slot should be cleared after a successful TX")
	}
	if s.telemetry == nil {
		t.Error("telemetry slot should be untouched: high-priority took the only TX this tick")
	}

	pkt, ok, _ := b.Poll(0)
	if !ok || pkt.Data[0] != wire.Sync1 {
		t.Fatal("peer should have received the high-priority frame")
	}
}

func TestScheduler_BusyLeavesSlotIntact(t *testing.T) {
	a, _ := radio.NewLoopbackPair()
	a.InjectBusy(1)
	s := NewScheduler(DefaultConfig(), a)
	s.EnqueueHighPriority(encodeFrame(t, wire.MsgAck, 1, wire.EncodeAck(wire.Ack{})))

	if err := s.Tick(0); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if s.highPriority == nil {
		t.Error("BUSY must leave the high-priority slot intact for the next tick")
	}
}

func TestScheduler_FailLeavesSlotIntact(t *testing.T) {
	a, _ := radio.NewLoopbackPair()
	a.InjectFail(1)
	s := NewScheduler(DefaultConfig(), a)
	s.EnqueueTelemetry(encodeFrame(t, wire.MsgTelemetry, 1, wire.EncodeTelemetry(wire.Telemetry{})))

	if err := s.Tick(600); err != nil { // past the 500ms period, so the send is attempted
		t.Fatalf("Tick: %v", err)
	}
	if s.telemetry == nil {
		t.Error("FAIL must leave the telemetry slot intact")
	}
}

func TestScheduler_TelemetrySuppressedAfterRecentDownlink(t *testing.T) {
	a, b := radio.NewLoopbackPair()
	s := NewScheduler(DefaultConfig(), a)
	s.EnqueueTelemetry(encodeFrame(t, wire.MsgTelemetry, 1, wire.EncodeTelemetry(wire.Telemetry{})))
	s.NotifyDownlinkReceived(1000)

	if err := s.Tick(1050); err != nil { // 50ms < 80ms suppression window
		t.Fatalf("Tick: %v", err)
	}
	if s.telemetry == nil {
		t.Error("telemetry must be suppressed within the downlink suppression window")
	}
	if _, ok, _ := b.Poll(0); ok {
		t.Error("peer should not have received anything during suppression")
	}
}

func TestScheduler_TelemetryRespectsPeriod(t *testing.T) {
	a, _ := radio.NewLoopbackPair()
	s := NewScheduler(DefaultConfig(), a)
	s.EnqueueTelemetry(encodeFrame(t, wire.MsgTelemetry, 1, wire.EncodeTelemetry(wire.Telemetry{})))

	if err := s.Tick(600); err != nil { // >= 500ms period since lastTelemTxMs=0
		t.Fatalf("Tick: %v", err)
	}
	if s.telemetry != nil {
		t.Fatal("telemetry should transmit once the period has elapsed")
	}

	s.EnqueueTelemetry(encodeFrame(t, wire.MsgTelemetry, 2, wire.EncodeTelemetry(wire.Telemetry{})))
	if err := s.Tick(700); err != nil { // only 100ms since the last TX
		t.Fatalf("Tick: %v", err)
	}
	if s.telemetry == nil {
		t.Error("telemetry should not retransmit before the period elapses")
	}
}

func TestScheduler_MalformedHighPriorityDropped(t *testing.T) {
	a, _ := radio.NewLoopbackPair()
	s := NewScheduler(DefaultConfig(), a)
	s.EnqueueHighPriority([]byte{0x00, 0x00, 0x01})

	if err := s.Tick(0); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if s.highPriority != nil {
		t.Error("malformed high-priority frame should be dropped, not retried forever")
	}
}
