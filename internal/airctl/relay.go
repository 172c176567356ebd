// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package airctl

import (
	"io"

	"github.com/fuellink/fuellink/pkg/radio"
	"github.com/fuellink/fuellink/pkg/wire"
)

const maxUARTBytesPerTick = 256

// downlinkWhitelist is the closed set of msg_types the relay will forward
// from radio to UART, per spec.md §4.5.
var downlinkWhitelist = map[uint8]bool{
	wire.MsgModeSwitch: true,
	wire.MsgManualCmd:  true,
	wire.MsgSetpoints:  true,
	wire.MsgHeartbeat:  true,
}

// UARTSink is the relay's view of the controller-facing UART: a duplex
// byte stream whose write side exposes how much contiguous room remains,
// so the relay can implement the spec's non-blocking drop-on-congestion
// policy instead of spinning or blocking.
type UARTSink interface {
	io.Reader
	io.Writer
	AvailableWrite() int
}

// UnboundedUART adapts a plain io.ReadWriter (e.g. a real serial port,
// whose OS-level buffering makes blocking writes rare enough to treat as
// always-available) into a UARTSink that never reports congestion.
type UnboundedUART struct {
	io.Reader
	io.Writer
}

func (UnboundedUART) AvailableWrite() int { return 1 << 30 }

// Relay is the air relay's per-tick dataplane: UART -> scheduler slots,
// and whitelisted radio downlink -> UART. Grounded on spec.md §4.5 and,
// in loop structure, on cmd/error_detection.go's packet-processing loop.
type Relay struct {
	Config    Config
	Scheduler *Scheduler
	Radio     radio.Radio
	UART      UARTSink

	RawSniff bool
	SniffOut io.Writer

	DropCount int

	uplinkParser   *wire.Parser
	downlinkParser *wire.Parser
	readBuf        [maxUARTBytesPerTick]byte
}

// NewRelay wires a Relay around an already-constructed Scheduler.
func NewRelay(cfg Config, sched *Scheduler, r radio.Radio, uart UARTSink) *Relay {
	return &Relay{
		Config:         cfg,
		Scheduler:      sched,
		Radio:          r,
		UART:           uart,
		uplinkParser:   wire.NewParser(),
		downlinkParser: wire.NewParser(),
	}
}

// Tick drains UART into the scheduler's TX slots, then services one
// downlink radio packet, then lets the scheduler attempt a TX. This
// ordering (spec.md §5) biases the scheduler against transmitting
// immediately after a downlink just arrived.
func (r *Relay) Tick(nowMs uint32) error {
	if err := r.drainUART(nowMs); err != nil {
		return err
	}
	if err := r.serviceDownlink(nowMs); err != nil {
		return err
	}
	return r.Scheduler.Tick(nowMs)
}

func (r *Relay) drainUART(nowMs uint32) error {
	n, err := r.UART.Read(r.readBuf[:])
	if err != nil && err != io.EOF {
		return err
	}
	for i := 0; i < n; i++ {
		frame := r.uplinkParser.Feed(r.readBuf[i])
		if frame == nil {
			continue
		}
		r.enqueueUplink(frame.Clone())
	}
	return nil
}

// enqueueUplink routes a controller-originated frame into the scheduler's
// two TX slots; anything else the controller might emit is dropped (the
// controller's own outbound grammar is only Telemetry and Ack).
func (r *Relay) enqueueUplink(f wire.Frame) {
	buf, err := wire.Encode(f.MsgType, f.Seq, f.Payload)
	if err != nil {
		return
	}
	switch f.MsgType {
	case wire.MsgTelemetry:
		r.Scheduler.EnqueueTelemetry(buf)
	case wire.MsgAck:
		r.Scheduler.EnqueueHighPriority(buf)
	}
}

// serviceDownlink polls the radio for at most one packet (spec.md §5) and,
// unless raw-sniff mode is active, forwards any whitelisted frame within
// it to UART.
func (r *Relay) serviceDownlink(nowMs uint32) error {
	pkt, ok, err := r.Radio.Poll(0)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	r.Scheduler.NotifyDownlinkReceived(nowMs)

	if r.RawSniff {
		if r.SniffOut != nil {
			r.SniffOut.Write(pkt.Data)
		}
		return nil
	}

	for _, b := range pkt.Data {
		frame := r.downlinkParser.Feed(b)
		if frame == nil {
			continue
		}
		r.forwardDownlink(frame.Clone())
	}
	return nil
}

func (r *Relay) forwardDownlink(f wire.Frame) {
	if !downlinkWhitelist[f.MsgType] {
		return
	}
	length, known := wire.ExpectedLength(f.MsgType)
	if !known || len(f.Payload) != length {
		return
	}

	buf, err := wire.Encode(f.MsgType, f.Seq, f.Payload)
	if err != nil {
		return
	}
	if r.UART.AvailableWrite() < len(buf) {
		r.DropCount++
		return
	}
	r.UART.Write(buf)
}
