// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ground

import (
	"fmt"
	"io"

	"github.com/fuellink/fuellink/pkg/radio"
	"github.com/fuellink/fuellink/pkg/wire"
)

// RetryEngine owns the single in-flight PendingCommand and drives its
// submit/retry/ack lifecycle exactly as spec.md §4.6 describes. Output
// lines match spec.md §6's required shell grammar verbatim so a host
// script can parse them.
type RetryEngine struct {
	Config Config
	Radio  radio.Radio
	Seq    *wire.SeqCounter
	Out    io.Writer

	Pending PendingCommand
}

// NewRetryEngine returns an engine with an empty pending slot.
func NewRetryEngine(cfg Config, r radio.Radio, out io.Writer) *RetryEngine {
	return &RetryEngine{Config: cfg, Radio: r, Seq: wire.NewSeqCounter(), Out: out}
}

// Submit encodes msgType/payload with the next sequence number, attempts
// one immediate radio TX, and installs a PendingCommand if msgType is in
// the ack-expecting set. Grounded on spec.md §4.6's "Command submission".
func (e *RetryEngine) Submit(msgType uint8, payload []byte, nowMs uint32) error {
	seq := e.Seq.Next()
	frame, err := wire.Encode(msgType, seq, payload)
	if err != nil {
		return err
	}

	result, sendErr := e.Radio.Send(frame)
	if !ackExpecting[msgType] {
		return sendErr
	}

	e.Pending = PendingCommand{Active: true, MsgType: msgType, Seq: seq, Frame: frame}
	switch result {
	case radio.TxOK, radio.TxFail:
		e.Pending.SentOnce = true
		e.Pending.LastSendMs = nowMs
	case radio.TxBusy:
		e.Pending.HasBusy = true
		e.Pending.BusySinceMs = nowMs
	}
	return sendErr
}

// Tick runs one iteration of the retry service (spec.md §4.6). It is a
// no-op when no command is pending.
func (e *RetryEngine) Tick(nowMs uint32) error {
	p := &e.Pending
	if !p.Active {
		return nil
	}

	if !p.SentOnce {
		return e.attempt(nowMs, false)
	}

	if elapsedMs(p.LastSendMs, nowMs) < e.Config.AckTimeoutMs {
		return nil
	}
	if p.Retry >= e.Config.MaxRetry {
		fmt.Fprintf(e.Out, "[CMD] FAIL: no ACK for msg=0x%02x seq=%d\n", p.MsgType, p.Seq)
		p.clear()
		return nil
	}
	return e.attempt(nowMs, true)
}

// attempt performs one radio TX for the pending command and applies the
// busy/retry bookkeeping spec.md §4.6 mandates. countsAsRetry is false for
// the very first transmission (it only sets sent_once) and true for every
// subsequent one.
func (e *RetryEngine) attempt(nowMs uint32, countsAsRetry bool) error {
	p := &e.Pending
	result, err := e.Radio.Send(p.Frame)

	switch result {
	case radio.TxBusy:
		if !p.HasBusy {
			p.HasBusy = true
			p.BusySinceMs = nowMs
		}
		if elapsedMs(p.BusySinceMs, nowMs) > e.Config.BusyWarnAfterMs &&
			(!p.HasWarned || elapsedMs(p.LastWarnMs, nowMs) >= e.Config.BusyWarnRepeatMs) {
			fmt.Fprintf(e.Out, "[CMD] WARNING: LoRa TX busy > 3s (busy does not count retry)\n")
			p.LastWarnMs = nowMs
			p.HasWarned = true
		}
		return err

	case radio.TxOK, radio.TxFail:
		p.HasBusy = false
		p.LastSendMs = nowMs
		if !p.SentOnce {
			p.SentOnce = true
		} else if countsAsRetry {
			p.Retry++
			fmt.Fprintf(e.Out, "[CMD] RETRY #%d msg=0x%02x seq=%d\n", p.Retry, p.MsgType, p.Seq)
		}
		return err
	}
	return err
}

// HandleAck matches an incoming Ack frame against the pending command
// (spec.md §4.6's "ACK matching"). Both OK and ERR statuses deactivate
// the pending command: a negative ack is still a terminal response.
func (e *RetryEngine) HandleAck(f wire.Frame) {
	p := &e.Pending
	if !p.Active {
		return
	}
	ack := wire.DecodeAck(f.Payload)
	if ack.AckedMsgType != p.MsgType || f.Seq != p.Seq {
		return
	}
	fmt.Fprintf(e.Out, "[CMD] ACK received for msg=0x%02x seq=%d status=%d\n", ack.AckedMsgType, f.Seq, ack.Status)
	p.clear()
}

func elapsedMs(then, now uint32) uint32 {
	return now - then
}
