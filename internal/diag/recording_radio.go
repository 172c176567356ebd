// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package diag

import (
	"time"

	"github.com/fuellink/fuellink/pkg/radio"
)

// RecordingRadio wraps a radio.Radio, logging every transmitted and
// received packet's raw bytes to a Recorder before passing them through
// unchanged. It adds no protocol behavior of its own: Begin/Send/Poll
// delegate directly, so a relay wired to a RecordingRadio behaves
// identically to one wired to the underlying radio, just observed.
type RecordingRadio struct {
	radio.Radio
	Recorder *Recorder
	NowMs    func() uint32
}

// NewRecordingRadio wraps r, logging through rec using nowMs for each
// entry's timestamp.
func NewRecordingRadio(r radio.Radio, rec *Recorder, nowMs func() uint32) *RecordingRadio {
	return &RecordingRadio{Radio: r, Recorder: rec, NowMs: nowMs}
}

func (w *RecordingRadio) Send(data []byte) (radio.TxResult, error) {
	result, err := w.Radio.Send(data)
	if result == radio.TxOK {
		w.Recorder.Record(DirectionTx, w.NowMs(), data)
	}
	return result, err
}

func (w *RecordingRadio) Poll(timeout time.Duration) (radio.RxPacket, bool, error) {
	pkt, ok, err := w.Radio.Poll(timeout)
	if ok {
		w.Recorder.Record(DirectionRx, w.NowMs(), pkt.Data)
	}
	return pkt, ok, err
}
