// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package diag

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Direction distinguishes which side of a link a recorded entry crossed.
type Direction uint8

const (
	DirectionRx Direction = iota
	DirectionTx
)

func (d Direction) String() string {
	if d == DirectionTx {
		return "TX"
	}
	return "RX"
}

// Entry is one recorded frame crossing, keyed by the loop's own now_ms so
// a replay can reconstruct relative timing without relying on wall clock.
// Grounded on github.com/fxamacker/cbor/v2's use in pkg/fusain/cbor.go,
// reimagined here as a structured per-entry recorder instead of that
// package's array-encoded message decoder, since a session log wants a
// stable record shape rather than a generic wire-message envelope.
type Entry struct {
	Direction Direction `cbor:"1,keyasint"`
	NowMs     uint32    `cbor:"2,keyasint"`
	Raw       []byte    `cbor:"3,keyasint"`
}

// Recorder appends CBOR-encoded Entry records to an io.Writer, one
// self-delimiting CBOR value per call (the cbor stream decoder used by
// Replay relies on cbor.NewDecoder's own length-prefixed item boundaries,
// matching how a single os.File can be streamed).
type Recorder struct {
	w   io.Writer
	enc *cbor.Encoder
}

// NewRecorder wraps w for session recording.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w, enc: cbor.NewEncoder(w)}
}

// Record appends one entry.
func (r *Recorder) Record(dir Direction, nowMs uint32, raw []byte) error {
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return r.enc.Encode(Entry{Direction: dir, NowMs: nowMs, Raw: cp})
}

// Replay decodes every Entry from r in order, invoking fn for each, until
// EOF. Grounded in purpose on cmd/raw_log.go's continuous decode-and-print
// loop, replayed here against a recorded file instead of a live link.
func Replay(r io.Reader, fn func(Entry) error) error {
	dec := cbor.NewDecoder(r)
	for {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("diag: decode session entry: %w", err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}
