// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wire

import "fmt"

// Frame is a decoded protocol frame. Parser.Feed hands back a pointer into
// its own storage, valid only until the next Feed call that starts a new
// frame; callers that need to keep a Frame past that point must copy it
// (Frame.Clone), since Go offers no borrow-checked alternative to the
// copy-at-emit discipline the spec recommends for GC'd languages.
type Frame struct {
	MsgType uint8
	Seq     uint8
	Payload []byte
}

// Clone returns a Frame with its own payload backing array, safe to retain
// across subsequent Feed calls.
func (f Frame) Clone() Frame {
	p := make([]byte, len(f.Payload))
	copy(p, f.Payload)
	return Frame{MsgType: f.MsgType, Seq: f.Seq, Payload: p}
}

// Encode builds a complete wire frame: sync1, sync2, length, msg_type, seq,
// payload, crc_lo, crc_hi. length = len(payload) + 4 and must land in
// [minLength, maxLength] (i.e. payload must not exceed MaxPayload).
func Encode(msgType, seq uint8, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("wire: payload too large: %d bytes (max %d)", len(payload), MaxPayload)
	}

	length := uint8(len(payload) + 4)
	body := make([]byte, 0, 1+2+len(payload))
	body = append(body, length, msgType, seq)
	body = append(body, payload...)

	crc := CalculateCRC(body)

	out := make([]byte, 0, 2+len(body)+2)
	out = append(out, Sync1, Sync2)
	out = append(out, body...)
	out = append(out, byte(crc&0xFF), byte(crc>>8))
	return out, nil
}

// Parser implements the resumable streaming frame decoder described in
// spec.md §4.1: WAIT_SYNC1 -> WAIT_SYNC2 -> WAIT_LEN -> WAIT_BODY -> emit.
// Any deviation (bad sync2, out-of-range length, CRC mismatch) resets to
// WAIT_SYNC1 without emitting and without any error surface — framing and
// CRC failures are silent by design (spec.md §7).
type Parser struct {
	state   int
	length  uint8
	body    []byte // msg_type, seq, payload, crc_lo, crc_hi
	bodyPos int
	frame   Frame
}

// NewParser returns a ready-to-feed parser.
func NewParser() *Parser {
	p := &Parser{}
	p.reset()
	return p
}

func (p *Parser) reset() {
	p.state = stateWaitSync1
	p.length = 0
	p.bodyPos = 0
}

// Feed processes one input octet. It returns a non-nil *Frame when a
// complete, CRC-valid frame has just been emitted; the returned pointer
// aliases Parser-owned storage and is invalidated by the next Feed call.
// Feed tolerates arbitrary garbage before a valid frame: a byte that does
// not advance the current state simply causes a silent resync, one octet
// at a time, exactly as if the caller had re-fed the stream from the next
// position.
func (p *Parser) Feed(b byte) *Frame {
	switch p.state {
	case stateWaitSync1:
		if b == Sync1 {
			p.state = stateWaitSync2
		}
		return nil

	case stateWaitSync2:
		if b == Sync2 {
			p.state = stateWaitLen
		} else if b == Sync1 {
			// stay in WAIT_SYNC2: another sync1 could still start a frame
			p.state = stateWaitSync2
		} else {
			p.reset()
		}
		return nil

	case stateWaitLen:
		if b < minLength || b > maxLength {
			p.reset()
			return nil
		}
		p.length = b
		p.body = make([]byte, b)
		p.bodyPos = 0
		p.state = stateWaitBody
		return nil

	case stateWaitBody:
		p.body[p.bodyPos] = b
		p.bodyPos++
		if p.bodyPos < int(p.length) {
			return nil
		}

		// full body received: msg_type, seq, payload..., crc_lo, crc_hi
		payloadLen := int(p.length) - 4
		crcRX := uint16(p.body[p.length-2]) | uint16(p.body[p.length-1])<<8
		crcCalc := CalculateCRC(append([]byte{p.length}, p.body[:p.length-2]...))
		p.reset()
		if crcRX != crcCalc {
			return nil
		}

		p.frame = Frame{
			MsgType: p.body[0],
			Seq:     p.body[1],
			Payload: p.body[2 : 2+payloadLen],
		}
		return &p.frame

	default:
		p.reset()
		return nil
	}
}
