// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ground

// PendingCommand tracks one submitted ack-expecting command awaiting
// either an Ack or the retry engine's own exhaustion. Grounded on
// spec.md §3/§4.6's PendingCommand.
type PendingCommand struct {
	Active bool

	MsgType uint8
	Seq     uint8
	Frame   []byte // fully encoded, ready to re-send verbatim

	SentOnce    bool
	LastSendMs  uint32
	Retry       int
	BusySinceMs uint32
	HasBusy     bool
	LastWarnMs  uint32
	HasWarned   bool
}

// clear resets the slot to its inactive zero value.
func (p *PendingCommand) clear() {
	*p = PendingCommand{}
}
