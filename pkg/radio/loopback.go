// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package radio

import (
	"sync"
	"time"
)

const ringCapacity = 64

// ring is a small fixed-capacity FIFO that overwrites its oldest entry
// once full, so a runaway sender can never grow it without bound.
// Grounded on stub.Driver's ringBuffer (ystepanoff-nrfcomm).
type ring struct {
	data       [ringCapacity]RxPacket
	head, tail int
	count      int
}

func (r *ring) push(p RxPacket) {
	if r.count == ringCapacity {
		r.head = (r.head + 1) % ringCapacity
		r.count--
	}
	r.data[r.tail] = p
	r.tail = (r.tail + 1) % ringCapacity
	r.count++
}

func (r *ring) pop() (RxPacket, bool) {
	if r.count == 0 {
		return RxPacket{}, false
	}
	p := r.data[r.head]
	r.head = (r.head + 1) % ringCapacity
	r.count--
	return p, true
}

// Loopback is an in-memory Radio pair for tests and simulation: whatever
// one end Sends, the other end's Poll eventually returns. It never
// reports TxBusy or TxFail on its own; tests that need to exercise the
// scheduler's back-pressure paths inject those with InjectBusy /
// InjectFail.
type Loopback struct {
	mu   sync.Mutex
	peer *Loopback
	rx   ring

	busyAfter int // number of upcoming Send calls that return TxBusy
	failAfter int // number of upcoming Send calls that return TxFail
}

// NewLoopbackPair returns two Loopback radios wired to each other.
func NewLoopbackPair() (a, b *Loopback) {
	a = &Loopback{}
	b = &Loopback{}
	a.peer = b
	b.peer = a
	return a, b
}

func (l *Loopback) Begin() error { return nil }

// InjectBusy makes the next n Send calls each return TxBusy without
// reaching the peer.
func (l *Loopback) InjectBusy(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.busyAfter = n
}

// InjectFail makes the next n Send calls each return TxFail without
// reaching the peer.
func (l *Loopback) InjectFail(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failAfter = n
}

func (l *Loopback) Send(data []byte) (TxResult, error) {
	l.mu.Lock()
	if l.busyAfter > 0 {
		l.busyAfter--
		l.mu.Unlock()
		return TxBusy, nil
	}
	if l.failAfter > 0 {
		l.failAfter--
		l.mu.Unlock()
		return TxFail, nil
	}
	l.mu.Unlock()

	frame := make([]byte, len(data))
	copy(frame, data)

	l.peer.mu.Lock()
	l.peer.rx.push(RxPacket{Data: frame})
	l.peer.mu.Unlock()
	return TxOK, nil
}

func (l *Loopback) Poll(timeout time.Duration) (RxPacket, bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		l.mu.Lock()
		pkt, ok := l.rx.pop()
		l.mu.Unlock()
		if ok {
			return pkt, true, nil
		}
		if time.Now().After(deadline) {
			return RxPacket{}, false, nil
		}
		time.Sleep(time.Millisecond)
	}
}
