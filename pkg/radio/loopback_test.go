// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package radio

import (
	"bytes"
	"testing"
	"time"
)

func TestLoopback_SendPoll(t *testing.T) {
	a, b := NewLoopbackPair()

	res, err := a.Send([]byte("hello"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res != TxOK {
		t.Fatalf("Send result = %v, want TxOK", res)
	}

	pkt, ok, err := b.Poll(100 * time.Millisecond)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !ok {
		t.Fatal("expected a packet, got none")
	}
	if !bytes.Equal(pkt.Data, []byte("hello")) {
		t.Errorf("Data = %q, want %q", pkt.Data, "hello")
	}
}

func TestLoopback_PollTimesOutWithNoTraffic(t *testing.T) {
	a, _ := NewLoopbackPair()
	_, ok, err := a.Poll(10 * time.Millisecond)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if ok {
		t.Error("expected no packet on an idle loopback")
	}
}

func TestLoopback_InjectBusy(t *testing.T) {
	a, b := NewLoopbackPair()
	a.InjectBusy(2)

	for i := 0; i < 2; i++ {
		res, _ := a.Send([]byte("x"))
		if res != TxBusy {
			t.Fatalf("Send #%d = %v, want TxBusy", i, res)
		}
	}
	res, _ := a.Send([]byte("x"))
	if res != TxOK {
		t.Fatalf("Send after busy budget exhausted = %v, want TxOK", res)
	}
	if _, ok, _ := b.Poll(100 * time.Millisecond); !ok {
		t.Error("expected the successful send to reach the peer")
	}
}

func TestLoopback_InjectFail(t *testing.T) {
	a, _ := NewLoopbackPair()
	a.InjectFail(1)
	res, _ := a.Send([]byte("x"))
	if res != TxFail {
		t.Fatalf("Send = %v, want TxFail", res)
	}
}

func TestLoopback_RingOverwritesOldestWhenFull(t *testing.T) {
	a, b := NewLoopbackPair()
	for i := 0; i < ringCapacity+5; i++ {
		a.Send([]byte{byte(i)})
	}
	count := 0
	for {
		_, ok, _ := b.Poll(time.Millisecond)
		if !ok {
			break
		}
		count++
	}
	if count != ringCapacity {
		t.Errorf("drained %d packets, want %d (bounded ring)", count, ringCapacity)
	}
}
