// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ground

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/fuellink/fuellink/pkg/wire"
)

// Event is the JSON shape published to every websocket subscriber. It is a
// read-only fan-out of decoded protocol events, never a control channel:
// browsers watching it cannot submit commands.
type Event struct {
	Kind string `json:"kind"` // "telemetry", "ack", or "mode"

	Telemetry *wire.Telemetry `json:"telemetry,omitempty"`
	Ack       *wire.Ack       `json:"ack,omitempty"`
	Mode      *wire.Mode      `json:"mode,omitempty"`
}

// WSBridge is a minimal server-side stand-in for the out-of-scope host GUI:
// it accepts websocket subscribers and republishes decoded events to all of
// them. Inverted from the teacher's WebSocketConnection (a client dialing
// out to a Fusain host) into a server broadcasting to many listeners.
type WSBridge struct {
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[*websocket.Conn]chan Event
}

// NewWSBridge returns a bridge ready to be mounted at an HTTP path.
func NewWSBridge() *WSBridge {
	return &WSBridge{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subs: make(map[*websocket.Conn]chan Event),
	}
}

// ServeHTTP upgrades the request and streams events to it until the peer
// disconnects or the write fails.
func (b *WSBridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}

	ch := make(chan Event, 32)
	b.mu.Lock()
	b.subs[conn] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.subs, conn)
		b.mu.Unlock()
		conn.Close()
	}()

	// Drain any inbound frames so the peer's pings/closes are observed;
	// this bridge is read-only and ignores the payload. done, not ch
	// itself, signals the disconnect: Publish may still be sending to ch
	// from another goroutine, so ch is never closed out from under it.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-ch:
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// Publish fans ev out to every connected subscriber. A subscriber whose
// buffer is full is dropped from this publish rather than blocking the
// caller's loop tick.
func (b *WSBridge) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
