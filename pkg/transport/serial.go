// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transport wraps the byte-level serial links the nodes open: the
// controller<->air-relay UART and the serial ports of the radio modems at
// both relays (the ground relay's host shell runs on stdin/stdout, not
// through this package). All are plain io.Reader/io.Writer/io.Closer underneath;
// this package exists so the rest of the tree depends on a small
// interface instead of go.bug.st/serial directly.
package transport

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Connection is a byte-level duplex link. Grounded on the teacher's
// Connection interface (cmd/connection.go), narrowed to the one
// implementation this system needs: serial. The websocket half of that
// interface is adapted separately in internal/ground for telemetry
// fan-out, which is a server role rather than a Connection client.
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// SerialConnection wraps an open go.bug.st/serial port.
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error)  { return s.port.Read(p) }
func (s *SerialConnection) Write(p []byte) (int, error) { return s.port.Write(p) }
func (s *SerialConnection) Close() error                { return s.port.Close() }

// OpenSerial opens portName at baudRate, 8N1, matching the fixed framing
// every node on this system's UART/USB links uses.
func OpenSerial(portName string, baudRate int) (*SerialConnection, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open serial port %s: %w", portName, err)
	}
	return &SerialConnection{port: port}, nil
}
