// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package ground implements the ground relay: the reliable-downlink
// retry engine, the RX watchdog, and the USB line shell a human or host
// script drives the system through. Grounded on spec.md §4.6/§4.7, in
// reconnect-loop style on cmd/control.go's connectionManager.
package ground

import "github.com/fuellink/fuellink/pkg/wire"

// Config carries the ground relay's tunable constants (spec.md §6).
type Config struct {
	AckTimeoutMs     uint32 // CMD_ACK_TIMEOUT
	MaxRetry         int    // CMD_MAX_RETRY
	BusyWarnAfterMs  uint32 // warn once busy has blocked a command this long
	BusyWarnRepeatMs uint32 // minimum gap between repeated busy warnings
	RxWatchdogMs     uint32 // RX_WATCHDOG
	ReinitCooldownMs uint32 // REINIT_COOLDOWN
}

// DefaultConfig returns the spec's stated defaults.
func DefaultConfig() Config {
	return Config{
		AckTimeoutMs:     400,
		MaxRetry:         3,
		BusyWarnAfterMs:  3000,
		BusyWarnRepeatMs: 1000,
		RxWatchdogMs:     5000,
		ReinitCooldownMs: 3000,
	}
}

// ackExpecting is the closed set of msg_types that install a PendingCommand
// after submission (spec.md §4.6); Heartbeat and Telemetry never do.
var ackExpecting = map[uint8]bool{
	wire.MsgModeSwitch: true,
	wire.MsgManualCmd:  true,
	wire.MsgSetpoints:  true,
}
