// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fuellink/fuellink/internal/airctl"
	"github.com/fuellink/fuellink/internal/diag"
	"github.com/fuellink/fuellink/pkg/radio"
	"github.com/fuellink/fuellink/pkg/transport"
)

var (
	airUARTPort  string
	airUARTBaud  int
	airRadioPort string
	airRadioBaud int
	airRadioAddr int
	airRawSniff  bool
	airTickMs    int
	airRecordTo  string
)

var airRelayCmd = &cobra.Command{
	Use:   "air-relay",
	Short: "Run the air relay node",
	Long: `Run the air relay's half-duplex scheduler: UART-sourced uplink traffic
(Telemetry, Ack) is arbitrated onto a shared radio link, and a whitelisted
subset of radio downlink traffic is forwarded back onto UART.`,
	RunE: runAirRelay,
}

func init() {
	rootCmd.AddCommand(airRelayCmd)
	airRelayCmd.Flags().StringVar(&airUARTPort, "uart", "", "UART device to the controller (required)")
	airRelayCmd.Flags().IntVar(&airUARTBaud, "uart-baud", 115200, "UART baud rate")
	airRelayCmd.Flags().StringVar(&airRadioPort, "radio", "", "Serial device to the LoRa modem (required)")
	airRelayCmd.Flags().IntVar(&airRadioBaud, "radio-baud", 115200, "Radio modem baud rate")
	airRelayCmd.Flags().IntVar(&airRadioAddr, "radio-addr", 1, "Peer modem ADDRESS for AT+SEND")
	airRelayCmd.Flags().BoolVar(&airRawSniff, "raw-sniff", false, "Dump raw downlink bytes instead of forwarding")
	airRelayCmd.Flags().IntVar(&airTickMs, "tick-ms", 10, "Loop tick interval in milliseconds")
	airRelayCmd.Flags().StringVar(&airRecordTo, "record", "", "Record a CBOR session log of every frame crossing the radio link to this file")
	airRelayCmd.MarkFlagRequired("uart")
	airRelayCmd.MarkFlagRequired("radio")
}

func runAirRelay(cmd *cobra.Command, args []string) error {
	uart, err := transport.OpenSerial(airUARTPort, airUARTBaud)
	if err != nil {
		return fmt.Errorf("air-relay: %w", err)
	}
	defer uart.Close()

	radioConn, err := transport.OpenSerial(airRadioPort, airRadioBaud)
	if err != nil {
		return fmt.Errorf("air-relay: %w", err)
	}
	defer radioConn.Close()

	var link radio.Radio = radio.NewATRadio(radioConn, uint16(airRadioAddr))
	if err := link.Begin(); err != nil {
		return fmt.Errorf("air-relay: radio begin: %w", err)
	}

	if airRecordTo != "" {
		f, err := os.Create(airRecordTo)
		if err != nil {
			return fmt.Errorf("air-relay: %w", err)
		}
		defer f.Close()
		link = diag.NewRecordingRadio(link, diag.NewRecorder(f), func() uint32 { return uint32(time.Now().UnixMilli()) })
	}

	cfg := airctl.DefaultConfig()
	sched := airctl.NewScheduler(cfg, link)
	relay := airctl.NewRelay(cfg, sched, link, airctl.UnboundedUART{Reader: uart, Writer: uart})
	relay.RawSniff = airRawSniff
	relay.SniffOut = os.Stdout

	fmt.Fprintf(os.Stdout, "fuellink air-relay: uart=%s radio=%s\n", airUARTPort, airRadioPort)

	ticker := time.NewTicker(time.Duration(airTickMs) * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		nowMs := uint32(time.Now().UnixMilli())
		if err := relay.Tick(nowMs); err != nil {
			return fmt.Errorf("air-relay: tick: %w", err)
		}
	}
	return nil
}
