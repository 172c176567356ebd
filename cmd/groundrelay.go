// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fuellink/fuellink/internal/diag"
	"github.com/fuellink/fuellink/internal/ground"
	"github.com/fuellink/fuellink/pkg/radio"
	"github.com/fuellink/fuellink/pkg/transport"
)

var (
	groundRadioPort string
	groundRadioBaud int
	groundRadioAddr int
	groundTickMs    int
	groundTUI       bool
	groundWSListen  string
	groundRecordTo  string
)

var groundRelayCmd = &cobra.Command{
	Use:   "ground-relay",
	Short: "Run the ground relay node",
	Long: `Run the ground relay: reliable-downlink command retry engine, RX
watchdog, and a USB line shell (stdin/stdout) a human or host script
drives the system through. Optionally renders a live status TUI and/or
serves a read-only websocket telemetry fan-out.`,
	RunE: runGroundRelay,
}

func init() {
	rootCmd.AddCommand(groundRelayCmd)
	groundRelayCmd.Flags().StringVar(&groundRadioPort, "radio", "", "Serial device to the LoRa modem (required)")
	groundRelayCmd.Flags().IntVar(&groundRadioBaud, "radio-baud", 115200, "Radio modem baud rate")
	groundRelayCmd.Flags().IntVar(&groundRadioAddr, "radio-addr", 0, "Peer modem ADDRESS for AT+SEND")
	groundRelayCmd.Flags().IntVar(&groundTickMs, "tick-ms", 10, "Loop tick interval in milliseconds")
	groundRelayCmd.Flags().BoolVar(&groundTUI, "tui", false, "Render a live bubbletea status dashboard instead of plain stdout")
	groundRelayCmd.Flags().StringVar(&groundWSListen, "ws-listen", "", "Serve a read-only websocket telemetry fan-out on this address (e.g. :8088)")
	groundRelayCmd.Flags().StringVar(&groundRecordTo, "record", "", "Record a CBOR session log of every frame crossing the radio link to this file")
	groundRelayCmd.MarkFlagRequired("radio")
}

func runGroundRelay(cmd *cobra.Command, args []string) error {
	radioConn, err := transport.OpenSerial(groundRadioPort, groundRadioBaud)
	if err != nil {
		return fmt.Errorf("ground-relay: %w", err)
	}
	defer radioConn.Close()

	var link radio.Radio = radio.NewATRadio(radioConn, uint16(groundRadioAddr))
	if err := link.Begin(); err != nil {
		return fmt.Errorf("ground-relay: radio begin: %w", err)
	}

	if groundRecordTo != "" {
		f, err := os.Create(groundRecordTo)
		if err != nil {
			return fmt.Errorf("ground-relay: %w", err)
		}
		defer f.Close()
		link = diag.NewRecordingRadio(link, diag.NewRecorder(f), func() uint32 { return uint32(time.Now().UnixMilli()) })
	}

	stats := diag.NewStatistics()
	cfg := ground.DefaultConfig()
	retry := ground.NewRetryEngine(cfg, link, os.Stdout)
	watchdog := ground.NewWatchdog(cfg, link)
	relay := ground.NewRelay(link, retry, watchdog, os.Stdout, stats)

	var bridge *ground.WSBridge
	if groundWSListen != "" {
		bridge = ground.NewWSBridge()
		relay.Bridge = bridge
		mux := http.NewServeMux()
		mux.Handle("/ws", bridge)
		server := &http.Server{Addr: groundWSListen, Handler: mux}
		go func() {
			fmt.Fprintf(os.Stdout, "fuellink ground-relay: websocket fan-out on %s/ws\n", groundWSListen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintf(os.Stderr, "ground-relay: websocket server: %v\n", err)
			}
		}()
	}

	isTerm := term.IsTerminal(int(os.Stdin.Fd()))
	shell := ground.NewShell(os.Stdin, os.Stdout, retry, stats, isTerm)
	shell.Bridge = bridge

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	var snapshots chan ground.Snapshot
	if groundTUI {
		snapshots = make(chan ground.Snapshot, 1)
		go func() {
			p := tea.NewProgram(ground.NewTUIModel(snapshots))
			if _, err := p.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "ground-relay: tui: %v\n", err)
			}
		}()
	} else {
		fmt.Fprintf(os.Stdout, "fuellink ground-relay: radio=%s\n", groundRadioPort)
	}

	ticker := time.NewTicker(time.Duration(groundTickMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			nowMs := uint32(time.Now().UnixMilli())
			shell.Process(line, nowMs)

		case <-ticker.C:
			nowMs := uint32(time.Now().UnixMilli())
			if err := relay.Tick(nowMs); err != nil {
				return fmt.Errorf("ground-relay: tick: %w", err)
			}

			if snapshots != nil {
				statsCopy := *stats
				snap := ground.Snapshot{
					HasTelemetry:  relay.HasTelemetry,
					Telemetry:     relay.LastTelemetry,
					LinkAlive:     watchdog.Alive(nowMs),
					PendingActive: retry.Pending.Active,
					PendingMsg:    retry.Pending.MsgType,
					PendingRetry:  retry.Pending.Retry,
					Stats:         &statsCopy,
				}
				select {
				case snapshots <- snap:
				default:
				}
			}
		}
	}
}
