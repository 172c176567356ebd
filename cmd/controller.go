// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fuellink/fuellink/internal/control"
	"github.com/fuellink/fuellink/pkg/transport"
)

var (
	controllerPort     string
	controllerBaud     int
	controllerTickMs   int
)

var controllerCmd = &cobra.Command{
	Use:   "controller",
	Short: "Run the field controller node",
	Long: `Run the controller's single-threaded tick loop: link poll, sample,
compute, safety clamp, apply, telemetry TX, against the air relay over a
UART connection. Uses a synthetic SensorSource and a recording
ActuatorSink, since register-level RTD/ADC/PWM drivers are out of scope.`,
	RunE: runController,
}

func init() {
	rootCmd.AddCommand(controllerCmd)
	controllerCmd.Flags().StringVarP(&controllerPort, "port", "p", "", "UART device to the air relay (required)")
	controllerCmd.Flags().IntVarP(&controllerBaud, "baud", "b", 115200, "Baud rate")
	controllerCmd.Flags().IntVar(&controllerTickMs, "tick-ms", 20, "Loop tick interval in milliseconds")
	controllerCmd.MarkFlagRequired("port")
}

func runController(cmd *cobra.Command, args []string) error {
	conn, err := transport.OpenSerial(controllerPort, controllerBaud)
	if err != nil {
		return fmt.Errorf("controller: %w", err)
	}
	defer conn.Close()

	cfg := control.DefaultConfig()
	sensor := newSimSensor()
	actuator := &recordingActuator{}

	startMs := uint32(time.Now().UnixMilli())
	node := control.NewNode(cfg, control.ZeroAutoController{}, sensor, actuator, conn, startMs)

	fmt.Fprintf(os.Stdout, "fuellink controller: %s @ %d baud, tick=%dms\n", controllerPort, controllerBaud, controllerTickMs)

	ticker := time.NewTicker(time.Duration(controllerTickMs) * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		nowMs := uint32(time.Now().UnixMilli())
		if err := node.Tick(nowMs); err != nil {
			return fmt.Errorf("controller: tick: %w", err)
		}
	}
	return nil
}
