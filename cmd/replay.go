// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fuellink/fuellink/internal/diag"
	"github.com/fuellink/fuellink/pkg/wire"
)

var replayCmd = &cobra.Command{
	Use:   "replay <session.cbor>",
	Short: "Decode and print a recorded CBOR session log",
	Long: `Replay a session file written by --record, printing each entry's
direction, recorded loop time, and decoded frame (if the raw bytes parse
as a complete, CRC-valid frame).`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	defer f.Close()

	return diag.Replay(f, func(e diag.Entry) error {
		p := wire.NewParser()
		var frame *wire.Frame
		for _, b := range e.Raw {
			if fr := p.Feed(b); fr != nil {
				frame = fr
			}
		}

		if frame != nil {
			fmt.Printf("[%s] t=%d msg_type=0x%02x seq=%d payload=%s\n",
				e.Direction, e.NowMs, frame.MsgType, frame.Seq, hex.EncodeToString(frame.Payload))
		} else {
			fmt.Printf("[%s] t=%d %d raw bytes: %s\n", e.Direction, e.NowMs, len(e.Raw), hex.EncodeToString(e.Raw))
		}
		return nil
	})
}
