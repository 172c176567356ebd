// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ground

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/fuellink/fuellink/internal/diag"
	"github.com/fuellink/fuellink/pkg/wire"
)

const helpText = `commands:
  help
  mode safe|manual|auto
  set heater <pct>
  set valve <pct>
  set T <degC>
  set P <pa>
  set valve_sp <pct>
  lora stat
  lora raw on|off
  lora tx <text>
  lora ping
`

// Shell parses the USB line grammar of spec.md §6 and drives command
// submission through a RetryEngine. Grounded in structure on
// cmd/discovery.go's/cmd/error_detection.go's command-flag style, adapted
// from cobra flags to a runtime line parser: the grammar here is a line
// protocol carried over a live connection, not process args, so cobra
// itself does not apply to this one surface.
type Shell struct {
	In    *bufio.Scanner
	Out   io.Writer
	Retry  *RetryEngine
	Stats  *diag.Statistics
	Bridge *WSBridge

	// RawSniff records the last "lora raw on|off" setting. Nothing in the
	// ground relay reads it: frame dispatch and output are the same
	// whichever way it is set.
	RawSniff bool

	interactive bool
}

// NewShell returns a shell reading lines from in and writing responses to
// out. isTerm should be term.IsTerminal(fd) on the real input descriptor;
// it gates the "> " prompt so piped/scripted input (as used by tests)
// isn't polluted with prompt bytes.
func NewShell(in io.Reader, out io.Writer, retry *RetryEngine, stats *diag.Statistics, isTerm bool) *Shell {
	return &Shell{In: bufio.NewScanner(in), Out: out, Retry: retry, Stats: stats, interactive: isTerm}
}

// IsInteractiveInput reports whether fd names a real terminal, matching
// the teacher's own term.IsTerminal use for GetPassword's raw-mode check.
func IsInteractiveInput(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// Run reads and processes lines until In is exhausted or returns an error.
func (s *Shell) Run(nowMs func() uint32) error {
	for {
		if s.interactive {
			fmt.Fprint(s.Out, "> ")
		}
		if !s.In.Scan() {
			return s.In.Err()
		}
		s.Process(s.In.Text(), nowMs())
	}
}

// Process handles one line of shell input.
func (s *Shell) Process(line string, nowMs uint32) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	var err error
	switch fields[0] {
	case "help":
		fmt.Fprint(s.Out, helpText)
	case "mode":
		err = s.cmdMode(fields, nowMs)
	case "set":
		err = s.cmdSet(fields, nowMs)
	case "lora":
		err = s.cmdLora(fields, nowMs)
	default:
		err = fmt.Errorf("unknown command %q", fields[0])
	}
	if err != nil {
		fmt.Fprintf(s.Out, "ERROR: %v\n", err)
	}
}

func (s *Shell) cmdMode(fields []string, nowMs uint32) error {
	if len(fields) != 2 {
		return fmt.Errorf("usage: mode safe|manual|auto")
	}
	var m wire.Mode
	switch fields[1] {
	case "safe":
		m = wire.ModeSafe
	case "manual":
		m = wire.ModeManual
	case "auto":
		m = wire.ModeAuto
	default:
		return fmt.Errorf("unknown mode %q", fields[1])
	}
	if err := s.Retry.Submit(wire.MsgModeSwitch, wire.EncodeModeSwitch(wire.ModeSwitch{Mode: m}), nowMs); err != nil {
		return err
	}
	if s.Bridge != nil {
		s.Bridge.Publish(Event{Kind: "mode", Mode: &m})
	}
	return nil
}

func (s *Shell) cmdSet(fields []string, nowMs uint32) error {
	if len(fields) != 3 {
		return fmt.Errorf("usage: set heater|valve|T|P|valve_sp <value>")
	}
	value, err := strconv.ParseFloat(fields[2], 32)
	if err != nil {
		return fmt.Errorf("bad numeric value %q: %w", fields[2], err)
	}
	v := float32(value)

	switch fields[1] {
	case "heater":
		mc := wire.ManualCmd{Flags: wire.ManualFlagHeater, HeaterPct: v}
		return s.Retry.Submit(wire.MsgManualCmd, wire.EncodeManualCmd(mc), nowMs)
	case "valve":
		mc := wire.ManualCmd{Flags: wire.ManualFlagValve, ValvePct: v}
		return s.Retry.Submit(wire.MsgManualCmd, wire.EncodeManualCmd(mc), nowMs)
	case "T":
		sp := wire.Setpoints{TargetTempC: v, EnableMask: wire.EnableTemp}
		return s.Retry.Submit(wire.MsgSetpoints, wire.EncodeSetpoints(sp), nowMs)
	case "P":
		sp := wire.Setpoints{TargetPressurePa: v, EnableMask: wire.EnablePress}
		return s.Retry.Submit(wire.MsgSetpoints, wire.EncodeSetpoints(sp), nowMs)
	case "valve_sp":
		sp := wire.Setpoints{TargetValvePct: v, EnableMask: wire.EnableValve}
		return s.Retry.Submit(wire.MsgSetpoints, wire.EncodeSetpoints(sp), nowMs)
	default:
		return fmt.Errorf("unknown set target %q", fields[1])
	}
}

func (s *Shell) cmdLora(fields []string, nowMs uint32) error {
	if len(fields) < 2 {
		return fmt.Errorf("usage: lora stat|raw|tx|ping")
	}
	switch fields[1] {
	case "stat":
		if s.Stats == nil {
			return fmt.Errorf("statistics not enabled")
		}
		fmt.Fprint(s.Out, s.Stats.String())
		return nil
	case "raw":
		if len(fields) != 3 {
			return fmt.Errorf("usage: lora raw on|off")
		}
		switch fields[2] {
		case "on":
			s.RawSniff = true
		case "off":
			s.RawSniff = false
		default:
			return fmt.Errorf("usage: lora raw on|off")
		}
		return nil
	case "tx":
		if len(fields) < 3 {
			return fmt.Errorf("usage: lora tx <text>")
		}
		text := strings.Join(fields[2:], " ")
		_, err := s.Retry.Radio.Send([]byte(text))
		return err
	case "ping":
		return s.Retry.Submit(wire.MsgHeartbeat, nil, nowMs)
	default:
		return fmt.Errorf("unknown lora subcommand %q", fields[1])
	}
}
