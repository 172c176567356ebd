// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ground

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fuellink/fuellink/internal/diag"
	"github.com/fuellink/fuellink/pkg/wire"
)

// Snapshot is a read-only copy of the loop state the TUI renders. The
// relay loop hands these over a channel; the TUI goroutine never touches
// live loop state directly (spec.md §5 single-owner rule).
type Snapshot struct {
	HasTelemetry bool
	Telemetry    wire.Telemetry

	LinkAlive     bool
	PendingActive bool
	PendingMsg    uint8
	PendingRetry  int

	Stats *diag.Statistics
}

type snapshotMsg Snapshot
type tickMsg time.Time

// tuiModel is the bubbletea Model backing `fuellink ground-relay --tui`.
// Grounded on cmd/tui.go's model/Init/Update/View structure, rebuilt
// entirely around ground-relay state: no heliostat motor/state concepts
// survive.
type tuiModel struct {
	snapshots <-chan Snapshot
	last      Snapshot
	quitting  bool
	width     int
}

// NewTUIModel returns a bubbletea model that reads snapshots from ch.
func NewTUIModel(ch <-chan Snapshot) tea.Model {
	return tuiModel{snapshots: ch, width: 80}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, waitForSnapshot(m.snapshots), tickCmd())
}

func waitForSnapshot(ch <-chan Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case snapshotMsg:
		m.last = Snapshot(msg)
		return m, waitForSnapshot(m.snapshots)
	case tickMsg:
		return m, tickCmd()
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Background(lipgloss.Color("235")).Padding(0, 1)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	boxStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("FUELLINK - GROUND RELAY"))
	s.WriteString("\n\n")

	if m.last.LinkAlive {
		s.WriteString(valueStyle.Render("● link alive"))
	} else {
		s.WriteString(warnStyle.Render("○ link down"))
	}
	s.WriteString("\n\n")

	var content strings.Builder
	if m.last.HasTelemetry {
		t := m.last.Telemetry
		content.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			labelStyle.Render("T0:"), valueStyle.Render(fmt.Sprintf("%.2f°C", t.TempC[0])),
			labelStyle.Render("T1:"), valueStyle.Render(fmt.Sprintf("%.2f°C", t.TempC[1])),
		))
		content.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Pressure:"), valueStyle.Render(fmt.Sprintf("%.2f Pa", t.PressurePa)),
		))
		content.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			labelStyle.Render("Heater:"), valueStyle.Render(fmt.Sprintf("%.1f%%", t.HeaterPct)),
			labelStyle.Render("Valve:"), valueStyle.Render(fmt.Sprintf("%.1f%%", t.ValvePct)),
		))
	} else {
		content.WriteString("(no telemetry yet)")
	}
	s.WriteString(boxStyle.Render(content.String()))
	s.WriteString("\n\n")

	s.WriteString(labelStyle.Render("Pending command:"))
	s.WriteString("\n")
	if m.last.PendingActive {
		s.WriteString(warnStyle.Render(fmt.Sprintf("  msg=0x%02x retry=%d", m.last.PendingMsg, m.last.PendingRetry)))
	} else {
		s.WriteString(valueStyle.Render("  none"))
	}
	s.WriteString("\n\n")

	if m.last.Stats != nil {
		m.last.Stats.CalculateRates()
		s.WriteString(boxStyle.Width(m.width - 4).Render(m.last.Stats.String()))
	}

	return s.String()
}
