// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Lumen Lab

package cmd

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lumenlab/goniolux/pkg/meter"
	"github.com/lumenlab/goniolux/pkg/ut382"
)

// Messages
type tickMsg time.Time
type readingMsg struct {
	reading meter.Reading
}
type readErrMsg struct {
	err error
}

// TUI model
type monitorModel struct {
	connInfo string
	stats    *ut382.Statistics
	mon      *ut382.Monitor
	spin     spinner.Model

	last       *meter.Reading
	min        float64
	max        float64
	outOfRange bool
	readErr    error
	width      int
	quitting   bool
}

func initialMonitorModel(connInfo string, mon *ut382.Monitor) monitorModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return monitorModel{
		connInfo: connInfo,
		stats:    mon.Statistics(),
		mon:      mon,
		spin:     sp,
		min:      math.Inf(1),
		max:      math.Inf(-1),
		width:    80,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, monitorTickCmd(), tea.EnterAltScreen)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.stats.Reset()
			m.min = math.Inf(1)
			m.max = math.Inf(-1)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		m.stats.CalculateRates()
		return m, monitorTickCmd()

	case readingMsg:
		r := msg.reading
		m.last = &r
		if r.Intensity != nil {
			m.outOfRange = false
			if *r.Intensity < m.min {
				m.min = *r.Intensity
			}
			if *r.Intensity > m.max {
				m.max = *r.Intensity
			}
		} else {
			m.outOfRange = true
		}

	case readErrMsg:
		m.readErr = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	valueStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("10"))

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("GONIOLUX - LIVE MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Press 'q' to quit, 'r' to reset", m.connInfo)))
	s.WriteString("\n\n")

	if !m.mon.Synchronized() {
		s.WriteString(warningStyle.Render(m.spin.View() + " Waiting for frame synchronization..."))
		s.WriteString("\n\n")
	}

	if m.last != nil {
		var display string
		switch {
		case m.outOfRange:
			display = warningStyle.Render("0L (out of range)")
		default:
			display = valueStyle.Render(fmt.Sprintf("%s %s", m.last.FormatIntensity(), m.last.Unit))
		}

		reading := fmt.Sprintf("Reading:  %s\n", display)
		if m.max >= m.min {
			reading += fmt.Sprintf("Min:      %.2f\nMax:      %.2f\n", m.min, m.max)
		}
		s.WriteString(boxStyle.Render(strings.TrimRight(reading, "\n")))
		s.WriteString("\n\n")
	}

	m.stats.CalculateRates()
	stats := fmt.Sprintf("Frames: %d valid / %d total | Readings: %d | %.1f frames/sec",
		m.stats.ValidFrames, m.stats.TotalFrames, m.stats.Readings, m.stats.FrameRate)
	if m.stats.FramingErrors > 0 {
		stats += warningStyle.Render(fmt.Sprintf(" | %d framing errors", m.stats.FramingErrors))
	}
	s.WriteString(headerStyle.Render(stats))
	s.WriteString("\n")

	return s.String()
}

// runMonitorTUI runs the live monitor as a dashboard. Readings are pumped
// into the TUI from a reader goroutine.
func runMonitorTUI(ctx context.Context, conn Connection, connInfo string) error {
	mon := ut382.NewMonitor(conn)
	m := initialMonitorModel(connInfo, mon)
	p := tea.NewProgram(m)

	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		for {
			r, err := mon.Next(readCtx)
			if err != nil {
				if readCtx.Err() == nil {
					p.Send(readErrMsg{err: err})
				}
				return
			}
			p.Send(readingMsg{reading: r})
		}
	}()

	// Quit the TUI if the surrounding context is cancelled (SIGINT)
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	if fm, ok := final.(monitorModel); ok && fm.readErr != nil && ctx.Err() == nil {
		return fm.readErr
	}
	return nil
}
