// Package opsui is dirtsim-cli's interactive fleet-status view: one
// bubbletea program polling every process the operator named (server, ui,
// audio, os-manager) over the JSON bridge and rendering their reachability
// side by side, the way internal/server's own TUI renders one process's
// status.
package opsui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Target is one fleet member to poll.
type Target struct {
	Label   string // e.g. "server", "ui", "audio"
	Address string // ws://host:port
}

// memberStatus is one snapshot of a single target's reachability.
type memberStatus struct {
	Label     string
	Address   string
	Connected bool
	State     string
	Err       string
}

type fleetTUI struct {
	program  *tea.Program
	updates  chan []memberStatus
	quitChan chan struct{}
}

type tickMsg time.Time
type statusMsg []memberStatus

type tuiModel struct {
	members   []memberStatus
	startTime time.Time
	quitting  bool
	quitChan  chan struct{}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(tickEvery())
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			select {
			case m.quitChan <- struct{}{}:
			default:
			}
			return m, tea.Quit
		}

	case tickMsg:
		return m, tickEvery()

	case statusMsg:
		m.members = []memberStatus(msg)
		return m, nil
	}

	return m, nil
}

func (m tuiModel) View() string {
	if m.quitting {
		return "Closing fleet view...\n"
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("84"))
	downStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))

	var b strings.Builder
	b.WriteString(titleStyle.Render("DirtSim Fleet"))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Watching for: "))
	b.WriteString(valueStyle.Render(time.Since(m.startTime).Round(time.Second).String()))
	b.WriteString("\n\n")

	if len(m.members) == 0 {
		b.WriteString(valueStyle.Render("  no targets configured"))
		b.WriteString("\n")
	}

	for _, mem := range m.members {
		b.WriteString(fmt.Sprintf("  %-8s ", mem.Label))
		b.WriteString(valueStyle.Render(mem.Address))
		b.WriteString("  ")
		if mem.Connected {
			b.WriteString(okStyle.Render("up"))
			if mem.State != "" {
				b.WriteString(valueStyle.Render(" (" + mem.State + ")"))
			}
		} else {
			b.WriteString(downStyle.Render("down"))
			if mem.Err != "" {
				b.WriteString(valueStyle.Render(" — " + mem.Err))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press 'q' or Ctrl+C to quit"))

	return b.String()
}

func newFleetTUI() *fleetTUI {
	return &fleetTUI{
		updates:  make(chan []memberStatus, 10),
		quitChan: make(chan struct{}, 1),
	}
}

func (t *fleetTUI) run() error {
	m := tuiModel{startTime: time.Now(), quitChan: t.quitChan}
	t.program = tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		for status := range t.updates {
			if t.program != nil {
				t.program.Send(statusMsg(status))
			}
		}
	}()

	_, err := t.program.Run()
	return err
}

func (t *fleetTUI) push(status []memberStatus) {
	select {
	case t.updates <- status:
	default:
	}
}

func (t *fleetTUI) stop() {
	if t.program != nil {
		t.program.Quit()
	}
	close(t.updates)
}
