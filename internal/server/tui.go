// Package server's TUI shows a running physics server's live status:
// uptime, active scenario, tick rate, and subscriber count.
package server

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// serverTUI manages the server's live-status terminal display.
type serverTUI struct {
	program  *tea.Program
	updates  chan serverStatus
	quitChan chan struct{}
}

// serverStatus is one snapshot of server state for the TUI.
type serverStatus struct {
	Name            string
	Port            int
	ScenarioID      string
	FPS             float64
	FramesRendered  uint64
	SubscriberCount int
}

type tuiModel struct {
	status    serverStatus
	startTime time.Time
	quitting  bool
	quitChan  chan struct{}
}

type tickMsg time.Time
type statusMsg serverStatus

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
		m.status = serverStatus(msg)
		return m, nil
	}

	return m, nil
}

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down server...\n"
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))

	var b strings.Builder
	b.WriteString(titleStyle.Render("DirtSim Server"))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Server: "))
	b.WriteString(valueStyle.Render(m.status.Name))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Port: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", m.status.Port)))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Uptime: "))
	b.WriteString(valueStyle.Render(time.Since(m.startTime).Round(time.Second).String()))
	b.WriteString("\n\n")

	scenario := m.status.ScenarioID
	if scenario == "" {
		scenario = "(none)"
	}
	b.WriteString(headerStyle.Render("Scenario: "))
	b.WriteString(valueStyle.Render(scenario))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("FPS: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%.1f", m.status.FPS)))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Frames rendered: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", m.status.FramesRendered)))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Subscribers: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", m.status.SubscriberCount)))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press 'q' or Ctrl+C to quit"))

	return b.String()
}

// newServerTUI builds a TUI bound to srv, polling it on its own ticker
// once running (see tui_update.go).
func newServerTUI(name string, port int, srv *Server) *serverTUI {
	t := &serverTUI{
		updates:  make(chan serverStatus, 10),
		quitChan: make(chan struct{}, 1),
	}
	go srv.pollTUI(t)
	return t
}

// Run starts the bubbletea program; it blocks until the user quits.
func (t *serverTUI) Run() error {
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

func (t *serverTUI) push(status serverStatus) {
	select {
	case t.updates <- status:
	default:
	}
}

// Stop tears down the TUI program.
func (t *serverTUI) Stop() {
	if t.program != nil {
		t.program.Quit()
	}
	close(t.updates)
}

// QuitChan signals when the operator has asked the TUI to quit.
func (t *serverTUI) QuitChan() <-chan struct{} {
	return t.quitChan
}
