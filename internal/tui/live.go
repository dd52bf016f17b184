package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/gpustream/internal/driver"
	"github.com/san-kum/gpustream/internal/handle"
)

const historyCapacity = 120

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	busyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model renders live per-stream queue depth for a handle on the host
// simulation runtime.
type Model struct {
	rt      *driver.SimRuntime
	h       *handle.Handle
	depths  map[uint64]int
	history []float64
	paused  bool
}

func NewModel(rt *driver.SimRuntime, h *handle.Handle) Model {
	return Model{
		rt:      rt,
		h:       h,
		depths:  make(map[uint64]int),
		history: make([]float64, 0, historyCapacity),
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		}
	case TickMsg:
		if !m.paused {
			m.depths = m.rt.StreamDepths()
			total := 0.0
			for _, d := range m.depths {
				total += float64(d)
			}
			m.history = append(m.history, total)
			if len(m.history) > historyCapacity {
				m.history = m.history[1:]
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("gpustream watch"))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("runtime"))
	b.WriteString(valueStyle.Render(m.rt.Name()))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("aux streams"))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", m.h.AuxStreamCount())))
	b.WriteString("\n\n")

	ids := make([]uint64, 0, len(m.depths))
	for id := range m.depths {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		depth := m.depths[id]
		name := fmt.Sprintf("stream %d", id)
		if id == 0 {
			name = "default"
		}
		b.WriteString(labelStyle.Render(name))
		if depth > 0 {
			b.WriteString(busyStyle.Render(strings.Repeat("█", min(depth, 40))))
			b.WriteString(valueStyle.Render(fmt.Sprintf(" %d", depth)))
		} else {
			b.WriteString(idleStyle.Render("idle"))
		}
		b.WriteString("\n")
	}

	if len(m.history) > 1 {
		graph := asciigraph.Plot(m.history,
			asciigraph.Height(8),
			asciigraph.Caption("total queued work"))
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("space pause · q quit"))
	return b.String()
}
