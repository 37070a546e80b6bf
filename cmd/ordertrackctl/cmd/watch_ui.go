package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dragoner91/ordertrack/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#3C3C3C")).
			Padding(0, 1)

	connectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	disconnectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))

	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	inTransitStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AFFF"))
	deliveredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	delayedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C00"))
	cancelledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
)

func renderStatus(s domain.Status) string {
	switch s {
	case domain.StatusPending:
		return pendingStyle.Render(string(s))
	case domain.StatusInTransit:
		return inTransitStyle.Render(string(s))
	case domain.StatusDelivered:
		return deliveredStyle.Render(string(s))
	case domain.StatusDelayed:
		return delayedStyle.Render(string(s))
	case domain.StatusCancelled:
		return cancelledStyle.Render(string(s))
	default:
		return string(s)
	}
}

type (
	updateMsg domain.StatusUpdateNotification
	connMsg   bool
)

type WatchModel struct {
	orderID   string
	updates   []domain.StatusUpdateNotification
	spinner   spinner.Model
	connected bool
	width     int
	height    int
	quit      bool
}

func NewWatchModel(orderID string) *WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &WatchModel{
		orderID: orderID,
		updates: make([]domain.StatusUpdateNotification, 0),
		spinner: s,
	}
}

func (m *WatchModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case connMsg:
		m.connected = bool(msg)
	case updateMsg:
		n := domain.StatusUpdateNotification(msg)
		if m.orderID != "" && n.OrderID != m.orderID {
			return m, nil
		}
		m.updates = append(m.updates, n)
		// Keep only the last N updates that fit in the view
		maxUpdates := m.height - 6
		if maxUpdates > 0 && len(m.updates) > maxUpdates {
			m.updates = m.updates[len(m.updates)-maxUpdates:]
		}
	}
	return m, nil
}

func (m *WatchModel) View() string {
	if m.quit {
		return ""
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("OrderTrack Watch"))
	if m.orderID != "" {
		s.WriteString(fmt.Sprintf(" - Order: %s", m.orderID))
	}
	if m.connected {
		s.WriteString("  " + connectedStyle.Render("● connected"))
	} else {
		s.WriteString("  " + disconnectedStyle.Render("○ connecting"))
	}
	s.WriteString("\n\n")

	s.WriteString(headerStyle.Render(fmt.Sprintf("%-10s %-10s %-12s %-30s", "TIME", "ORDER", "STATUS", "NOTE")))
	s.WriteString("\n")

	for _, n := range m.updates {
		line := fmt.Sprintf("%-10s %-10s %-12s %-30s",
			n.Timestamp.Format("15:04:05"),
			truncate(n.OrderID, 9),
			renderStatus(n.Status),
			truncate(n.Note, 29),
		)
		s.WriteString(line + "\n")
	}

	if len(m.updates) == 0 {
		s.WriteString(fmt.Sprintf("\n  %s Waiting for updates...\n", m.spinner.View()))
	}

	s.WriteString("\n  (Press q to quit)")

	return s.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
