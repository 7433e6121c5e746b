package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wordwrap"
)

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warningStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	heroAccentColor = lipgloss.Color("#ff8c00")
	heroTextColor   = lipgloss.Color("#fff4d0")

	heroTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	taglineStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#f4a261")).Italic(true)
	statusBarStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	helpBoxStyle     = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#7f5af0")).Padding(1, 2)
	responseBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(heroAccentColor).Foreground(heroTextColor).Padding(0, 1)
	alertBoxStyle    = lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color("9")).Bold(true).Padding(0, 2)

	buttonStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 2)
	buttonFocusedStyle  = buttonStyle.Copy().Background(lipgloss.Color("#ffd166")).Bold(true)
	buttonDisabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9a9a9a")).Background(lipgloss.Color("#3a3a3a")).Padding(0, 2)
)

func (m *model) View() string {
	if m.stage == stagePicker {
		return joinNonEmpty([]string{m.heroView(), m.pickerPanel(), m.statusBarView()})
	}
	m.refreshLogIfDirty()
	parts := []string{
		m.heroView(),
		m.filePanel(),
		m.chatPanel(),
		m.alertView(),
		m.responsePanel(),
		m.logPanel(),
		m.messageView(),
		m.statusBarView(),
	}
	if m.helpVisible {
		parts = append(parts, m.helpView())
	}
	return joinNonEmpty(parts)
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		heroTitleStyle.Render(heroTitle),
		taglineStyle.Render(heroTagline),
	)
}

func (m *model) filePanel() string {
	state := m.controller.State()
	lines := []string{sectionHeaderStyle.Render("Ask about a file")}
	if state.HasFile {
		lines = append(lines, fmt.Sprintf("File: %s (%s)", state.FileName, humanize.Bytes(uint64(state.FileSize))))
		if m.preview != nil {
			for _, line := range m.preview.Lines {
				lines = append(lines, helperStyle.Render("  "+line))
			}
			if m.preview.Warning != "" {
				lines = append(lines, warningStyle.Render("  "+m.preview.Warning))
			}
		}
	} else {
		lines = append(lines, helperStyle.Render(noFileText))
	}
	lines = append(lines, m.fileQuestion.View())
	label := uploadButtonLabel
	if state.Busy {
		label = uploadBusyButtonLabel
	}
	lines = append(lines, m.button(label, m.focus == focusFileQuestion, state.Busy))
	return strings.Join(lines, "\n")
}

func (m *model) chatPanel() string {
	state := m.controller.State()
	label := chatButtonLabel
	if state.Busy {
		label = chatBusyButtonLabel
	}
	return strings.Join([]string{
		sectionHeaderStyle.Render("Ask a general question"),
		m.chatQuestion.View(),
		m.button(label, m.focus == focusChatQuestion, state.Busy),
	}, "\n")
}

func (m *model) button(label string, focused, disabled bool) string {
	switch {
	case disabled:
		return buttonDisabledStyle.Render(label)
	case focused:
		return buttonFocusedStyle.Render(label)
	default:
		return buttonStyle.Render(label)
	}
}

func (m *model) alertView() string {
	if m.alert == "" {
		return ""
	}
	body := m.alert + "\n" + helperStyle.Render("Press any key to continue.")
	return alertBoxStyle.Render(body)
}

func (m *model) responsePanel() string {
	state := m.controller.State()
	var body string
	switch {
	case state.Busy:
		body = fmt.Sprintf("%s %s", m.spinner.View(), responseBusyText)
	case state.Response != "":
		body = wordwrap.String(state.Response, m.wrapWidth(4))
	default:
		body = helperStyle.Render(responsePlaceholder)
	}
	return sectionHeaderStyle.Render("Response") + "\n" + responseBoxStyle.Render(body)
}

func (m *model) logPanel() string {
	body := strings.TrimSpace(m.logViewport.View())
	return sectionHeaderStyle.Render("Session Log") + "\n" + body
}

func (m *model) messageView() string {
	var parts []string
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if line := m.statusLine(); line != "" {
		parts = append(parts, helperStyle.Render(line))
	}
	return strings.Join(parts, "\n")
}

func (m *model) pickerPanel() string {
	return strings.Join([]string{
		sectionHeaderStyle.Render("Select a file"),
		helperStyle.Render(fmt.Sprintf("Browsing %s. Enter selects, Esc goes back.", m.picker.CurrentDirectory)),
		m.picker.View(),
	}, "\n")
}

func (m *model) statusBarView() string {
	state := m.controller.State()
	backendName := m.config.BackendName
	if backendName == "" {
		backendName = "backend"
	}
	stats := []string{backendName}
	if state.Busy {
		stats = append(stats, fmt.Sprintf("Busy (%s)", state.BusyKind))
	} else {
		stats = append(stats, "Idle")
	}
	stats = append(stats, fmt.Sprintf("Exchanges %d", len(state.History)))
	if m.lastJob.ID != "" && m.lastJob.State != jobRunning {
		stats = append(stats, fmt.Sprintf("Last %s %s in %s", m.lastJob.Kind, m.lastJob.State, m.lastJob.Elapsed().Round(10*time.Millisecond)))
	}
	stats = append(stats, "F1 help")
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) helpView() string {
	hints := []keyHint{
		{"Tab", "Switch between file and chat"},
		{"Enter", "Submit the focused question"},
		{"Ctrl+O", "Pick a file"},
		{"Esc", "Cancel request / quit"},
		{"PgUp/PgDn", "Scroll the session log"},
		{"Ctrl+C", "Quit"},
	}
	rows := []string{sectionHeaderStyle.Render("Keys")}
	for _, hint := range hints {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, keyStyle.Render(hint.Key), keyDescStyle.Render(" "+hint.Description)))
	}
	return helpBoxStyle.Render(strings.Join(rows, "\n"))
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}
