package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/datachat/internal/session"
)

type pageLayout struct {
	windowWidth  int
	windowHeight int
	contentWidth int
	logHeight    int
	pickerHeight int
}

func newPageLayout() pageLayout {
	return pageLayout{
		contentWidth: 76,
		logHeight:    6,
		pickerHeight: 10,
	}
}

// Update sizes the session log and file picker for a terminal of the given
// dimensions. The form above the log has a fixed height.
func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minContentWidth {
		innerWidth = minContentWidth
	}
	l.contentWidth = innerWidth

	const formChrome = 30
	l.logHeight = height - formChrome
	if l.logHeight < 3 {
		l.logHeight = 3
	}

	const pickerChrome = 8
	l.pickerHeight = height - pickerChrome
	if l.pickerHeight < 5 {
		l.pickerHeight = 5
	}
}

// buildSessionLog renders every exchange, newest last.
func (m *model) buildSessionLog() string {
	history := m.controller.State().History
	if len(history) == 0 {
		return helperStyle.Render("Questions and answers will be logged here.")
	}
	var cb strings.Builder
	wrap := m.wrapWidth(4)
	for idx, exchange := range history {
		cb.WriteString(exchangeHeadline(idx+1, exchange))
		cb.WriteRune('\n')
		body := exchangeBody(exchange)
		cb.WriteString(indentMultiline(wordwrap.String(body, wrap), "  "))
		if idx < len(history)-1 {
			cb.WriteRune('\n')
		}
	}
	return cb.String()
}

func exchangeHeadline(n int, exchange session.Exchange) string {
	label := "Chat"
	if exchange.Kind == session.KindUpload {
		label = "Upload " + exchange.FileName
	}
	headline := fmt.Sprintf("#%d %s: %s", n, label, previewText(exchange.Question, 60))
	return sectionHeaderStyle.Render(headline)
}

func exchangeBody(exchange session.Exchange) string {
	switch exchange.Status {
	case session.StatusPending:
		return "waiting for the service…"
	case session.StatusAnswered:
		answer := previewText(exchange.Answer, logPreviewLimit)
		if answer == "" {
			answer = "(empty answer)"
		}
		return fmt.Sprintf("%s (%s)", answer, exchange.Duration().Round(time.Millisecond))
	case session.StatusFailed:
		return fmt.Sprintf("failed after %s", exchange.Duration().Round(time.Millisecond))
	case session.StatusCanceled:
		return "canceled"
	case session.StatusSuperseded:
		return "superseded by a newer request"
	default:
		return string(exchange.Status)
	}
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.layout.contentWidth
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func previewText(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
