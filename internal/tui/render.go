package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tOgg1/pedrito/internal/briefing"
	"github.com/tOgg1/pedrito/internal/models"
)

func (m model) View() string {
	if m.quitting {
		return ""
	}

	width := m.effectiveWidth()
	height := m.effectiveHeight()

	header := m.renderHeader(width)
	overhead := 3
	advisories := m.renderAdvisories(width)
	if advisories != "" {
		overhead += strings.Count(advisories, "\n") + 1
	}
	if m.statusText != "" {
		overhead++
	}
	bodyHeight := maxInt(6, height-overhead)

	var body string
	switch m.snap.View {
	case models.ViewOnboarding:
		body = m.renderOnboarding(width, bodyHeight)
	case models.ViewConnectWhatsApp:
		body = m.renderConnect(width, bodyHeight)
	case models.ViewConnecting:
		body = m.renderConnecting(width, bodyHeight)
	case models.ViewDisconnected:
		body = m.renderDisconnected(width, bodyHeight)
	default:
		body = m.renderDigest(width, bodyHeight)
	}

	parts := []string{header}
	if advisories != "" {
		parts = append(parts, advisories)
	}
	parts = append(parts, body)
	if m.showHelp {
		parts = append(parts, m.renderHelp(width))
	}
	if m.statusText != "" {
		parts = append(parts, m.renderStatusLine(width))
	}
	parts = append(parts, m.renderFooter(width))
	return strings.Join(parts, "\n")
}

func (m model) renderHeader(width int) string {
	title := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Accent)).Bold(true).Render("Pedrito")
	label := m.snap.ViewLabel
	if label == "" {
		label = m.snap.View.Label()
	}
	badgeColor := m.palette.TextMuted
	switch m.snap.View {
	case models.ViewDigest:
		badgeColor = m.palette.Success
	case models.ViewConnecting, models.ViewConnectWhatsApp:
		badgeColor = m.palette.Warning
	case models.ViewDisconnected:
		badgeColor = m.palette.Error
	}
	badge := lipgloss.NewStyle().Foreground(lipgloss.Color(badgeColor)).Render("● " + label)
	line := title + "  " + badge
	if m.snap.Refreshing {
		line += lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.TextMuted)).Render("  refreshing...")
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.palette.Text)).
		Background(lipgloss.Color(m.palette.Panel)).
		Width(width).
		Render(line)
}

func (m model) renderAdvisories(width int) string {
	if len(m.snap.Advisories) == 0 {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Warning))
	lines := make([]string, 0, len(m.snap.Advisories))
	for _, adv := range m.snap.Advisories {
		lines = append(lines, style.Render(truncateLine("! "+adv.Message, width)))
	}
	return strings.Join(lines, "\n")
}

func (m model) panel(width, height int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.palette.Border)).
		Padding(0, 1).
		Width(maxInt(10, width-2)).
		Height(maxInt(3, height-2))
}

func (m model) muted(text string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.TextMuted)).Render(text)
}

func (m model) renderOnboarding(width, height int) string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.palette.Text)).Render("Hi, I'm Pedrito.")
	lines := []string{
		heading,
		"",
		"I read your WhatsApp conversations and keep track of the things",
		"you promised, the questions you owe answers to, and the follow-ups",
		"that are easy to forget.",
		"",
		m.muted("Press enter to get started."),
	}
	return m.panel(width, height).Render(strings.Join(lines, "\n"))
}

func (m model) renderConnect(width, height int) string {
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render("Link WhatsApp"),
		"",
		"Open WhatsApp on your phone, go to Linked devices, and scan the code.",
		"",
	}
	if m.snap.Pairing.Empty() {
		lines = append(lines, m.muted("Waiting for a pairing code..."))
	} else {
		ready := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Info)).Render("Pairing code ready")
		lines = append(lines,
			fmt.Sprintf("%s (%s, %d bytes)", ready, m.snap.Pairing.ContentType, len(m.snap.Pairing.Data)),
			m.muted("Open the web view or GET /api/pairing-code to scan it."),
		)
	}
	return m.panel(width, height).Render(strings.Join(lines, "\n"))
}

func (m model) renderConnecting(width, height int) string {
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render("Linking..."),
		"",
		"WhatsApp is syncing your conversations. This usually takes a minute.",
	}
	return m.panel(width, height).Render(strings.Join(lines, "\n"))
}

func (m model) renderDisconnected(width, height int) string {
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.palette.Error)).Render("Link lost"),
		"",
		"WhatsApp is no longer linked to Pedrito.",
		"",
		m.muted("Press R to link again."),
	}
	return m.panel(width, height).Render(strings.Join(lines, "\n"))
}

func (m model) renderDigest(width, height int) string {
	inner := maxInt(10, width-4)
	var lines []string

	if d := m.snap.Digest; d != nil {
		if d.NarrativeSummary != "" {
			lines = append(lines, wrap(d.NarrativeSummary, inner)...)
			lines = append(lines, "")
		}
		if d.HasChips() {
			lines = append(lines, m.renderChips("People", d.KeyPeople, inner))
			lines = append(lines, m.renderChips("Topics", d.KeyTopics, inner))
			lines = append(lines, "")
		}
	}
	lines = append(lines, m.renderCounts(inner), "")

	if !m.snap.LoopsLoaded {
		lines = append(lines, m.muted("Loading your open loops..."))
		return m.panel(width, height).Render(strings.Join(lines, "\n"))
	}
	if len(m.rows) == 0 {
		lines = append(lines, m.muted("Nothing open. You're all caught up."))
		return m.panel(width, height).Render(strings.Join(lines, "\n"))
	}

	idx := 0
	focus := 0
	for _, section := range briefing.GroupByLane(m.snap.Loops).Sections() {
		title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.palette.Accent)).
			Render(fmt.Sprintf("%s (%d)", section.Title, len(section.Loops)))
		lines = append(lines, title)
		for _, l := range section.Loops {
			if idx == m.selected {
				focus = len(lines)
			}
			lines = append(lines, m.renderLoopRow(l, idx == m.selected, inner)...)
			idx++
		}
		lines = append(lines, "")
	}

	lines = windowAround(lines, focus, maxInt(3, height-2))
	return m.panel(width, height).Render(strings.Join(lines, "\n"))
}

func (m model) renderChips(label string, values []string, width int) string {
	if len(values) == 0 {
		return m.muted(label + ": none")
	}
	chips := make([]string, 0, len(values))
	for _, v := range values {
		chips = append(chips, "["+v+"]")
	}
	text := truncateLine(strings.Join(chips, " "), width-len(label)-2)
	return m.muted(label+": ") + lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Info)).Render(text)
}

func (m model) renderCounts(width int) string {
	counts := briefing.CountCategories(m.snap.Loops)
	parts := make([]string, 0, len(models.KnownCategories))
	for _, c := range models.KnownCategories {
		parts = append(parts, fmt.Sprintf("%s %d", briefing.CategoryLabel(c), counts[c]))
	}
	return m.muted(truncateLine(strings.Join(parts, " · "), width))
}

func (m model) renderLoopRow(l models.Loop, selected bool, width int) []string {
	marker := "  "
	summaryStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Text))
	if selected {
		marker = lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Focus)).Bold(true).Render("> ")
		summaryStyle = summaryStyle.Bold(true)
	}
	summary := marker + summaryStyle.Render(truncateLine(l.Summary(), width-2))
	meta := "  " + m.muted(truncateLine(briefing.MetaLine(l, m.now()), width-2))
	return []string{summary, meta}
}

func (m model) renderHelp(width int) string {
	rows := []string{
		"enter  get started / link again",
		"j/k    move selection",
		"c      mark selected loop done",
		"x      dismiss selected loop",
		"r      refresh briefing",
		"R      reconnect WhatsApp",
		"t      cycle theme",
		"q      quit",
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.palette.Focus)).
		Padding(0, 1).
		Width(maxInt(10, width-2)).
		Render(strings.Join(rows, "\n"))
}

func (m model) renderStatusLine(width int) string {
	style := lipgloss.NewStyle()
	switch m.statusKind {
	case statusOK:
		style = style.Foreground(lipgloss.Color(m.palette.Success)).Bold(true)
	case statusErr:
		style = style.Foreground(lipgloss.Color(m.palette.Error)).Bold(true)
	default:
		style = style.Foreground(lipgloss.Color(m.palette.Info))
	}
	return style.Render(truncateLine(m.statusText, maxInt(1, width-1)))
}

func (m model) renderFooter(width int) string {
	var hints string
	switch m.snap.View {
	case models.ViewOnboarding:
		hints = "enter start  ? help  q quit"
	case models.ViewDisconnected:
		hints = "R reconnect  ? help  q quit"
	case models.ViewDigest:
		hints = "j/k move  c done  x dismiss  r refresh  ? help  q quit"
	default:
		hints = "? help  q quit"
	}
	return m.muted(truncateLine(hints, width))
}

func windowAround(lines []string, focus, height int) []string {
	if len(lines) <= height {
		return lines
	}
	start := focus - height/2
	if start < 0 {
		start = 0
	}
	if start+height > len(lines) {
		start = len(lines) - height
	}
	return lines[start : start+height]
}

func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var out []string
	line := words[0]
	for _, w := range words[1:] {
		if lipgloss.Width(line)+1+lipgloss.Width(w) > width {
			out = append(out, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(out, line)
}

func truncateLine(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(text) <= width {
		return text
	}
	runes := []rune(text)
	if width <= 3 || len(runes) <= width {
		if len(runes) > width {
			return string(runes[:width])
		}
		return text
	}
	return string(runes[:width-3]) + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
