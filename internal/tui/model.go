// Package tui renders the assistant dashboard in the terminal.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tOgg1/pedrito/internal/assistant"
	"github.com/tOgg1/pedrito/internal/briefing"
	"github.com/tOgg1/pedrito/internal/models"
)

const (
	defaultStatusTTL = 5 * time.Second
	defaultClockTick = 30 * time.Second
	actionTimeout    = 15 * time.Second

	minWindowWidth  = 60
	minWindowHeight = 16
)

// Controller is the part of the assistant the dashboard drives.
type Controller interface {
	Snapshot() assistant.Snapshot
	Subscribe() (<-chan assistant.Snapshot, func())
	CompleteOnboarding(ctx context.Context) error
	Reconnect(ctx context.Context) error
	RefreshBriefing(ctx context.Context) error
	Complete(ctx context.Context, loopID string) error
	Dismiss(ctx context.Context, loopID string) error
}

// Config controls dashboard behavior.
type Config struct {
	Theme string
	Now   func() time.Time
}

// Run starts the dashboard and blocks until the user quits or ctx ends.
func Run(ctx context.Context, ctrl Controller, cfg Config) error {
	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	m := newModel(ctrl, updates, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusErr
)

type actionKind int

const (
	actionOnboard actionKind = iota
	actionReconnect
	actionRefresh
	actionComplete
	actionDismiss
)

func (k actionKind) done() string {
	switch k {
	case actionOnboard:
		return "Welcome aboard"
	case actionReconnect:
		return "Trying to link again"
	case actionRefresh:
		return "Refreshing your briefing"
	case actionComplete:
		return "Marked done"
	case actionDismiss:
		return "Dismissed"
	default:
		return ""
	}
}

type model struct {
	ctrl    Controller
	updates <-chan assistant.Snapshot
	palette palette
	now     func() time.Time

	width  int
	height int

	snap       assistant.Snapshot
	rows       []models.Loop
	selectedID string
	selected   int
	showHelp   bool

	statusText    string
	statusKind    statusKind
	statusExpires time.Time
	quitting      bool
}

type snapshotMsg assistant.Snapshot

type closedMsg struct{}

type tickMsg struct{}

type actionResultMsg struct {
	Kind   actionKind
	LoopID string
	Err    error
}

func newModel(ctrl Controller, updates <-chan assistant.Snapshot, cfg Config) model {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	m := model{
		ctrl:    ctrl,
		updates: updates,
		palette: resolvePalette(cfg.Theme),
		now:     now,
	}
	m.applySnapshot(ctrl.Snapshot())
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.waitCmd(), m.tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case snapshotMsg:
		m.applySnapshot(assistant.Snapshot(msg))
		return m, m.waitCmd()
	case closedMsg:
		m.quitting = true
		return m, tea.Quit
	case tickMsg:
		if !m.statusExpires.IsZero() && m.now().After(m.statusExpires) {
			m.statusText = ""
		}
		return m, m.tickCmd()
	case actionResultMsg:
		if msg.Err != nil {
			m.setStatus(statusErr, msg.Err.Error())
			return m, nil
		}
		m.setStatus(statusOK, msg.Kind.done())
		return m, nil
	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	case "t":
		m.palette = cyclePalette(m.palette.Name, 1)
		return m, nil
	}

	switch m.snap.View {
	case models.ViewOnboarding:
		if key == "enter" || key == " " {
			return m, m.actionCmd(actionOnboard, "")
		}
	case models.ViewDisconnected:
		if key == "R" || key == "enter" {
			return m, m.actionCmd(actionReconnect, "")
		}
	case models.ViewDigest:
		return m.updateDigestKeys(key)
	}
	return m, nil
}

func (m model) updateDigestKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		m.moveSelection(-1)
	case "down", "j":
		m.moveSelection(1)
	case "home", "g":
		m.moveSelection(-len(m.rows))
	case "end", "G":
		m.moveSelection(len(m.rows))
	case "r":
		return m, m.actionCmd(actionRefresh, "")
	case "c", "x":
		loop, ok := m.selectedLoop()
		if !ok {
			return m, nil
		}
		kind := actionComplete
		if key == "x" {
			kind = actionDismiss
		}
		m.setStatus(statusInfo, "Updating "+loop.Summary())
		return m, m.actionCmd(kind, loop.ID)
	}
	return m, nil
}

// applySnapshot rebuilds the row list and keeps the cursor on the same loop
// when it survives, or on the same position when it does not.
func (m *model) applySnapshot(s assistant.Snapshot) {
	m.snap = s
	rows := make([]models.Loop, 0, len(s.Loops))
	for _, section := range briefing.GroupByLane(s.Loops).Sections() {
		rows = append(rows, section.Loops...)
	}
	m.rows = rows

	if len(rows) == 0 {
		m.selected = 0
		m.selectedID = ""
		return
	}
	for i, l := range rows {
		if l.ID == m.selectedID {
			m.selected = i
			return
		}
	}
	if m.selected >= len(rows) {
		m.selected = len(rows) - 1
	}
	m.selectedID = rows[m.selected].ID
}

func (m *model) moveSelection(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.selected += delta
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= len(m.rows) {
		m.selected = len(m.rows) - 1
	}
	m.selectedID = m.rows[m.selected].ID
}

func (m model) selectedLoop() (models.Loop, bool) {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return models.Loop{}, false
	}
	return m.rows[m.selected], true
}

func (m *model) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.statusText = strings.TrimSpace(text)
	m.statusExpires = m.now().Add(defaultStatusTTL)
}

func (m model) waitCmd() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return snapshotMsg(s)
	}
}

func (m model) tickCmd() tea.Cmd {
	return tea.Tick(defaultClockTick, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m model) actionCmd(kind actionKind, loopID string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		var err error
		switch kind {
		case actionOnboard:
			err = ctrl.CompleteOnboarding(ctx)
		case actionReconnect:
			err = ctrl.Reconnect(ctx)
		case actionRefresh:
			err = ctrl.RefreshBriefing(ctx)
		case actionComplete:
			err = ctrl.Complete(ctx, loopID)
		case actionDismiss:
			err = ctrl.Dismiss(ctx, loopID)
		}
		return actionResultMsg{Kind: kind, LoopID: loopID, Err: err}
	}
}

func (m model) effectiveWidth() int {
	if m.width < minWindowWidth {
		return minWindowWidth
	}
	return m.width
}

func (m model) effectiveHeight() int {
	if m.height < minWindowHeight {
		return minWindowHeight
	}
	return m.height
}
