package connection

import (
	"sync"

	"github.com/tOgg1/pedrito/internal/models"
)

// ViewFor maps a connection state to the screen it drives. Unknown fails open
// toward pairing rather than an error screen.
func ViewFor(state models.ConnectionState) models.View {
	switch state {
	case models.StateConnected:
		return models.ViewDigest
	case models.StateConnecting:
		return models.ViewConnecting
	case models.StateWaitingQR:
		return models.ViewConnectWhatsApp
	case models.StateDisconnected:
		return models.ViewDisconnected
	default:
		return models.ViewConnectWhatsApp
	}
}

// Transition records a view change.
type Transition struct {
	From models.View
	To   models.View
}

// Changed reports whether the view actually moved.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Machine derives the active view. Onboarding is local-only: it is left once
// by CompleteOnboarding and never re-entered from a status observation.
type Machine struct {
	mu        sync.Mutex
	view      models.View
	state     models.ConnectionState
	onboarded bool
}

// NewMachine starts in onboarding, or at the pairing screen when onboarding
// was completed in an earlier session.
func NewMachine(onboarded bool) *Machine {
	view := models.ViewOnboarding
	if onboarded {
		view = models.ViewConnectWhatsApp
	}
	return &Machine{view: view, state: models.StateUnknown, onboarded: onboarded}
}

// View returns the active view.
func (m *Machine) View() models.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// State returns the last observed connection state.
func (m *Machine) State() models.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Onboarded reports whether onboarding has been completed.
func (m *Machine) Onboarded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.onboarded
}

// CompleteOnboarding leaves the onboarding view. Calling it again is a no-op.
func (m *Machine) CompleteOnboarding() Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.view
	if !m.onboarded {
		m.onboarded = true
		m.view = models.ViewConnectWhatsApp
	}
	return Transition{From: from, To: m.view}
}

// Observe records a connection state and re-derives the view. Before
// onboarding completes the state is recorded but the view does not move.
func (m *Machine) Observe(state models.ConnectionState) Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.view
	m.state = state
	if m.onboarded {
		m.view = ViewFor(state)
	}
	return Transition{From: from, To: m.view}
}

// Reconnect sends a lost link back to the pairing screen.
func (m *Machine) Reconnect() Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.view
	if m.view == models.ViewDisconnected {
		m.view = models.ViewConnectWhatsApp
	}
	return Transition{From: from, To: m.view}
}
