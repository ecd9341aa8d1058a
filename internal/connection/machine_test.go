package connection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/pedrito/internal/models"
)

func TestViewFor(t *testing.T) {
	require.Equal(t, models.ViewDigest, ViewFor(models.StateConnected))
	require.Equal(t, models.ViewConnecting, ViewFor(models.StateConnecting))
	require.Equal(t, models.ViewConnectWhatsApp, ViewFor(models.StateWaitingQR))
	require.Equal(t, models.ViewDisconnected, ViewFor(models.StateDisconnected))
	require.Equal(t, models.ViewConnectWhatsApp, ViewFor(models.StateUnknown))
}

func TestMachineStartsInOnboardingAndIgnoresStatus(t *testing.T) {
	m := NewMachine(false)
	require.Equal(t, models.ViewOnboarding, m.View())

	tr := m.Observe(models.StateConnected)
	require.False(t, tr.Changed())
	require.Equal(t, models.ViewOnboarding, m.View())
	require.Equal(t, models.StateConnected, m.State())
}

func TestMachineCompleteOnboardingOnce(t *testing.T) {
	m := NewMachine(false)
	tr := m.CompleteOnboarding()
	require.Equal(t, Transition{From: models.ViewOnboarding, To: models.ViewConnectWhatsApp}, tr)
	require.True(t, m.Onboarded())

	m.Observe(models.StateConnected)
	tr = m.CompleteOnboarding()
	require.False(t, tr.Changed())
	require.Equal(t, models.ViewDigest, m.View())
}

func TestMachineStatusSequenceNeverReturnsToOnboarding(t *testing.T) {
	m := NewMachine(false)
	m.CompleteOnboarding()

	seen := []models.View{}
	for _, payload := range []map[string]any{
		{"state": "CONNECTING"},
		{"connected": true},
		{},
		{"status": "logout"},
		{"status": "waiting"},
	} {
		m.Observe(Interpret(payload))
		seen = append(seen, m.View())
	}

	require.Equal(t, []models.View{
		models.ViewConnecting,
		models.ViewDigest,
		models.ViewConnectWhatsApp,
		models.ViewDisconnected,
		models.ViewConnectWhatsApp,
	}, seen)
	require.NotContains(t, seen, models.ViewOnboarding)
}

func TestMachineResumesOnboardedSession(t *testing.T) {
	m := NewMachine(true)
	require.Equal(t, models.ViewConnectWhatsApp, m.View())
	require.Equal(t, models.StateUnknown, m.State())
}

func TestMachineReconnect(t *testing.T) {
	m := NewMachine(true)
	m.Observe(models.StateDisconnected)
	tr := m.Reconnect()
	require.Equal(t, Transition{From: models.ViewDisconnected, To: models.ViewConnectWhatsApp}, tr)

	m.Observe(models.StateConnected)
	require.False(t, m.Reconnect().Changed())
}
