// Package session persists per-user dashboard state between runs: whether
// onboarding is done and which loops were dismissed locally.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/natefinch/atomic"
)

const (
	CurrentVersion = 1

	defaultDebounce = 500 * time.Millisecond
)

// State is the persisted session document.
type State struct {
	Version     int        `json:"version"`
	Onboarded   bool       `json:"onboarded"`
	OnboardedAt *time.Time `json:"onboarded_at,omitempty"`
	Dismissed   []string   `json:"dismissed,omitempty"` // loop ids resolved locally
	LastView    string     `json:"last_view,omitempty"`
}

// Manager owns the session file. Mutations are written after a short
// debounce; Close flushes anything pending.
type Manager struct {
	path     string
	lockPath string

	mu        sync.Mutex
	state     State
	dirty     bool
	timer     *time.Timer
	debounce  time.Duration
	lastWrite time.Time
}

// New creates a manager for path. An empty path keeps state in memory.
func New(path string) *Manager {
	path = strings.TrimSpace(path)
	lockPath := ""
	if path != "" {
		lockPath = path + ".lock"
	}
	return &Manager{
		path:     path,
		lockPath: lockPath,
		state:    State{Version: CurrentVersion},
		debounce: defaultDebounce,
	}
}

func (m *Manager) Path() string { return m.path }

// LoadState reads the session file. A missing or empty file is a fresh session.
func (m *Manager) LoadState() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.path == "" {
		return nil
	}

	loaded, err := m.loadLocked()
	if err != nil {
		return err
	}
	m.state = loaded
	m.dirty = false
	return nil
}

func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.state)
}

func (m *Manager) Onboarded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Onboarded
}

// MarkOnboarded records that onboarding finished. It is never undone.
func (m *Manager) MarkOnboarded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Onboarded {
		return
	}
	now := time.Now().UTC()
	m.state.Onboarded = true
	m.state.OnboardedAt = &now
	m.markDirtyLocked()
}

func (m *Manager) SetLastView(view string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	view = strings.TrimSpace(view)
	if m.state.LastView == view {
		return
	}
	m.state.LastView = view
	m.markDirtyLocked()
}

// Load returns the dismissed ids, re-reading the file unless unsaved changes
// are pending. It satisfies overlay.Store.
func (m *Manager) Load(context.Context) ([]string, error) {
	m.mu.Lock()
	dirty := m.dirty
	m.mu.Unlock()
	if !dirty {
		if err := m.LoadState(); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.state.Dismissed...), nil
}

// Save replaces the dismissed ids. It satisfies overlay.Store.
func (m *Manager) Save(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Dismissed = normalizeIDs(ids)
	m.markDirtyLocked()
	return nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	needsSave := m.dirty
	m.mu.Unlock()
	if !needsSave {
		return nil
	}
	return m.SaveNow()
}

func (m *Manager) SaveNow() error {
	m.mu.Lock()
	if m.path == "" {
		m.dirty = false
		m.mu.Unlock()
		return nil
	}
	state := cloneState(m.state)
	m.dirty = false
	m.mu.Unlock()

	state.Version = CurrentVersion
	state = normalizeState(state)

	if err := withFileLock(m.lockPath, func() error {
		return writeStateFile(m.path, state)
	}); err != nil {
		m.mu.Lock()
		m.dirty = true
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.lastWrite = time.Now().UTC()
	m.mu.Unlock()
	return nil
}

func (m *Manager) markDirtyLocked() {
	m.dirty = true
	if m.path == "" {
		return
	}
	if m.timer == nil {
		m.timer = time.AfterFunc(m.debounce, func() {
			_ = m.SaveNow()
		})
		return
	}
	_ = m.timer.Reset(m.debounce)
}

func (m *Manager) loadLocked() (State, error) {
	var out State
	if err := withFileLock(m.lockPath, func() error {
		payload, err := os.ReadFile(m.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				out = State{Version: CurrentVersion}
				return nil
			}
			return err
		}
		if len(bytes.TrimSpace(payload)) == 0 {
			out = State{Version: CurrentVersion}
			return nil
		}

		if err := json.Unmarshal(payload, &out); err == nil && out.Version > 0 {
			return nil
		}

		// Unversioned files mirror the browser's storage, where the flag was
		// the string "true".
		var legacy struct {
			Onboarded any      `json:"onboarded"`
			Dismissed []string `json:"dismissed"`
		}
		if err := json.Unmarshal(payload, &legacy); err != nil {
			return fmt.Errorf("parse session %s: %w", m.path, err)
		}
		out = State{
			Version:   CurrentVersion,
			Onboarded: legacy.Onboarded == true || legacy.Onboarded == "true",
			Dismissed: legacy.Dismissed,
		}
		return nil
	}); err != nil {
		return State{}, err
	}

	return normalizeState(out), nil
}

func withFileLock(lockPath string, fn func() error) error {
	if strings.TrimSpace(lockPath) == "" {
		return fn()
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock %s: %w", lockPath, err)
	}
	defer func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}()
	return fn()
}

func writeStateFile(path string, state State) error {
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("write session %s: %w", path, err)
	}
	return nil
}

func normalizeState(state State) State {
	if state.Version <= 0 {
		state.Version = CurrentVersion
	}
	state.Dismissed = normalizeIDs(state.Dismissed)
	if !state.Onboarded {
		state.OnboardedAt = nil
	}
	return state
}

func normalizeIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func cloneState(state State) State {
	out := state
	if state.OnboardedAt != nil {
		at := *state.OnboardedAt
		out.OnboardedAt = &at
	}
	if len(state.Dismissed) > 0 {
		out.Dismissed = append([]string(nil), state.Dismissed...)
	}
	return out
}
