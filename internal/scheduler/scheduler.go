// Package scheduler runs the status and pairing-code polls. Each poll is a
// timer owned by a view scope: it starts when the scope is entered and is
// released, with its goroutine joined, when the scope is left.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/pedrito/internal/logging"
	"github.com/tOgg1/pedrito/internal/models"
)

// Scheduler errors.
var (
	ErrClosed     = errors.New("scheduler closed")
	ErrNotStarted = errors.New("scheduler not started")
)

// Config contains the poll cadences.
type Config struct {
	// StatusInterval is how often the connection status is polled.
	// Default: 5s
	StatusInterval time.Duration

	// PairingInterval is how often the pairing code is refreshed while the
	// connect screen is shown.
	// Default: 15s
	PairingInterval time.Duration
}

// DefaultConfig returns the standard cadences.
func DefaultConfig() Config {
	return Config{
		StatusInterval:  5 * time.Second,
		PairingInterval: 15 * time.Second,
	}
}

// Tick is one poll. It receives the timer's context, which is cancelled when
// the timer is released.
type Tick func(ctx context.Context)

type timer struct {
	name     string
	interval time.Duration
	fn       Tick
	cancel   context.CancelFunc
	done     chan struct{}
}

func (t *timer) run(ctx context.Context) {
	defer close(t.done)

	t.fn(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.fn(ctx)
		}
	}
}

func (t *timer) release() {
	t.cancel()
	<-t.done
}

// Scheduler owns the status and pairing timers.
type Scheduler struct {
	config    Config
	onStatus  Tick
	onPairing Tick
	logger    zerolog.Logger

	mu      sync.Mutex
	ctx     context.Context
	closed  bool
	status  *timer
	pairing *timer
}

// New creates a scheduler. Nothing runs until Start and Apply.
func New(config Config, onStatus, onPairing Tick) *Scheduler {
	if config.StatusInterval <= 0 {
		config.StatusInterval = DefaultConfig().StatusInterval
	}
	if config.PairingInterval <= 0 {
		config.PairingInterval = DefaultConfig().PairingInterval
	}
	return &Scheduler{
		config:    config,
		onStatus:  onStatus,
		onPairing: onPairing,
		logger:    logging.Component("scheduler"),
	}
}

// Start binds the scheduler to ctx. Timers acquired later derive from it.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.ctx = ctx
	return nil
}

// Apply brings the timers in line with view. The status timer runs in every
// view except onboarding; the pairing timer runs only on the connect screen.
// Timers leaving scope are released before Apply returns.
func (s *Scheduler) Apply(view models.View) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.ctx == nil {
		s.mu.Unlock()
		return ErrNotStarted
	}

	var release []*timer
	if view == models.ViewOnboarding {
		if s.status != nil {
			release = append(release, s.status)
			s.status = nil
		}
	} else if s.status == nil && s.onStatus != nil {
		s.status = s.acquireLocked("status", s.config.StatusInterval, s.onStatus)
	}

	if view == models.ViewConnectWhatsApp {
		if s.pairing == nil && s.onPairing != nil {
			s.pairing = s.acquireLocked("pairing", s.config.PairingInterval, s.onPairing)
		}
	} else if s.pairing != nil {
		release = append(release, s.pairing)
		s.pairing = nil
	}
	s.mu.Unlock()

	for _, t := range release {
		t.release()
		s.logger.Debug().Str("timer", t.name).Str("view", string(view)).Msg("timer released")
	}
	return nil
}

func (s *Scheduler) acquireLocked(name string, interval time.Duration, fn Tick) *timer {
	ctx, cancel := context.WithCancel(s.ctx)
	t := &timer{
		name:     name,
		interval: interval,
		fn:       fn,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	s.logger.Debug().Str("timer", name).Dur("interval", interval).Msg("timer acquired")
	go t.run(ctx)
	return t
}

// StatusRunning reports whether the status timer is held.
func (s *Scheduler) StatusRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status != nil
}

// PairingRunning reports whether the pairing timer is held.
func (s *Scheduler) PairingRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pairing != nil
}

// Close releases both timers. No tick runs after Close returns.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	timers := []*timer{s.status, s.pairing}
	s.status, s.pairing = nil, nil
	s.mu.Unlock()

	for _, t := range timers {
		if t != nil {
			t.release()
		}
	}
	s.logger.Debug().Msg("scheduler closed")
	return nil
}
