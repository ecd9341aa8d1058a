// Package assistant owns the dashboard session. A single event-loop goroutine
// applies scheduler ticks, fetch completions and user actions one at a time
// and publishes immutable snapshots to the UI layers.
package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/pedrito/internal/connection"
	"github.com/tOgg1/pedrito/internal/logging"
	"github.com/tOgg1/pedrito/internal/models"
	"github.com/tOgg1/pedrito/internal/normalize"
	"github.com/tOgg1/pedrito/internal/overlay"
	"github.com/tOgg1/pedrito/internal/scheduler"
	"github.com/tOgg1/pedrito/internal/upstream"
)

// Assistant errors.
var (
	ErrAlreadyRunning = errors.New("assistant already running")
	ErrStopped        = errors.New("assistant stopped")
	ErrUnknownLoop    = errors.New("loop not in the current list")
)

const eventBuffer = 64

// SessionStore persists onboarding and the last view.
type SessionStore interface {
	Onboarded() bool
	MarkOnboarded()
	SetLastView(view string)
}

// Options configures an Assistant. Fetcher is required.
type Options struct {
	Fetcher     upstream.Fetcher
	Overlay     *overlay.Overlay
	Session     SessionStore
	Normalizer  *normalize.Normalizer
	Interpreter *connection.Interpreter
	Scheduler   scheduler.Config
	Now         func() time.Time
}

// Assistant is the dashboard controller.
type Assistant struct {
	fetcher     upstream.Fetcher
	overlay     *overlay.Overlay
	session     SessionStore
	normalizer  *normalize.Normalizer
	interpreter *connection.Interpreter
	machine     *connection.Machine
	sched       *scheduler.Scheduler
	now         func() time.Time
	logger      zerolog.Logger

	events chan event
	done   chan struct{}

	runMu   sync.Mutex
	running bool

	// Owned by the event loop.
	loops       []models.Loop
	loopsLoaded bool
	digest      *models.DigestSummary
	pairing     models.PairingImage
	advisories  map[models.AdvisorySource]models.Advisory
	inFlight    int
	version     uint64

	snapMu   sync.RWMutex
	snapshot Snapshot

	subMu  sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
}

// New creates an Assistant. Run starts it.
func New(opts Options) *Assistant {
	if opts.Overlay == nil {
		opts.Overlay = overlay.New(nil)
	}
	if opts.Normalizer == nil {
		opts.Normalizer = normalize.Default()
	}
	if opts.Interpreter == nil {
		opts.Interpreter = connection.NewInterpreter(connection.DefaultRules())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	onboarded := opts.Session != nil && opts.Session.Onboarded()

	a := &Assistant{
		fetcher:     opts.Fetcher,
		overlay:     opts.Overlay,
		session:     opts.Session,
		normalizer:  opts.Normalizer,
		interpreter: opts.Interpreter,
		machine:     connection.NewMachine(onboarded),
		now:         opts.Now,
		logger:      logging.Component("assistant"),
		events:      make(chan event, eventBuffer),
		done:        make(chan struct{}),
		advisories:  make(map[models.AdvisorySource]models.Advisory),
		subs:        make(map[int]chan Snapshot),
	}
	a.sched = scheduler.New(opts.Scheduler, a.pollStatus, a.pollPairing)
	a.snapshot = a.buildSnapshot()
	return a
}

// Run drives the event loop until ctx is cancelled. Timers are released
// before Run returns.
func (a *Assistant) Run(ctx context.Context) error {
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		return ErrAlreadyRunning
	}
	a.running = true
	a.runMu.Unlock()
	defer close(a.done)

	if err := a.sched.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := a.sched.Close(); err != nil && !errors.Is(err, scheduler.ErrClosed) {
			a.logger.Warn().Err(err).Msg("scheduler close failed")
		}
	}()

	view := a.machine.View()
	a.logger.Info().Str("view", string(view)).Msg("assistant starting")
	a.enterView(ctx, view)
	a.publish()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("assistant stopping")
			return nil
		case ev := <-a.events:
			ev.apply(ctx, a)
			a.publish()
		}
	}
}

// Snapshot returns the latest published state.
func (a *Assistant) Snapshot() Snapshot {
	a.snapMu.RLock()
	defer a.snapMu.RUnlock()
	return a.snapshot
}

// Subscribe returns a channel receiving each new snapshot. Slow readers only
// see the newest one. The returned func unsubscribes.
func (a *Assistant) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	a.subMu.Lock()
	id := a.nextID
	a.nextID++
	a.subs[id] = ch
	a.subMu.Unlock()

	ch <- a.Snapshot()
	return ch, func() {
		a.subMu.Lock()
		delete(a.subs, id)
		a.subMu.Unlock()
	}
}

// CompleteOnboarding leaves the onboarding view and starts status polling.
func (a *Assistant) CompleteOnboarding(ctx context.Context) error {
	return a.do(ctx, func(ctx context.Context) error {
		if a.session != nil {
			a.session.MarkOnboarded()
		}
		a.transition(ctx, a.machine.CompleteOnboarding())
		return nil
	})
}

// Reconnect returns from the lost-link screen to pairing.
func (a *Assistant) Reconnect(ctx context.Context) error {
	return a.do(ctx, func(ctx context.Context) error {
		a.transition(ctx, a.machine.Reconnect())
		return nil
	})
}

// RefreshBriefing reloads loops and the digest.
func (a *Assistant) RefreshBriefing(ctx context.Context) error {
	return a.do(ctx, func(ctx context.Context) error {
		a.startBriefing(ctx, true)
		return nil
	})
}

// Complete marks a loop done. It disappears locally before the upstream
// call is made.
func (a *Assistant) Complete(ctx context.Context, loopID string) error {
	return a.resolve(ctx, loopID, actionComplete)
}

// Dismiss dismisses a loop. It disappears locally before the upstream call
// is made.
func (a *Assistant) Dismiss(ctx context.Context, loopID string) error {
	return a.resolve(ctx, loopID, actionDismiss)
}

func (a *Assistant) resolve(ctx context.Context, loopID string, action loopAction) error {
	loopID = strings.TrimSpace(loopID)
	return a.do(ctx, func(ctx context.Context) error {
		if loopID == "" || !containsLoop(a.loops, loopID) {
			return ErrUnknownLoop
		}
		if err := a.overlay.Record(ctx, loopID); err != nil {
			logger := logging.WithLoop(a.logger, loopID)
			logger.Warn().Err(err).Msg("dismissal recorded but not persisted")
		}
		a.loops = a.overlay.Filter(a.loops)
		a.startAction(ctx, loopID, action)
		return nil
	})
}

// do runs fn on the event loop and waits for its result.
func (a *Assistant) do(ctx context.Context, fn func(context.Context) error) error {
	reply := make(chan error, 1)
	select {
	case a.events <- commandEvent{fn: fn, reply: reply}:
	case <-a.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-a.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post delivers an event from a worker goroutine. It gives up when ctx ends
// so released timers never block on a busy loop.
func (a *Assistant) post(ctx context.Context, ev event) {
	select {
	case a.events <- ev:
	case <-ctx.Done():
	case <-a.done:
	}
}

func (a *Assistant) pollStatus(ctx context.Context) {
	body, err := a.fetcher.Status(ctx)
	a.post(ctx, statusEvent{body: body, err: err})
}

func (a *Assistant) pollPairing(ctx context.Context) {
	img, err := a.fetcher.PairingCode(ctx)
	a.post(ctx, pairingEvent{image: img, err: err})
}

func (a *Assistant) startBriefing(ctx context.Context, withDigest bool) {
	a.inFlight++
	go func() {
		b := FetchBriefing(ctx, a.fetcher, a.normalizer, withDigest)
		a.post(ctx, briefingEvent{briefing: b})
	}()
}

func (a *Assistant) startAction(ctx context.Context, loopID string, action loopAction) {
	a.inFlight++
	go func() {
		var err error
		switch action {
		case actionComplete:
			err = a.fetcher.Complete(ctx, loopID)
		default:
			err = a.fetcher.Dismiss(ctx, loopID)
		}
		a.post(ctx, actionEvent{loopID: loopID, action: action, err: err})
	}()
}

// transition reacts to a view change: timers follow the view, and entering
// the digest loads the briefing once.
func (a *Assistant) transition(ctx context.Context, tr connection.Transition) {
	if !tr.Changed() {
		return
	}
	logger := logging.WithView(a.logger, string(tr.To))
	logger.Info().Str("from", string(tr.From)).Msg("view changed")
	if tr.From == models.ViewConnectWhatsApp {
		a.pairing = models.PairingImage{}
		delete(a.advisories, models.AdvisoryPairing)
	}
	a.enterView(ctx, tr.To)
}

func (a *Assistant) enterView(ctx context.Context, view models.View) {
	if err := a.sched.Apply(view); err != nil {
		a.logger.Warn().Err(err).Str("view", string(view)).Msg("failed to apply timers")
	}
	if a.session != nil {
		a.session.SetLastView(string(view))
	}
	if view == models.ViewDigest {
		a.startBriefing(ctx, true)
	}
}

func (a *Assistant) advise(source models.AdvisorySource, message string, err error) {
	a.logger.Warn().Err(err).Str("source", string(source)).Msg("upstream degraded")
	a.advisories[source] = models.Advisory{Source: source, Message: message, At: a.now().UTC()}
}

func (a *Assistant) clearAdvisory(source models.AdvisorySource) {
	delete(a.advisories, source)
}

func (a *Assistant) buildSnapshot() Snapshot {
	view := a.machine.View()
	return Snapshot{
		Version:     a.version,
		View:        view,
		ViewLabel:   view.Label(),
		State:       a.machine.State(),
		Onboarded:   a.machine.Onboarded(),
		Loops:       append([]models.Loop(nil), a.loops...),
		LoopsLoaded: a.loopsLoaded,
		Digest:      a.digest,
		Pairing:     a.pairing,
		Advisories:  sortedAdvisories(a.advisories),
		Refreshing:  a.inFlight > 0,
		UpdatedAt:   a.now().UTC(),
	}
}

func (a *Assistant) publish() {
	a.version++
	snap := a.buildSnapshot()

	a.snapMu.Lock()
	a.snapshot = snap
	a.snapMu.Unlock()

	a.subMu.Lock()
	defer a.subMu.Unlock()
	for _, ch := range a.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func containsLoop(loops []models.Loop, id string) bool {
	for _, l := range loops {
		if l.ID == id {
			return true
		}
	}
	return false
}
