package assistant

import (
	"context"
	"errors"

	"github.com/tOgg1/pedrito/internal/logging"
	"github.com/tOgg1/pedrito/internal/models"
	"github.com/tOgg1/pedrito/internal/normalize"
	"github.com/tOgg1/pedrito/internal/upstream"
)

type loopAction string

const (
	actionComplete loopAction = "complete"
	actionDismiss  loopAction = "dismiss"
)

// event is applied on the event loop goroutine.
type event interface {
	apply(ctx context.Context, a *Assistant)
}

type commandEvent struct {
	fn    func(context.Context) error
	reply chan error
}

// The snapshot is published before replying so callers observe their change.
func (e commandEvent) apply(ctx context.Context, a *Assistant) {
	err := e.fn(ctx)
	a.publish()
	e.reply <- err
}

type statusEvent struct {
	body []byte
	err  error
}

// A failed poll, including a body that is not JSON, reads as unknown, which
// fails open toward pairing.
func (e statusEvent) apply(ctx context.Context, a *Assistant) {
	state := models.StateUnknown
	err := e.err
	var raw any
	if err == nil {
		raw, err = normalize.DecodeStrict(e.body)
	}
	if err != nil {
		a.advise(models.AdvisoryStatus, models.MessageStatusUnreachable, err)
	} else {
		a.clearAdvisory(models.AdvisoryStatus)
		state = a.interpreter.Interpret(raw)
	}
	a.transition(ctx, a.machine.Observe(state))
}

type pairingEvent struct {
	image models.PairingImage
	err   error
}

func (e pairingEvent) apply(_ context.Context, a *Assistant) {
	if a.machine.View() != models.ViewConnectWhatsApp {
		return
	}
	if e.err != nil {
		if errors.Is(e.err, upstream.ErrUndecodablePairing) {
			a.pairing = models.PairingImage{}
		}
		a.advise(models.AdvisoryPairing, models.MessagePairingUnavailable, e.err)
		return
	}
	a.clearAdvisory(models.AdvisoryPairing)
	a.pairing = e.image
}

type briefingEvent struct {
	briefing Briefing
}

// Failures keep the last known loops and digest.
func (e briefingEvent) apply(ctx context.Context, a *Assistant) {
	a.inFlight--
	b := e.briefing

	if b.LoopsErr != nil {
		a.advise(models.AdvisoryLoops, models.MessageBriefingFailed, b.LoopsErr)
	} else {
		visible, err := a.overlay.Reconcile(ctx, b.Loops)
		if err != nil {
			a.logger.Warn().Err(err).Msg("reconciled dismissals not persisted")
		}
		a.loops = visible
		a.loopsLoaded = true
		a.clearAdvisory(models.AdvisoryLoops)
	}

	if !b.WithDigest {
		return
	}
	if b.DigestErr != nil {
		a.advise(models.AdvisoryDigest, models.MessageBriefingFailed, b.DigestErr)
		return
	}
	a.digest = b.Digest
	a.clearAdvisory(models.AdvisoryDigest)
}

type actionEvent struct {
	loopID string
	action loopAction
	err    error
}

// The local removal stands either way; the follow-up refresh settles it.
func (e actionEvent) apply(ctx context.Context, a *Assistant) {
	a.inFlight--
	logger := logging.WithLoop(a.logger, e.loopID)
	if e.err != nil {
		a.advise(models.AdvisoryAction, models.MessageActionFailed, e.err)
	} else {
		a.clearAdvisory(models.AdvisoryAction)
		logger.Info().Str("action", string(e.action)).Msg("loop resolved upstream")
	}
	a.startBriefing(ctx, false)
}
