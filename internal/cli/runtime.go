package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tOgg1/pedrito/internal/assistant"
	"github.com/tOgg1/pedrito/internal/config"
	"github.com/tOgg1/pedrito/internal/db"
	"github.com/tOgg1/pedrito/internal/logging"
	"github.com/tOgg1/pedrito/internal/overlay"
	"github.com/tOgg1/pedrito/internal/scheduler"
	"github.com/tOgg1/pedrito/internal/session"
	"github.com/tOgg1/pedrito/internal/upstream"
)

// runtime holds the stores and clients built from config.
type runtime struct {
	cfg      *config.Config
	session  *session.Manager
	database *db.DB
	overlay  *overlay.Overlay
	client   *upstream.Client
}

// openRuntime loads the session file and the dismissal overlay. Onboarding
// always lives in the session file; dismissals follow session.backend.
func openRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, session: session.New(cfg.StatePath())}
	if err := rt.session.LoadState(); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var store overlay.Store = rt.session
	if cfg.Session.Backend == config.BackendSQLite {
		database, err := db.Open(db.Config{
			Path:        cfg.DatabasePath(),
			BusyTimeout: time.Duration(cfg.Database.BusyTimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		applied, err := database.MigrateUp(ctx)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		logger := logging.Component("cli")
		logger.Debug().Int("applied", applied).Str("path", database.Path()).Msg("database ready")
		rt.database = database
		store = db.NewDismissalRepository(database)
	}

	rt.overlay = overlay.New(store)
	if err := rt.overlay.Load(ctx); err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("load dismissals: %w", err)
	}

	rt.client = upstream.NewClient(upstream.Config{
		WhatsAppBaseURL: cfg.Upstream.WhatsAppBaseURL,
		WhatsAppAPIKey:  cfg.Upstream.WhatsAppAPIKey,
		IntelBaseURL:    cfg.Upstream.IntelBaseURL,
		IntelAPIKey:     cfg.Upstream.IntelAPIKey,
		Timeout:         cfg.Upstream.RequestTimeout,
	})
	return rt, nil
}

func (rt *runtime) newAssistant() *assistant.Assistant {
	return assistant.New(assistant.Options{
		Fetcher:     rt.client,
		Overlay:     rt.overlay,
		Session:     rt.session,
		Normalizer:  rt.cfg.Normalizer(),
		Interpreter: rt.cfg.Interpreter(),
		Scheduler: scheduler.Config{
			StatusInterval:  rt.cfg.Polling.StatusInterval,
			PairingInterval: rt.cfg.Polling.PairingInterval,
		},
	})
}

// Close flushes the session file and closes the database.
func (rt *runtime) Close() error {
	var errs []error
	if rt.session != nil {
		errs = append(errs, rt.session.Close())
	}
	if rt.database != nil {
		errs = append(errs, rt.database.Close())
	}
	return errors.Join(errs...)
}
