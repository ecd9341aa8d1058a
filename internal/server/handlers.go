package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tOgg1/pedrito/internal/assistant"
	"github.com/tOgg1/pedrito/internal/briefing"
	"github.com/tOgg1/pedrito/internal/logging"
	"github.com/tOgg1/pedrito/internal/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

type stateResponse struct {
	View       models.View            `json:"view"`
	ViewLabel  string                 `json:"viewLabel"`
	State      models.ConnectionState `json:"state"`
	Onboarded  bool                   `json:"onboarded"`
	HasPairing bool                   `json:"hasPairingCode"`
	Refreshing bool                   `json:"refreshing"`
	Advisories []models.Advisory      `json:"advisories"`
	Version    uint64                 `json:"version"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

type loopsResponse struct {
	Loaded bool                    `json:"loaded"`
	Total  int                     `json:"total"`
	Groups briefing.Groups         `json:"groups"`
	Counts briefing.CategoryCounts `json:"counts"`
}

type digestResponse struct {
	Digest *models.DigestSummary   `json:"digest"`
	Counts briefing.CategoryCounts `json:"counts"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	snap := s.ctrl.Snapshot()
	advisories := snap.Advisories
	if advisories == nil {
		advisories = []models.Advisory{}
	}
	writeJSON(w, http.StatusOK, stateResponse{
		View:       snap.View,
		ViewLabel:  snap.ViewLabel,
		State:      snap.State,
		Onboarded:  snap.Onboarded,
		HasPairing: !snap.Pairing.Empty(),
		Refreshing: snap.Refreshing,
		Advisories: advisories,
		Version:    snap.Version,
		UpdatedAt:  snap.UpdatedAt,
	})
}

func (s *Server) handleLoops(w http.ResponseWriter, _ *http.Request) {
	snap := s.ctrl.Snapshot()
	groups := briefing.GroupByLane(snap.Loops)
	writeJSON(w, http.StatusOK, loopsResponse{
		Loaded: snap.LoopsLoaded,
		Total:  groups.Total(),
		Groups: groups,
		Counts: briefing.CountCategories(snap.Loops),
	})
}

func (s *Server) handleDigest(w http.ResponseWriter, _ *http.Request) {
	snap := s.ctrl.Snapshot()
	writeJSON(w, http.StatusOK, digestResponse{
		Digest: snap.Digest,
		Counts: briefing.CountCategories(snap.Loops),
	})
}

func (s *Server) handlePairingCode(w http.ResponseWriter, _ *http.Request) {
	img := s.ctrl.Snapshot().Pairing
	if img.Empty() {
		writeError(w, http.StatusNotFound, "no pairing code available")
		return
	}
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.runCommand(w, r, s.ctrl.RefreshBriefing)
}

func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	s.runCommand(w, r, s.ctrl.CompleteOnboarding)
}

func (s *Server) handleReconnect(w http.ResponseWriter, r *http.Request) {
	s.runCommand(w, r, s.ctrl.Reconnect)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	id, ok := loopID(w, r)
	if !ok {
		return
	}
	s.runCommand(w, r, func(ctx context.Context) error { return s.ctrl.Complete(ctx, id) })
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	id, ok := loopID(w, r)
	if !ok {
		return
	}
	s.runCommand(w, r, func(ctx context.Context) error { return s.ctrl.Dismiss(ctx, id) })
}

// loopID reads the id path variable. Paths are matched encoded so ids may
// carry slashes.
func loopID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := url.PathUnescape(mux.Vars(r)["id"])
	if err != nil || id == "" {
		writeError(w, http.StatusBadRequest, "invalid loop id")
		return "", false
	}
	return id, true
}

// runCommand applies fn and answers with the resulting state.
func (s *Server) runCommand(w http.ResponseWriter, r *http.Request, fn func(context.Context) error) {
	if err := fn(r.Context()); err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("command failed")
		}
		writeError(w, status, err.Error())
		return
	}
	s.handleState(w, r)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, assistant.ErrUnknownLoop):
		return http.StatusNotFound
	case errors.Is(err, assistant.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes before writing the status line so an unencodable body
// answers 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, body any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		logger := logging.Component("server")
		logger.Error().Err(err).Msg("encode response")
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(errorResponse{Error: "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
