// Package overlay keeps the set of loop ids the user resolved locally and
// applies it to authoritative loop lists.
package overlay

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tOgg1/pedrito/internal/logging"
	"github.com/tOgg1/pedrito/internal/models"
)

// Store persists the dismissed id set.
type Store interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, ids []string) error
}

// Overlay is the dismissed-id set. The set only shrinks in Reconcile, when an
// authoritative list no longer carries an id.
type Overlay struct {
	store  Store
	logger zerolog.Logger

	mu  sync.Mutex
	ids map[string]struct{}
}

// New creates an empty overlay backed by store. A nil store keeps the set in
// memory only.
func New(store Store) *Overlay {
	return &Overlay{
		store:  store,
		logger: logging.Component("overlay"),
		ids:    make(map[string]struct{}),
	}
}

// Load replaces the in-memory set with the persisted one.
func (o *Overlay) Load(ctx context.Context) error {
	if o.store == nil {
		return nil
	}
	ids, err := o.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dismissed ids: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			o.ids[id] = struct{}{}
		}
	}
	o.logger.Debug().Int("count", len(o.ids)).Msg("dismissed ids loaded")
	return nil
}

// Record adds id to the set and persists it. The id stays recorded even when
// persisting fails.
func (o *Overlay) Record(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	o.mu.Lock()
	if _, ok := o.ids[id]; ok {
		o.mu.Unlock()
		return nil
	}
	o.ids[id] = struct{}{}
	snapshot := o.sortedLocked()
	o.mu.Unlock()

	logger := logging.WithLoop(o.logger, id)
	logger.Debug().Msg("loop dismissed locally")
	return o.save(ctx, snapshot)
}

// Contains reports whether id is dismissed.
func (o *Overlay) Contains(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.ids[id]
	return ok
}

// IDs returns the dismissed ids, sorted.
func (o *Overlay) IDs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sortedLocked()
}

// Len is the size of the set.
func (o *Overlay) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.ids)
}

// Filter returns loops whose ids are not dismissed, keeping order.
func (o *Overlay) Filter(loops []models.Loop) []models.Loop {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.filterLocked(loops)
}

// Reconcile treats loops as the complete authoritative list. Dismissed ids it
// no longer contains are pruned, then the list is filtered.
func (o *Overlay) Reconcile(ctx context.Context, loops []models.Loop) ([]models.Loop, error) {
	present := make(map[string]struct{}, len(loops))
	for _, l := range loops {
		present[l.ID] = struct{}{}
	}

	o.mu.Lock()
	pruned := 0
	for id := range o.ids {
		if _, ok := present[id]; !ok {
			delete(o.ids, id)
			pruned++
		}
	}
	visible := o.filterLocked(loops)
	snapshot := o.sortedLocked()
	o.mu.Unlock()

	if pruned == 0 {
		return visible, nil
	}
	o.logger.Debug().Int("pruned", pruned).Int("remaining", len(snapshot)).Msg("dismissed ids pruned")
	return visible, o.save(ctx, snapshot)
}

// Clear empties the set.
func (o *Overlay) Clear(ctx context.Context) error {
	o.mu.Lock()
	o.ids = make(map[string]struct{})
	o.mu.Unlock()
	return o.save(ctx, nil)
}

func (o *Overlay) filterLocked(loops []models.Loop) []models.Loop {
	out := make([]models.Loop, 0, len(loops))
	for _, l := range loops {
		if _, dismissed := o.ids[l.ID]; dismissed {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (o *Overlay) sortedLocked() []string {
	ids := make([]string, 0, len(o.ids))
	for id := range o.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (o *Overlay) save(ctx context.Context, ids []string) error {
	if o.store == nil {
		return nil
	}
	if err := o.store.Save(ctx, ids); err != nil {
		o.logger.Warn().Err(err).Msg("failed to persist dismissed ids")
		return fmt.Errorf("save dismissed ids: %w", err)
	}
	return nil
}

// MemoryStore is a Store that keeps the set in process memory.
type MemoryStore struct {
	mu  sync.Mutex
	ids []string
}

// Load returns a copy of the stored ids.
func (s *MemoryStore) Load(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...), nil
}

// Save replaces the stored ids.
func (s *MemoryStore) Save(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append([]string(nil), ids...)
	return nil
}
