package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrDismissalNotFound is returned when no dismissal exists for a loop id.
var ErrDismissalNotFound = errors.New("dismissal not found")

// Dismissal is one locally resolved loop. Completed and dismissed loops are
// hidden alike, so only the id is kept.
type Dismissal struct {
	ID        string
	LoopID    string
	CreatedAt time.Time
}

// DismissalRepository stores the dismissal overlay. It satisfies
// overlay.Store.
type DismissalRepository struct {
	db *DB
}

// NewDismissalRepository creates a new DismissalRepository.
func NewDismissalRepository(db *DB) *DismissalRepository {
	return &DismissalRepository{db: db}
}

// Add records a dismissal. Adding an already dismissed loop is a no-op.
func (r *DismissalRepository) Add(ctx context.Context, loopID string) (*Dismissal, error) {
	loopID = strings.TrimSpace(loopID)
	if loopID == "" {
		return nil, fmt.Errorf("loop id is required")
	}

	d := &Dismissal{
		ID:        uuid.New().String(),
		LoopID:    loopID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dismissals (id, loop_id, created_at)
		VALUES (?, ?, ?)
	`, d.ID, d.LoopID, d.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return r.Get(ctx, loopID)
		}
		return nil, fmt.Errorf("failed to insert dismissal: %w", err)
	}
	return d, nil
}

// Get returns the dismissal for a loop id.
func (r *DismissalRepository) Get(ctx context.Context, loopID string) (*Dismissal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, loop_id, created_at
		FROM dismissals
		WHERE loop_id = ?
	`, loopID)
	return scanDismissal(row)
}

// List returns every dismissal, oldest first.
func (r *DismissalRepository) List(ctx context.Context) ([]*Dismissal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, loop_id, created_at
		FROM dismissals
		ORDER BY created_at, loop_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dismissals: %w", err)
	}
	defer rows.Close()

	var out []*Dismissal
	for rows.Next() {
		d, err := scanDismissal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dismissals: %w", err)
	}
	return out, nil
}

// Delete removes the dismissal for a loop id.
func (r *DismissalRepository) Delete(ctx context.Context, loopID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM dismissals WHERE loop_id = ?`, loopID)
	if err != nil {
		return fmt.Errorf("failed to delete dismissal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrDismissalNotFound
	}
	return nil
}

// ReplaceAll makes the stored set equal to loopIDs. Rows for ids that stay
// keep their original id and timestamp.
func (r *DismissalRepository) ReplaceAll(ctx context.Context, loopIDs []string) error {
	want := make(map[string]struct{}, len(loopIDs))
	for _, id := range loopIDs {
		if id = strings.TrimSpace(id); id != "" {
			want[id] = struct{}{}
		}
	}

	return r.db.TransactionWithRetry(ctx, 0, 0, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT loop_id FROM dismissals`)
		if err != nil {
			return fmt.Errorf("failed to query dismissals: %w", err)
		}
		existing := make(map[string]struct{})
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan dismissal: %w", err)
			}
			existing[id] = struct{}{}
		}
		if err := rows.Close(); err != nil {
			return err
		}

		for id := range existing {
			if _, keep := want[id]; keep {
				continue
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM dismissals WHERE loop_id = ?`, id); err != nil {
				return fmt.Errorf("failed to delete dismissal: %w", err)
			}
		}

		now := time.Now().UTC().Format(time.RFC3339)
		for id := range want {
			if _, ok := existing[id]; ok {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO dismissals (id, loop_id, created_at)
				VALUES (?, ?, ?)
			`, uuid.New().String(), id, now); err != nil {
				return fmt.Errorf("failed to insert dismissal: %w", err)
			}
		}
		return nil
	})
}

// Load returns the dismissed loop ids.
func (r *DismissalRepository) Load(ctx context.Context) ([]string, error) {
	dismissals, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(dismissals))
	for _, d := range dismissals {
		ids = append(ids, d.LoopID)
	}
	return ids, nil
}

// Save replaces the dismissed loop ids.
func (r *DismissalRepository) Save(ctx context.Context, ids []string) error {
	return r.ReplaceAll(ctx, ids)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDismissal(row rowScanner) (*Dismissal, error) {
	var d Dismissal
	var createdAt string
	if err := row.Scan(&d.ID, &d.LoopID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDismissalNotFound
		}
		return nil, fmt.Errorf("failed to scan dismissal: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		d.CreatedAt = t
	}
	return &d, nil
}
