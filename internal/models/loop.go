// Package models defines the canonical data shapes shared by pedrito's
// reconciliation, presentation and persistence layers.
package models

import (
	"strings"
	"time"
)

// LoopCategory tags what kind of open item a loop is. The set is open-ended;
// upstream may send categories not listed here.
type LoopCategory string

const (
	CategoryPromise       LoopCategory = "promise"
	CategoryFollowUp      LoopCategory = "follow_up"
	CategoryQuestion      LoopCategory = "question"
	CategoryTimeSensitive LoopCategory = "time_sensitive"
)

// KnownCategories lists the categories counted on the digest chips, in display order.
var KnownCategories = []LoopCategory{
	CategoryPromise,
	CategoryFollowUp,
	CategoryQuestion,
	CategoryTimeSensitive,
}

// LoopStatus is the upstream resolution status of a loop.
type LoopStatus string

const (
	LoopStatusOpen      LoopStatus = "open"
	LoopStatusDone      LoopStatus = "done"
	LoopStatusDismissed LoopStatus = "dismissed"
)

// Lane is a display bucket. It never affects filtering.
type Lane string

const (
	LaneNow     Lane = "now"
	LaneBacklog Lane = "backlog"
	LaneOther   Lane = "other"
)

// UnknownDisplayName labels a loop whose conversation could not be resolved.
const UnknownDisplayName = "Unknown"

// PlaceholderWhat is rendered when a loop carries no summary text.
const PlaceholderWhat = "Something to follow up on"

// Loop is an open item after normalization. Optional text fields are empty
// when absent; When and CreatedAt are nil when absent.
type Loop struct {
	ID          string       `json:"id"`
	Who         string       `json:"who,omitempty"`
	What        string       `json:"what,omitempty"`
	When        *string      `json:"when"`
	Category    LoopCategory `json:"category,omitempty"`
	Status      LoopStatus   `json:"status,omitempty"`
	CreatedAt   *time.Time   `json:"createdAt,omitempty"`
	DisplayName string       `json:"displayName"`
	Lane        string       `json:"lane,omitempty"`
	ChatID      string       `json:"chatId,omitempty"`
}

// Bucket resolves the display lane. Unrecognized lanes land in LaneOther.
func (l Loop) Bucket() Lane {
	switch Lane(strings.ToLower(strings.TrimSpace(l.Lane))) {
	case LaneNow:
		return LaneNow
	case LaneBacklog:
		return LaneBacklog
	default:
		return LaneOther
	}
}

// Summary returns What, or the render-time placeholder.
func (l Loop) Summary() string {
	if strings.TrimSpace(l.What) == "" {
		return PlaceholderWhat
	}
	return l.What
}

// SortTime is the instant used for recency ordering. Loops without a
// timestamp sort as the Unix epoch.
func (l Loop) SortTime() time.Time {
	if l.CreatedAt == nil {
		return time.Unix(0, 0).UTC()
	}
	return *l.CreatedAt
}

// Resolved reports whether upstream already marked the loop done or dismissed.
func (l Loop) Resolved() bool {
	switch LoopStatus(strings.ToLower(string(l.Status))) {
	case LoopStatusDone, LoopStatusDismissed:
		return true
	default:
		return false
	}
}

// Record renders the loop back into an upstream-shaped record using the
// canonical field names. Feeding it to the normalizer yields the same loop.
func (l Loop) Record() map[string]any {
	rec := map[string]any{
		"id":          l.ID,
		"displayName": l.DisplayName,
	}
	if l.Who != "" {
		rec["who"] = l.Who
	}
	if l.What != "" {
		rec["what"] = l.What
	}
	if l.When != nil {
		rec["when"] = *l.When
	}
	if l.Category != "" {
		rec["category"] = string(l.Category)
	}
	if l.Status != "" {
		rec["status"] = string(l.Status)
	}
	if l.CreatedAt != nil {
		rec["createdAt"] = FormatInstant(*l.CreatedAt)
	}
	if l.Lane != "" {
		rec["lane"] = l.Lane
	}
	if l.ChatID != "" {
		rec["chatId"] = l.ChatID
	}
	return rec
}

// InstantLayout is the canonical ISO-8601 form: UTC with millisecond precision.
const InstantLayout = "2006-01-02T15:04:05.000Z"

// FormatInstant renders t in InstantLayout.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(InstantLayout)
}

// LoopIDs returns the ids of loops in order.
func LoopIDs(loops []Loop) []string {
	ids := make([]string, 0, len(loops))
	for _, l := range loops {
		ids = append(ids, l.ID)
	}
	return ids
}
