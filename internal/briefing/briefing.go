// Package briefing shapes canonical loops for display: lane buckets, recency
// ordering, category counts and relative timestamps.
package briefing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tOgg1/pedrito/internal/models"
)

// Groups holds loops bucketed by lane, newest first within each bucket.
type Groups struct {
	Now     []models.Loop `json:"now"`
	Backlog []models.Loop `json:"backlog"`
	Other   []models.Loop `json:"other"`
}

// Total counts loops across all buckets.
func (g Groups) Total() int {
	return len(g.Now) + len(g.Backlog) + len(g.Other)
}

// Sections returns the non-empty buckets in display order.
func (g Groups) Sections() []Section {
	out := make([]Section, 0, 3)
	for _, s := range []Section{
		{Title: "Now", Lane: models.LaneNow, Loops: g.Now},
		{Title: "Backlog", Lane: models.LaneBacklog, Loops: g.Backlog},
		{Title: "Other", Lane: models.LaneOther, Loops: g.Other},
	} {
		if len(s.Loops) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Section is one titled bucket.
type Section struct {
	Title string
	Lane  models.Lane
	Loops []models.Loop
}

// SortByRecency orders loops newest first. Loops without a timestamp sort as
// the epoch; ties keep upstream order.
func SortByRecency(loops []models.Loop) []models.Loop {
	out := append([]models.Loop(nil), loops...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortTime().After(out[j].SortTime())
	})
	return out
}

// GroupByLane buckets loops by display lane.
func GroupByLane(loops []models.Loop) Groups {
	var g Groups
	for _, l := range loops {
		switch l.Bucket() {
		case models.LaneNow:
			g.Now = append(g.Now, l)
		case models.LaneBacklog:
			g.Backlog = append(g.Backlog, l)
		default:
			g.Other = append(g.Other, l)
		}
	}
	g.Now = SortByRecency(g.Now)
	g.Backlog = SortByRecency(g.Backlog)
	g.Other = SortByRecency(g.Other)
	return g
}

// CategoryCounts tallies the known categories. Other categories are ignored.
type CategoryCounts map[models.LoopCategory]int

// CountCategories counts loops per known category.
func CountCategories(loops []models.Loop) CategoryCounts {
	counts := make(CategoryCounts, len(models.KnownCategories))
	for _, c := range models.KnownCategories {
		counts[c] = 0
	}
	for _, l := range loops {
		if _, known := counts[l.Category]; known {
			counts[l.Category]++
		}
	}
	return counts
}

// CategoryLabel is the chip label for a known category.
func CategoryLabel(c models.LoopCategory) string {
	switch c {
	case models.CategoryPromise:
		return "Promises"
	case models.CategoryFollowUp:
		return "Follow-ups"
	case models.CategoryQuestion:
		return "Questions"
	case models.CategoryTimeSensitive:
		return "Time-sensitive"
	default:
		return string(c)
	}
}

var surfaceLabels = map[string]string{
	"reply_needed":    "Needs reply",
	"decision_needed": "Decision needed",
	"todo":            "To-do",
	"follow_up":       "Follow-up",
	"info_to_save":    "Info",
	"fallback":        "Open loop",
}

// SurfaceLabel renders a loop's category for its meta line.
func SurfaceLabel(category string) string {
	if label, ok := surfaceLabels[category]; ok {
		return label
	}
	if category == "" {
		return "Open loop"
	}
	return strings.ReplaceAll(category, "_", " ")
}

// RelativeTime renders t relative to now: "just now", "5m ago", "3h ago",
// "yesterday", "4d ago", then a short date.
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	minutes := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))
	switch {
	case minutes < 1:
		return "just now"
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Local().Format("Jan 2")
	}
}

// MetaLine joins the surface label and relative time for a loop card.
func MetaLine(l models.Loop, now time.Time) string {
	parts := []string{SurfaceLabel(string(l.Category))}
	if l.CreatedAt != nil {
		parts = append(parts, RelativeTime(*l.CreatedAt, now))
	}
	return strings.Join(parts, " • ")
}
