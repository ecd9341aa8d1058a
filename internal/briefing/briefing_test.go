package briefing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/pedrito/internal/models"
)

func at(t time.Time) *time.Time { return &t }

func TestGroupByLaneSortsNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	loops := []models.Loop{
		{ID: "old-now", Lane: "now", CreatedAt: at(base.Add(-2 * time.Hour))},
		{ID: "undated", Lane: "NOW"},
		{ID: "new-now", Lane: "now", CreatedAt: at(base)},
		{ID: "b1", Lane: "backlog"},
		{ID: "o1", Lane: "someday"},
		{ID: "o2"},
	}

	g := GroupByLane(loops)
	require.Equal(t, []string{"new-now", "old-now", "undated"}, models.LoopIDs(g.Now))
	require.Equal(t, []string{"b1"}, models.LoopIDs(g.Backlog))
	require.Equal(t, []string{"o1", "o2"}, models.LoopIDs(g.Other))
	require.Equal(t, 6, g.Total())

	sections := g.Sections()
	require.Len(t, sections, 3)
	require.Equal(t, "Now", sections[0].Title)
}

func TestSectionsSkipsEmpty(t *testing.T) {
	g := GroupByLane([]models.Loop{{ID: "x", Lane: "backlog"}})
	sections := g.Sections()
	require.Len(t, sections, 1)
	require.Equal(t, models.LaneBacklog, sections[0].Lane)
}

func TestCountCategories(t *testing.T) {
	counts := CountCategories([]models.Loop{
		{Category: models.CategoryPromise},
		{Category: models.CategoryPromise},
		{Category: models.CategoryQuestion},
		{Category: "reply_needed"},
		{},
	})
	require.Equal(t, 2, counts[models.CategoryPromise])
	require.Equal(t, 1, counts[models.CategoryQuestion])
	require.Equal(t, 0, counts[models.CategoryFollowUp])
	require.Equal(t, 0, counts[models.CategoryTimeSensitive])
	require.Len(t, counts, 4)
}

func TestSurfaceLabel(t *testing.T) {
	require.Equal(t, "Needs reply", SurfaceLabel("reply_needed"))
	require.Equal(t, "Open loop", SurfaceLabel(""))
	require.Equal(t, "time sensitive", SurfaceLabel("time_sensitive"))
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	require.Equal(t, "just now", RelativeTime(now.Add(-30*time.Second), now))
	require.Equal(t, "5m ago", RelativeTime(now.Add(-5*time.Minute), now))
	require.Equal(t, "3h ago", RelativeTime(now.Add(-3*time.Hour), now))
	require.Equal(t, "yesterday", RelativeTime(now.Add(-30*time.Hour), now))
	require.Equal(t, "4d ago", RelativeTime(now.Add(-4*24*time.Hour), now))
	require.NotEmpty(t, RelativeTime(now.Add(-30*24*time.Hour), now))
}

func TestMetaLine(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := models.Loop{Category: "follow_up", CreatedAt: at(now.Add(-2 * time.Hour))}
	require.Equal(t, "Follow-up • 2h ago", MetaLine(l, now))
	require.Equal(t, "Open loop", MetaLine(models.Loop{}, now))
}
