package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopBucket(t *testing.T) {
	require.Equal(t, LaneNow, Loop{Lane: "NOW"}.Bucket())
	require.Equal(t, LaneBacklog, Loop{Lane: " backlog "}.Bucket())
	require.Equal(t, LaneOther, Loop{Lane: "someday"}.Bucket())
	require.Equal(t, LaneOther, Loop{}.Bucket())
}

func TestLoopSummaryPlaceholder(t *testing.T) {
	require.Equal(t, PlaceholderWhat, Loop{}.Summary())
	require.Equal(t, "Send the deck", Loop{What: "Send the deck"}.Summary())
}

func TestLoopSortTimeDefaultsToEpoch(t *testing.T) {
	require.Equal(t, int64(0), Loop{}.SortTime().Unix())

	ts := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.Equal(t, ts, Loop{CreatedAt: &ts}.SortTime())
}

func TestLoopResolved(t *testing.T) {
	require.True(t, Loop{Status: "DONE"}.Resolved())
	require.True(t, Loop{Status: LoopStatusDismissed}.Resolved())
	require.False(t, Loop{Status: LoopStatusOpen}.Resolved())
	require.False(t, Loop{}.Resolved())
}

func TestLoopRecordUsesCanonicalNames(t *testing.T) {
	when := "tomorrow"
	ts := time.Date(2026, 3, 1, 9, 0, 0, 123000000, time.UTC)
	rec := Loop{
		ID:          "l1",
		What:        "reply to Ana",
		When:        &when,
		CreatedAt:   &ts,
		DisplayName: "Ana",
		ChatID:      "123@c.us",
	}.Record()

	require.Equal(t, "l1", rec["id"])
	require.Equal(t, "tomorrow", rec["when"])
	require.Equal(t, "2026-03-01T09:00:00.123Z", rec["createdAt"])
	require.Equal(t, "123@c.us", rec["chatId"])
	require.NotContains(t, rec, "who")
}

func TestNormalizedSet(t *testing.T) {
	require.Equal(t, []string{"Ana", "Bo"}, NormalizedSet([]string{"Bo", "Ana", "", "Bo"}))
	require.Nil(t, NormalizedSet(nil))
	require.Nil(t, NormalizedSet([]string{""}))
}

func TestViewLabel(t *testing.T) {
	require.Equal(t, "Linked to WhatsApp", ViewDigest.Label())
	require.Equal(t, "Just getting started", ViewOnboarding.Label())
}

func TestPairingImageDataURI(t *testing.T) {
	require.Equal(t, "", PairingImage{}.DataURI())
	img := PairingImage{ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
	require.Equal(t, "data:image/png;base64,iVBORw==", img.DataURI())
}
