package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/pedrito/internal/models"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestNormalizeAlternateFieldNames(t *testing.T) {
	dir := Directory{"123@c.us": "Ana"}
	raw := Record{
		"id":          "l1",
		"actor":       "Ana",
		"summary":     "Send the deck",
		"whenOptions": []any{"Friday", "Monday"},
		"type":        "promise",
		"status":      "open",
		"lastSeenTs":  1700000000.0,
		"createdAt":   "2020-01-01T00:00:00Z",
		"chat_id":     "123@c.us",
		"lane":        "now",
	}

	got := Default().Normalize(raw, dir)
	want := models.Loop{
		ID:          "l1",
		Who:         "Ana",
		What:        "Send the deck",
		When:        strPtr("Friday"),
		Category:    models.CategoryPromise,
		Status:      models.LoopStatusOpen,
		CreatedAt:   timePtr(time.Unix(1700000000, 0).UTC()),
		DisplayName: "Ana",
		Lane:        "now",
		ChatID:      "123@c.us",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeCreatedAtPriority(t *testing.T) {
	n := Default()
	got := n.Normalize(Record{"id": "x", "created_at": "2026-01-02T03:04:05Z", "firstSeenTs": 1.0}, nil)
	require.NotNil(t, got.CreatedAt)
	require.Equal(t, "2026-01-02T03:04:05.000Z", models.FormatInstant(*got.CreatedAt))

	got = n.Normalize(Record{"id": "x", "lastSeen": "garbage"}, nil)
	require.Nil(t, got.CreatedAt)
}

func TestNormalizeWhenPrefersDirectField(t *testing.T) {
	n := Default()
	got := n.Normalize(Record{"id": "x", "whenDate": "2026-05-01", "whenOptions": []any{"later"}}, nil)
	require.Equal(t, "2026-05-01", *got.When)

	got = n.Normalize(Record{"id": "x", "when": nil, "whenOptions": []any{}}, nil)
	require.Nil(t, got.When)
}

func TestNormalizeDisplayNameFallbacks(t *testing.T) {
	n := Default()
	dir := Directory{"c2": "Bo"}

	require.Equal(t, "Named", n.Normalize(Record{"id": "x", "displayName": "Named", "chatId": "c2"}, dir).DisplayName)
	require.Equal(t, "Bo", n.Normalize(Record{"id": "x", "displayName": "", "chatId": "c2"}, dir).DisplayName)
	require.Equal(t, "Bo", n.Normalize(Record{"id": "x", "chatId": "c1", "chat_id": "c2"}, dir).DisplayName)
	require.Equal(t, "c1", n.Normalize(Record{"id": "x", "chatId": "c1"}, dir).DisplayName)
	require.Equal(t, "c9", n.Normalize(Record{"id": "x", "chat_id": "c9"}, nil).DisplayName)
	require.Equal(t, models.UnknownDisplayName, n.Normalize(Record{"id": "x"}, nil).DisplayName)
}

func TestNormalizeNumericID(t *testing.T) {
	got := Default().Normalize(Record{"id": 42.0}, nil)
	require.Equal(t, "42", got.ID)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	dir := Directory{"c1": "Ana"}
	inputs := []Record{
		{"id": "a", "from": "Ana", "title": "Call back", "timestamp": 1700000000123.0, "chatId": "c1"},
		{"id": "b", "text": "", "whenOptions": []any{"soon"}, "messageTimestamp": "2026-02-03T04:05:06.789Z"},
		{"id": 7.0, "category": "question", "lane": "backlog", "chat_id": "c1", "lastSeen": 1600000000.0},
		{"id": "d"},
		{"id": "e", "who": 12.0, "when": "tonight", "status": "done", "displayName": "Group"},
		{"id": "f", "lastSeenTs": 999999999999.0},
		{"id": "g", "lastSeenTs": -1e11},
		{"id": "h", "lastSeenTs": 3e14},
		{"id": "i", "lastSeenTs": 253402300799999.0},
		{"id": "j", "createdAt": "0000-01-01T00:00:00Z"},
	}
	n := Default()
	for _, raw := range inputs {
		once := n.Normalize(raw, dir)
		twice := n.Normalize(once.Record(), dir)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("Normalize not idempotent for %v (-once +twice):\n%s", raw, diff)
		}
	}
}

func TestNormalizeAllEncodesWithExtremeTimestamps(t *testing.T) {
	body := Decode([]byte(`[{"id":"a","lastSeenTs":999999999999},{"id":"b","lastSeenTs":-100000000000},{"id":"c"}]`))
	loops := Default().NormalizeAll(body, nil)
	require.Len(t, loops, 3)
	for _, l := range loops {
		require.Nil(t, l.CreatedAt, l.ID)
	}
	_, err := json.Marshal(loops)
	require.NoError(t, err)
}

func TestNormalizeIsIdempotentWithCustomFields(t *testing.T) {
	n := NewNormalizer(Fields{
		What:      []string{"body"},
		CreatedAt: []string{"seenAt"},
	}, nil)
	once := n.Normalize(Record{"id": "a", "body": "hi", "seenAt": 1700000000.0}, nil)
	require.Equal(t, "hi", once.What)
	twice := n.Normalize(once.Record(), nil)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("(-once +twice):\n%s", diff)
	}
}

func TestNormalizeAllDropsMissingAndDuplicateIDs(t *testing.T) {
	body := Decode([]byte(`{"openLoops":{"active":[
		{"id":"a","what":"first"},
		{"what":"no id"},
		{"id":"a","what":"second"},
		{"loop_id":"b"}
	]}}`))
	loops := Default().NormalizeAll(body, nil)
	require.Equal(t, []string{"a", "b"}, models.LoopIDs(loops))
	require.Equal(t, "first", loops[0].What)
}

func TestNormalizeAllMalformed(t *testing.T) {
	require.Empty(t, Default().NormalizeAll(nil, nil))
	require.Empty(t, Default().NormalizeAll("oops", nil))
}
