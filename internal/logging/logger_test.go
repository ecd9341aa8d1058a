package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestInitJSONWritesComponentField(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	logger := WithLoop(Component("overlay"), "loop-1")
	logger.Info().Msg("recorded")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "overlay", line["component"])
	require.Equal(t, "loop-1", line["loop_id"])
	require.Equal(t, "recorded", line["message"])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	require.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	require.Equal(t, zerolog.Disabled, parseLevel("off"))
	require.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	custom := zerolog.New(&buf).With().Str("scope", "test").Logger()

	ctx := WithContext(context.Background(), custom)
	logger := FromContext(ctx)
	logger.Info().Msg("hello")
	require.Contains(t, buf.String(), `"scope":"test"`)

	require.Equal(t, Logger, FromContext(context.Background()))
}
