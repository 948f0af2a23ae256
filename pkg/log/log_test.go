package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
}

func TestInitJSON(t *testing.T) {
	prev := Logger
	t.Cleanup(func() {
		Logger = prev
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})

	var buf bytes.Buffer
	Init(Config{Level: WarnLevel, JSONOutput: true, Output: &buf})

	logger := WithResource("NomadNamespace", "apps")
	logger.Info().Msg("dropped")
	logger.Warn().Str("action", "mismatch").Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "NomadNamespace", line["kind"])
	assert.Equal(t, "apps", line["resource"])
	assert.Equal(t, "mismatch", line["action"])
	assert.Equal(t, "kept", line["message"])
}

func TestWithRunID(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	var buf bytes.Buffer
	Logger = zerolog.New(&buf)

	logger := WithRunID("run-1")
	logger.Info().Msg("start")
	assert.Contains(t, buf.String(), `"run_id":"run-1"`)
}
