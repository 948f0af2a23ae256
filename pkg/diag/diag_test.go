package diag

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnabled(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"no", false},
		{"1", false},
		{"yes", true},
		{"TRUE", true},
		{" true ", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			getenv := func(string) string { return tt.value }
			assert.Equal(t, tt.want, Enabled(getenv))
		})
	}
}

func TestFromEnvDisabledIsNop(t *testing.T) {
	sink, closeFn, err := FromEnv(func(string) string { return "" })
	require.NoError(t, err)
	assert.IsType(t, Nop{}, sink)
	assert.NoError(t, closeFn())
}

func TestFileSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")

	for i := 0; i < 2; i++ {
		sink, err := OpenFile(path)
		require.NoError(t, err)
		sink.Record(Entry{
			Caller:       "nomad.namespace",
			Method:       "GET",
			URL:          "http://127.0.0.1:4646/v1/namespace/apps",
			Status:       404,
			ResponseBody: "namespace not found",
		})
		require.NoError(t, sink.Close())
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}

	require.Len(t, lines, 2)
	assert.Equal(t, "nomad.namespace", lines[0]["caller"])
	assert.Equal(t, "GET", lines[0]["method"])
	assert.Equal(t, 404.0, lines[1]["status"])
}

func TestFileSinkRecordsTransportError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	sink, err := OpenFile(path)
	require.NoError(t, err)

	sink.Record(Entry{Caller: "consul.acl_policy", Method: "PUT", URL: "http://x", Err: errors.New("connection refused")})
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "connection refused")
	assert.NotContains(t, string(data), `"status"`)
}

func TestCaller(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "unknown", Caller(ctx))
	assert.Equal(t, "nomad.job", Caller(WithCaller(ctx, "nomad.job")))
}
