package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/cuemby/converge/pkg/config"
	"github.com/cuemby/converge/pkg/journal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	registerConnectionFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestConnectionDefaults(t *testing.T) {
	cmd := newFlagCmd(t, "--nomad-addr", "http://nomad:4646", "--consul-token", "c-token", "--timeout", "3", "--insecure-skip-verify")

	defaults := connectionDefaults(cmd)

	nomad := defaults[config.SystemNomad]
	assert.Equal(t, "http://nomad:4646", nomad.URL)
	require.NotNil(t, nomad.ConnectionTimeoutSeconds)
	assert.Equal(t, 3, *nomad.ConnectionTimeoutSeconds)
	require.NotNil(t, nomad.ValidateCerts)
	assert.False(t, *nomad.ValidateCerts)

	consul := defaults[config.SystemConsul]
	assert.Equal(t, "c-token", consul.ManagementToken)
	assert.Empty(t, consul.URL)
}

func TestConnectionDefaultsUnsetFlags(t *testing.T) {
	defaults := connectionDefaults(newFlagCmd(t))

	for _, sys := range []config.System{config.SystemConsul, config.SystemNomad} {
		assert.Equal(t, config.Params{}, defaults[sys], sys)
	}
}

func TestPrintEntries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printEntries(&buf, []*journal.Entry{
		{RunID: "0123456789abcdef", Seq: 0, Time: time.Now(), Kind: "NomadNamespace", Name: "apps", Action: "create", Changed: true},
		{RunID: "0123456789abcdef", Seq: 1, Time: time.Now(), Kind: "NomadCSIVolume", Name: "data", Action: "mismatch", Diff: []string{"PluginID"}},
		{RunID: "0123456789abcdef", Seq: 2, Time: time.Now(), Kind: "NomadJob", Error: "connection refused"},
	}))

	out := buf.String()
	assert.Contains(t, out, "TIME")
	assert.Contains(t, out, "01234567 ")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "diff: PluginID")
	assert.Contains(t, out, "connection refused")
}

func TestPrintEntriesEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printEntries(&buf, nil))
	assert.Equal(t, "No entries recorded\n", buf.String())
}

func TestValidateStatusFlags(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		retries  int
		want     string
	}{
		{"zero interval", 0, 15, "--interval must be positive"},
		{"negative interval", -time.Second, 15, "--interval must be positive"},
		{"no retries", time.Second, 0, "--retries must be at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, validateStatusFlags(tt.interval, tt.retries), tt.want)
		})
	}

	assert.NoError(t, validateStatusFlags(2*time.Second, 15))
}
