// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"serve", "migrate", "config", "version"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFlag string
	}{
		{
			name:     "separate value",
			args:     []string{"--config", "/path/to/config.yaml", "--help"},
			wantFlag: "/path/to/config.yaml",
		},
		{
			name:     "config flag with equals",
			args:     []string{"--config=/etc/penwright.yaml", "--help"},
			wantFlag: "/etc/penwright.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile = ""
			t.Cleanup(func() { configFile = "" })

			cmd := NewRootCmd()
			cmd.SetOut(new(bytes.Buffer))
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.wantFlag, configFile)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "penwright dev")
}

func TestResolveConfigFile(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	t.Cleanup(func() { configFile = "" })

	configFile = ""
	path, err := resolveConfigFile()
	require.NoError(t, err)
	assert.Empty(t, path, "no file, no default")

	require.NoError(t, os.MkdirAll(filepath.Join(base, "penwright"), 0o700))
	xdgFile := filepath.Join(base, "penwright", "config.yaml")
	require.NoError(t, os.WriteFile(xdgFile, []byte("log_level: debug\n"), 0o600))
	path, err = resolveConfigFile()
	require.NoError(t, err)
	assert.Equal(t, xdgFile, path)

	configFile = "/etc/penwright.yaml"
	path, err = resolveConfigFile()
	require.NoError(t, err)
	assert.Equal(t, "/etc/penwright.yaml", path, "flag wins")
}

func TestServeCommand_RegistersServerFlags(t *testing.T) {
	serve := NewServeCmd()
	for _, name := range []string{"listen-addr", "metrics-addr", "database-url", "log-format", "session-ttl", "auto-migrate"} {
		assert.NotNil(t, serve.Flags().Lookup(name), "missing --%s", name)
	}
}
