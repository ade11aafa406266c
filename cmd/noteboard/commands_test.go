package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
viewport:
  width: 1000
  height: 700
notes:
  - id: n1
    type: PROPOSAL
    summary: move standup
    keywords: [standup, schedule]
  - id: n2
    type: DECISION
    summary: standup at ten
    keywords: [standup]
  - id: n3
    type: ISSUE
    summary: build is flaky
  - id: ""
    type: INFO
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSimulateCommand(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.yaml")
	require.NoError(t, os.WriteFile(notes, []byte(fixtureYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte("logging:\n  level: error\n"), 0o644))

	out, err := run(t, "simulate", "--config", dir, "--env", "staging", "--notes", notes, "--ticks", "2000", "--seed", "5")
	require.NoError(t, err)

	var result simulationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)

	assert.True(t, result.Settled)
	assert.Contains(t, result.Rejected, "1 of 4 entities rejected")
	require.Len(t, result.Frame.Nodes, 3)
	assert.Len(t, result.Frame.Links, 1)
	for _, n := range result.Frame.Nodes {
		assert.GreaterOrEqual(t, n.X, 0.0)
		assert.LessOrEqual(t, n.X, 1000.0)
		assert.GreaterOrEqual(t, n.Y, 0.0)
		assert.LessOrEqual(t, n.Y, 700.0)
	}
}

func TestSimulateCommand_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "simulate", "--config", dir, "--notes", filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read notes")

	_, err = run(t, "simulate", "--config", dir, "--env", "moon", "--notes", "x.yaml")
	assert.ErrorContains(t, err, "unknown environment")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "noteboard version dev\n", out)
}
