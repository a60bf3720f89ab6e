package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	cmd := newRootCmd()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TRENDPRESS_CONFIG", "")
	t.Setenv("LOG_FILE", filepath.Join(t.TempDir(), "pipeline.log"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("MAX_TRENDS", "5")
	t.Setenv("MAX_NEWS_PER_TREND", "3")
}

func TestRootHelpListsSubcommands(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "trendpress")
	assert.Contains(t, out, "simulate")
	assert.Contains(t, out, "serve")
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, "publish-everything")
	assert.Error(t, err)
}

func TestSimulatePrintsSummary(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	out, err := execute(t, "simulate", "--output", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Published: 2")
	assert.Contains(t, out, "12345")
	assert.FileExists(t, filepath.Join(dir, "results.json"))
}

func TestInvalidConfigurationFails(t *testing.T) {
	isolateEnv(t)
	t.Setenv("MAX_TRENDS", "0")

	_, err := execute(t, "simulate", "--output", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trends.maxTrends must be at least 1")
}
