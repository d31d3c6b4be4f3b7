package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notioncal/internal/config"
	apperrors "notioncal/internal/errors"
	"notioncal/internal/model"
	"notioncal/internal/reconcile"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"NOTION_TOKEN", "NOTION_DATABASE_ID", "GOOGLE_CALENDAR_ID", "GOOGLE_CREDENTIALS_FILE",
		"GOOGLE_TOKEN_FILE", "NOTIONCAL_LISTEN", "NOTIONCAL_SCHEDULE", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "notioncal "+version))
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notioncal.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	_, err = execute(t, "config", "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "config", "init", "--config", path, "--force")
	assert.NoError(t, err)
}

func TestOnceRejectsIncompleteConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "notioncal.yaml")

	_, err := execute(t, "once", "--config", path, "--log-level", "error")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "notion.token")

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "first run writes the default file")
}

func TestInspectOnlyNeedsNotion(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "notioncal.yaml")

	_, err := execute(t, "inspect", "abc", "--config", path, "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion.token")
	assert.NotContains(t, err.Error(), "google.credentials_file")

	_, err = execute(t, "inspect", "--config", path)
	assert.Error(t, err, "page id is required")
}

func TestApplyFlags(t *testing.T) {
	cmd := newRootCmd()
	cfg := config.DefaultConfig()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)
	require.NoError(t, runCmd.ParseFlags([]string{"--listen", ""}))

	f := &globalFlags{logLevel: "debug"}
	applyFlags(runCmd, f, cfg)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Empty(t, cfg.Listen, "explicit empty --listen disables the server")
}

func TestPrintResult(t *testing.T) {
	res := &reconcile.Result{
		DryRun:  true,
		Records: 2,
		Events:  1,
		Created: 1,
		Deleted: 1,
		Actions: []reconcile.Action{
			{Kind: reconcile.ActionDelete, EventID: "evt1", RecordID: "gone", Title: "⬜ Old"},
			{Kind: reconcile.ActionCreate, RecordID: "abc", Title: "✅ [CS101] HW1"},
		},
	}
	buf := &bytes.Buffer{}
	printResult(buf, res)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "delete  evt1"))
	assert.True(t, strings.HasPrefix(lines[1], "create  abc"))
	assert.True(t, strings.HasSuffix(lines[1], "✅ [CS101] HW1"))
	assert.Equal(t, "dry run: 2 records, 1 events: 1 created, 0 updated, 1 deleted, 0 unchanged, 0 skipped", lines[2])
}

func TestPrintInspect(t *testing.T) {
	rec := model.SourceRecord{ID: "abc", Name: model.Str("HW1"), Date: model.Str("2024-03-01")}
	buf := &bytes.Buffer{}
	printInspect(buf, rec, reconcile.BuildEvent(rec, reconcile.DefaultPresentation()))

	out := buf.String()
	assert.Contains(t, out, `name:      "HW1"`)
	assert.Contains(t, out, "course:    (unset)")
	assert.Contains(t, out, `title:       "⬜ HW1"`)
	assert.Contains(t, out, "start/end:   2024-03-01 (all-day)")
}
