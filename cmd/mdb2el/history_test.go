package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/mdb2el/internal/config"
	"github.com/timmy/mdb2el/internal/domain"
	"github.com/timmy/mdb2el/internal/logger"
	"github.com/timmy/mdb2el/internal/repository"
)

func testLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: "debug", Format: "json", Output: &bytes.Buffer{}, ServiceName: "test"})
}

func writeSettings(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "mdb2el.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func seedHistory(t *testing.T, dbPath string, runs ...*domain.SyncRun) {
	t.Helper()
	db, err := repository.InitDB(&config.DatabaseConfig{Driver: "sqlite", Path: dbPath, AutoMigrate: true})
	require.NoError(t, err)
	repo := repository.NewSyncRunRepository(db)
	for _, r := range runs {
		require.NoError(t, repo.Create(context.Background(), r))
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func TestHistoryCommand_ListsRunJobs(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	dbPath := filepath.Join(dir, "runs.db")
	now := time.Now()
	seedHistory(t, dbPath,
		&domain.SyncRun{ID: "r2", RunID: "run-1", JobIndex: 1, SourceDatabase: "crm", SourceCollection: "leads",
			TargetIndex: "search2", TargetType: "lead", Status: domain.JobStatusFailed, ErrorLog: "index closed",
			StartedAt: now, CompletedAt: now},
		&domain.SyncRun{ID: "r1", RunID: "run-1", JobIndex: 0, SourceDatabase: "orders", SourceCollection: "items",
			TargetIndex: "search1", TargetType: "doc", Status: domain.JobStatusCompleted, Documents: 42,
			StartedAt: now, CompletedAt: now},
	)
	settings := writeSettings(t, dir, "database:\n  driver: sqlite\n  path: "+dbPath+"\n")

	buf := &bytes.Buffer{}
	cmd := NewRootCommand(testLogger())
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"history", "run-1", "--settings", settings})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Run run-1: 2 job(s)")
	assert.Contains(t, output, "[0] completed  orders.items -> search1/doc  42 document(s)")
	assert.Contains(t, output, "[1] failed  crm.leads -> search2/lead")
	assert.Contains(t, output, "error: index closed")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("[0]")), bytes.Index(buf.Bytes(), []byte("[1]")))
}

func TestHistoryCommand_UnknownRun(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	settings := writeSettings(t, dir, "database:\n  driver: sqlite\n  path: "+filepath.Join(dir, "runs.db")+"\n")

	buf := &bytes.Buffer{}
	cmd := NewRootCommand(testLogger())
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"history", "nope", "--settings", settings})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No jobs recorded for run nope")
}

func TestHistoryCommand_DatabaseDisabled(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	settings := writeSettings(t, dir, "database:\n  enabled: false\n")

	cmd := NewRootCommand(testLogger())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"history", "run-1", "--settings", settings})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestHistoryCommand_RequiresRunID(t *testing.T) {
	cmd := NewRootCommand(testLogger())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"history"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
