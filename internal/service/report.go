package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/timmy/mdb2el/internal/dispatch"
	"github.com/timmy/mdb2el/internal/logger"
)

// RunReport summarises one sync run.
type RunReport struct {
	RunID         string               `json:"run_id"`
	ConfigFile    string               `json:"config_file"`
	LoadError     string               `json:"load_error,omitempty"`
	DispatchError string               `json:"dispatch_error,omitempty"`
	JobsLoaded    int                  `json:"jobs_loaded"`
	Jobs          []dispatch.JobResult `json:"jobs"`
	Completed     int                  `json:"completed"`
	Failed        int                  `json:"failed"`
	Recorded      int64                `json:"recorded"` // history rows stored for this run
	StartedAt     time.Time            `json:"started_at"`
	FinishedAt    time.Time            `json:"finished_at"`
	ArchiveURL    string               `json:"-"`
}

// ObjectKey returns the key the report is archived under.
func (r *RunReport) ObjectKey(prefix string) string {
	return path.Join(prefix, r.RunID+".json")
}

func (s *SyncService) archiveReport(ctx context.Context, report *RunReport) {
	if s.archive == nil {
		return
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Failed to encode run report")
		return
	}

	key := report.ObjectKey(s.reportPrefix)
	if err := s.archive.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		logger.FromContext(ctx).WithError(fmt.Errorf("archive %s: %w", key, err)).Warn("Failed to archive run report")
		return
	}

	report.ArchiveURL = s.archive.GetURL(key)
	logger.CtxInfo(ctx, "Run report archived to %s", report.ArchiveURL)
}
