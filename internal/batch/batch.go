// Package batch strips comments from many files in one run and records the
// outcome of each file in a report.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/strongdm/decomment/internal/decomment"
	"github.com/strongdm/decomment/internal/manifest"
)

type Options struct {
	// RunID names the run; a new ULID is generated when empty.
	RunID string
	// Manifest is recorded in the report as given.
	Manifest string
	Logger   *slog.Logger
}

type FileResult struct {
	Job     string `json:"job"`
	Input   string `json:"input"`
	Output  string `json:"output"`
	Dialect string `json:"dialect"`
	decomment.FileStats
	Error string `json:"error,omitempty"`
}

type Report struct {
	RunID      string       `json:"run_id"`
	Manifest   string       `json:"manifest,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Files      []FileResult `json:"files"`
	Succeeded  int          `json:"succeeded"`
	FailedN    int          `json:"failed"`
	Canceled   bool         `json:"canceled,omitempty"`
}

// Failed reports whether any file failed or the run was cut short.
func (r *Report) Failed() bool {
	return r.FailedN > 0 || r.Canceled
}

// Run processes tasks one at a time. A failing file is recorded and the run
// moves on; cancellation is checked between files and stops the run early.
func Run(ctx context.Context, tasks []manifest.Task, opts Options) (*Report, error) {
	runID := opts.RunID
	if runID == "" {
		id, err := NewRunID()
		if err != nil {
			return nil, fmt.Errorf("run id: %w", err)
		}
		runID = id
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log = log.With("run_id", runID)

	rep := &Report{
		RunID:     runID,
		Manifest:  opts.Manifest,
		StartedAt: time.Now().UTC(),
		Files:     make([]FileResult, 0, len(tasks)),
	}
	log.Info("batch.start", "files", len(tasks))
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			rep.Canceled = true
			log.Warn("batch.canceled", "err", context.Cause(ctx))
			break
		}
		res := FileResult{
			Job:     task.Job,
			Input:   task.Input,
			Output:  task.Output,
			Dialect: task.Dialect.String(),
		}
		stats, err := ProcessFile(task.Input, task.Output, task.Dialect)
		if err != nil {
			res.Error = err.Error()
			rep.FailedN++
			log.Error("batch.file.failed", "input", task.Input, "err", err)
		} else {
			res.FileStats = stats
			rep.Succeeded++
			log.Debug("batch.file.done", "input", task.Input, "output", task.Output,
				"bytes_in", stats.BytesIn, "bytes_out", stats.BytesOut)
		}
		rep.Files = append(rep.Files, res)
	}
	rep.FinishedAt = time.Now().UTC()
	log.Info("batch.finish", "succeeded", rep.Succeeded, "failed", rep.FailedN)
	return rep, nil
}

// ProcessFile reads input, strips comments and writes the result to output,
// creating output's directory and replacing any existing file.
func ProcessFile(input, output string, dialect decomment.Dialect) (decomment.FileStats, error) {
	b, err := os.ReadFile(input)
	if err != nil {
		return decomment.FileStats{}, fmt.Errorf("read %s: %w", input, err)
	}
	text := string(b)
	out, err := decomment.Transform(text, dialect)
	if err != nil {
		return decomment.FileStats{}, err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return decomment.FileStats{}, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(output, []byte(out), 0o644); err != nil {
		return decomment.FileStats{}, fmt.Errorf("write %s: %w", output, err)
	}
	return decomment.Stats(text, out), nil
}
