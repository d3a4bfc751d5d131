package batch

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"

	"github.com/strongdm/decomment/internal/decomment"
	"github.com/strongdm/decomment/internal/manifest"
)

func writeInput(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRun_ProcessesFilesAndRecordsFailures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.c")
	writeInput(t, good, "int a; // counter\n\n/* block */\nint b;\n")
	script := filepath.Join(dir, "s.lua")
	writeInput(t, script, "-- header\nx = 1\n")

	tasks := []manifest.Task{
		{Job: "c", Input: good, Output: filepath.Join(dir, "out", "a.c"), Dialect: decomment.DialectC},
		{Job: "c", Input: filepath.Join(dir, "missing.c"), Output: filepath.Join(dir, "out", "missing.c"), Dialect: decomment.DialectC},
		{Job: "lua", Input: script, Output: filepath.Join(dir, "out", "s.lua"), Dialect: decomment.DialectScript},
	}
	rep, err := Run(context.Background(), tasks, Options{Manifest: "inline"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := ulid.ParseStrict(rep.RunID); err != nil {
		t.Fatalf("run id %q: %v", rep.RunID, err)
	}
	if rep.Succeeded != 2 || rep.FailedN != 1 || !rep.Failed() {
		t.Fatalf("report counts: %+v", rep)
	}
	if len(rep.Files) != 3 || rep.Files[1].Error == "" {
		t.Fatalf("files: %+v", rep.Files)
	}
	if rep.Files[0].LinesIn != 4 || rep.Files[0].LinesOut != 2 {
		t.Fatalf("stats: %+v", rep.Files[0].FileStats)
	}

	b, err := os.ReadFile(filepath.Join(dir, "out", "a.c"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "int a; \nint b;" {
		t.Fatalf("a.c output: %q", b)
	}
	b, err = os.ReadFile(filepath.Join(dir, "out", "s.lua"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "x = 1" {
		t.Fatalf("s.lua output: %q", b)
	}
}

func TestRun_StopsWhenCanceled(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.c")
	writeInput(t, in, "int a;\n")

	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(errors.New("stopped by test"))

	rep, err := Run(ctx, []manifest.Task{{Input: in, Output: in + ".out", Dialect: decomment.DialectC}}, Options{RunID: "fixed"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rep.Canceled || len(rep.Files) != 0 || !rep.Failed() {
		t.Fatalf("report: %+v", rep)
	}
	if rep.RunID != "fixed" {
		t.Fatalf("run id: %q", rep.RunID)
	}
	if _, err := os.Stat(in + ".out"); !os.IsNotExist(err) {
		t.Fatalf("output written after cancel: %v", err)
	}
}

func TestProcessFile_OverwritesExistingOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.c")
	out := filepath.Join(dir, "out.c")
	writeInput(t, in, "x; // c\n")
	writeInput(t, out, "stale content that is longer than the result\n")

	if _, err := ProcessFile(in, out, decomment.DialectC); err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "x; " {
		t.Fatalf("output: %q", b)
	}
}

func TestWriteReport_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "run.json")
	rep := &Report{
		RunID: "01HZZZZZZZZZZZZZZZZZZZZZZZ",
		Files: []FileResult{{Input: "a.c", Output: "b.c", Dialect: "cpp", FileStats: decomment.FileStats{BytesIn: 3}}},
	}
	if err := WriteReport(path, rep); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"bytes_in": 3`) {
		t.Fatalf("stats not flattened into file entry:\n%s", raw)
	}
	var got Report
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if got.RunID != rep.RunID || len(got.Files) != 1 || got.Files[0].BytesIn != 3 {
		t.Fatalf("report: %+v", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}
