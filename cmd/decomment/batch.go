package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/strongdm/decomment/internal/batch"
	"github.com/strongdm/decomment/internal/decomment"
	"github.com/strongdm/decomment/internal/manifest"
)

func batchCmd(args []string) {
	var manifestPath string
	var reportPath string
	var dialect string
	var outDir string
	var suffix string
	var jsonOutput bool
	var verbose bool
	var patterns []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--manifest":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "--manifest requires a value")
				os.Exit(1)
			}
			manifestPath = args[i]
		case "--report":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "--report requires a value")
				os.Exit(1)
			}
			reportPath = args[i]
		case "--dialect":
			i++
			if i >= len(args) {
				fmt.Fprintf(os.Stderr, "--dialect requires a value (%s)\n", strings.Join(decomment.DialectNames(), "|"))
				os.Exit(1)
			}
			dialect = args[i]
		case "--out-dir":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "--out-dir requires a value")
				os.Exit(1)
			}
			outDir = args[i]
		case "--suffix":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "--suffix requires a value")
				os.Exit(1)
			}
			suffix = args[i]
		case "--json":
			jsonOutput = true
		case "--verbose":
			verbose = true
		default:
			if strings.HasPrefix(args[i], "--") {
				fmt.Fprintf(os.Stderr, "unknown arg: %s\n", args[i])
				os.Exit(1)
			}
			patterns = append(patterns, args[i])
		}
	}

	var (
		m       *manifest.File
		baseDir string
		err     error
	)
	switch {
	case manifestPath != "" && (dialect != "" || len(patterns) > 0):
		fmt.Fprintln(os.Stderr, "--manifest cannot be combined with --dialect or glob arguments")
		usage()
		os.Exit(1)
	case manifestPath != "":
		m, err = manifest.Load(manifestPath)
		baseDir = filepath.Dir(manifestPath)
	case dialect != "" && len(patterns) > 0:
		m, err = manifest.FromPatterns(dialect, outDir, suffix, patterns)
		baseDir, _ = os.Getwd()
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	tasks, err := m.Resolve(baseDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cleanup := signalCancelContext()
	defer cleanup()
	rep, err := batch.Run(ctx, tasks, batch.Options{Manifest: manifestPath, Logger: logger})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if reportPath != "" {
		if err := batch.WriteReport(reportPath, rep); err != nil {
			fmt.Fprintln(os.Stderr, "write report:", err)
			os.Exit(1)
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			fmt.Fprintln(os.Stderr, "json encode:", err)
			os.Exit(1)
		}
	} else {
		printSummary(rep)
	}

	if rep.Failed() {
		cleanup()
		os.Exit(1)
	}
}

func printSummary(rep *batch.Report) {
	fmt.Printf("run %s\n", rep.RunID)
	fmt.Printf("%-50s  %6s  %9s  %9s\n", "FILE", "DIALECT", "LINES IN", "LINES OUT")
	fmt.Println(strings.Repeat("-", 82))
	for _, r := range rep.Files {
		status := "ok"
		if r.Error != "" {
			status = "FAIL"
		}
		fmt.Printf("%-50s  %6s  %9d  %9d  [%s]\n", filepath.Base(r.Input), r.Dialect, r.LinesIn, r.LinesOut, status)
		if r.Error != "" {
			fmt.Printf("  error: %s\n", r.Error)
		}
	}
	fmt.Println(strings.Repeat("-", 82))
	fmt.Printf("Total files: %d  ok: %d  failed: %d\n", len(rep.Files), rep.Succeeded, rep.FailedN)
	if rep.Canceled {
		fmt.Println("run canceled before all files were processed")
	}
}
