package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/strongdm/decomment/internal/decomment"
)

var (
	ErrNoMatches       = errors.New("include pattern matched no files")
	ErrOutputCollision = errors.New("output path claimed by more than one input")
)

// Task is one file to strip.
type Task struct {
	Job     string
	Input   string
	Output  string
	Dialect decomment.Dialect
}

// Resolve expands every job's include globs relative to baseDir, drops
// excluded and previously generated files, and returns the tasks sorted by
// input path. A file matched by more than one job is processed by the first.
// Patterns that match nothing are collected into an error wrapping
// ErrNoMatches. Two inputs that map to the same output are an
// ErrOutputCollision.
func (m *File) Resolve(baseDir string) ([]Task, error) {
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	tasks := map[string]Task{}
	claimed := map[string]string{}
	var missing []string
	for _, j := range m.Jobs {
		dialect, err := decomment.ParseDialect(j.Dialect)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", j.Name, err)
		}
		outDir := ""
		if strings.TrimSpace(j.OutDir) != "" {
			outDir = absUnder(base, j.OutDir)
			if isWithin(base, outDir) {
				return nil, fmt.Errorf("job %s: out_dir %q contains the manifest directory %s; outputs would replace inputs", j.Name, j.OutDir, base)
			}
		}
		for _, pattern := range j.Include {
			hits, patternBase, err := expandPattern(base, pattern)
			if err != nil {
				return nil, fmt.Errorf("job %s: expand include %q: %w", j.Name, pattern, err)
			}
			matched := 0
			for _, hit := range hits {
				excluded, err := isExcluded(base, hit, j.Exclude)
				if err != nil {
					return nil, fmt.Errorf("job %s: %w", j.Name, err)
				}
				if excluded || isGenerated(hit, outDir, j.Suffix) {
					continue
				}
				matched++
				if _, seen := tasks[hit]; seen {
					continue
				}
				output := outputPath(base, patternBase, hit, outDir, j.Suffix)
				if prev, taken := claimed[output]; taken {
					return nil, fmt.Errorf("job %s: %w: %s <- %s, %s", j.Name, ErrOutputCollision, output, prev, hit)
				}
				claimed[output] = hit
				tasks[hit] = Task{
					Job:     j.Name,
					Input:   hit,
					Output:  output,
					Dialect: dialect,
				}
			}
			if matched == 0 {
				missing = append(missing, pattern)
			}
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatches, strings.Join(missing, ", "))
	}

	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Input < out[j].Input })
	return out, nil
}

// expandPattern returns the regular files matching pattern together with the
// pattern's static base directory, the part before the first glob meta.
func expandPattern(base, pattern string) ([]string, string, error) {
	glob := absUnder(base, pattern)
	staticBase, _ := doublestar.SplitPattern(filepath.ToSlash(glob))
	hits, err := doublestar.FilepathGlob(glob)
	if err != nil {
		return nil, "", err
	}
	files := make([]string, 0, len(hits))
	for _, hit := range hits {
		if !isRegularFile(hit) {
			continue
		}
		abs, err := filepath.Abs(hit)
		if err != nil {
			continue
		}
		files = append(files, abs)
	}
	return files, filepath.FromSlash(staticBase), nil
}

// isExcluded matches path, relative to base and slash separated, against each
// exclude glob.
func isExcluded(base, path string, excludes []string) (bool, error) {
	if len(excludes) == 0 {
		return false, nil
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, ex := range excludes {
		ok, err := doublestar.Match(filepath.ToSlash(ex), rel)
		if err != nil {
			return false, fmt.Errorf("exclude %q: %w", ex, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// isGenerated reports whether path is output from an earlier run: anything
// under outDir, or, when writing next to the inputs, a file whose stem
// already carries the suffix.
func isGenerated(path, outDir, suffix string) bool {
	if outDir != "" {
		return isWithin(path, outDir)
	}
	if suffix == "" {
		return false
	}
	name := filepath.Base(path)
	return strings.HasSuffix(strings.TrimSuffix(name, filepath.Ext(name)), suffix)
}

// outputPath mirrors input under outDir. Inputs inside base keep their path
// relative to base; inputs elsewhere keep their path relative to the static
// base of the pattern that matched them.
func outputPath(base, patternBase, input, outDir, suffix string) string {
	if outDir != "" {
		rel, ok := relWithin(base, input)
		if !ok {
			rel, ok = relWithin(patternBase, input)
		}
		if !ok {
			rel = filepath.Base(input)
		}
		return filepath.Join(outDir, rel)
	}
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + suffix + ext
}

// isWithin reports whether path is dir or lies below it.
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func relWithin(dir, path string) (string, bool) {
	if dir == "" || !isWithin(path, dir) {
		return "", false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." {
		return "", false
	}
	return rel, true
}

func absUnder(base, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
