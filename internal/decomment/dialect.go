// Package decomment removes comments, and the blank lines they leave behind,
// from C-style and script-style source text. All functions are pure.
package decomment

import (
	"errors"
	"fmt"
	"strings"
)

type Dialect int

const (
	// DialectC covers // and /* */ comments with quote-aware scanning.
	DialectC Dialect = iota + 1
	// DialectScript covers whole-line -- comments.
	DialectScript
)

var ErrUnknownDialect = errors.New("unknown dialect")

var dialectNames = map[Dialect]string{
	DialectC:      "cpp",
	DialectScript: "lua",
}

func (d Dialect) String() string {
	if name, ok := dialectNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Dialect(%d)", int(d))
}

// ParseDialect maps the command-line names "cpp" and "lua" to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	for d, name := range dialectNames {
		if s == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (want %s)", ErrUnknownDialect, s, strings.Join(DialectNames(), "|"))
}

// DialectNames returns the accepted dialect names in a stable order.
func DialectNames() []string {
	return []string{DialectC.String(), DialectScript.String()}
}

// Transform strips comments from text according to dialect.
func Transform(text string, dialect Dialect) (string, error) {
	switch dialect {
	case DialectC:
		return DropBlankLines(StripCComments(text)), nil
	case DialectScript:
		return StripScriptComments(text), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownDialect, dialect)
	}
}

// FileStats summarizes the size of a transform's input and output.
type FileStats struct {
	BytesIn  int `json:"bytes_in"`
	BytesOut int `json:"bytes_out"`
	LinesIn  int `json:"lines_in"`
	LinesOut int `json:"lines_out"`
}

func Stats(in, out string) FileStats {
	return FileStats{
		BytesIn:  len(in),
		BytesOut: len(out),
		LinesIn:  countLines(in),
		LinesOut: countLines(out),
	}
}

// countLines counts "\n"-separated lines; a trailing newline does not start a
// new line and empty text has none.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(s, "\n"), "\n") + 1
}
