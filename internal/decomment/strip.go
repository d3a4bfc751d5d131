package decomment

import "strings"

const (
	lineCommentStart  = "//"
	blockCommentStart = "/*"
	blockCommentEnd   = "*/"
)

// StripCComments removes // and /* */ comments from C-style source while
// preserving comment-like sequences inside single- and double-quoted literals.
//
// Spans are recognized left to right. At each position the matchers are tried
// in order: line comment, block comment, single-quoted literal, double-quoted
// literal. Comments are dropped, literals are copied verbatim. Malformed input
// is never an error: an unterminated block comment runs to end of text and an
// unterminated literal is treated as an ordinary quote character.
func StripCComments(src string) string {
	var out strings.Builder
	out.Grow(len(src))

	for i := 0; i < len(src); {
		if n := matchLineComment(src, i); n > 0 {
			i += n
			continue
		}
		if n := matchBlockComment(src, i); n > 0 {
			i += n
			continue
		}
		if n := matchLiteral(src, i, '\''); n > 0 {
			out.WriteString(src[i : i+n])
			i += n
			continue
		}
		if n := matchLiteral(src, i, '"'); n > 0 {
			out.WriteString(src[i : i+n])
			i += n
			continue
		}
		out.WriteByte(src[i])
		i++
	}
	return out.String()
}

// matchLineComment returns the length of a line comment starting at i, or 0.
// The terminating newline is not part of the span.
func matchLineComment(src string, i int) int {
	if !strings.HasPrefix(src[i:], lineCommentStart) {
		return 0
	}
	if nl := strings.IndexByte(src[i:], '\n'); nl >= 0 {
		return nl
	}
	return len(src) - i
}

// matchBlockComment returns the length of a block comment starting at i, or 0.
// Block comments do not nest; the first */ closes.
func matchBlockComment(src string, i int) int {
	if !strings.HasPrefix(src[i:], blockCommentStart) {
		return 0
	}
	body := src[i+len(blockCommentStart):]
	if end := strings.Index(body, blockCommentEnd); end >= 0 {
		return len(blockCommentStart) + end + len(blockCommentEnd)
	}
	return len(src) - i
}

// matchLiteral returns the length of a quote-delimited literal starting at i,
// including both quotes, or 0 when src[i] is not quote or the literal is never
// closed. A backslash escapes whatever byte follows it.
func matchLiteral(src string, i int, quote byte) int {
	if src[i] != quote {
		return 0
	}
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			if j+1 >= len(src) {
				return 0
			}
			j++
		case quote:
			return j - i + 1
		}
	}
	return 0
}

// DropBlankLines removes lines that are empty after trimming ASCII whitespace
// and joins the survivors with "\n".
func DropBlankLines(text string) string {
	return filterLines(text, func(trimmed string) bool {
		return trimmed != ""
	})
}

// StripScriptComments removes whole-line "--" comments and blank lines.
// Trailing comments after code are left alone.
func StripScriptComments(text string) string {
	return filterLines(text, func(trimmed string) bool {
		return trimmed != "" && !strings.HasPrefix(trimmed, scriptCommentPrefix)
	})
}

const scriptCommentPrefix = "--"

// asciiSpace is the set trimmed before a line is judged blank or a comment.
// Unicode spaces such as U+00A0 are content.
const asciiSpace = " \t\n\r\v\f"

func filterLines(text string, keep func(trimmed string) bool) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if keep(strings.Trim(line, asciiSpace)) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
