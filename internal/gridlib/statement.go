package gridlib

import (
	"strings"
	"unicode"
)

// TableRef names the table (and optionally database) a statement reads from.
type TableRef struct {
	Table    string
	Database string
}

// ResolveTable extracts the owning table from a single-table
// `SELECT ... FROM <ref> ...` statement. Comments are stripped, then the
// first FROM keyword outside any quoted region is located and the dotted
// identifier chain after it is read; segments may be unquoted or quoted
// with backticks, double quotes, or brackets (a doubled closing delimiter
// is a literal character). One segment names the table, two name
// database.table.
//
// Joins and subqueries are not resolved past the first reference, and
// statements starting with WITH are rejected outright: a CTE's first FROM
// points inside the CTE body, not at the result's table.
func ResolveTable(sqlText string) (TableRef, bool) {
	text := stripComments(sqlText)

	if startsWithKeyword(text, "with") {
		return TableRef{}, false
	}

	rest, ok := afterFirstFrom(text)
	if !ok {
		return TableRef{}, false
	}

	segments := readSegments(rest)
	switch len(segments) {
	case 0:
		return TableRef{}, false
	case 1:
		return TableRef{Table: segments[0]}, true
	default:
		return TableRef{Database: segments[0], Table: segments[1]}, true
	}
}

// stripComments removes -- line comments and /* */ block comments,
// leaving string literals and quoted identifiers intact.
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		switch c {
		case '\'', '"', '`':
			end := skipQuoted(s, i, c, c)
			b.WriteString(s[i:end])
			i = end
		case '[':
			end := skipQuoted(s, i, '[', ']')
			b.WriteString(s[i:end])
			i = end
		case '-':
			if i+1 < len(s) && s[i+1] == '-' {
				for i < len(s) && s[i] != '\n' {
					i++
				}
				b.WriteByte(' ')
				continue
			}
			b.WriteByte(c)
			i++
		case '/':
			if i+1 < len(s) && s[i+1] == '*' {
				i += 2
				for i+1 < len(s) && !(s[i] == '*' && s[i+1] == '/') {
					i++
				}
				if i+1 < len(s) {
					i += 2
				} else {
					i = len(s)
				}
				b.WriteByte(' ')
				continue
			}
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// skipQuoted returns the index just past a quoted run starting at start.
// A doubled closing delimiter inside the run is an escape, not a
// terminator. An unterminated run extends to the end of the string.
func skipQuoted(s string, start int, open, close byte) int {
	i := start + 1
	for i < len(s) {
		if s[i] == close {
			if i+1 < len(s) && s[i+1] == close {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(s)
}

func startsWithKeyword(s, keyword string) bool {
	trimmed := strings.TrimLeftFunc(s, unicode.IsSpace)
	if len(trimmed) < len(keyword) {
		return false
	}
	if !strings.EqualFold(trimmed[:len(keyword)], keyword) {
		return false
	}
	return len(trimmed) == len(keyword) || !isIdentByte(trimmed[len(keyword)])
}

// afterFirstFrom returns the text following the first FROM keyword that
// sits outside quoted regions, or false if there is none.
func afterFirstFrom(s string) (string, bool) {
	for i := 0; i < len(s); {
		switch c := s[i]; c {
		case '\'', '"', '`':
			i = skipQuoted(s, i, c, c)
		case '[':
			i = skipQuoted(s, i, '[', ']')
		case 'f', 'F':
			boundaryBefore := i == 0 || !isIdentByte(s[i-1])
			if boundaryBefore && i+4 <= len(s) && strings.EqualFold(s[i:i+4], "from") {
				if i+4 == len(s) || !isIdentByte(s[i+4]) {
					return s[i+4:], true
				}
			}
			i++
		default:
			i++
		}
	}
	return "", false
}

// readSegments reads up to two dot-separated identifier segments.
func readSegments(s string) []string {
	var segments []string
	i := 0
	for len(segments) < 2 {
		for i < len(s) && isSpaceByte(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}
		var seg string
		switch c := s[i]; c {
		case '`', '"':
			end := skipQuoted(s, i, c, c)
			seg = unescapeQuoted(s[i:end], c)
			i = end
		case '[':
			end := skipQuoted(s, i, '[', ']')
			seg = unescapeQuoted(s[i:end], ']')
			i = end
		default:
			start := i
			for i < len(s) && isIdentByte(s[i]) {
				i++
			}
			seg = s[start:i]
		}
		if seg == "" {
			break
		}
		segments = append(segments, seg)
		if i < len(s) && s[i] == '.' {
			i++
			continue
		}
		break
	}
	return segments
}

// unescapeQuoted strips the delimiters from a quoted segment and collapses
// doubled closing delimiters back to single characters.
func unescapeQuoted(quoted string, close byte) string {
	if len(quoted) < 2 {
		return ""
	}
	inner := quoted[1:]
	if inner[len(inner)-1] == close {
		inner = inner[:len(inner)-1]
	}
	return strings.ReplaceAll(inner, string([]byte{close, close}), string(close))
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c >= 0x80
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
