// Package locator maps character offsets in document text to human-readable
// line and column positions. Offsets count Unicode code points, matching the
// offsets reported by the privacy detector.
package locator

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Position is a 1-based line/column location with the text of its line.
type Position struct {
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	LineText string `json:"line_text"`
}

// String formats the position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Locate returns the position of offset in text. Offsets past the end clamp
// to the last line, column 1; negative offsets are treated as 0.
func Locate(text string, offset int) Position {
	if offset < 0 {
		offset = 0
	}

	lines := strings.Split(text, "\n")
	current := 0
	for i, line := range lines {
		length := utf8.RuneCountInString(line) + 1
		if current+length > offset {
			return Position{Line: i + 1, Column: offset - current + 1, LineText: line}
		}
		current += length
	}

	return Position{Line: len(lines), Column: 1, LineText: lines[len(lines)-1]}
}
