package privacy

import (
	"strings"
	"unicode"
)

// maxValueWindow bounds the value captured after a keyword, in runes.
const maxValueWindow = 100

// capture is a value taken from the text after a keyword.
type capture struct {
	value string
	end   int
}

// captureValue extracts the value that follows a keyword ending at
// keywordEnd. It skips separators, then takes the longest run of value
// characters up to maxValueWindow. If that run is blank it falls back to the
// first whitespace-delimited token with disallowed characters removed.
func captureValue(text []rune, keywordEnd int) (capture, bool) {
	start := keywordEnd
	for start < len(text) && isSeparator(text[start]) {
		start++
	}
	if start >= len(text) {
		return capture{}, false
	}

	limit := min(maxValueWindow, len(text)-start)
	n := 0
	for n < limit && isValueRune(text[start+n]) {
		n++
	}

	if n > 0 {
		value := trimSpace(text[start : start+n])
		if k := len(value); k > 0 && !isValueRune(value[k-1]) {
			value = trimSpace(value[:k-1])
		}
		if len(value) > 0 {
			return capture{value: string(value), end: start + len(value)}, true
		}
	}

	if word := firstWord(text[start:]); len(word) > 0 {
		if cleaned := keepTokenRunes(word); len(cleaned) > 0 {
			return capture{value: string(cleaned), end: start + len(cleaned)}, true
		}
	}

	return capture{}, false
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', ':', '=', '-', '\t', '\n':
		return true
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func isValueRune(r rune) bool {
	return isWordRune(r) || unicode.IsSpace(r) || r == '-' || r == '.'
}

func isTokenRune(r rune) bool {
	return isWordRune(r) || r == '-' || r == '.'
}

func trimSpace(rs []rune) []rune {
	i, j := 0, len(rs)
	for i < j && unicode.IsSpace(rs[i]) {
		i++
	}
	for j > i && unicode.IsSpace(rs[j-1]) {
		j--
	}
	return rs[i:j]
}

func firstWord(rs []rune) []rune {
	i := 0
	for i < len(rs) && unicode.IsSpace(rs[i]) {
		i++
	}
	j := i
	for j < len(rs) && !unicode.IsSpace(rs[j]) {
		j++
	}
	return rs[i:j]
}

func keepTokenRunes(rs []rune) []rune {
	out := make([]rune, 0, len(rs))
	for _, r := range rs {
		if isTokenRune(r) {
			out = append(out, r)
		}
	}
	return out
}

// collapseSpace replaces runs of whitespace with a single space and trims
// the ends.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func lowerRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

// indexFrom returns the first index >= from at which needle occurs in
// haystack, or -1.
func indexFrom(haystack, needle []rune, from int) int {
	if len(needle) == 0 {
		return -1
	}
	last := len(haystack) - len(needle)
	for i := from; i <= last; i++ {
		if haystack[i] != needle[0] {
			continue
		}
		match := true
		for j := 1; j < len(needle); j++ {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
