package treesearch

import "unicode"

// Span is the minimal rune-offset range of a label covering every query
// word, in order. Produced fresh per (label, query) pair and never stored
// across passes.
type Span struct {
	Lower, Upper int
}

// NoSpan is the no-hit sentinel.
var NoSpan = Span{Lower: -1, Upper: -1}

// Hit reports whether the span denotes a match.
func (s Span) Hit() bool {
	return s.Lower >= 0 && s.Lower < s.Upper
}

// Len returns the number of runes covered by the span, 0 for a non-hit.
func (s Span) Len() int {
	if !s.Hit() {
		return 0
	}
	return s.Upper - s.Lower
}

// spanUpperBound seeds the running minimum while words are matched. Larger
// than any label that can reach this code path.
const spanUpperBound = 1 << 15

// Bounds computes the fuzzy multi-word substring bounds of query within
// label. The query is split on single spaces; empty words are discarded.
// Words must occur in label in query order, each found at or after the end
// of the previous word's occurrence; intervening text is allowed. A miss on
// any word fails the whole match with no backtracking.
//
// Matching is case-insensitive iff the query is entirely lowercase; any
// uppercase rune in the query opts into exact case. Offsets are rune
// offsets. On success Lower is the smallest start seen and Upper the
// largest end seen, so the span covers all matched words plus whatever sits
// between them.
func Bounds(label, query string) Span {
	if query == "" {
		return NoSpan
	}

	insensitive := isLowercase(query)

	haystack := []rune(label)
	mask := []rune(query)
	if insensitive {
		foldRunes(haystack)
		foldRunes(mask)
	}

	lower := spanUpperBound
	upper := 0
	cursor := 0
	matchedAny := false

	wordStart := 0
	for wordStart <= len(mask) {
		wordEnd := wordStart
		for wordEnd < len(mask) && mask[wordEnd] != ' ' {
			wordEnd++
		}
		word := mask[wordStart:wordEnd]
		wordStart = wordEnd + 1

		if len(word) == 0 {
			continue
		}

		pos := runeIndex(haystack, word, cursor)
		if pos < 0 {
			return NoSpan
		}
		matchedAny = true
		if pos < lower {
			lower = pos
		}
		cursor = pos + len(word)
		if cursor > upper {
			upper = cursor
		}
	}

	if !matchedAny {
		return NoSpan
	}
	return Span{Lower: lower, Upper: upper}
}

// isLowercase reports whether s contains no uppercase runes.
func isLowercase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// foldRunes lowercases in place, rune by rune, so offsets stay stable.
func foldRunes(rs []rune) {
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
}

// runeIndex returns the first occurrence of needle in haystack at or after
// from, or -1. Plain quadratic scan: labels are short and queries shorter,
// no searcher machinery needed.
func runeIndex(haystack, needle []rune, from int) int {
	if from < 0 {
		from = 0
	}
	if len(needle) == 0 {
		if from > len(haystack) {
			return -1
		}
		return from
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		j := 0
		for j < len(needle) && haystack[i+j] == needle[j] {
			j++
		}
		if j == len(needle) {
			return i
		}
	}
	return -1
}
