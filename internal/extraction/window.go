// Package extraction carves bounded evidence windows around identifier
// mentions and aggregates them into per-document extraction records.
package extraction

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nmarkham/citetype/internal/ingest"
)

const (
	// MaxWindowChars bounds the length of a single evidence window.
	MaxWindowChars = 1000

	// windowRadius is the fallback reach on each side of a match when no
	// paragraph boundary lies closer.
	windowRadius = 400
)

// Window is one identifier occurrence's textual context. Text is
// whitespace-normalized and always contains the matched span.
type Window struct {
	Identifier  string        `json:"identifier"`
	Text        string        `json:"text"`
	Page        int           `json:"page,omitempty"`
	Section     string        `json:"section,omitempty"`
	Source      ingest.Medium `json:"source"`
	ExtractedAt time.Time     `json:"extracted_at"`
}

// Carve extracts the evidence window around a matched span. It reaches to
// the nearest double-newline paragraph boundary on each side, clamped to
// windowRadius, expands short paragraphs back out to the radius, and
// truncates over-long windows around the span with ellipses. The result is
// whitespace-normalized and never exceeds MaxWindowChars.
func Carve(text string, offset, length int) string {
	start := 0
	if i := strings.LastIndex(text[:offset], "\n\n"); i >= 0 {
		start = i + 2
	}
	if offset-start > windowRadius {
		start = offset - windowRadius
	}

	spanEnd := offset + length
	end := len(text)
	if i := strings.Index(text[spanEnd:], "\n\n"); i >= 0 {
		end = spanEnd + i
	}
	if end-spanEnd > windowRadius {
		end = spanEnd + windowRadius
	}

	// A short paragraph gives too little signal; reach past its
	// boundaries back out to the radius.
	if end-start < windowRadius {
		start = max(0, offset-windowRadius)
		end = min(len(text), spanEnd+windowRadius)
	}

	start = snapLeft(text, start)
	end = snapLeft(text, end)
	window := text[start:end]
	spanStart := offset - start

	if len(window) > MaxWindowChars {
		window, spanStart = clampAround(window, spanStart, length)
	}

	return Normalize(window)
}

// clampAround truncates window to MaxWindowChars centered on the span,
// marking removed text with ellipses.
func clampAround(window string, spanStart, spanLen int) (string, int) {
	const ellipsis = "..."
	keep := MaxWindowChars - 2*len(ellipsis)

	center := spanStart + spanLen/2
	start := center - keep/2
	if start < 0 {
		start = 0
	}
	if start+keep > len(window) {
		start = len(window) - keep
	}
	start = snapRight(window, start)

	end := start + keep
	if end > len(window) {
		end = len(window)
	}
	end = snapLeft(window, end)

	clamped := window[start:end]
	offset := spanStart - start

	if start > 0 {
		clamped = ellipsis + clamped
		offset += len(ellipsis)
	}
	if end < len(window) {
		clamped += ellipsis
	}

	return clamped, offset
}

// snapLeft moves i back to the nearest rune boundary so byte-offset cuts
// never split a multi-byte rune.
func snapLeft(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// snapRight moves i forward to the next rune boundary.
func snapRight(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}

// Normalize collapses whitespace runs to single spaces and trims the ends.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// similarityThreshold is the word-set Jaccard overlap above which two
// windows are treated as duplicates.
const similarityThreshold = 0.9

// Similar reports whether two normalized texts are exact matches or
// near-duplicates by word-set Jaccard similarity.
func Similar(a, b string) bool {
	if a == b {
		return true
	}

	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return false
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection

	return float64(intersection)/float64(union) > similarityThreshold
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}
