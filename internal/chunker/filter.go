package chunker

import (
	"strings"
	"unicode"
)

const (
	// DefaultMinChunkLen is the shortest trimmed chunk worth embedding.
	DefaultMinChunkLen = 100
	// minLetterRatio rejects chunks dominated by symbols, digits or
	// punctuation debris from bad OCR / HTML stripping.
	minLetterRatio = 0.6
)

// IsNoisy reports whether a chunk is unlikely to carry meaningful content:
// shorter than minLen after trimming, no letters at all, or too low a letter
// ratio. minLen <= 0 means DefaultMinChunkLen. Pure function of its inputs.
func IsNoisy(chunk string, minLen int) bool {
	if minLen <= 0 {
		minLen = DefaultMinChunkLen
	}
	t := strings.TrimSpace(chunk)
	if len(t) < minLen {
		return true
	}
	var letters, total int
	for _, r := range t {
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters == 0 {
		return true
	}
	return float64(letters)/float64(total) < minLetterRatio
}

// Filter drops noisy chunks. When every chunk is noisy it falls back to the
// trimmed original text as a single chunk, so a non-empty document never
// filters down to nothing.
func Filter(chunks []string, original string, minLen int) []string {
	var kept []string
	for _, c := range chunks {
		if !IsNoisy(c, minLen) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		if t := strings.TrimSpace(original); t != "" {
			return []string{t}
		}
		return nil
	}
	return kept
}
