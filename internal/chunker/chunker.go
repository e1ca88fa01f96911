package chunker

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	DefaultChunkSize = 800
	DefaultOverlap   = 300
)

var paragraphSplit = regexp.MustCompile(`\n[ \t]*\n`)

// Split breaks text into overlapping chunks of roughly targetSize characters.
// Paragraphs are split on blank lines, then into sentences on end punctuation
// followed by whitespace. Sentences accumulate in a buffer; when the next one
// would push the buffer past targetSize the chunk is closed and the next chunk
// is seeded with the last overlap characters of the closed one, so adjacent
// chunks share context across the boundary.
//
// Empty input yields nil. Text shorter than targetSize yields a single chunk
// equal to the trimmed text. A single sentence longer than targetSize is
// emitted whole; sentences are never split mid-word.
func Split(text string, targetSize, overlap int) []string {
	if targetSize <= 0 {
		targetSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len(trimmed) <= targetSize {
		return []string{trimmed}
	}

	// The overlap seed carried over from the previous chunk does not count
	// against the size budget; only newly appended sentences do.
	var chunks []string
	var buf strings.Builder
	seedLen := 0
	for _, para := range paragraphSplit.Split(text, -1) {
		for _, sent := range sentences(para) {
			if content := buf.Len() - seedLen; content > 0 && content+1+len(sent) > targetSize {
				closed := buf.String()
				chunks = append(chunks, closed)
				seed := tail(closed, overlap)
				buf.Reset()
				buf.WriteString(seed)
				seedLen = len(seed)
			}
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(sent)
		}
	}
	if buf.Len() > seedLen {
		if last := strings.TrimSpace(buf.String()); last != "" {
			chunks = append(chunks, last)
		}
	}
	return chunks
}

// sentences splits a paragraph on `.` `!` `?` followed by whitespace (or end
// of the paragraph). The punctuation stays with its sentence.
func sentences(para string) []string {
	para = strings.TrimSpace(para)
	if para == "" {
		return nil
	}
	var out []string
	rs := []rune(para)
	start := 0
	for i, r := range rs {
		if (r == '.' || r == '!' || r == '?') && (i+1 == len(rs) || unicode.IsSpace(rs[i+1])) {
			if s := strings.TrimSpace(string(rs[start : i+1])); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if start < len(rs) {
		if s := strings.TrimSpace(string(rs[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// tail returns the last n characters of s, rune-safe.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[len(rs)-n:])
}
