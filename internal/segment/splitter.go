package segment

import (
	"strings"
	"unicode"
)

// DefaultOverlap is the number of trailing characters re-read at the start
// of the next chunk.
const DefaultOverlap = 100

// Chunk is a bounded, trimmed substring of a document. Index is its position
// in the emitted sequence.
type Chunk struct {
	Text  string
	Index int
}

// Clean normalizes text for segmentation: whitespace runs collapse to a
// single space, characters outside the allowed punctuation set are dropped,
// and the ends are trimmed.
func Clean(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		lastSpace = false
		if isWordChar(r) || allowedPunct(r) {
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(b.String())
}

func allowedPunct(r rune) bool {
	switch r {
	case '.', ',', '?', '!', ':', ';', '(', ')', '[', ']', '{', '}',
		'-', '–', '—', '\'', '"', '`':
		return true
	}
	return false
}

// Split cleans text and carves it into chunks of at most chunkSize
// characters, preferring sentence terminators and newlines as boundaries.
// Consecutive chunks share up to overlap characters. Sizes, offsets and
// overlap all count runes, never bytes, so multi-byte text is never cut
// mid-character. The cursor strictly advances every iteration, so Split
// terminates for any input.
func Split(text string, chunkSize, overlap int) []Chunk {
	text = Clean(text)
	if text == "" {
		return nil
	}
	if chunkSize < 1 {
		chunkSize = 1
	}
	if overlap < 0 {
		overlap = 0
	}
	// Overlap must stay below the chunk size or the cursor could stall.
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []Chunk{{Text: text, Index: 0}}
	}

	var chunks []Chunk
	appendChunk := func(rs []rune) {
		s := strings.TrimSpace(string(rs))
		if s != "" {
			chunks = append(chunks, Chunk{Text: s, Index: len(chunks)})
		}
	}

	cursor := 0
	for cursor < len(runes) {
		end := min(cursor+chunkSize, len(runes))

		if end == len(runes) {
			// Final window: no overlap retained.
			appendChunk(runes[cursor:end])
			break
		}

		window := runes[cursor:end]
		boundary := boundaryOffset(window, overlap)
		if boundary >= 0 {
			cut := cursor + boundary + 1
			appendChunk(runes[cursor:cut])
			cursor = cut - overlap
		} else {
			// No qualifying boundary: cut exactly at chunkSize.
			appendChunk(window)
			cursor = end - overlap
		}
	}

	return chunks
}

// SplitAdaptive picks the chunk size from the text's density estimate
// before splitting.
func SplitAdaptive(text string, sizes Sizes, overlap int) []Chunk {
	return Split(text, EstimateDensity(text, sizes), overlap)
}

// boundaryOffset finds the best split offset inside window: the last
// sentence terminator or newline. Offsets at or before overlap are rejected
// so chunks never degenerate to near-zero length. Returns -1 when no
// boundary qualifies.
func boundaryOffset(window []rune, overlap int) int {
	for i := len(window) - 1; i > overlap; i-- {
		switch window[i] {
		case '.', '?', '!', '\n':
			return i
		}
	}
	return -1
}
