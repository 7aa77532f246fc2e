// Package chunk splits document text into context-budget-sized pieces along
// paragraph boundaries.
package chunk

import "strings"

// separator is the paragraph boundary marker.
const separator = "\n\n"

// CharsPerToken is the rough character-per-token ratio used for budgeting.
const CharsPerToken = 4

// Chunk is one contiguous slice of document text. Chunks are produced in
// order and Index reflects that order.
type Chunk struct {
	Index int
	Text  string
}

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	return len(text) / CharsPerToken
}

// MaxChunkChars converts a token budget into a character budget.
func MaxChunkChars(maxTokens int) int {
	return maxTokens * CharsPerToken
}

// Split partitions text into ordered chunks of at most maxChars characters,
// greedily accumulating whole paragraphs. A single paragraph longer than
// maxChars is placed alone in its own oversized chunk; splitting inside a
// paragraph would break the semantic unit the extraction model relies on.
//
// Joining the returned chunk texts with the paragraph separator reconstructs
// the input exactly. Empty input yields no chunks.
func Split(text string, maxChars int) []Chunk {
	if text == "" {
		return nil
	}

	paragraphs := strings.Split(text, separator)
	var chunks []Chunk
	var cur strings.Builder
	started := false

	flush := func() {
		chunks = append(chunks, Chunk{Index: len(chunks), Text: cur.String()})
		cur.Reset()
		started = false
	}

	for _, p := range paragraphs {
		if !started {
			cur.WriteString(p)
			started = true
			continue
		}
		if cur.Len()+len(separator)+len(p) <= maxChars {
			cur.WriteString(separator)
			cur.WriteString(p)
		} else {
			flush()
			cur.WriteString(p)
			started = true
		}
	}
	if started {
		flush()
	}
	return chunks
}
