package chunk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// Tuning profiles for the two call sites. Retrieval wants small windows,
// report synthesis wants large ones.
const (
	IngestChunkSize    = 4000
	IngestChunkOverlap = 400
	ReportChunkSize    = 12000
	ReportChunkOverlap = 2000
)

// separators in priority order: paragraph break, line break, sentence
// punctuation, whitespace, hard cut.
var separators = []string{"\n\n", "\n", ".", "!", "?", ";", ":", " ", ""}

// Chunk is one window of a source text.
type Chunk struct {
	Content   string
	Index     int
	Location  string
	CharStart int
	CharEnd   int
}

// Splitter wraps the recursive character splitter with offset tracking.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter validates the size/overlap pair.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, errors.New("chunk: size must be greater than zero")
	}
	if overlap < 0 {
		return nil, errors.New("chunk: overlap cannot be negative")
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk: overlap %d must be smaller than size %d", overlap, size)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Split breaks text into ordered overlapping chunks. Char offsets are found
// by searching forward from the previous chunk's start, so repeated
// boilerplate anchors to the right occurrence instead of the first one.
func (s *Splitter) Split(text string) ([]Chunk, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.size),
		textsplitter.WithChunkOverlap(s.overlap),
		textsplitter.WithSeparators(separators),
	)
	segments, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("chunk: split text: %w", err)
	}

	chunks := make([]Chunk, 0, len(segments))
	searchFrom := 0
	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		idx := len(chunks)
		start, end := locate(text, segment, searchFrom)
		if start >= 0 {
			searchFrom = start + 1
		}
		chunks = append(chunks, Chunk{
			Content:   segment,
			Index:     idx,
			Location:  fmt.Sprintf("Block-%d", idx+1),
			CharStart: start,
			CharEnd:   end,
		})
	}
	return chunks, nil
}

// locate finds the chunk's offsets in the original text. Overlapping chunks
// begin before the previous chunk ends, so the scan restarts just past the
// previous start. Falls back to a whole-text search, then to -1/-1 when the
// splitter normalized the segment beyond recognition.
func locate(text, segment string, from int) (int, int) {
	if from <= len(text) {
		if rel := strings.Index(text[from:], segment); rel >= 0 {
			start := from + rel
			return start, start + len(segment)
		}
	}
	if abs := strings.Index(text, segment); abs >= 0 {
		return abs, abs + len(segment)
	}
	return -1, -1
}
