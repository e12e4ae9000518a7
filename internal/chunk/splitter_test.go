package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSplitter(t *testing.T) {
	t.Run("ShouldRejectNonPositiveSize", func(t *testing.T) {
		_, err := NewSplitter(0, 0)
		assert.Error(t, err)
	})
	t.Run("ShouldRejectNegativeOverlap", func(t *testing.T) {
		_, err := NewSplitter(100, -1)
		assert.Error(t, err)
	})
	t.Run("ShouldRejectOverlapNotSmallerThanSize", func(t *testing.T) {
		_, err := NewSplitter(100, 100)
		assert.Error(t, err)
	})
	t.Run("ShouldAcceptIngestProfile", func(t *testing.T) {
		s, err := NewSplitter(IngestChunkSize, IngestChunkOverlap)
		require.NoError(t, err)
		assert.NotNil(t, s)
	})
}

func TestSplitShortText(t *testing.T) {
	splitter, err := NewSplitter(200, 20)
	require.NoError(t, err)

	text := "A single short paragraph that fits in one chunk."
	chunks, err := splitter.Split(text)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, text, chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "Block-1", chunks[0].Location)
	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, len(text), chunks[0].CharEnd)
}

func TestSplitProperties(t *testing.T) {
	splitter, err := NewSplitter(80, 10)
	require.NoError(t, err)

	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("The quick brown fox jumps over the lazy dog. ")
		b.WriteString("Pack my box with five dozen liquor jugs.\n\n")
	}
	text := b.String()

	chunks, err := splitter.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	prevStart := -1
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 80)
		assert.NotEmpty(t, strings.TrimSpace(c.Content))
		assert.Equal(t, i, c.Index)
		assert.Equal(t, fmt.Sprintf("Block-%d", i+1), c.Location)

		if c.CharStart >= 0 {
			assert.Equal(t, c.Content, text[c.CharStart:c.CharEnd])
			// Repeated sentences must anchor to later occurrences, not
			// rewind to the first match.
			assert.Greater(t, c.CharStart, prevStart)
			prevStart = c.CharStart
		}
	}
}

func TestSplitRepeatedBoilerplate(t *testing.T) {
	splitter, err := NewSplitter(40, 0)
	require.NoError(t, err)

	text := strings.Repeat("Identical boilerplate paragraph here.\n\n", 5)
	chunks, err := splitter.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	starts := make(map[int]struct{})
	prev := -1
	for _, c := range chunks {
		require.GreaterOrEqual(t, c.CharStart, 0)
		assert.Greater(t, c.CharStart, prev)
		prev = c.CharStart
		_, dup := starts[c.CharStart]
		assert.False(t, dup, "duplicate start offset %d", c.CharStart)
		starts[c.CharStart] = struct{}{}
	}
}

func TestSplitEmptyText(t *testing.T) {
	splitter, err := NewSplitter(100, 10)
	require.NoError(t, err)

	chunks, err := splitter.Split("")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
