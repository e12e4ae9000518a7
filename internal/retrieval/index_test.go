package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder maps known texts to fixed vectors.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = f.vectors[text]
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return f.vectors[text], nil
}

func TestSearch(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"about cats":    {1, 0, 0},
		"about dogs":    {0, 1, 0},
		"about birds":   {0, 0, 1},
		"mostly cats":   {0.9, 0.1, 0},
		"cats question": {1, 0, 0},
	}}

	docs := []Document{
		{Content: "about dogs", ChunkIndex: 0, Location: "Block-1"},
		{Content: "about cats", ChunkIndex: 1, Location: "Block-2"},
		{Content: "mostly cats", ChunkIndex: 2, Location: "Block-3"},
		{Content: "about birds", ChunkIndex: 3, Location: "Block-4"},
	}

	t.Run("ShouldRankBySimilarity", func(t *testing.T) {
		index, err := BuildIndex(context.Background(), embedder, docs)
		require.NoError(t, err)

		results, err := index.Search(context.Background(), "cats question", 3)
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.Equal(t, "about cats", results[0].Content)
		assert.Equal(t, "mostly cats", results[1].Content)
	})

	t.Run("ShouldBreakTiesByChunkOrder", func(t *testing.T) {
		tied := []Document{
			{Content: "about cats", ChunkIndex: 0},
			{Content: "cats question", ChunkIndex: 1},
		}
		index, err := BuildIndex(context.Background(), embedder, tied)
		require.NoError(t, err)

		results, err := index.Search(context.Background(), "cats question", 2)
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, 0, results[0].ChunkIndex)
		assert.Equal(t, 1, results[1].ChunkIndex)
	})

	t.Run("ShouldCapKAtCorpusSize", func(t *testing.T) {
		index, err := BuildIndex(context.Background(), embedder, docs[:2])
		require.NoError(t, err)

		results, err := index.Search(context.Background(), "cats question", 10)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})
}

func TestFormatCitations(t *testing.T) {
	docs := []Document{
		{Content: "first chunk", Location: "Block-3", CharStart: 200, CharEnd: 260},
		{Content: "second chunk", Location: "Block-1", CharStart: 0, CharEnd: 60},
	}

	citations := FormatCitations(docs)
	require.Len(t, citations, 2)

	assert.Equal(t, 1, citations[0].ID)
	assert.Equal(t, "first chunk", citations[0].Text)
	assert.Equal(t, "Block-3", citations[0].Location)
	assert.Equal(t, CharRange{Start: 200, End: 260}, citations[0].CharLocation)

	assert.Equal(t, 2, citations[1].ID)
	assert.Equal(t, "Block-1", citations[1].Location)
}
