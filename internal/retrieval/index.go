package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/embeddings"
)

// TopK is how many chunks a query retrieves.
const TopK = 4

// Document is a chunk prepared for similarity search.
type Document struct {
	Content    string
	FileID     string
	ChunkIndex int
	Location   string
	CharStart  int
	CharEnd    int
}

// Index is a transient per-query similarity index. It embeds every chunk on
// construction and is thrown away after the query; nothing is cached.
type Index struct {
	embedder embeddings.Embedder
	docs     []Document
	vectors  [][]float32
}

// BuildIndex embeds all documents and returns a ready-to-query index.
func BuildIndex(ctx context.Context, embedder embeddings.Embedder, docs []Document) (*Index, error) {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		logrus.WithError(err).Error("retrieval: failed to embed documents")
		return nil, fmt.Errorf("retrieval: embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("retrieval: embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	return &Index{embedder: embedder, docs: docs, vectors: vectors}, nil
}

// Search embeds the query and returns the top-k documents by cosine
// similarity. Ties keep original chunk order.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Document, error) {
	if k <= 0 {
		k = TopK
	}

	queryVec, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		logrus.WithError(err).Error("retrieval: failed to embed query")
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}

	scores := make([]float64, len(ix.vectors))
	for i, vec := range ix.vectors {
		scores[i] = cosineSimilarity(vec, queryVec)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	results := make([]Document, 0, k)
	for _, idx := range order[:k] {
		results = append(results, ix.docs[idx])
	}
	return results, nil
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
