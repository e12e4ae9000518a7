package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	t.Run("ShouldConcatenateAndDeduplicateArrays", func(t *testing.T) {
		results := []map[string]any{
			{"findings": []any{"a", "b"}},
			{"findings": []any{"b", "c"}},
		}
		merged, _ := Merge(results, []string{"one", "two"})
		assert.Equal(t, []any{"a", "b", "c"}, merged["findings"])
	})

	t.Run("ShouldDeduplicateStructurallyEqualObjects", func(t *testing.T) {
		results := []map[string]any{
			{"risks": []any{map[string]any{"name": "liquidity", "severity": "high"}}},
			{"risks": []any{map[string]any{"severity": "high", "name": "liquidity"}}},
		}
		merged, _ := Merge(results, []string{"one", "two"})
		assert.Len(t, merged["risks"], 1)
	})

	t.Run("ShouldJoinStringsWithNewline", func(t *testing.T) {
		results := []map[string]any{
			{"summary": "first part"},
			{"summary": "second part"},
		}
		merged, _ := Merge(results, []string{"one", "two"})
		assert.Equal(t, "first part\nsecond part", merged["summary"])
	})

	t.Run("ShouldKeepFirstNonEmptyTitle", func(t *testing.T) {
		results := []map[string]any{
			{"title": ""},
			{"title": "Quarterly Review"},
			{"title": "A Different Title"},
		}
		merged, _ := Merge(results, []string{"one", "two", "three"})
		assert.Equal(t, "Quarterly Review", merged["title"])
	})

	t.Run("ShouldDeepMergeNestedObjects", func(t *testing.T) {
		results := []map[string]any{
			{"financials": map[string]any{"revenue": "10m", "items": []any{"x"}}},
			{"financials": map[string]any{"costs": "4m", "items": []any{"y", "x"}}},
		}
		merged, _ := Merge(results, []string{"one", "two"})

		fin, ok := merged["financials"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "10m", fin["revenue"])
		assert.Equal(t, "4m", fin["costs"])
		assert.Equal(t, []any{"x", "y"}, fin["items"])
	})

	t.Run("ShouldIgnoreEmptyValues", func(t *testing.T) {
		results := []map[string]any{
			{"summary": "kept", "notes": []any{}, "extra": map[string]any{}, "blank": "   "},
		}
		merged, _ := Merge(results, []string{"one"})
		assert.Equal(t, "kept", merged["summary"])
		assert.NotContains(t, merged, "notes")
		assert.NotContains(t, merged, "extra")
		assert.NotContains(t, merged, "blank")
	})

	t.Run("ShouldKeepFirstValueOnTypeMismatch", func(t *testing.T) {
		results := []map[string]any{
			{"count": "ten"},
			{"count": []any{"eleven"}},
		}
		merged, _ := Merge(results, []string{"one", "two"})
		assert.Equal(t, "ten", merged["count"])
	})

	t.Run("ShouldRecordContributingChunksPerField", func(t *testing.T) {
		results := []map[string]any{
			{"summary": "first"},
			{"other": "second only"},
			{"summary": "third"},
		}
		_, sources := Merge(results, []string{"chunk one text", "chunk two text", "chunk three text"})

		require.Len(t, sources["summary"], 2)
		assert.Equal(t, 1, sources["summary"][0].ChunkIndex)
		assert.Equal(t, 3, sources["summary"][1].ChunkIndex)
		assert.Equal(t, "chunk one text", sources["summary"][0].Preview)

		require.Len(t, sources["other"], 1)
		assert.Equal(t, 2, sources["other"][0].ChunkIndex)
	})

	t.Run("ShouldTruncateLongPreviews", func(t *testing.T) {
		long := make([]byte, 400)
		for i := range long {
			long[i] = 'x'
		}
		results := []map[string]any{{"summary": "value"}}
		_, sources := Merge(results, []string{string(long)})

		require.Len(t, sources["summary"], 1)
		preview := sources["summary"][0].Preview
		assert.Len(t, preview, previewLength+3)
		assert.Equal(t, "...", preview[len(preview)-3:])
	})
}

func TestPackChunks(t *testing.T) {
	count := func(s string) int { return len(s) }

	t.Run("ShouldMergeAdjacentChunksUnderCeiling", func(t *testing.T) {
		packed := packChunks([]string{"aaaa", "bbbb", "cccc"}, 10, count)
		assert.Equal(t, []string{"aaaa\n\nbbbb", "cccc"}, packed)
	})

	t.Run("ShouldPreserveOrder", func(t *testing.T) {
		packed := packChunks([]string{"one", "two", "three"}, 1, count)
		assert.Equal(t, []string{"one", "two", "three"}, packed)
	})

	t.Run("ShouldHandleEmptyInput", func(t *testing.T) {
		assert.Nil(t, packChunks(nil, 100, count))
	})
}
