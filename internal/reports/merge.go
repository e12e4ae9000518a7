package reports

import (
	"encoding/json"
	"strings"
)

// SourceRef records which chunk contributed to a field.
type SourceRef struct {
	ChunkIndex int    `json:"chunkIndex"`
	Preview    string `json:"preview"`
}

const previewLength = 150

// Merge folds per-chunk partial results into one report. Array fields are
// concatenated and deduplicated by canonical JSON equality, object fields
// are deep-merged key by key with the same rule, scalar strings are
// newline-joined. The title field keeps the first non-empty value seen.
// The returned sources map records contributing chunk indexes per
// top-level field.
func Merge(results []map[string]any, chunkTexts []string) (map[string]any, map[string][]SourceRef) {
	combined := make(map[string]any)
	sources := make(map[string][]SourceRef)

	for i, result := range results {
		ref := SourceRef{ChunkIndex: i + 1, Preview: truncate(chunkText(chunkTexts, i), previewLength)}

		for key, value := range result {
			if isEmptyValue(value) {
				continue
			}

			if key == "title" {
				if s, ok := value.(string); ok {
					if existing, _ := combined[key].(string); existing == "" && s != "" {
						combined[key] = s
						sources[key] = append(sources[key], ref)
					}
					continue
				}
			}

			merged, changed := mergeValue(combined[key], value)
			combined[key] = merged
			if changed {
				sources[key] = append(sources[key], ref)
			}
		}
	}

	return combined, sources
}

// mergeValue merges one incoming value into the accumulator and reports
// whether the incoming value contributed anything.
func mergeValue(acc, value any) (any, bool) {
	if acc == nil {
		if arr, ok := value.([]any); ok {
			return dedupe(arr), true
		}
		return value, true
	}

	switch accTyped := acc.(type) {
	case []any:
		if arr, ok := value.([]any); ok {
			return dedupe(append(accTyped, arr...)), true
		}
	case map[string]any:
		if obj, ok := value.(map[string]any); ok {
			changed := false
			for k, v := range obj {
				if isEmptyValue(v) {
					continue
				}
				merged, c := mergeValue(accTyped[k], v)
				accTyped[k] = merged
				changed = changed || c
			}
			return accTyped, changed
		}
	case string:
		if s, ok := value.(string); ok {
			if s == "" {
				return accTyped, false
			}
			if accTyped == "" {
				return s, true
			}
			return accTyped + "\n" + s, true
		}
	}

	// Type mismatch or non-string scalar: first value wins.
	return acc, false
}

// dedupe removes structural duplicates, keeping first occurrences in order.
func dedupe(items []any) []any {
	seen := make(map[string]struct{}, len(items))
	out := make([]any, 0, len(items))
	for _, item := range items {
		key := canonical(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// canonical is a stable stringified form: encoding/json sorts map keys, so
// structurally equal values encode identically.
func canonical(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

func isEmptyValue(v any) bool {
	switch typed := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	case []any:
		return len(typed) == 0
	case map[string]any:
		return len(typed) == 0
	}
	return false
}

func chunkText(texts []string, i int) string {
	if i < len(texts) {
		return texts[i]
	}
	return ""
}

func truncate(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
