package retrieval

// CharRange is a chunk's offsets into its source document.
type CharRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Citation is the display projection of a retrieved chunk. Ids are 1-based
// and assigned in retrieval-rank order; answer text references them as [n].
type Citation struct {
	ID           int       `json:"id"`
	Text         string    `json:"text"`
	Location     string    `json:"location"`
	CharLocation CharRange `json:"charLocation"`
}

// FormatCitations numbers retrieved chunks in rank order.
func FormatCitations(docs []Document) []Citation {
	citations := make([]Citation, 0, len(docs))
	for i, doc := range docs {
		citations = append(citations, Citation{
			ID:       i + 1,
			Text:     doc.Content,
			Location: doc.Location,
			CharLocation: CharRange{
				Start: doc.CharStart,
				End:   doc.CharEnd,
			},
		})
	}
	return citations
}
