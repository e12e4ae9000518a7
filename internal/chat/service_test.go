package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omule0/digest/internal/chunks"
	"github.com/omule0/digest/internal/documents"
	"github.com/omule0/digest/internal/llm"
)

type fakeChunkLister struct {
	records []chunks.Record
}

func (f *fakeChunkLister) ListByFile(_ context.Context, _ string, _, _ uuid.UUID) ([]chunks.Record, error) {
	return f.records, nil
}

type fakeDocumentGetter struct {
	doc *documents.Document
}

func (f *fakeDocumentGetter) GetByFileID(_ context.Context, _ string, _, _ uuid.UUID) (*documents.Document, error) {
	return f.doc, nil
}

type fakeIngestor struct {
	calls   int
	content string
}

func (f *fakeIngestor) Ingest(_ context.Context, content, _ string, _, _ uuid.UUID) error {
	f.calls++
	f.content = content
	return nil
}

type fakeModel struct {
	response string
	lastReq  llm.Request
}

func (f *fakeModel) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.lastReq = req
	return &llm.Response{Text: f.response, Usage: llm.Usage{TotalTokens: 20}}, nil
}

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

func TestAnswer(t *testing.T) {
	workspaceID := uuid.New()
	userID := uuid.New()

	records := []chunks.Record{
		{FileID: "file-1", Index: 0, Content: "chapter on weather patterns", Location: "Block-1", CharStart: 0, CharEnd: 27},
		{FileID: "file-1", Index: 1, Content: "chapter on revenue figures", Location: "Block-2", CharStart: 27, CharEnd: 53},
		{FileID: "file-1", Index: 2, Content: "chapter on staff changes", Location: "Block-3", CharStart: 53, CharEnd: 77},
	}
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"chapter on weather patterns":  {1, 0, 0},
		"chapter on revenue figures":   {0, 1, 0},
		"chapter on staff changes":     {0, 0, 1},
		"What were the revenues?":      {0, 1, 0},
	}}

	t.Run("ShouldAnswerWithCitationsFromMostRelevantChunks", func(t *testing.T) {
		model := &fakeModel{response: "Revenue details are in the report [1]."}
		svc := &Service{
			Chunks:   &fakeChunkLister{records: records},
			Model:    model,
			Embedder: embedder,
		}

		answer, err := svc.Answer(context.Background(), Request{
			Messages:    []llm.Message{{Role: "user", Content: "What were the revenues?"}},
			FileID:      "file-1",
			WorkspaceID: workspaceID,
			UserID:      userID,
		})
		require.NoError(t, err)

		assert.Equal(t, "Revenue details are in the report [1].", answer.Text)
		require.NotEmpty(t, answer.Citations)
		assert.Equal(t, 1, answer.Citations[0].ID)
		assert.Equal(t, "chapter on revenue figures", answer.Citations[0].Text)
		assert.Equal(t, "Block-2", answer.Citations[0].Location)
		assert.Equal(t, 27, answer.Citations[0].CharLocation.Start)

		prompt := model.lastReq.Messages[0].Content
		assert.Contains(t, prompt, "[1] (Block-2)")
		assert.Contains(t, prompt, "Question: What were the revenues?")
		assert.NotContains(t, prompt, "Current conversation:")
	})

	t.Run("ShouldIncludeConversationHistoryInPrompt", func(t *testing.T) {
		model := &fakeModel{response: "Answer."}
		svc := &Service{
			Chunks:   &fakeChunkLister{records: records},
			Model:    model,
			Embedder: embedder,
		}

		_, err := svc.Answer(context.Background(), Request{
			Messages: []llm.Message{
				{Role: "user", Content: "What were the revenues?"},
				{Role: "assistant", Content: "They grew."},
				{Role: "user", Content: "What were the revenues?"},
			},
			FileID:      "file-1",
			WorkspaceID: workspaceID,
			UserID:      userID,
		})
		require.NoError(t, err)

		prompt := model.lastReq.Messages[0].Content
		assert.Contains(t, prompt, "Current conversation:")
		assert.Contains(t, prompt, "assistant: They grew.")
	})

	t.Run("ShouldRejectUningestedDocument", func(t *testing.T) {
		svc := &Service{
			Chunks:   &fakeChunkLister{},
			Model:    &fakeModel{},
			Embedder: embedder,
		}

		_, err := svc.Answer(context.Background(), Request{
			Messages:    []llm.Message{{Role: "user", Content: "anything"}},
			FileID:      "file-1",
			WorkspaceID: workspaceID,
			UserID:      userID,
		})
		require.ErrorIs(t, err, ErrNotProcessed)
	})

	t.Run("ShouldRejectEmptyConversation", func(t *testing.T) {
		svc := &Service{
			Chunks:   &fakeChunkLister{records: records},
			Model:    &fakeModel{},
			Embedder: embedder,
		}

		_, err := svc.Answer(context.Background(), Request{
			FileID:      "file-1",
			WorkspaceID: workspaceID,
			UserID:      userID,
		})
		require.Error(t, err)
	})

	t.Run("ShouldGreetAndIngestOnInitialGreeting", func(t *testing.T) {
		greeting := strings.Join([]string{
			"OVERVIEW:",
			"A report covering revenue, weather and staffing.",
			"",
			"SUGGESTED QUESTIONS:",
			"1. What were the revenues?",
			"2. How did the weather affect sales?",
			"3. Who joined the team?",
		}, "\n")

		model := &fakeModel{response: greeting}
		ingestor := &fakeIngestor{}
		svc := &Service{
			Chunks:    &fakeChunkLister{records: records},
			Documents: &fakeDocumentGetter{doc: &documents.Document{FileID: "file-1", Content: "full document text"}},
			Ingest:    ingestor,
			Model:     model,
			Embedder:  embedder,
		}

		answer, err := svc.Answer(context.Background(), Request{
			FileID:          "file-1",
			WorkspaceID:     workspaceID,
			UserID:          userID,
			InitialGreeting: true,
		})
		require.NoError(t, err)

		assert.Equal(t, "A report covering revenue, weather and staffing.", answer.Text)
		assert.Equal(t, []string{
			"What were the revenues?",
			"How did the weather affect sales?",
			"Who joined the team?",
		}, answer.SuggestedQuestions)
		assert.Empty(t, answer.Citations)

		assert.Equal(t, 1, ingestor.calls)
		assert.Equal(t, "full document text", ingestor.content)
	})
}

func TestParseGreeting(t *testing.T) {
	t.Run("ShouldParseBothSections", func(t *testing.T) {
		overview, questions := parseGreeting("OVERVIEW:\nSummary here.\n\nSUGGESTED QUESTIONS:\n1. One?\n2) Two?\n3. Three?")
		assert.Equal(t, "Summary here.", overview)
		assert.Equal(t, []string{"One?", "Two?", "Three?"}, questions)
	})

	t.Run("ShouldDegradeToOverviewOnly", func(t *testing.T) {
		overview, questions := parseGreeting("Just a plain summary without sections.")
		assert.Equal(t, "Just a plain summary without sections.", overview)
		assert.Empty(t, questions)
	})
}
