package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/omule0/digest/internal/chunks"
	"github.com/omule0/digest/internal/documents"
	"github.com/omule0/digest/internal/llm"
	"github.com/omule0/digest/internal/retrieval"
)

// ErrNotProcessed means the document has no chunk rows yet; the caller must
// run ingestion first. Surfaced verbatim to the client.
var ErrNotProcessed = errors.New("document has not been processed yet, please process the document first")

// ChunkLister loads the persisted chunk set for a document.
type ChunkLister interface {
	ListByFile(ctx context.Context, fileID string, workspaceID, userID uuid.UUID) ([]chunks.Record, error)
}

// DocumentGetter loads a source document's full text (greeting mode only).
type DocumentGetter interface {
	GetByFileID(ctx context.Context, fileID string, workspaceID, ownerID uuid.UUID) (*documents.Document, error)
}

// Ingestor triggers document ingestion as a greeting side effect.
type Ingestor interface {
	Ingest(ctx context.Context, content, fileID string, workspaceID, userID uuid.UUID) error
}

// Service answers questions over an ingested document with citations.
type Service struct {
	Chunks    ChunkLister
	Documents DocumentGetter
	Ingest    Ingestor
	Model     llm.ChatModel
	Embedder  embeddings.Embedder
}

// Request is one chat turn. Messages holds the whole conversation with the
// newest question last.
type Request struct {
	Messages        []llm.Message
	FileID          string
	WorkspaceID     uuid.UUID
	UserID          uuid.UUID
	InitialGreeting bool
}

// Answer is the model reply plus either citations (Q&A turns) or suggested
// questions (greeting turns).
type Answer struct {
	Text               string
	Citations          []retrieval.Citation
	SuggestedQuestions []string
	Usage              llm.Usage
}

// Answer runs one chat turn.
func (s *Service) Answer(ctx context.Context, req Request) (*Answer, error) {
	log := logrus.WithFields(logrus.Fields{
		"file_id":      req.FileID,
		"workspace_id": req.WorkspaceID,
		"user_id":      req.UserID,
	})

	if req.InitialGreeting && len(req.Messages) == 0 {
		return s.greet(ctx, req, log)
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}

	log.Info("service: answering chat question")

	records, err := s.Chunks.ListByFile(ctx, req.FileID, req.WorkspaceID, req.UserID)
	if err != nil {
		log.WithError(err).Error("service: failed to load chunks")
		return nil, err
	}
	if len(records) == 0 {
		log.Warn("service: chat against an uningested document")
		return nil, ErrNotProcessed
	}

	docs := make([]retrieval.Document, 0, len(records))
	for _, rec := range records {
		docs = append(docs, retrieval.Document{
			Content:    rec.Content,
			FileID:     rec.FileID,
			ChunkIndex: rec.Index,
			Location:   rec.Location,
			CharStart:  rec.CharStart,
			CharEnd:    rec.CharEnd,
		})
	}

	index, err := retrieval.BuildIndex(ctx, s.Embedder, docs)
	if err != nil {
		return nil, err
	}

	question := req.Messages[len(req.Messages)-1].Content
	relevant, err := index.Search(ctx, question, retrieval.TopK)
	if err != nil {
		return nil, err
	}
	citations := retrieval.FormatCitations(relevant)

	history := req.Messages[:len(req.Messages)-1]
	prompt := buildAnswerPrompt(relevant, history, question)

	resp, err := s.Model.Generate(ctx, llm.Request{
		System:      answerSystemPrompt,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: 0.7,
	})
	if err != nil {
		log.WithError(err).Error("service: chat completion failed")
		return nil, err
	}

	log.WithField("citations", len(citations)).Info("service: chat answer generated")
	return &Answer{Text: resp.Text, Citations: citations, Usage: resp.Usage}, nil
}

// greet summarizes the whole document and proposes three questions. It also
// triggers ingestion so later turns can retrieve.
func (s *Service) greet(ctx context.Context, req Request, log *logrus.Entry) (*Answer, error) {
	log.Info("service: generating initial greeting")

	doc, err := s.Documents.GetByFileID(ctx, req.FileID, req.WorkspaceID, req.UserID)
	if err != nil {
		log.WithError(err).Warn("service: failed to load document for greeting")
		return nil, err
	}

	if err := s.Ingest.Ingest(ctx, doc.Content, req.FileID, req.WorkspaceID, req.UserID); err != nil {
		log.WithError(err).Error("service: greeting-side ingestion failed")
		return nil, err
	}

	resp, err := s.Model.Generate(ctx, llm.Request{
		System:      greetingSystemPrompt,
		Messages:    []llm.Message{{Role: "user", Content: buildGreetingPrompt(doc.Content)}},
		Temperature: 0.7,
	})
	if err != nil {
		log.WithError(err).Error("service: greeting completion failed")
		return nil, err
	}

	overview, questions := parseGreeting(resp.Text)
	log.WithField("suggested_questions", len(questions)).Info("service: greeting generated")
	return &Answer{Text: overview, SuggestedQuestions: questions, Usage: resp.Usage}, nil
}
