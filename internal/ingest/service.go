package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/omule0/digest/internal/chunk"
	"github.com/omule0/digest/internal/chunks"
)

// WorkspaceVerifier checks that a user owns a workspace.
type WorkspaceVerifier interface {
	VerifyOwnership(ctx context.Context, workspaceID, userID uuid.UUID) error
}

// ChunkStore is the slice of the chunk store ingestion needs.
type ChunkStore interface {
	Exists(ctx context.Context, fileID string, workspaceID, userID uuid.UUID) (bool, error)
	InsertBatch(ctx context.Context, records []chunks.Record) error
}

// Service splits a document's text and persists the chunk set exactly once
// per (fileID, workspaceID, userID).
type Service struct {
	Workspaces WorkspaceVerifier
	Chunks     ChunkStore
	Splitter   *chunk.Splitter
}

// NewService wires the ingestion-tuned splitter.
func NewService(workspaces WorkspaceVerifier, store ChunkStore) (*Service, error) {
	splitter, err := chunk.NewSplitter(chunk.IngestChunkSize, chunk.IngestChunkOverlap)
	if err != nil {
		return nil, err
	}
	return &Service{Workspaces: workspaces, Chunks: store, Splitter: splitter}, nil
}

// Ingest chunks and persists a document's content. A second call for the
// same triple is a no-op: the existence check catches the common case and
// the unique key on chunk rows catches the concurrent one.
func (s *Service) Ingest(ctx context.Context, content, fileID string, workspaceID, userID uuid.UUID) error {
	log := logrus.WithFields(logrus.Fields{
		"file_id":      fileID,
		"workspace_id": workspaceID,
		"user_id":      userID,
	})
	log.Info("service: ingesting document")

	if err := s.Workspaces.VerifyOwnership(ctx, workspaceID, userID); err != nil {
		log.Warn("service: ingestion denied, workspace ownership check failed")
		return err
	}

	exists, err := s.Chunks.Exists(ctx, fileID, workspaceID, userID)
	if err != nil {
		log.WithError(err).Error("service: failed to check for existing chunks")
		return err
	}
	if exists {
		log.Debug("service: document already processed, skipping ingestion")
		return nil
	}

	pieces, err := s.Splitter.Split(content)
	if err != nil {
		log.WithError(err).Error("service: failed to split document content")
		return fmt.Errorf("could not split document: %w", err)
	}

	records := make([]chunks.Record, 0, len(pieces))
	for _, piece := range pieces {
		records = append(records, chunks.Record{
			FileID:      fileID,
			WorkspaceID: workspaceID,
			UserID:      userID,
			Index:       piece.Index,
			Content:     piece.Content,
			Location:    piece.Location,
			CharStart:   piece.CharStart,
			CharEnd:     piece.CharEnd,
		})
	}

	if err := s.Chunks.InsertBatch(ctx, records); err != nil {
		log.WithError(err).Error("service: failed to persist chunk batch")
		return fmt.Errorf("could not persist chunks: %w", err)
	}

	log.WithField("chunk_count", len(records)).Info("service: document ingested successfully")
	return nil
}
