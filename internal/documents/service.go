package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/omule0/digest/internal/db"
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ErrNotFound covers missing documents and ownership mismatches alike.
var ErrNotFound = errors.New("document not found or access denied")

// Document is the raw extracted text of an uploaded file. Content is
// immutable in the normal flow; the file id is the caller-supplied
// path-like key the chunk rows reference.
type Document struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	FileID      string    `json:"file_id"`
	Name        string    `json:"name"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChunkDeleter removes persisted chunks when their owning document goes away.
type ChunkDeleter interface {
	DeleteByFile(ctx context.Context, fileID string, workspaceID uuid.UUID) error
}

// Service handles the business logic for source documents.
type Service struct {
	DB     db.Querier
	Chunks ChunkDeleter
}

// CreateDocumentRequest defines the parameters for storing a new document.
type CreateDocumentRequest struct {
	FileID      string
	Name        string
	Content     string
	ContentHash string
	WorkspaceID uuid.UUID
	OwnerID     uuid.UUID
}

// CreateDocument stores extracted text after verifying workspace ownership.
func (s *Service) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*Document, error) {
	log := logrus.WithFields(logrus.Fields{
		"workspace_id":  req.WorkspaceID,
		"owner_id":      req.OwnerID,
		"document_name": req.Name,
	})
	log.Info("service: creating new document")

	if err := s.verifyWorkspace(ctx, req.WorkspaceID, req.OwnerID); err != nil {
		log.Warn("service: attempt to create document in a non-existent or unowned workspace")
		return nil, err
	}

	query, args, err := qb.Insert("documents").
		Columns("workspace_id", "file_id", "name", "content", "content_hash").
		Values(req.WorkspaceID, req.FileID, req.Name, req.Content, req.ContentHash).
		Suffix("RETURNING id, workspace_id, file_id, name, content, content_hash, created_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	row := s.DB.QueryRow(ctx, query, args...)
	if err := scanDocument(row, doc); err != nil {
		log.WithError(err).Error("service: failed to save document to database")
		return nil, fmt.Errorf("could not create document: %w", err)
	}

	log.WithField("document_id", doc.ID).Info("service: document created successfully")
	return doc, nil
}

// ListDocuments retrieves all documents in a workspace, verifying ownership.
// Content is omitted from listings to keep responses small.
func (s *Service) ListDocuments(ctx context.Context, workspaceID, ownerID uuid.UUID) ([]*Document, error) {
	log := logrus.WithFields(logrus.Fields{
		"workspace_id": workspaceID,
		"owner_id":     ownerID,
	})
	log.Info("service: listing documents for workspace")

	query, args, err := qb.Select("d.id", "d.workspace_id", "d.file_id", "d.name", "d.content_hash", "d.created_at").
		From("documents d").
		Join("workspaces w ON w.id = d.workspace_id").
		Where(sq.Eq{"d.workspace_id": workspaceID, "w.owner_id": ownerID}).
		OrderBy("d.created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		log.WithError(err).Error("service: failed to list documents from database")
		return nil, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc := &Document{}
		if err := rows.Scan(&doc.ID, &doc.WorkspaceID, &doc.FileID, &doc.Name, &doc.ContentHash, &doc.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.WithField("count", len(docs)).Info("service: documents listed successfully")
	return docs, nil
}

// GetDocument retrieves a single document, verifying ownership through the
// parent workspace.
func (s *Service) GetDocument(ctx context.Context, documentID, ownerID uuid.UUID) (*Document, error) {
	log := logrus.WithFields(logrus.Fields{
		"document_id": documentID,
		"owner_id":    ownerID,
	})

	query, args, err := qb.Select("d.id", "d.workspace_id", "d.file_id", "d.name", "d.content", "d.content_hash", "d.created_at").
		From("documents d").
		Join("workspaces w ON w.id = d.workspace_id").
		Where(sq.Eq{"d.id": documentID, "w.owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	row := s.DB.QueryRow(ctx, query, args...)
	if err := scanDocument(row, doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn("service: document not found or access denied")
			return nil, ErrNotFound
		}
		log.WithError(err).Error("service: database error while getting document")
		return nil, err
	}
	return doc, nil
}

// GetByFileID loads a document by its path-like file id within a workspace.
func (s *Service) GetByFileID(ctx context.Context, fileID string, workspaceID, ownerID uuid.UUID) (*Document, error) {
	query, args, err := qb.Select("d.id", "d.workspace_id", "d.file_id", "d.name", "d.content", "d.content_hash", "d.created_at").
		From("documents d").
		Join("workspaces w ON w.id = d.workspace_id").
		Where(sq.Eq{"d.file_id": fileID, "d.workspace_id": workspaceID, "w.owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	row := s.DB.QueryRow(ctx, query, args...)
	if err := scanDocument(row, doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// UpdateDocumentRequest defines the parameters for updating a document.
type UpdateDocumentRequest struct {
	DocumentID  uuid.UUID
	OwnerID     uuid.UUID
	Name        *string
	Content     *string
	ContentHash *string
}

// UpdateDocument renames or replaces a document's content. Replacing the
// content drops the stale chunk set so the next chat re-ingests.
func (s *Service) UpdateDocument(ctx context.Context, req UpdateDocumentRequest) (*Document, error) {
	log := logrus.WithFields(logrus.Fields{
		"document_id": req.DocumentID,
		"owner_id":    req.OwnerID,
	})
	log.Info("service: updating document")

	doc, err := s.GetDocument(ctx, req.DocumentID, req.OwnerID)
	if err != nil {
		return nil, err
	}

	update := qb.Update("documents").
		Where(sq.Eq{"id": doc.ID}).
		Suffix("RETURNING id, workspace_id, file_id, name, content, content_hash, created_at")
	if req.Name != nil {
		update = update.Set("name", *req.Name)
	}
	if req.Content != nil {
		update = update.Set("content", *req.Content)
		update = update.Set("content_hash", *req.ContentHash)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return nil, err
	}

	updated := &Document{}
	row := s.DB.QueryRow(ctx, query, args...)
	if err := scanDocument(row, updated); err != nil {
		log.WithError(err).Error("service: failed to update document in database")
		return nil, err
	}

	if req.Content != nil && s.Chunks != nil {
		if err := s.Chunks.DeleteByFile(ctx, doc.FileID, doc.WorkspaceID); err != nil {
			log.WithError(err).Error("service: failed to invalidate chunks after content update")
			return nil, err
		}
	}

	log.Info("service: document updated successfully")
	return updated, nil
}

// DeleteDocument deletes a document and cascades to its chunk set.
func (s *Service) DeleteDocument(ctx context.Context, documentID, ownerID uuid.UUID) error {
	log := logrus.WithFields(logrus.Fields{
		"document_id": documentID,
		"owner_id":    ownerID,
	})
	log.Info("service: deleting document")

	doc, err := s.GetDocument(ctx, documentID, ownerID)
	if err != nil {
		return err
	}

	query, args, err := qb.Delete("documents").
		Where(sq.Eq{"id": doc.ID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.DB.Exec(ctx, query, args...); err != nil {
		log.WithError(err).Error("service: failed to delete document from database")
		return err
	}

	if s.Chunks != nil {
		if err := s.Chunks.DeleteByFile(ctx, doc.FileID, doc.WorkspaceID); err != nil {
			log.WithError(err).Error("service: failed to delete chunks for document")
			return err
		}
	}

	log.Info("service: document deleted successfully")
	return nil
}

func (s *Service) verifyWorkspace(ctx context.Context, workspaceID, ownerID uuid.UUID) error {
	query, args, err := qb.Select("1").
		From("workspaces").
		Where(sq.Eq{"id": workspaceID, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return err
	}
	var one int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func scanDocument(row pgx.Row, doc *Document) error {
	return row.Scan(&doc.ID, &doc.WorkspaceID, &doc.FileID, &doc.Name, &doc.Content, &doc.ContentHash, &doc.CreatedAt)
}
