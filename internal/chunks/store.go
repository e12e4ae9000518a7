package chunks

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/omule0/digest/internal/db"
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Record is a persisted chunk row.
type Record struct {
	FileID      string    `json:"file_id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	UserID      uuid.UUID `json:"user_id"`
	Index       int       `json:"chunk_index"`
	Content     string    `json:"content"`
	Location    string    `json:"location"`
	CharStart   int       `json:"char_start"`
	CharEnd     int       `json:"char_end"`
}

// Store persists and reads chunk rows.
type Store struct {
	DB db.Querier
}

// Exists reports whether any chunk row exists for the document triple.
func (s *Store) Exists(ctx context.Context, fileID string, workspaceID, userID uuid.UUID) (bool, error) {
	query, args, err := qb.Select("COUNT(*)").
		From("document_chunks").
		Where(sq.Eq{"file_id": fileID, "workspace_id": workspaceID, "user_id": userID}).
		ToSql()
	if err != nil {
		return false, err
	}

	var count int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertBatch writes a full chunk set in one statement. Conflicts on the
// (file_id, workspace_id, user_id, chunk_index) key mean another request
// ingested the same document first, which is the idempotent no-op case.
func (s *Store) InsertBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	insert := qb.Insert("document_chunks").
		Columns("file_id", "workspace_id", "user_id", "chunk_index", "content", "location", "char_start", "char_end")
	for _, rec := range records {
		insert = insert.Values(rec.FileID, rec.WorkspaceID, rec.UserID, rec.Index, rec.Content, rec.Location, rec.CharStart, rec.CharEnd)
	}
	query, args, err := insert.
		Suffix("ON CONFLICT (file_id, workspace_id, user_id, chunk_index) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.DB.Exec(ctx, query, args...); err != nil {
		logrus.WithError(err).Error("store: failed to insert chunk batch")
		return err
	}
	return nil
}

// ListByFile returns all chunks for the triple in chunk order.
func (s *Store) ListByFile(ctx context.Context, fileID string, workspaceID, userID uuid.UUID) ([]Record, error) {
	query, args, err := qb.Select("file_id", "workspace_id", "user_id", "chunk_index", "content", "location", "char_start", "char_end").
		From("document_chunks").
		Where(sq.Eq{"file_id": fileID, "workspace_id": workspaceID, "user_id": userID}).
		OrderBy("chunk_index ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.FileID, &rec.WorkspaceID, &rec.UserID, &rec.Index, &rec.Content, &rec.Location, &rec.CharStart, &rec.CharEnd); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteByFile removes the chunk set for a file within a workspace.
func (s *Store) DeleteByFile(ctx context.Context, fileID string, workspaceID uuid.UUID) error {
	query, args, err := qb.Delete("document_chunks").
		Where(sq.Eq{"file_id": fileID, "workspace_id": workspaceID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.DB.Exec(ctx, query, args...); err != nil {
		logrus.WithError(err).Error("store: failed to delete chunks for file")
		return err
	}
	return nil
}
