package reports

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/omule0/digest/internal/db"
	"github.com/omule0/digest/internal/llm"
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ErrSchemaNotFound covers missing schemas and ownership mismatches alike.
var ErrSchemaNotFound = errors.New("schema not found or access denied")

// GeneratedReport is the persisted outcome of one synthesis run.
type GeneratedReport struct {
	ID           uuid.UUID      `json:"id"`
	UserID       uuid.UUID      `json:"user_id"`
	WorkspaceID  uuid.UUID      `json:"workspace_id"`
	DocumentType string         `json:"document_type"`
	SubType      string         `json:"sub_type"`
	Content      string         `json:"content"`
	ReportData   map[string]any `json:"report_data"`
	Metadata     map[string]any `json:"metadata"`
	TokenUsage   *llm.Usage     `json:"token_usage,omitempty"`
	SourceFiles  []string       `json:"source_files"`
	CreatedAt    time.Time      `json:"created_at"`
}

// StoredSchema is a user-authored report schema row.
type StoredSchema struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Fields    *Field    `json:"fields"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists generated reports and user-authored schemas.
type Store struct {
	DB db.Querier
}

// SaveReport inserts a merged report, filling in its id and timestamp.
func (s *Store) SaveReport(ctx context.Context, report *GeneratedReport) error {
	query, args, err := qb.Insert("generated_reports").
		Columns("user_id", "workspace_id", "document_type", "sub_type", "content", "report_data", "metadata", "token_usage", "source_files").
		Values(report.UserID, report.WorkspaceID, report.DocumentType, report.SubType, report.Content, report.ReportData, report.Metadata, report.TokenUsage, report.SourceFiles).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return err
	}

	if err := s.DB.QueryRow(ctx, query, args...).Scan(&report.ID, &report.CreatedAt); err != nil {
		logrus.WithError(err).Error("store: failed to save generated report")
		return err
	}
	return nil
}

// CreateSchema stores a user-authored schema.
func (s *Store) CreateSchema(ctx context.Context, userID uuid.UUID, name string, root *Field) (*StoredSchema, error) {
	query, args, err := qb.Insert("report_schemas").
		Columns("user_id", "name", "fields").
		Values(userID, name, root).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	stored := &StoredSchema{UserID: userID, Name: name, Fields: root}
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&stored.ID, &stored.CreatedAt); err != nil {
		logrus.WithError(err).Error("store: failed to save report schema")
		return nil, err
	}
	return stored, nil
}

// GetSchema loads one of the caller's schemas by id.
func (s *Store) GetSchema(ctx context.Context, schemaID, userID uuid.UUID) (*StoredSchema, error) {
	query, args, err := qb.Select("id", "user_id", "name", "fields", "created_at").
		From("report_schemas").
		Where(sq.Eq{"id": schemaID, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	stored := &StoredSchema{}
	row := s.DB.QueryRow(ctx, query, args...)
	if err := row.Scan(&stored.ID, &stored.UserID, &stored.Name, &stored.Fields, &stored.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSchemaNotFound
		}
		return nil, err
	}
	return stored, nil
}

// ListSchemas returns the caller's schemas without their field trees.
func (s *Store) ListSchemas(ctx context.Context, userID uuid.UUID) ([]*StoredSchema, error) {
	query, args, err := qb.Select("id", "user_id", "name", "created_at").
		From("report_schemas").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*StoredSchema
	for rows.Next() {
		stored := &StoredSchema{}
		if err := rows.Scan(&stored.ID, &stored.UserID, &stored.Name, &stored.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, stored)
	}
	return out, rows.Err()
}

// DeleteSchema removes one of the caller's schemas.
func (s *Store) DeleteSchema(ctx context.Context, schemaID, userID uuid.UUID) error {
	query, args, err := qb.Delete("report_schemas").
		Where(sq.Eq{"id": schemaID, "user_id": userID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSchemaNotFound
	}
	return nil
}
