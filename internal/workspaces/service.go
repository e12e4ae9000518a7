package workspaces

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

// ErrAccessDenied covers both missing workspaces and ownership mismatches,
// so callers cannot distinguish the two.
var ErrAccessDenied = errors.New("workspace not found or access denied")

// Workspace groups a user's uploaded files and generated reports.
type Workspace struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Service handles the business logic for workspaces.
type Service struct {
	DB db.Querier
}

// CreateWorkspaceRequest defines the parameters for creating a workspace.
type CreateWorkspaceRequest struct {
	Name        string
	Description *string
	OwnerID     uuid.UUID
}

// UpdateWorkspaceRequest defines the parameters for updating a workspace.
type UpdateWorkspaceRequest struct {
	WorkspaceID uuid.UUID
	Name        *string
	Description *string
	OwnerID     uuid.UUID
}

func (s *Service) CreateWorkspace(ctx context.Context, req CreateWorkspaceRequest) (*Workspace, error) {
	log := logrus.WithFields(logrus.Fields{
		"owner_id": req.OwnerID,
		"name":     req.Name,
	})
	log.Info("service: creating new workspace")

	query, args, err := qb.Insert("workspaces").
		Columns("owner_id", "name", "description").
		Values(req.OwnerID, req.Name, req.Description).
		Suffix("RETURNING id, owner_id, name, description, created_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	ws := &Workspace{}
	row := s.DB.QueryRow(ctx, query, args...)
	if err := row.Scan(&ws.ID, &ws.OwnerID, &ws.Name, &ws.Description, &ws.CreatedAt); err != nil {
		log.WithError(err).Error("service: failed to create workspace in database")
		return nil, fmt.Errorf("could not create workspace: %w", err)
	}

	log.WithField("workspace_id", ws.ID).Info("service: workspace created successfully")
	return ws, nil
}

// GetWorkspace retrieves a workspace by id, ensuring the requester owns it.
func (s *Service) GetWorkspace(ctx context.Context, workspaceID, ownerID uuid.UUID) (*Workspace, error) {
	log := logrus.WithFields(logrus.Fields{
		"workspace_id": workspaceID,
		"owner_id":     ownerID,
	})

	query, args, err := qb.Select("id", "owner_id", "name", "description", "created_at").
		From("workspaces").
		Where(sq.Eq{"id": workspaceID, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	ws := &Workspace{}
	row := s.DB.QueryRow(ctx, query, args...)
	if err := row.Scan(&ws.ID, &ws.OwnerID, &ws.Name, &ws.Description, &ws.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn("service: workspace not found or access denied")
			return nil, ErrAccessDenied
		}
		log.WithError(err).Error("service: database error while getting workspace")
		return nil, err
	}
	return ws, nil
}

// VerifyOwnership fails with ErrAccessDenied unless userID owns workspaceID.
func (s *Service) VerifyOwnership(ctx context.Context, workspaceID, userID uuid.UUID) error {
	_, err := s.GetWorkspace(ctx, workspaceID, userID)
	return err
}

func (s *Service) ListWorkspaces(ctx context.Context, ownerID uuid.UUID) ([]*Workspace, error) {
	log := logrus.WithField("owner_id", ownerID)
	log.Info("service: listing workspaces for user")

	query, args, err := qb.Select("id", "owner_id", "name", "description", "created_at").
		From("workspaces").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		log.WithError(err).Error("service: failed to list workspaces from database")
		return nil, err
	}
	defer rows.Close()

	var out []*Workspace
	for rows.Next() {
		ws := &Workspace{}
		if err := rows.Scan(&ws.ID, &ws.OwnerID, &ws.Name, &ws.Description, &ws.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.WithField("count", len(out)).Info("service: workspaces listed successfully")
	return out, nil
}

func (s *Service) UpdateWorkspace(ctx context.Context, req UpdateWorkspaceRequest) (*Workspace, error) {
	log := logrus.WithFields(logrus.Fields{
		"workspace_id": req.WorkspaceID,
		"owner_id":     req.OwnerID,
	})
	log.Info("service: updating workspace")

	update := qb.Update("workspaces").
		Where(sq.Eq{"id": req.WorkspaceID, "owner_id": req.OwnerID}).
		Suffix("RETURNING id, owner_id, name, description, created_at")
	if req.Name != nil {
		update = update.Set("name", *req.Name)
	}
	if req.Description != nil {
		update = update.Set("description", *req.Description)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return nil, err
	}

	ws := &Workspace{}
	row := s.DB.QueryRow(ctx, query, args...)
	if err := row.Scan(&ws.ID, &ws.OwnerID, &ws.Name, &ws.Description, &ws.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn("service: workspace not found or access denied")
			return nil, ErrAccessDenied
		}
		log.WithError(err).Error("service: failed to update workspace in database")
		return nil, err
	}

	log.Info("service: workspace updated successfully")
	return ws, nil
}

func (s *Service) DeleteWorkspace(ctx context.Context, workspaceID, ownerID uuid.UUID) error {
	log := logrus.WithFields(logrus.Fields{
		"workspace_id": workspaceID,
		"owner_id":     ownerID,
	})
	log.Info("service: deleting workspace")

	query, args, err := qb.Delete("workspaces").
		Where(sq.Eq{"id": workspaceID, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := s.DB.Exec(ctx, query, args...)
	if err != nil {
		log.WithError(err).Error("service: failed to delete workspace from database")
		return err
	}
	if tag.RowsAffected() == 0 {
		log.Warn("service: workspace not found or access denied for deletion")
		return ErrAccessDenied
	}

	log.Info("service: workspace deleted successfully")
	return nil
}
