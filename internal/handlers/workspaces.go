package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/omule0/digest/internal/auth"
	"github.com/omule0/digest/internal/workspaces"
)

// WorkspaceHandler handles HTTP requests for workspaces.
type WorkspaceHandler struct {
	WorkspaceService *workspaces.Service
}

type createWorkspaceRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

type updateWorkspaceRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *WorkspaceHandler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createWorkspaceRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	ws, err := h.WorkspaceService.CreateWorkspace(r.Context(), workspaces.CreateWorkspaceRequest{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     ownerID,
	})
	if err != nil {
		logrus.WithError(err).Error("handler: failed to create workspace")
		respondError(w, http.StatusInternalServerError, "failed to create workspace")
		return
	}
	respondJSON(w, http.StatusCreated, ws)
}

func (h *WorkspaceHandler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	list, err := h.WorkspaceService.ListWorkspaces(r.Context(), ownerID)
	if err != nil {
		logrus.WithError(err).Error("handler: failed to list workspaces")
		respondError(w, http.StatusInternalServerError, "failed to list workspaces")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *WorkspaceHandler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	ownerID, workspaceID, ok := workspaceParams(w, r)
	if !ok {
		return
	}

	ws, err := h.WorkspaceService.GetWorkspace(r.Context(), workspaceID, ownerID)
	if err != nil {
		if errors.Is(err, workspaces.ErrAccessDenied) {
			respondError(w, http.StatusNotFound, "workspace not found or access denied")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get workspace")
		return
	}
	respondJSON(w, http.StatusOK, ws)
}

func (h *WorkspaceHandler) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	ownerID, workspaceID, ok := workspaceParams(w, r)
	if !ok {
		return
	}

	var req updateWorkspaceRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	ws, err := h.WorkspaceService.UpdateWorkspace(r.Context(), workspaces.UpdateWorkspaceRequest{
		WorkspaceID: workspaceID,
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     ownerID,
	})
	if err != nil {
		if errors.Is(err, workspaces.ErrAccessDenied) {
			respondError(w, http.StatusNotFound, "workspace not found or access denied")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update workspace")
		return
	}
	respondJSON(w, http.StatusOK, ws)
}

func (h *WorkspaceHandler) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	ownerID, workspaceID, ok := workspaceParams(w, r)
	if !ok {
		return
	}

	if err := h.WorkspaceService.DeleteWorkspace(r.Context(), workspaceID, ownerID); err != nil {
		if errors.Is(err, workspaces.ErrAccessDenied) {
			respondError(w, http.StatusNotFound, "workspace not found or access denied")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete workspace")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "workspace deleted"})
}

// workspaceParams pulls the caller id and the workspace id path parameter.
func workspaceParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	ownerID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	workspaceID, err := uuid.Parse(chi.URLParam(r, "workspaceID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid workspace ID")
		return uuid.Nil, uuid.Nil, false
	}
	return ownerID, workspaceID, true
}
