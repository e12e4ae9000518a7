package handlers

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/omule0/digest/internal/auth"
	"github.com/omule0/digest/internal/documents"
)

// DocumentHandler handles HTTP requests for source documents.
type DocumentHandler struct {
	DocumentService *documents.Service
}

type createDocumentRequest struct {
	FileID  string `json:"fileId" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type updateDocumentRequest struct {
	Name    *string `json:"name"`
	Content *string `json:"content"`
}

func contentHash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// CreateDocument handles POST /workspaces/{workspaceID}/documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	ownerID, workspaceID, ok := workspaceParams(w, r)
	if !ok {
		return
	}

	var req createDocumentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	doc, err := h.DocumentService.CreateDocument(r.Context(), documents.CreateDocumentRequest{
		FileID:      req.FileID,
		Name:        req.Name,
		Content:     req.Content,
		ContentHash: contentHash([]byte(req.Content)),
		WorkspaceID: workspaceID,
		OwnerID:     ownerID,
	})
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respondError(w, http.StatusNotFound, "workspace not found or access denied")
			return
		}
		logrus.WithError(err).Error("handler: failed to create document")
		respondError(w, http.StatusInternalServerError, "failed to create document")
		return
	}
	respondJSON(w, http.StatusCreated, doc)
}

// ListDocuments handles GET /workspaces/{workspaceID}/documents
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ownerID, workspaceID, ok := workspaceParams(w, r)
	if !ok {
		return
	}

	docs, err := h.DocumentService.ListDocuments(r.Context(), workspaceID, ownerID)
	if err != nil {
		logrus.WithError(err).Error("handler: failed to list documents")
		respondError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	respondJSON(w, http.StatusOK, docs)
}

// GetDocument handles GET /workspaces/{workspaceID}/documents/{documentID}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	ownerID, documentID, ok := documentParams(w, r)
	if !ok {
		return
	}

	doc, err := h.DocumentService.GetDocument(r.Context(), documentID, ownerID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respondError(w, http.StatusNotFound, "document not found or access denied")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get document")
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// UpdateDocument handles PUT /workspaces/{workspaceID}/documents/{documentID}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	ownerID, documentID, ok := documentParams(w, r)
	if !ok {
		return
	}

	var req updateDocumentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	serviceReq := documents.UpdateDocumentRequest{
		DocumentID: documentID,
		OwnerID:    ownerID,
		Name:       req.Name,
		Content:    req.Content,
	}
	if req.Content != nil {
		hash := contentHash([]byte(*req.Content))
		serviceReq.ContentHash = &hash
	}

	doc, err := h.DocumentService.UpdateDocument(r.Context(), serviceReq)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respondError(w, http.StatusNotFound, "document not found or access denied")
			return
		}
		logrus.WithError(err).Error("handler: failed to update document")
		respondError(w, http.StatusInternalServerError, "failed to update document")
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /workspaces/{workspaceID}/documents/{documentID}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	ownerID, documentID, ok := documentParams(w, r)
	if !ok {
		return
	}

	if err := h.DocumentService.DeleteDocument(r.Context(), documentID, ownerID); err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respondError(w, http.StatusNotFound, "document not found or access denied")
			return
		}
		logrus.WithError(err).Error("handler: failed to delete document")
		respondError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "document deleted"})
}

func documentParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	ownerID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	documentID, err := uuid.Parse(chi.URLParam(r, "documentID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid document ID")
		return uuid.Nil, uuid.Nil, false
	}
	return ownerID, documentID, true
}
