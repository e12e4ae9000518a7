package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/omule0/digest/internal/auth"
	"github.com/omule0/digest/internal/reports"
	"github.com/omule0/digest/internal/tokens"
)

// ReportHandler handles report generation, schema CRUD and usage queries.
type ReportHandler struct {
	Synthesizer  *reports.Synthesizer
	SchemaStore  *reports.Store
	TokenService *tokens.Service
}

type generateRequest struct {
	DocumentType  string     `json:"documentType" validate:"required"`
	SubType       string     `json:"subType" validate:"required"`
	Content       string     `json:"content"`
	FileContents  []string   `json:"fileContents" validate:"required,min=1"`
	SelectedFiles []string   `json:"selectedFiles"`
	WorkspaceID   uuid.UUID  `json:"workspaceId" validate:"required"`
	SchemaID      *uuid.UUID `json:"schemaId"`
}

// Generate handles POST /generate-document.
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req generateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	synthReq := reports.SynthesizeRequest{
		DocumentType:  req.DocumentType,
		SubType:       req.SubType,
		UserPrompt:    req.Content,
		SourceTexts:   req.FileContents,
		SelectedFiles: req.SelectedFiles,
		WorkspaceID:   req.WorkspaceID,
		UserID:        userID,
	}

	if req.SchemaID != nil {
		stored, err := h.SchemaStore.GetSchema(r.Context(), *req.SchemaID, userID)
		if err != nil {
			if errors.Is(err, reports.ErrSchemaNotFound) {
				respondError(w, http.StatusNotFound, "schema not found or access denied")
				return
			}
			respondError(w, http.StatusInternalServerError, "failed to load schema")
			return
		}
		synthReq.Schema = &reports.Schema{Name: stored.Name, Root: stored.Fields}
	}

	report, err := h.Synthesizer.Synthesize(r.Context(), synthReq)
	if err != nil {
		if errors.Is(err, reports.ErrQuotaExceeded) {
			// Quota is an expected, user-actionable condition: soft warning,
			// not a failure.
			respondJSON(w, http.StatusOK, map[string]string{
				"warning":     "Token limit exceeded",
				"details":     "You have reached your token usage limit. Please contact support to increase your limit.",
				"warningType": "TokenLimitWarning",
			})
			return
		}

		logrus.WithError(err).Error("handler: report generation failed")
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to generate report",
			"details": humanFriendlyDetail(err),
			"type":    errorType(err),
		})
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Usage handles GET /usage.
func (h *ReportHandler) Usage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	total, err := h.TokenService.TotalLast30Days(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch token usage")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{
		"tokensUsed": total,
		"limit":      tokens.Limit,
	})
}

type createSchemaRequest struct {
	Name   string         `json:"name" validate:"required"`
	Fields *reports.Field `json:"fields" validate:"required"`
}

// CreateSchema handles POST /schemas.
func (h *ReportHandler) CreateSchema(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createSchemaRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	// Reject field trees that do not compile as a schema.
	schema := &reports.Schema{Name: req.Name, Root: req.Fields}
	if _, err := schema.Compile(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid schema format")
		return
	}

	stored, err := h.SchemaStore.CreateSchema(r.Context(), userID, req.Name, req.Fields)
	if err != nil {
		logrus.WithError(err).Error("handler: failed to create schema")
		respondError(w, http.StatusInternalServerError, "failed to create schema")
		return
	}
	respondJSON(w, http.StatusCreated, stored)
}

// ListSchemas handles GET /schemas.
func (h *ReportHandler) ListSchemas(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	list, err := h.SchemaStore.ListSchemas(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list schemas")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// GetSchema handles GET /schemas/{schemaID}.
func (h *ReportHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	userID, schemaID, ok := schemaParams(w, r)
	if !ok {
		return
	}

	stored, err := h.SchemaStore.GetSchema(r.Context(), schemaID, userID)
	if err != nil {
		if errors.Is(err, reports.ErrSchemaNotFound) {
			respondError(w, http.StatusNotFound, "schema not found or access denied")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get schema")
		return
	}
	respondJSON(w, http.StatusOK, stored)
}

// DeleteSchema handles DELETE /schemas/{schemaID}.
func (h *ReportHandler) DeleteSchema(w http.ResponseWriter, r *http.Request) {
	userID, schemaID, ok := schemaParams(w, r)
	if !ok {
		return
	}

	if err := h.SchemaStore.DeleteSchema(r.Context(), schemaID, userID); err != nil {
		if errors.Is(err, reports.ErrSchemaNotFound) {
			respondError(w, http.StatusNotFound, "schema not found or access denied")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete schema")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "schema deleted"})
}

func schemaParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	schemaID, err := uuid.Parse(chi.URLParam(r, "schemaID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid schema ID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, schemaID, true
}

// humanFriendlyDetail maps known provider failure modes to messages the
// user can act on.
func humanFriendlyDetail(err error) string {
	msg := strings.ToLower(err.Error())
	patterns := []struct {
		substring string
		message   string
	}{
		{"context length", "Your input is too long. Please reduce the number of files or their size."},
		{"rate limit", "We're processing too many requests. Please wait a moment and try again."},
		{"invalid_api_key", "There was an authentication error. Please contact support."},
		{"does not match schema", "The generated content did not meet the schema requirements. Please try again."},
		{"failed to parse", "The generated content format was invalid. Please try again with a different schema."},
	}
	for _, p := range patterns {
		if strings.Contains(msg, p.substring) {
			return p.message
		}
	}
	return err.Error()
}

func errorType(err error) string {
	var chunkErr *reports.ChunkError
	if errors.As(err, &chunkErr) {
		return "ChunkExtractionError"
	}
	return "GenerationError"
}
