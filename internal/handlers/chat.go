package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/omule0/digest/internal/auth"
	"github.com/omule0/digest/internal/chat"
	"github.com/omule0/digest/internal/llm"
	"github.com/omule0/digest/internal/retrieval"
)

// ChatHandler handles POST /pdf-chat.
type ChatHandler struct {
	ChatService *chat.Service
}

type chatRequest struct {
	Messages        []llm.Message `json:"messages"`
	FileID          string        `json:"fileId" validate:"required"`
	WorkspaceID     uuid.UUID     `json:"workspaceId" validate:"required"`
	InitialGreeting bool          `json:"initialGreeting"`
}

type chatResponse struct {
	Response           string               `json:"response"`
	Citations          []retrieval.Citation `json:"citations,omitempty"`
	SuggestedQuestions []string             `json:"suggestedQuestions,omitempty"`
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req chatRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	answer, err := h.ChatService.Answer(r.Context(), chat.Request{
		Messages:        req.Messages,
		FileID:          req.FileID,
		WorkspaceID:     req.WorkspaceID,
		UserID:          userID,
		InitialGreeting: req.InitialGreeting,
	})
	if err != nil {
		logrus.WithError(err).Error("handler: chat turn failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{
		Response:           answer.Text,
		Citations:          answer.Citations,
		SuggestedQuestions: answer.SuggestedQuestions,
	})
}
