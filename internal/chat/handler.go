package chat

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docbot-backend/internal/shared/server/respond"
)

// Handler exposes the chat endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches POST /chat.
func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.POST("/chat", h.chat)
}

// RegisterHistoryRoutes attaches the session history read endpoint.
func (h *Handler) RegisterHistoryRoutes(rg gin.IRoutes) {
	rg.GET("/documents/:documentId/chats/:sessionId", h.history)
}

type chatRequest struct {
	DocumentID string `json:"documentId"`
	Message    string `json:"message"`
	SessionID  string `json:"sessionId"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if req.DocumentID != "" {
		c.Set("documentId", req.DocumentID)
	}
	if req.SessionID != "" {
		c.Set("sessionId", req.SessionID)
	}

	reply, err := h.Svc.Respond(c.Request.Context(), Request{
		DocumentID: req.DocumentID,
		Message:    req.Message,
		SessionID:  req.SessionID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "Missing required fields: documentId, message", nil)
		case errors.Is(err, ErrDocumentNotReady):
			respond.Error(c, http.StatusNotFound, "Document not found or not processed", map[string]any{"documentId": req.DocumentID})
		default:
			respond.Error(c, http.StatusInternalServerError, "Internal server error", map[string]any{"message": "Failed to generate response"})
		}
		return
	}

	respond.OK(c, gin.H{
		"success":   true,
		"content":   reply.Content,
		"timestamp": reply.Timestamp.Format(time.RFC3339Nano),
	})
}

func (h *Handler) history(c *gin.Context) {
	docID := strings.TrimSpace(c.Param("documentId"))
	sessionID := strings.TrimSpace(c.Param("sessionId"))
	c.Set("documentId", docID)
	c.Set("sessionId", sessionID)

	msgs, err := h.Svc.SessionHistory(c.Request.Context(), docID, sessionID)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "Missing documentId or sessionId parameter", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	respond.OK(c, gin.H{"success": true, "messages": msgs})
}
