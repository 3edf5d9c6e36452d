package documents

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docbot-backend/internal/shared/server/respond"
)

const envelopeSlack = 64 << 10

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.POST("/upload", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:documentId", h.get)
	rg.DELETE("/documents/:documentId", h.delete)
}

type uploadRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	Content  string `json:"content"`
}

func (h *Handler) upload(c *gin.Context) {
	limit := h.Svc.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	// base64 inflates by 4/3.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit*4/3+envelopeSlack)

	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusBadRequest, "File too large", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	doc, err := h.Svc.Upload(c.Request.Context(), UploadInput{
		FileName: req.FileName,
		FileType: req.FileType,
		Content:  req.Content,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, validationMessage(err), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	c.Set("documentId", doc.ID)

	respond.OK(c, gin.H{
		"success":    true,
		"documentId": doc.ID,
		"message":    "Document uploaded successfully",
	})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("documentId")
	c.Set("documentId", id)

	doc, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeLookupError(c, id, err)
		return
	}
	respond.OK(c, gin.H{"success": true, "document": doc})
}

func (h *Handler) list(c *gin.Context) {
	docs, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	respond.OK(c, gin.H{"success": true, "documents": docs})
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("documentId")
	c.Set("documentId", id)

	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		h.writeLookupError(c, id, err)
		return
	}
	respond.OK(c, gin.H{"success": true})
}

func (h *Handler) writeLookupError(c *gin.Context, id string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "Document not found", map[string]any{"documentId": id})
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "Missing documentId parameter", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// validationMessage strips the sentinel prefix from a wrapped ErrInvalidInput.
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": ")
	if msg == "" {
		return "Invalid request"
	}
	return msg
}
