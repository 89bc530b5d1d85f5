package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadhub.backend/internal/domain/entities"
	domainerrors "leadhub.backend/internal/domain/errors"
	"leadhub.backend/internal/interfaces/http/middleware"
	"leadhub.backend/internal/interfaces/http/response"
)

// DocumentHandler handles document endpoints
type DocumentHandler struct {
	docUsecase DocumentService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docUsecase DocumentService) *DocumentHandler {
	return &DocumentHandler{docUsecase: docUsecase}
}

// Upload attaches one file to a lead
// POST /api/leads/:id/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.Validation("Invalid lead id"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, domainerrors.Validation("A file is required"))
		return
	}
	if fileHeader.Size > entities.MaxDocumentSize {
		response.Error(c, domainerrors.Validation("File exceeds the 5MB limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, entities.MaxDocumentSize+1))
	if err != nil {
		response.Error(c, err)
		return
	}

	doc, err := h.docUsecase.Upload(c.Request.Context(), ident, leadID, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, doc)
}

// SignedURL returns a fresh display link for a document
// GET /api/documents/:id/url
func (h *DocumentHandler) SignedURL(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.Validation("Invalid document id"))
		return
	}

	url, err := h.docUsecase.SignedURL(c.Request.Context(), ident, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"url": url})
}

// Delete removes a document
// DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.Validation("Invalid document id"))
		return
	}

	if err := h.docUsecase.Delete(c.Request.Context(), ident, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Document deleted"})
}
