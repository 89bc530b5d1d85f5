package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadhub.backend/internal/domain/entities"
	domainerrors "leadhub.backend/internal/domain/errors"
	"leadhub.backend/internal/interfaces/http/middleware"
	"leadhub.backend/internal/interfaces/http/response"
	"leadhub.backend/internal/usecases"
)

type BulkService interface {
	Import(ctx context.Context, ident *entities.Identity, fileName string, fileSize int64, file io.Reader, requestedAffiliate string) (*usecases.ImportResult, error)
	Export(ctx context.Context, ident *entities.Identity, filter entities.LeadFilter) ([]byte, error)
	Template() []byte
}

// BulkHandler handles CSV import and export endpoints
type BulkHandler struct {
	bulkUsecase BulkService
}

// NewBulkHandler creates a new bulk handler
func NewBulkHandler(bulkUsecase BulkService) *BulkHandler {
	return &BulkHandler{bulkUsecase: bulkUsecase}
}

// Import creates leads from an uploaded CSV
// POST /api/leads/bulk
func (h *BulkHandler) Import(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, domainerrors.Validation("A CSV file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	result, err := h.bulkUsecase.Import(c.Request.Context(), ident, fileHeader.Filename, fileHeader.Size, file, c.PostForm("affiliateId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Export streams the filtered lead set as CSV
// GET /api/leads/export
func (h *BulkHandler) Export(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	filter, err := parseLeadFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	data, err := h.bulkUsecase.Export(c.Request.Context(), ident, *filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Attachment(c, "text/csv", "leads-export.csv", data)
}

// Template returns the import template CSV
// GET /api/leads/template
func (h *BulkHandler) Template(c *gin.Context) {
	response.Attachment(c, "text/csv", "leads-template.csv", h.bulkUsecase.Template())
}
