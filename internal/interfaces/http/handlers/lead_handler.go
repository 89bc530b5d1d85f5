package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadhub.backend/internal/domain/entities"
	domainerrors "leadhub.backend/internal/domain/errors"
	"leadhub.backend/internal/interfaces/http/middleware"
	"leadhub.backend/internal/interfaces/http/response"
)

const dateLayout = "2006-01-02"

type LeadService interface {
	Create(ctx context.Context, ident *entities.Identity, input *entities.CreateLeadInput) (*entities.Lead, error)
	GetByID(ctx context.Context, ident *entities.Identity, id uuid.UUID) (*entities.Lead, error)
	List(ctx context.Context, ident *entities.Identity, params entities.LeadListParams) (*entities.LeadPage, error)
	Transition(ctx context.Context, ident *entities.Identity, id uuid.UUID, input *entities.StatusUpdateInput) (*entities.Lead, error)
	AddComment(ctx context.Context, ident *entities.Identity, id uuid.UUID, input *entities.CommentInput) (*entities.Comment, error)
	Delete(ctx context.Context, ident *entities.Identity, id uuid.UUID) error
	BundleDocuments(ctx context.Context, ident *entities.Identity, id uuid.UUID) ([]byte, string, error)
}

type DocumentService interface {
	Upload(ctx context.Context, ident *entities.Identity, leadID uuid.UUID, fileName, contentType string, data []byte) (*entities.Document, error)
	SignedURL(ctx context.Context, ident *entities.Identity, id uuid.UUID) (string, error)
	Delete(ctx context.Context, ident *entities.Identity, id uuid.UUID) error
}

type MetricsService interface {
	Dashboard(ctx context.Context, days int) (*entities.DashboardMetrics, error)
}

// LeadHandler handles lead endpoints
type LeadHandler struct {
	leadUsecase    LeadService
	docUsecase     DocumentService
	metricsUsecase MetricsService
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(leadUsecase LeadService, docUsecase DocumentService, metricsUsecase MetricsService) *LeadHandler {
	return &LeadHandler{
		leadUsecase:    leadUsecase,
		docUsecase:     docUsecase,
		metricsUsecase: metricsUsecase,
	}
}

// List returns one page of leads
// GET /api/leads
func (h *LeadHandler) List(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	params, err := parseListParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, err := h.leadUsecase.List(c.Request.Context(), ident, *params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, page)
}

// Get returns one lead with its documents, history and comments
// GET /api/leads/:id
func (h *LeadHandler) Get(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.Validation("Invalid lead id"))
		return
	}

	lead, err := h.leadUsecase.GetByID(c.Request.Context(), ident, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, lead)
}

// Create creates a lead from a multipart form, with optional document parts
// POST /api/leads
func (h *LeadHandler) Create(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	var input entities.CreateLeadInput
	if err := c.ShouldBind(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	lead, err := h.leadUsecase.Create(c.Request.Context(), ident, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Optional attachments ride along on the same form. The lead stands even
	// when a file fails; failures come back beside the created lead.
	var uploadErrors []gin.H
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, fileHeader := range form.File["documents"] {
			doc, err := h.uploadPart(c.Request.Context(), ident, lead.ID, fileHeader)
			if err != nil {
				uploadErrors = append(uploadErrors, gin.H{
					"fileName": fileHeader.Filename,
					"message":  err.Error(),
				})
				continue
			}
			lead.Documents = append(lead.Documents, doc)
		}
	}

	body := gin.H{"lead": lead}
	if len(uploadErrors) > 0 {
		body["documentErrors"] = uploadErrors
	}
	response.Success(c, http.StatusCreated, body)
}

// UpdateStatus moves a lead through its lifecycle
// PUT /api/leads/:id/status
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.Validation("Invalid lead id"))
		return
	}

	var input entities.StatusUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	lead, err := h.leadUsecase.Transition(c.Request.Context(), ident, id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, lead)
}

// AddComment appends a comment to a lead
// POST /api/leads/:id/comments
func (h *LeadHandler) AddComment(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.Validation("Invalid lead id"))
		return
	}

	var input entities.CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	comment, err := h.leadUsecase.AddComment(c.Request.Context(), ident, id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, comment)
}

// DownloadDocuments returns all of a lead's documents as a zip
// GET /api/leads/:id/documents/download
func (h *LeadHandler) DownloadDocuments(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.Validation("Invalid lead id"))
		return
	}

	data, fileName, err := h.leadUsecase.BundleDocuments(c.Request.Context(), ident, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Attachment(c, "application/zip", fileName, data)
}

// Delete removes a lead and everything attached to it
// DELETE /api/leads/:id
func (h *LeadHandler) Delete(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.Validation("Invalid lead id"))
		return
	}

	if err := h.leadUsecase.Delete(c.Request.Context(), ident, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Lead deleted"})
}

// Dashboard returns the aggregate lead metrics
// GET /api/leads/metrics/dashboard
func (h *LeadHandler) Dashboard(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	metrics, err := h.metricsUsecase.Dashboard(c.Request.Context(), days)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, metrics)
}

func (h *LeadHandler) uploadPart(ctx context.Context, ident *entities.Identity, leadID uuid.UUID, fileHeader *multipart.FileHeader) (*entities.Document, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, entities.MaxDocumentSize+1))
	if err != nil {
		return nil, err
	}

	contentType := fileHeader.Header.Get("Content-Type")
	return h.docUsecase.Upload(ctx, ident, leadID, fileHeader.Filename, contentType, data)
}

func parseListParams(c *gin.Context) (*entities.LeadListParams, error) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	params := &entities.LeadListParams{
		Page:      page,
		Limit:     limit,
		SortBy:    entities.LeadSortField(c.DefaultQuery("sortBy", string(entities.LeadSortCreatedAt))),
		SortOrder: c.DefaultQuery("sortOrder", "desc"),
	}

	filter, err := parseLeadFilter(c)
	if err != nil {
		return nil, err
	}
	params.Filter = *filter
	return params, nil
}

// parseLeadFilter reads the filter query params shared by listing and export
func parseLeadFilter(c *gin.Context) (*entities.LeadFilter, error) {
	filter := &entities.LeadFilter{
		Search: strings.TrimSpace(c.Query("search")),
	}

	// Both status=a,b and repeated status[]=a&status[]=b are accepted.
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Status = append(filter.Status, entities.LeadStatus(strings.TrimSpace(s)))
		}
	}
	for _, s := range c.QueryArray("status[]") {
		if s = strings.TrimSpace(s); s != "" {
			filter.Status = append(filter.Status, entities.LeadStatus(s))
		}
	}

	if raw := c.Query("affiliateId"); raw != "" {
		affiliateID, err := uuid.Parse(raw)
		if err != nil {
			return nil, domainerrors.Validation("Invalid affiliateId")
		}
		filter.AffiliateID = &affiliateID
	}

	if raw := c.Query("startDate"); raw != "" {
		start, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, domainerrors.Validation("Invalid startDate, expected YYYY-MM-DD")
		}
		filter.StartDate = &start
	}

	if raw := c.Query("endDate"); raw != "" {
		end, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, domainerrors.Validation("Invalid endDate, expected YYYY-MM-DD")
		}
		// Inclusive through the end of the named day.
		end = end.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &end
	}

	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, domainerrors.Validation("endDate is before startDate")
	}

	return filter, nil
}
