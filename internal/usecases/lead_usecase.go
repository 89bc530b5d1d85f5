package usecases

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"leadhub.backend/internal/domain/entities"
	domainerrors "leadhub.backend/internal/domain/errors"
	"leadhub.backend/internal/domain/repositories"
	"leadhub.backend/internal/infrastructure/storage"
	"leadhub.backend/pkg/logger"
)

// allowed page sizes for lead listings
var allowedLimits = map[int]bool{10: true, 25: true, 50: true}

// LeadUsecase handles lead lifecycle business logic
type LeadUsecase struct {
	leadRepo      repositories.LeadRepository
	docRepo       repositories.DocumentRepository
	affiliateRepo repositories.AffiliateRepository
	store         storage.ObjectStore
	metrics       *MetricsUsecase
}

// NewLeadUsecase creates a new lead usecase
func NewLeadUsecase(
	leadRepo repositories.LeadRepository,
	docRepo repositories.DocumentRepository,
	affiliateRepo repositories.AffiliateRepository,
	store storage.ObjectStore,
	metrics *MetricsUsecase,
) *LeadUsecase {
	return &LeadUsecase{
		leadRepo:      leadRepo,
		docRepo:       docRepo,
		affiliateRepo: affiliateRepo,
		store:         store,
		metrics:       metrics,
	}
}

// Create creates a lead in status new with its initial history row
func (u *LeadUsecase) Create(ctx context.Context, ident *entities.Identity, input *entities.CreateLeadInput) (*entities.Lead, error) {
	if math.IsNaN(input.LoanAmount) || input.LoanAmount < entities.MinLoanAmount || input.LoanAmount > entities.MaxLoanAmount {
		return nil, domainerrors.Validation(fmt.Sprintf("loanAmount must be between %d and %d", entities.MinLoanAmount, entities.MaxLoanAmount))
	}
	if !validPhone(input.Phone) {
		return nil, domainerrors.Validation("Invalid phone number")
	}

	affiliateID, err := resolveAffiliate(ctx, u.affiliateRepo, ident, input.AffiliateID)
	if err != nil {
		return nil, err
	}

	lead := &entities.Lead{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Email:       strings.TrimSpace(input.Email),
		Phone:       strings.TrimSpace(input.Phone),
		Address:     null.NewString(input.Address, input.Address != ""),
		LoanAmount:  input.LoanAmount,
		Notes:       null.NewString(input.Notes, input.Notes != ""),
		Status:      entities.LeadStatusNew,
		AffiliateID: affiliateID,
		StatusHistory: []*entities.StatusHistoryItem{{
			ID:            uuid.New(),
			Status:        entities.LeadStatusNew,
			ChangedBy:     ident.UserID,
			ChangedByName: ident.Name,
			ChangedAt:     time.Now(),
			Notes:         null.StringFrom("Lead created"),
		}},
	}

	if err := u.leadRepo.Create(ctx, lead); err != nil {
		return nil, err
	}
	u.invalidateMetrics(ctx)
	return lead, nil
}

// GetByID returns a lead with its documents, history and comments.
// Affiliate-scoped callers see only their own affiliate's leads; anything
// outside that scope reads as not found.
func (u *LeadUsecase) GetByID(ctx context.Context, ident *entities.Identity, id uuid.UUID) (*entities.Lead, error) {
	lead, err := u.scopedLead(ctx, ident, id)
	if err != nil {
		return nil, err
	}

	docs, err := u.docRepo.GetByLeadID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		url, err := u.store.SignedURL(doc.StorageKey, storage.DisplayURLExpiry)
		if err != nil {
			logger.Warn(ctx, "failed to sign document url", zap.String("document_id", doc.ID.String()), zap.Error(err))
			continue
		}
		doc.FileURL = url
	}
	lead.Documents = docs

	if lead.StatusHistory, err = u.leadRepo.GetHistory(ctx, id); err != nil {
		return nil, err
	}
	if lead.Comments, err = u.leadRepo.GetComments(ctx, id); err != nil {
		return nil, err
	}
	return lead, nil
}

// List returns one page of leads. Page and limit are normalized to the
// supported values; affiliate-scoped callers are forcibly filtered to their
// own affiliate regardless of the requested filter.
func (u *LeadUsecase) List(ctx context.Context, ident *entities.Identity, params entities.LeadListParams) (*entities.LeadPage, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if !allowedLimits[params.Limit] {
		params.Limit = 10
	}
	switch params.SortBy {
	case entities.LeadSortName, entities.LeadSortStatus, entities.LeadSortCreatedAt, entities.LeadSortUpdatedAt:
	default:
		params.SortBy = entities.LeadSortCreatedAt
	}
	if params.SortOrder != "asc" {
		params.SortOrder = "desc"
	}
	for _, s := range params.Filter.Status {
		if !s.IsValid() {
			return nil, domainerrors.Validation("Invalid status filter")
		}
	}

	if ident.Role.IsAffiliate() {
		params.Filter.AffiliateID = ident.AffiliateID
	}

	return u.leadRepo.List(ctx, params)
}

// Transition moves a lead to the next lifecycle status. Company-admin only.
// The lifecycle table is enforced and the stored status may be re-checked
// against an expected value supplied by the caller; either failure is a
// conflict. The update and its history row commit in one transaction.
func (u *LeadUsecase) Transition(ctx context.Context, ident *entities.Identity, id uuid.UUID, input *entities.StatusUpdateInput) (*entities.Lead, error) {
	if ident.Role != entities.UserRoleCompanyAdmin {
		return nil, domainerrors.Forbidden("Only company admins can change lead status")
	}
	if !input.Status.IsValid() {
		return nil, domainerrors.Validation("Invalid status")
	}

	lead, err := u.leadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.ExpectedStatus != "" && input.ExpectedStatus != lead.Status {
		return nil, domainerrors.Conflict(fmt.Sprintf("Lead status is %s, expected %s", lead.Status, input.ExpectedStatus))
	}
	if !lead.Status.CanTransitionTo(input.Status) {
		return nil, domainerrors.Conflict(fmt.Sprintf("Cannot transition lead from %s to %s", lead.Status, input.Status))
	}

	history := &entities.StatusHistoryItem{
		ID:            uuid.New(),
		LeadID:        id,
		Status:        input.Status,
		ChangedBy:     ident.UserID,
		ChangedByName: ident.Name,
		ChangedAt:     time.Now(),
		Notes:         null.NewString(input.Notes, input.Notes != ""),
	}

	if err := u.leadRepo.Transition(ctx, id, lead.Status, input.Status, history); err != nil {
		if errors.Is(err, domainerrors.ErrConflict) {
			// Lost the race against a concurrent transition.
			return nil, domainerrors.Conflict("Lead status changed concurrently")
		}
		return nil, err
	}
	u.invalidateMetrics(ctx)

	return u.leadRepo.GetByID(ctx, id)
}

// AddComment appends a comment to a lead within the caller's scope
func (u *LeadUsecase) AddComment(ctx context.Context, ident *entities.Identity, id uuid.UUID, input *entities.CommentInput) (*entities.Comment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, domainerrors.Validation("Comment content is required")
	}

	if _, err := u.scopedLead(ctx, ident, id); err != nil {
		return nil, err
	}

	comment := &entities.Comment{
		ID:            uuid.New(),
		LeadID:        id,
		Content:       content,
		CreatedBy:     ident.UserID,
		CreatedByName: ident.Name,
	}
	if err := u.leadRepo.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Delete removes a lead with its history, comments and documents.
// Company-admin only. Object deletion is best-effort after the rows are gone.
func (u *LeadUsecase) Delete(ctx context.Context, ident *entities.Identity, id uuid.UUID) error {
	if ident.Role != entities.UserRoleCompanyAdmin {
		return domainerrors.Forbidden("Only company admins can delete leads")
	}

	docs, err := u.docRepo.GetByLeadID(ctx, id)
	if err != nil {
		return err
	}

	if err := u.leadRepo.Delete(ctx, id); err != nil {
		return err
	}
	u.invalidateMetrics(ctx)

	for _, doc := range docs {
		if err := u.store.Delete(ctx, doc.StorageKey); err != nil {
			logger.Warn(ctx, "failed to delete stored object", zap.String("storage_key", doc.StorageKey), zap.Error(err))
		}
	}
	return nil
}

// BundleDocuments packs all of a lead's documents into a zip archive
func (u *LeadUsecase) BundleDocuments(ctx context.Context, ident *entities.Identity, id uuid.UUID) ([]byte, string, error) {
	lead, err := u.scopedLead(ctx, ident, id)
	if err != nil {
		return nil, "", err
	}

	docs, err := u.docRepo.GetByLeadID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if len(docs) == 0 {
		return nil, "", domainerrors.NotFound("Lead has no documents")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	used := make(map[string]int)
	for _, doc := range docs {
		data, err := u.store.Download(ctx, doc.StorageKey)
		if err != nil {
			zw.Close()
			return nil, "", domainerrors.StorageError(err)
		}
		name := doc.FileName
		// Keep entry names unique when uploads share a filename.
		if n := used[name]; n > 0 {
			ext := ""
			if i := strings.LastIndex(name, "."); i >= 0 {
				name, ext = name[:i], name[i:]
			}
			name = fmt.Sprintf("%s (%d)%s", name, n, ext)
		}
		used[doc.FileName]++

		w, err := zw.Create(name)
		if err != nil {
			zw.Close()
			return nil, "", err
		}
		if _, err := w.Write(data); err != nil {
			zw.Close()
			return nil, "", err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), fmt.Sprintf("lead-%s-documents.zip", lead.ID), nil
}

// scopedLead fetches a lead and applies affiliate scoping. Leads outside the
// caller's affiliate read as not found so their existence is not revealed.
func (u *LeadUsecase) scopedLead(ctx context.Context, ident *entities.Identity, id uuid.UUID) (*entities.Lead, error) {
	lead, err := u.leadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ident.Role.IsAffiliate() {
		if ident.AffiliateID == nil || *ident.AffiliateID != lead.AffiliateID {
			return nil, domainerrors.NotFound("Lead not found")
		}
	}
	return lead, nil
}

func (u *LeadUsecase) invalidateMetrics(ctx context.Context) {
	if u.metrics != nil {
		u.metrics.Invalidate(ctx)
	}
}
