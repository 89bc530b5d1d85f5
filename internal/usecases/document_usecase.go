package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"leadhub.backend/internal/domain/entities"
	domainerrors "leadhub.backend/internal/domain/errors"
	"leadhub.backend/internal/domain/repositories"
	"leadhub.backend/internal/infrastructure/storage"
	"leadhub.backend/pkg/logger"
)

// DocumentUsecase handles document upload, access and removal
type DocumentUsecase struct {
	docRepo  repositories.DocumentRepository
	leadRepo repositories.LeadRepository
	store    storage.ObjectStore
}

// NewDocumentUsecase creates a new document usecase
func NewDocumentUsecase(docRepo repositories.DocumentRepository, leadRepo repositories.LeadRepository, store storage.ObjectStore) *DocumentUsecase {
	return &DocumentUsecase{
		docRepo:  docRepo,
		leadRepo: leadRepo,
		store:    store,
	}
}

// Upload validates and stores one attachment for a lead. The object write
// is confirmed before the metadata row exists, so a row never points at a
// missing object. The returned FileURL is a long-lived signed link.
func (u *DocumentUsecase) Upload(ctx context.Context, ident *entities.Identity, leadID uuid.UUID, fileName, contentType string, data []byte) (*entities.Document, error) {
	if int64(len(data)) > entities.MaxDocumentSize {
		return nil, domainerrors.Validation("File exceeds the 5MB limit")
	}
	if !entities.AllowedDocumentTypes[contentType] {
		return nil, domainerrors.Validation(fmt.Sprintf("Unsupported file type: %s", contentType))
	}

	lead, err := u.leadRepo.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if ident.Role.IsAffiliate() {
		if ident.AffiliateID == nil || *ident.AffiliateID != lead.AffiliateID {
			return nil, domainerrors.NotFound("Lead not found")
		}
	}

	key, err := storage.BuildObjectKey(leadID, fileName)
	if err != nil {
		return nil, err
	}
	if err := u.store.Upload(ctx, key, contentType, data); err != nil {
		return nil, domainerrors.StorageError(err)
	}

	doc := &entities.Document{
		ID:         uuid.New(),
		LeadID:     leadID,
		FileName:   fileName,
		FileType:   contentType,
		FileSize:   int64(len(data)),
		StorageKey: key,
		UploadedAt: time.Now(),
	}
	if err := u.docRepo.Create(ctx, doc); err != nil {
		// Roll the orphaned object back; the row is what makes it real.
		if delErr := u.store.Delete(ctx, key); delErr != nil {
			logger.Warn(ctx, "failed to delete orphaned object", zap.String("storage_key", key), zap.Error(delErr))
		}
		return nil, err
	}

	url, err := u.store.SignedURL(key, storage.DownloadURLExpiry)
	if err != nil {
		logger.Warn(ctx, "failed to sign document url", zap.String("document_id", doc.ID.String()), zap.Error(err))
	} else {
		doc.FileURL = url
	}
	return doc, nil
}

// SignedURL returns a fresh short-lived display link for a document
func (u *DocumentUsecase) SignedURL(ctx context.Context, ident *entities.Identity, id uuid.UUID) (string, error) {
	doc, err := u.scopedDocument(ctx, ident, id)
	if err != nil {
		return "", err
	}
	url, err := u.store.SignedURL(doc.StorageKey, storage.DisplayURLExpiry)
	if err != nil {
		return "", domainerrors.StorageError(err)
	}
	return url, nil
}

// Delete removes a document's object and metadata row. Company-admin only.
func (u *DocumentUsecase) Delete(ctx context.Context, ident *entities.Identity, id uuid.UUID) error {
	if ident.Role != entities.UserRoleCompanyAdmin {
		return domainerrors.Forbidden("Only company admins can delete documents")
	}

	doc, err := u.docRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := u.store.Delete(ctx, doc.StorageKey); err != nil {
		return domainerrors.StorageError(err)
	}
	return u.docRepo.Delete(ctx, id)
}

func (u *DocumentUsecase) scopedDocument(ctx context.Context, ident *entities.Identity, id uuid.UUID) (*entities.Document, error) {
	doc, err := u.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ident.Role.IsAffiliate() {
		lead, err := u.leadRepo.GetByID(ctx, doc.LeadID)
		if err != nil {
			return nil, err
		}
		if ident.AffiliateID == nil || *ident.AffiliateID != lead.AffiliateID {
			return nil, domainerrors.NotFound("Document not found")
		}
	}
	return doc, nil
}
