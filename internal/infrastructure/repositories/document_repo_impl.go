package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"leadhub.backend/internal/domain/entities"
	domainerrors "leadhub.backend/internal/domain/errors"
	"leadhub.backend/internal/infrastructure/models"
)

// DocumentRepository implements document metadata operations
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create creates a document metadata row
func (r *DocumentRepository) Create(ctx context.Context, doc *entities.Document) error {
	m := documentToModel(doc)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	doc.ID = m.ID
	return nil
}

// GetByID gets a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Document, error) {
	var m models.Document
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return documentToEntity(&m), nil
}

// GetByLeadID lists a lead's documents, newest first
func (r *DocumentRepository) GetByLeadID(ctx context.Context, leadID uuid.UUID) ([]*entities.Document, error) {
	var ms []models.Document
	if err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("uploaded_at DESC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	docs := make([]*entities.Document, 0, len(ms))
	for _, m := range ms {
		model := m
		docs = append(docs, documentToEntity(&model))
	}
	return docs, nil
}

// Delete removes a document metadata row
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Document{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func documentToModel(doc *entities.Document) *models.Document {
	return &models.Document{
		ID:         doc.ID,
		LeadID:     doc.LeadID,
		FileName:   doc.FileName,
		FileType:   doc.FileType,
		FileSize:   doc.FileSize,
		StorageKey: doc.StorageKey,
		UploadedAt: doc.UploadedAt,
	}
}

func documentToEntity(m *models.Document) *entities.Document {
	return &entities.Document{
		ID:         m.ID,
		LeadID:     m.LeadID,
		FileName:   m.FileName,
		FileType:   m.FileType,
		FileSize:   m.FileSize,
		StorageKey: m.StorageKey,
		UploadedAt: m.UploadedAt,
	}
}
