package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"leadhub.backend/internal/domain/entities"
)

// LeadRepository defines lead data operations. List applies filters,
// sorting and pagination in one query pair; Transition performs the status
// update and the history append atomically.
type LeadRepository interface {
	Create(ctx context.Context, lead *entities.Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Lead, error)
	List(ctx context.Context, params entities.LeadListParams) (*entities.LeadPage, error)
	ListAll(ctx context.Context, filter entities.LeadFilter) ([]*entities.Lead, error)
	Transition(ctx context.Context, id uuid.UUID, from, to entities.LeadStatus, history *entities.StatusHistoryItem) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddComment(ctx context.Context, comment *entities.Comment) error
	GetHistory(ctx context.Context, leadID uuid.UUID) ([]*entities.StatusHistoryItem, error)
	GetComments(ctx context.Context, leadID uuid.UUID) ([]*entities.Comment, error)

	CountByStatus(ctx context.Context, since, until *time.Time) ([]entities.StatusCount, error)
	CountCreatedBetween(ctx context.Context, since, until time.Time) (int, error)
	CountPerDay(ctx context.Context, since, until time.Time) ([]entities.TrendPoint, error)
}

// DocumentRepository defines document metadata operations
type DocumentRepository interface {
	Create(ctx context.Context, doc *entities.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Document, error)
	GetByLeadID(ctx context.Context, leadID uuid.UUID) ([]*entities.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
