package repositories

import (
	"context"

	"github.com/google/uuid"
	"leadhub.backend/internal/domain/entities"
)

// UserRepository defines user data operations
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}

// AffiliateRepository defines affiliate data operations
type AffiliateRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Affiliate, error)
	List(ctx context.Context) ([]*entities.Affiliate, error)
}
