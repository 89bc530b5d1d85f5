package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"leadhub.backend/internal/domain/entities"
	domainerrors "leadhub.backend/internal/domain/errors"
	"leadhub.backend/internal/infrastructure/models"
)

// UserRepository implements user data operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	var m models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return userToEntity(&m), nil
}

// GetByEmail gets a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var m models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return userToEntity(&m), nil
}

// TouchLastLogin records a successful login
func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func userToEntity(m *models.User) *entities.User {
	return &entities.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         entities.UserRole(m.Role),
		AffiliateID:  m.AffiliateID,
		LastLogin:    null.TimeFromPtr(m.LastLogin),
		CreatedAt:    m.CreatedAt,
	}
}

// AffiliateRepository implements affiliate data operations
type AffiliateRepository struct {
	db *gorm.DB
}

// NewAffiliateRepository creates a new affiliate repository
func NewAffiliateRepository(db *gorm.DB) *AffiliateRepository {
	return &AffiliateRepository{db: db}
}

// GetByID gets an affiliate by ID
func (r *AffiliateRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Affiliate, error) {
	var m models.Affiliate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return affiliateToEntity(&m), nil
}

// List lists all affiliates ordered by name
func (r *AffiliateRepository) List(ctx context.Context) ([]*entities.Affiliate, error) {
	var ms []models.Affiliate
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&ms).Error; err != nil {
		return nil, err
	}

	var affiliates []*entities.Affiliate
	for _, m := range ms {
		model := m
		affiliates = append(affiliates, affiliateToEntity(&model))
	}
	return affiliates, nil
}

func affiliateToEntity(m *models.Affiliate) *entities.Affiliate {
	return &entities.Affiliate{
		ID:           m.ID,
		Name:         m.Name,
		ContactEmail: m.ContactEmail,
		CreatedAt:    m.CreatedAt,
	}
}
