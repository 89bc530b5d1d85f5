package usecases

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"leadhub.backend/internal/domain/entities"
	domainerrors "leadhub.backend/internal/domain/errors"
	"leadhub.backend/internal/domain/repositories"
	"leadhub.backend/pkg/crypto"
	"leadhub.backend/pkg/jwt"
	"leadhub.backend/pkg/logger"
)

// AuthUsecase handles authentication business logic
type AuthUsecase struct {
	userRepo   repositories.UserRepository
	jwtService *jwt.JWTService
}

// NewAuthUsecase creates a new auth usecase
func NewAuthUsecase(userRepo repositories.UserRepository, jwtService *jwt.JWTService) *AuthUsecase {
	return &AuthUsecase{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// Login verifies credentials and issues a session token. Lookup and
// verification failures return the same error so a caller cannot probe
// which factor was wrong.
func (u *AuthUsecase) Login(ctx context.Context, input *entities.LoginInput) (*entities.User, string, error) {
	user, err := u.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, "", domainerrors.InvalidCredentials()
		}
		return nil, "", err
	}

	if !crypto.CheckPassword(input.Password, user.PasswordHash) {
		return nil, "", domainerrors.InvalidCredentials()
	}

	token, err := u.jwtService.GenerateToken(user.ID, user.Name, user.Email, string(user.Role), user.AffiliateID)
	if err != nil {
		return nil, "", err
	}

	// Login stands even if the timestamp write fails.
	if err := u.userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		logger.Warn(ctx, "failed to record last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	return user, token, nil
}

// GetUserByID returns the user behind an authenticated session
func (u *AuthUsecase) GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return u.userRepo.GetByID(ctx, id)
}
