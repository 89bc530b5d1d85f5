package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// UserRole represents user roles
type UserRole string

const (
	UserRoleCompanyAdmin   UserRole = "company_admin"
	UserRoleAffiliateAdmin UserRole = "affiliate_admin"
	UserRoleAffiliateUser  UserRole = "affiliate_user"
)

// IsAffiliate reports whether the role is scoped to a single affiliate.
func (r UserRole) IsAffiliate() bool {
	return r == UserRoleAffiliateAdmin || r == UserRoleAffiliateUser
}

// User represents a user entity. Users are provisioned administratively;
// the API only reads them and touches LastLogin.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         UserRole   `json:"role"`
	AffiliateID  *uuid.UUID `json:"affiliateId,omitempty"`
	LastLogin    null.Time  `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// LoginInput represents input for user login
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Identity is the verified caller extracted from a session token.
type Identity struct {
	UserID      uuid.UUID
	Name        string
	Email       string
	Role        UserRole
	AffiliateID *uuid.UUID
}
