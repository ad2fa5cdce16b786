package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/hugh/langhub/internal/database/models"
)

// Authenticator is what the HTTP layer needs from the account service.
type Authenticator interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResponse, error)
	Login(ctx context.Context, input LoginInput) (*AuthResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenValidator turns a bearer token back into the identity it was
// issued for.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

var (
	_ Authenticator  = (*Service)(nil)
	_ TokenValidator = (*JWTService)(nil)
)
