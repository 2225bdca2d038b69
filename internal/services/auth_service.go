package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

type AuthService struct {
	Users *repos.UserRepo
}

// Login verifies the password and issues a fresh bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return "", nil, ErrBadCreds
	}
	token, err := s.issue(ctx, u.ID)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Register creates a customer account and logs it in.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (string, *domain.User, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(username) == "" {
		username = email
	}
	u := domain.User{
		ID:       uuid.NewString(),
		Email:    email,
		Username: username,
		Hash:     string(h),
		RoleType: domain.RoleAuthenticated,
		RoleName: "Authenticated",
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return "", nil, ErrEmailTaken
		}
		return "", nil, err
	}
	token, err := s.issue(ctx, u.ID)
	if err != nil {
		return "", nil, err
	}
	return token, &u, nil
}

func (s *AuthService) issue(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.Users.BindToken(ctx, token, userID); err != nil {
		return "", err
	}
	return token, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.Users.UnbindToken(ctx, token)
}

// Identify resolves a bearer token into the caller's identity.
func (s *AuthService) Identify(ctx context.Context, token string) (*domain.Identity, error) {
	u, err := s.Users.TokenUser(ctx, token)
	if err != nil {
		return nil, err
	}
	return u.Identity(), nil
}
