package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/ports"
)

// bcryptCost matches bcrypt.DefaultCost; tests lower it.
var bcryptCost = bcrypt.DefaultCost

type AuthService struct {
	base
	repo ports.UserRepository
}

func NewAuthService(repo ports.UserRepository, log *slog.Logger) *AuthService {
	return &AuthService{base: newBase(log), repo: repo}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) SignUp(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, domain.InvalidInput("All fields are required")
	}
	if utf8.RuneCountInString(password) < domain.MinPasswordLength {
		return nil, domain.InvalidInput("Password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to create account. Please try again.", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, s.translate(ctx, "Failed to create account. Please try again.", err, domain.ErrDuplicateEmail)
	}

	s.log.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to sign in", err)
	}
	// Accounts created through Google have no password.
	if user == nil || user.PasswordHash == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// SignInWithGoogle finds the user by the verified email, creating one on first
// sign-in.
func (s *AuthService) SignInWithGoogle(ctx context.Context, email, name string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.InvalidInput("Email is required")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to sign in", err)
	}
	if user != nil {
		return user, nil
	}

	user = &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		CreatedAt: s.now(),
	}
	err = s.repo.CreateUser(ctx, user)
	if errors.Is(err, ports.ErrUniqueViolation) {
		// Lost a race with a concurrent first sign-in.
		existing, getErr := s.repo.GetUserByEmail(ctx, email)
		if getErr == nil && existing != nil {
			return existing, nil
		}
	}
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to sign in", err)
	}

	s.log.InfoContext(ctx, "user created via google", "user_id", user.ID)
	return user, nil
}

var _ ports.AuthService = (*AuthService)(nil)
