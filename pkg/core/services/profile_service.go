package services

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/ports"
)

type ProfileService struct {
	base
	repo ports.UserRepository
}

func NewProfileService(repo ports.UserRepository, log *slog.Logger) *ProfileService {
	return &ProfileService{base: newBase(log), repo: repo}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to load profile", err)
	}
	if u == nil {
		// Token outlived its user.
		return nil, domain.ErrUnauthenticated
	}
	return &domain.Profile{ID: u.ID, Email: u.Email, Name: u.Name}, nil
}

func (s *ProfileService) UpdateDisplayName(ctx context.Context, userID, name string) (*domain.Profile, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.InvalidInput("Name is required")
	}
	if utf8.RuneCountInString(name) > domain.MaxDisplayName {
		return nil, domain.InvalidInput("Name is too long (max 255 characters)")
	}

	ok, err := s.repo.UpdateUserName(ctx, userID, name)
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to update profile", err)
	}
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return s.GetProfile(ctx, userID)
}

var _ ports.ProfileService = (*ProfileService)(nil)
