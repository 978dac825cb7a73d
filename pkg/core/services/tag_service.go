package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/ports"
)

type TagService struct {
	base
	repo ports.TagRepository
}

func NewTagService(repo ports.TagRepository, log *slog.Logger) *TagService {
	return &TagService{base: newBase(log), repo: repo}
}

// CreateTag normalizes rawText and stores it against verseKey. Duplicates are
// detected by the store's unique constraint, not by a prior lookup.
func (s *TagService) CreateTag(ctx context.Context, userID, verseKey, rawText string, isPublic bool) (*domain.Tag, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := domain.ValidateVerseKey(verseKey); err != nil {
		return nil, err
	}

	text := domain.NormalizeTag(rawText)
	if !domain.ValidTag(text) {
		return nil, domain.InvalidInput("Tag must be at least 2 characters")
	}

	now := s.now()
	tag := &domain.Tag{
		ID:        uuid.NewString(),
		UserID:    userID,
		VerseKey:  verseKey,
		TagText:   text,
		IsPublic:  isPublic,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateTag(ctx, tag); err != nil {
		return nil, s.translate(ctx, "Failed to create tag", err, domain.ErrDuplicateTag)
	}
	return tag, nil
}

// DeleteTag removes a tag owned by userID. A missing tag and someone else's
// tag are reported the same way.
func (s *TagService) DeleteTag(ctx context.Context, userID, tagID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	ok, err := s.repo.DeleteTag(ctx, tagID, userID)
	if err != nil {
		return s.storeFailure(ctx, "Failed to delete tag", err)
	}
	if !ok {
		return domain.NotFound("Tag not found")
	}
	return nil
}

func (s *TagService) SetVisibility(ctx context.Context, userID, tagID string, isPublic bool) (*domain.Tag, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	tag, err := s.repo.SetTagVisibility(ctx, tagID, userID, isPublic, s.now())
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to update tag", err)
	}
	if tag == nil {
		return nil, domain.NotFound("Tag not found")
	}
	return tag, nil
}

func (s *TagService) ListMyTags(ctx context.Context, userID string) ([]domain.Tag, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	tags, err := s.repo.ListTagsByUser(ctx, userID)
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to load tags", err)
	}
	return tags, nil
}

func (s *TagService) ListMyTagsForVerse(ctx context.Context, userID, verseKey string) ([]domain.Tag, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := domain.ValidateVerseKey(verseKey); err != nil {
		return nil, err
	}

	tags, err := s.repo.ListTagsByUserAndVerse(ctx, userID, verseKey)
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to load tags", err)
	}
	return tags, nil
}

var _ ports.TagService = (*TagService)(nil)
