package services

import (
	"context"
	"log/slog"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/ports"
)

// CommunityService serves read-only views over public tags.
type CommunityService struct {
	base
	tags  ports.TagRepository
	votes ports.VoteRepository
}

func NewCommunityService(tags ports.TagRepository, votes ports.VoteRepository, log *slog.Logger) *CommunityService {
	return &CommunityService{base: newBase(log), tags: tags, votes: votes}
}

func (s *CommunityService) TopTagsForVerse(ctx context.Context, verseKey string) ([]domain.Tag, error) {
	if err := domain.ValidateVerseKey(verseKey); err != nil {
		return nil, err
	}

	tags, err := s.tags.TopPublicTagsForVerse(ctx, verseKey, domain.TopTagsPerVerse)
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to load community tags", err)
	}
	return tags, nil
}

// Board groups the most voted public tags by text. The caller's own votes are
// included when userID is set.
func (s *CommunityService) Board(ctx context.Context, userID string) (*domain.CommunityBoard, error) {
	tags, err := s.tags.ListPublicTags(ctx, domain.BoardTagLimit)
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to load community tags", err)
	}

	board := &domain.CommunityBoard{
		Groups:    domain.GroupTags(tags),
		UserVotes: map[string]int{},
	}
	if userID == "" {
		return board, nil
	}

	votes, err := s.votes.ListUserVotes(ctx, userID)
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to load community tags", err)
	}
	board.UserVotes = votes
	return board, nil
}

// SearchByTag returns verse keys whose public tags contain query.
func (s *CommunityService) SearchByTag(ctx context.Context, query string) ([]string, error) {
	q := domain.NormalizeTag(query)
	if q == "" {
		return []string{}, nil
	}

	keys, err := s.tags.PublicVerseKeysMatching(ctx, q, domain.SearchLimit)
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to search tags", err)
	}
	return keys, nil
}

var _ ports.CommunityService = (*CommunityService)(nil)
