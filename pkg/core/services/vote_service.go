package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/ports"
)

type VoteService struct {
	base
	repo ports.VoteRepository
}

func NewVoteService(repo ports.VoteRepository, log *slog.Logger) *VoteService {
	return &VoteService{base: newBase(log), repo: repo}
}

// Vote applies direction to tagID for userID. Repeating the current direction
// withdraws the vote; the opposite direction flips it.
func (s *VoteService) Vote(ctx context.Context, userID, tagID string, direction int) (*domain.VoteResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if !domain.ValidDirection(direction) {
		return nil, domain.InvalidInput("Vote must be 1 or -1")
	}

	result, err := s.repo.ApplyVote(ctx, &domain.Vote{
		ID:        uuid.NewString(),
		TagID:     tagID,
		UserID:    userID,
		VoteType:  direction,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, s.translate(ctx, "Failed to vote", err, nil)
	}

	s.log.DebugContext(ctx, "vote applied", "tag_id", tagID, "action", result.Outcome, "votes", result.Votes)
	return result, nil
}

// GetUserVote returns nil when the caller is anonymous or has not voted.
func (s *VoteService) GetUserVote(ctx context.Context, userID, tagID string) (*int, error) {
	if userID == "" {
		return nil, nil
	}

	v, err := s.repo.GetUserVote(ctx, tagID, userID)
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to load vote", err)
	}
	return v, nil
}

// RecountVotes rebuilds every tally from the vote ledger.
func (s *VoteService) RecountVotes(ctx context.Context) (int64, error) {
	n, err := s.repo.RecountVotes(ctx)
	if err != nil {
		return 0, s.storeFailure(ctx, "Failed to recount votes", err)
	}
	if n > 0 {
		s.log.WarnContext(ctx, "vote tallies corrected", "tags", n)
	}
	return n, nil
}

var _ ports.VoteService = (*VoteService)(nil)
