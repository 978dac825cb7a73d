package domain

import "time"

// Vote is one user's stance on one tag.
type Vote struct {
	ID        string    `json:"id"`
	TagID     string    `json:"tag_id"`
	UserID    string    `json:"user_id"`
	VoteType  int       `json:"vote_type"` // 1 or -1
	CreatedAt time.Time `json:"created_at"`
}

const (
	Upvote   = 1
	Downvote = -1
)

// VoteOutcome is what a vote request did to the ledger.
type VoteOutcome string

const (
	VoteAdded   VoteOutcome = "added"
	VoteChanged VoteOutcome = "changed"
	VoteRemoved VoteOutcome = "removed"
)

// VoteResult is returned to the caller so an optimistic view can reconcile.
type VoteResult struct {
	Outcome  VoteOutcome `json:"action"`
	Votes    int         `json:"votes"`
	UserVote *int        `json:"user_vote"`
}

// ValidDirection reports whether d is an up or down vote.
func ValidDirection(d int) bool {
	return d == Upvote || d == Downvote
}

// ResolveVote decides what a request for direction does given the user's
// existing vote (nil when there is none). It returns the outcome, the change
// to apply to the tag tally, and the vote type to store afterwards (nil means
// the vote row is deleted).
func ResolveVote(existing *int, direction int) (VoteOutcome, int, *int) {
	switch {
	case existing == nil:
		d := direction
		return VoteAdded, direction, &d
	case *existing == direction:
		return VoteRemoved, -direction, nil
	default:
		d := direction
		return VoteChanged, 2 * direction, &d
	}
}
