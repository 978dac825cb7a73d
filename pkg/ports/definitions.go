package ports

import (
	"context"
	"errors"
	"time"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
)

// Engine-neutral store errors. Adapters translate their driver's errors into
// these so services never inspect engine-specific codes.
var (
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrNotFound        = errors.New("row not found")
)

// UserRepository stores identities.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUserName(ctx context.Context, id, name string) (bool, error)
}

// TagRepository stores tags. Mutations are scoped by owner.
type TagRepository interface {
	CreateTag(ctx context.Context, tag *domain.Tag) error
	GetTag(ctx context.Context, id string) (*domain.Tag, error)
	DeleteTag(ctx context.Context, id, userID string) (bool, error)
	SetTagVisibility(ctx context.Context, id, userID string, isPublic bool, updatedAt time.Time) (*domain.Tag, error)
	ListTagsByUser(ctx context.Context, userID string) ([]domain.Tag, error)
	ListTagsByUserAndVerse(ctx context.Context, userID, verseKey string) ([]domain.Tag, error)

	// Community
	TopPublicTagsForVerse(ctx context.Context, verseKey string, limit int) ([]domain.Tag, error)
	ListPublicTags(ctx context.Context, limit int) ([]domain.Tag, error)
	PublicVerseKeysMatching(ctx context.Context, text string, limit int) ([]string, error)
}

// VoteRepository is the vote ledger.
type VoteRepository interface {
	// ApplyVote resolves vote against the user's existing vote on the same tag,
	// writes the vote row and adjusts the tag tally in one transaction.
	// Returns ErrNotFound when the tag does not exist.
	ApplyVote(ctx context.Context, vote *domain.Vote) (*domain.VoteResult, error)
	GetUserVote(ctx context.Context, tagID, userID string) (*int, error)
	ListUserVotes(ctx context.Context, userID string) (map[string]int, error)
	RecountVotes(ctx context.Context) (int64, error)
}

// CollectionRepository stores collections and their members.
type CollectionRepository interface {
	CreateCollection(ctx context.Context, collection *domain.Collection) error
	GetCollection(ctx context.Context, id string) (*domain.Collection, error)
	UpdateCollection(ctx context.Context, collection *domain.Collection) (bool, error)
	SetCollectionVisibility(ctx context.Context, id, userID string, isPublic bool, updatedAt time.Time) (bool, error)
	DeleteCollection(ctx context.Context, id, userID string) (bool, error)
	ListCollectionsByUser(ctx context.Context, userID string) ([]domain.Collection, error)

	// AddVerse takes the next position from the collection's sequence and
	// inserts the member in one transaction. Returns ErrNotFound when the
	// collection is not owned by userID, ErrUniqueViolation when the verse is
	// already a member.
	AddVerse(ctx context.Context, userID string, verse *domain.CollectionVerse) error
	RemoveVerse(ctx context.Context, collectionID, verseKey string) (bool, error)
	ListCollectionVerses(ctx context.Context, collectionID string) ([]domain.CollectionVerse, error)
	ListCollectionsForVerse(ctx context.Context, userID, verseKey string) ([]domain.CollectionRef, error)
}

// Repository is everything the SQL adapter provides.
type Repository interface {
	UserRepository
	TagRepository
	VoteRepository
	CollectionRepository

	Dump(ctx context.Context) (*domain.Snapshot, error) // For migration
	Restore(ctx context.Context, snapshot *domain.Snapshot) (*domain.RestoreStats, error)
}

// TagService defines tag lifecycle operations.
type TagService interface {
	CreateTag(ctx context.Context, userID, verseKey, text string, isPublic bool) (*domain.Tag, error)
	DeleteTag(ctx context.Context, userID, tagID string) error
	SetVisibility(ctx context.Context, userID, tagID string, isPublic bool) (*domain.Tag, error)
	ListMyTags(ctx context.Context, userID string) ([]domain.Tag, error)
	ListMyTagsForVerse(ctx context.Context, userID, verseKey string) ([]domain.Tag, error)
}

// VoteService defines voting operations.
type VoteService interface {
	Vote(ctx context.Context, userID, tagID string, direction int) (*domain.VoteResult, error)
	GetUserVote(ctx context.Context, userID, tagID string) (*int, error)
	RecountVotes(ctx context.Context) (int64, error)
}

// CollectionService defines business logic for collections
type CollectionService interface {
	CreateCollection(ctx context.Context, userID, name string, description *string) (*domain.Collection, error)
	UpdateCollection(ctx context.Context, userID, id, name string, description *string) (*domain.Collection, error)
	DeleteCollection(ctx context.Context, userID, id string) error
	SetVisibility(ctx context.Context, userID, id string, isPublic bool) (*domain.Collection, error)
	GetCollection(ctx context.Context, userID, id string) (*domain.Collection, error)
	ListCollections(ctx context.Context, userID string) ([]domain.Collection, error)
	AddVerse(ctx context.Context, userID, collectionID, verseKey string, notes *string) (*domain.CollectionVerse, error)
	RemoveVerse(ctx context.Context, userID, collectionID, verseKey string) error
	ListVerseCollections(ctx context.Context, userID, verseKey string) ([]domain.CollectionRef, error)
}

// ProfileService defines profile operations for the acting user.
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateDisplayName(ctx context.Context, userID, name string) (*domain.Profile, error)
}

// AuthService defines credential operations.
type AuthService interface {
	SignUp(ctx context.Context, name, email, password string) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (*domain.User, error)
	SignInWithGoogle(ctx context.Context, email, name string) (*domain.User, error)
}

// CommunityService defines read-only views over public tags.
type CommunityService interface {
	TopTagsForVerse(ctx context.Context, verseKey string) ([]domain.Tag, error)
	Board(ctx context.Context, userID string) (*domain.CommunityBoard, error)
	SearchByTag(ctx context.Context, query string) ([]string, error)
}
