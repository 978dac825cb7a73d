package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/ports"
)

var errCollectionNotFound = domain.NotFound("Collection not found")

type CollectionService struct {
	base
	repo ports.CollectionRepository
}

func NewCollectionService(repo ports.CollectionRepository, log *slog.Logger) *CollectionService {
	return &CollectionService{base: newBase(log), repo: repo}
}

func validateCollection(name string, description *string) (string, *string, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateCollectionName(name); err != nil {
		return "", nil, err
	}
	description = optionalText(description)
	if description != nil {
		if err := domain.ValidateDescription(*description); err != nil {
			return "", nil, err
		}
	}
	return name, description, nil
}

func (s *CollectionService) CreateCollection(ctx context.Context, userID, name string, description *string) (*domain.Collection, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name, description, err := validateCollection(name, description)
	if err != nil {
		return nil, err
	}

	now := s.now()
	collection := &domain.Collection{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateCollection(ctx, collection); err != nil {
		return nil, s.translate(ctx, "Failed to create collection", err, domain.ErrDuplicateName)
	}
	return collection, nil
}

func (s *CollectionService) UpdateCollection(ctx context.Context, userID, id, name string, description *string) (*domain.Collection, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name, description, err := validateCollection(name, description)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.UpdateCollection(ctx, &domain.Collection{
		ID:          id,
		UserID:      userID,
		Name:        name,
		Description: description,
		UpdatedAt:   s.now(),
	})
	if err != nil {
		return nil, s.translate(ctx, "Failed to update collection", err, domain.ErrDuplicateName)
	}
	if !ok {
		return nil, errCollectionNotFound
	}
	return s.load(ctx, id, "Failed to update collection")
}

// DeleteCollection removes the collection and, through the cascade, its verses.
func (s *CollectionService) DeleteCollection(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	ok, err := s.repo.DeleteCollection(ctx, id, userID)
	if err != nil {
		return s.storeFailure(ctx, "Failed to delete collection", err)
	}
	if !ok {
		return errCollectionNotFound
	}
	return nil
}

func (s *CollectionService) SetVisibility(ctx context.Context, userID, id string, isPublic bool) (*domain.Collection, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	ok, err := s.repo.SetCollectionVisibility(ctx, id, userID, isPublic, s.now())
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to update collection", err)
	}
	if !ok {
		return nil, errCollectionNotFound
	}
	return s.load(ctx, id, "Failed to update collection")
}

// GetCollection returns the collection with its verses in position order.
// Private collections are only visible to their owner; userID may be empty.
func (s *CollectionService) GetCollection(ctx context.Context, userID, id string) (*domain.Collection, error) {
	collection, err := s.repo.GetCollection(ctx, id)
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to load collection", err)
	}
	if collection == nil || (!collection.IsPublic && collection.UserID != userID) {
		return nil, errCollectionNotFound
	}

	verses, err := s.repo.ListCollectionVerses(ctx, id)
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to load collection", err)
	}
	collection.Verses = verses
	return collection, nil
}

func (s *CollectionService) ListCollections(ctx context.Context, userID string) ([]domain.Collection, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	collections, err := s.repo.ListCollectionsByUser(ctx, userID)
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to load collections", err)
	}
	return collections, nil
}

// AddVerse appends verseKey at the next position. Ownership is checked by the
// same statement that reserves the position.
func (s *CollectionService) AddVerse(ctx context.Context, userID, collectionID, verseKey string, notes *string) (*domain.CollectionVerse, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := domain.ValidateVerseKey(verseKey); err != nil {
		return nil, err
	}
	notes = optionalText(notes)
	if notes != nil {
		if err := domain.ValidateNotes(*notes); err != nil {
			return nil, err
		}
	}

	verse := &domain.CollectionVerse{
		ID:           uuid.NewString(),
		CollectionID: collectionID,
		VerseKey:     verseKey,
		Notes:        notes,
		CreatedAt:    s.now(),
	}

	if err := s.repo.AddVerse(ctx, userID, verse); err != nil {
		err = s.translate(ctx, "Failed to add verse", err, domain.ErrDuplicateVerse)
		if domain.CodeOf(err) == domain.CodeNotFound {
			return nil, errCollectionNotFound
		}
		return nil, err
	}
	return verse, nil
}

// RemoveVerse succeeds whether or not the verse was a member, as long as the
// caller owns the collection.
func (s *CollectionService) RemoveVerse(ctx context.Context, userID, collectionID, verseKey string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	collection, err := s.repo.GetCollection(ctx, collectionID)
	if err != nil {
		return s.storeFailure(ctx, "Failed to remove verse", err)
	}
	if collection == nil || collection.UserID != userID {
		return errCollectionNotFound
	}

	if _, err := s.repo.RemoveVerse(ctx, collectionID, verseKey); err != nil {
		return s.storeFailure(ctx, "Failed to remove verse", err)
	}
	return nil
}

func (s *CollectionService) ListVerseCollections(ctx context.Context, userID, verseKey string) ([]domain.CollectionRef, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := domain.ValidateVerseKey(verseKey); err != nil {
		return nil, err
	}

	refs, err := s.repo.ListCollectionsForVerse(ctx, userID, verseKey)
	if err != nil {
		return nil, s.storeFailure(ctx, "Failed to get verse collections", err)
	}
	return refs, nil
}

func (s *CollectionService) load(ctx context.Context, id, msg string) (*domain.Collection, error) {
	collection, err := s.repo.GetCollection(ctx, id)
	if err != nil {
		return nil, s.storeFailure(ctx, msg, err)
	}
	if collection == nil {
		return nil, errCollectionNotFound
	}
	return collection, nil
}

var _ ports.CollectionService = (*CollectionService)(nil)
