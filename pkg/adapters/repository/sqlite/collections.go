package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/ports"
)

// --- Collection Repository Implementation ---

// collectionSelect must match the scan order in scanCollection.
const collectionSelect = `
	SELECT c.id, c.user_id, c.name, c.description, c.is_public, c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM collection_verses cv WHERE cv.collection_id = c.id)
	FROM collections c`

func scanCollection(s scanner) (*domain.Collection, error) {
	var (
		c           domain.Collection
		description sql.NullString
		createdAt   string
		updatedAt   string
	)
	err := s.Scan(&c.ID, &c.UserID, &c.Name, &description, &c.IsPublic, &createdAt, &updatedAt, &c.VerseCount)
	if err != nil {
		return nil, err
	}
	c.Description = stringPtr(description)
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *SQLiteRepository) CreateCollection(ctx context.Context, collection *domain.Collection) error {
	query := `INSERT INTO collections (id, user_id, name, description, is_public, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		collection.ID, collection.UserID, collection.Name, nullString(collection.Description),
		collection.IsPublic, formatTime(collection.CreatedAt), formatTime(collection.UpdatedAt),
	)
	return mapError(err)
}

func (r *SQLiteRepository) GetCollection(ctx context.Context, id string) (*domain.Collection, error) {
	row := r.db.QueryRowContext(ctx, collectionSelect+` WHERE c.id = ?`, id)
	c, err := scanCollection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// UpdateCollection rewrites name and description of a collection owned by
// collection.UserID. It reports false when no such collection exists.
func (r *SQLiteRepository) UpdateCollection(ctx context.Context, collection *domain.Collection) (bool, error) {
	query := `UPDATE collections SET name = ?, description = ?, updated_at = ? WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, query,
		collection.Name, nullString(collection.Description), formatTime(collection.UpdatedAt),
		collection.ID, collection.UserID,
	)
	if err != nil {
		return false, mapError(err)
	}
	return rowsAffected(res)
}

func (r *SQLiteRepository) SetCollectionVisibility(ctx context.Context, id, userID string, isPublic bool, updatedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE collections SET is_public = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		isPublic, formatTime(updatedAt), id, userID)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

// DeleteCollection removes the collection; members go with it via the cascade.
func (r *SQLiteRepository) DeleteCollection(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

func (r *SQLiteRepository) ListCollectionsByUser(ctx context.Context, userID string) ([]domain.Collection, error) {
	rows, err := r.db.QueryContext(ctx, collectionSelect+` WHERE c.user_id = ? ORDER BY c.created_at, c.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collections := []domain.Collection{}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, *c)
	}
	return collections, rows.Err()
}

func (r *SQLiteRepository) AddVerse(ctx context.Context, userID string, verse *domain.CollectionVerse) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		// 1. Claim the next position; no row means the collection is not ours
		var position int
		err := tx.QueryRowContext(ctx,
			`UPDATE collections SET verse_seq = verse_seq + 1, updated_at = ?
			 WHERE id = ? AND user_id = ? RETURNING verse_seq`,
			formatTime(verse.CreatedAt), verse.CollectionID, userID,
		).Scan(&position)
		if err == sql.ErrNoRows {
			return ports.ErrNotFound
		}
		if err != nil {
			return err
		}

		// 2. Insert the member. A duplicate rolls the sequence back too.
		_, err = tx.ExecContext(ctx,
			`INSERT INTO collection_verses (id, collection_id, verse_key, position, notes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			verse.ID, verse.CollectionID, verse.VerseKey, position, nullString(verse.Notes), formatTime(verse.CreatedAt),
		)
		if err != nil {
			return mapError(err)
		}

		verse.Position = position
		return nil
	})
}

// RemoveVerse deletes one member. Remaining positions are left untouched.
func (r *SQLiteRepository) RemoveVerse(ctx context.Context, collectionID, verseKey string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM collection_verses WHERE collection_id = ? AND verse_key = ?`, collectionID, verseKey)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

func (r *SQLiteRepository) ListCollectionVerses(ctx context.Context, collectionID string) ([]domain.CollectionVerse, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, collection_id, verse_key, position, notes, created_at
		 FROM collection_verses WHERE collection_id = ? ORDER BY position ASC`, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	verses := []domain.CollectionVerse{}
	for rows.Next() {
		v, err := scanCollectionVerse(rows)
		if err != nil {
			return nil, err
		}
		verses = append(verses, *v)
	}
	return verses, rows.Err()
}

func scanCollectionVerse(s scanner) (*domain.CollectionVerse, error) {
	var (
		v         domain.CollectionVerse
		notes     sql.NullString
		createdAt string
	)
	if err := s.Scan(&v.ID, &v.CollectionID, &v.VerseKey, &v.Position, &notes, &createdAt); err != nil {
		return nil, err
	}
	v.Notes = stringPtr(notes)

	var err error
	if v.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListCollectionsForVerse returns the user's collections containing verseKey.
func (r *SQLiteRepository) ListCollectionsForVerse(ctx context.Context, userID, verseKey string) ([]domain.CollectionRef, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name
		FROM collections c
		JOIN collection_verses cv ON cv.collection_id = c.id
		WHERE c.user_id = ? AND cv.verse_key = ?
		ORDER BY c.created_at, c.id`, userID, verseKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := []domain.CollectionRef{}
	for rows.Next() {
		var ref domain.CollectionRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
