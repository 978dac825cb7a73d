package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
)

// tagColumns must match the scan order in scanTag.
const tagColumns = `id, user_id, verse_key, tag_text, is_public, votes, created_at, updated_at`

func scanTag(s scanner) (*domain.Tag, error) {
	var (
		t         domain.Tag
		createdAt string
		updatedAt string
	)
	err := s.Scan(&t.ID, &t.UserID, &t.VerseKey, &t.TagText, &t.IsPublic, &t.Votes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *SQLiteRepository) queryTags(ctx context.Context, query string, args ...any) ([]domain.Tag, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

// CreateTag inserts a tag. A duplicate (user, verse, text) triple surfaces
// as ports.ErrUniqueViolation.
func (r *SQLiteRepository) CreateTag(ctx context.Context, tag *domain.Tag) error {
	query := `INSERT INTO tags (` + tagColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		tag.ID, tag.UserID, tag.VerseKey, tag.TagText, tag.IsPublic, tag.Votes,
		formatTime(tag.CreatedAt), formatTime(tag.UpdatedAt),
	)
	return mapError(err)
}

func (r *SQLiteRepository) GetTag(ctx context.Context, id string) (*domain.Tag, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = ?`, id)
	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *SQLiteRepository) DeleteTag(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

// SetTagVisibility returns nil when the tag does not exist under userID.
func (r *SQLiteRepository) SetTagVisibility(ctx context.Context, id, userID string, isPublic bool, updatedAt time.Time) (*domain.Tag, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tags SET is_public = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		isPublic, formatTime(updatedAt), id, userID)
	if err != nil {
		return nil, err
	}
	ok, err := rowsAffected(res)
	if err != nil || !ok {
		return nil, err
	}
	return r.GetTag(ctx, id)
}

func (r *SQLiteRepository) ListTagsByUser(ctx context.Context, userID string) ([]domain.Tag, error) {
	return r.queryTags(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
}

func (r *SQLiteRepository) ListTagsByUserAndVerse(ctx context.Context, userID, verseKey string) ([]domain.Tag, error) {
	return r.queryTags(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? AND verse_key = ? ORDER BY created_at, id`,
		userID, verseKey)
}

func (r *SQLiteRepository) TopPublicTagsForVerse(ctx context.Context, verseKey string, limit int) ([]domain.Tag, error) {
	return r.queryTags(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE verse_key = ? AND is_public = 1
		 ORDER BY votes DESC, created_at LIMIT ?`,
		verseKey, limit)
}

func (r *SQLiteRepository) ListPublicTags(ctx context.Context, limit int) ([]domain.Tag, error) {
	return r.queryTags(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE is_public = 1 ORDER BY votes DESC, created_at LIMIT ?`,
		limit)
}

// PublicVerseKeysMatching returns distinct verse keys whose public tags
// contain text. LIKE wildcards in text are matched literally.
func (r *SQLiteRepository) PublicVerseKeysMatching(ctx context.Context, text string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT verse_key FROM tags
		WHERE is_public = 1 AND tag_text LIKE ? ESCAPE '\'
		GROUP BY verse_key
		ORDER BY MAX(votes) DESC, verse_key
		LIMIT ?`,
		"%"+escapeLike(text)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
