package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
)

// Dump reads every table for the export command.
func (r *SQLiteRepository) Dump(ctx context.Context) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{ExportedAt: time.Now().UTC()}

	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		snap.Users = append(snap.Users, domain.ExportUser{
			ID: u.ID, Email: u.Email, Name: u.Name, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt,
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if snap.Tags, err = r.queryTags(ctx, `SELECT `+tagColumns+` FROM tags ORDER BY created_at, id`); err != nil {
		return nil, err
	}

	if snap.Votes, err = r.dumpVotes(ctx); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx, collectionSelect+` ORDER BY c.created_at, c.id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		snap.Collections = append(snap.Collections, *c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT id, collection_id, verse_key, position, notes, created_at
		 FROM collection_verses ORDER BY collection_id, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		v, err := scanCollectionVerse(rows)
		if err != nil {
			return nil, err
		}
		snap.CollectionVerses = append(snap.CollectionVerses, *v)
	}
	return snap, rows.Err()
}

func (r *SQLiteRepository) dumpVotes(ctx context.Context) ([]domain.Vote, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, tag_id, user_id, vote_type, created_at FROM tag_votes ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []domain.Vote
	for rows.Next() {
		var (
			v         domain.Vote
			createdAt string
		)
		if err := rows.Scan(&v.ID, &v.TagID, &v.UserID, &v.VoteType, &createdAt); err != nil {
			return nil, err
		}
		if v.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// Restore inserts a snapshot in one transaction. Rows whose id or natural key
// already exists, or whose parent row is missing, are skipped. Tallies are recomputed from the merged ledger
// and collection sequences are advanced past every restored position.
func (r *SQLiteRepository) Restore(ctx context.Context, snap *domain.Snapshot) (*domain.RestoreStats, error) {
	stats := &domain.RestoreStats{}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		insert := func(query string, args ...any) error {
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return err
			}
			ok, err := rowsAffected(res)
			if err != nil {
				return err
			}
			if ok {
				stats.Inserted++
			} else {
				stats.Skipped++
			}
			return nil
		}

		for _, u := range snap.Users {
			err := insert(`INSERT OR IGNORE INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?)`,
				u.ID, u.Email,
				sql.NullString{String: u.Name, Valid: u.Name != ""},
				sql.NullString{String: u.PasswordHash, Valid: u.PasswordHash != ""},
				formatTime(u.CreatedAt))
			if err != nil {
				return err
			}
		}

		for _, t := range snap.Tags {
			err := insert(`INSERT OR IGNORE INTO tags (`+tagColumns+`)
				SELECT ?, ?, ?, ?, ?, 0, ?, ? WHERE EXISTS (SELECT 1 FROM users WHERE id = ?2)`,
				t.ID, t.UserID, t.VerseKey, t.TagText, t.IsPublic, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
			if err != nil {
				return err
			}
		}

		for _, v := range snap.Votes {
			err := insert(`INSERT OR IGNORE INTO tag_votes (id, tag_id, user_id, vote_type, created_at)
				SELECT ?, ?, ?, ?, ?
				WHERE EXISTS (SELECT 1 FROM tags WHERE id = ?2) AND EXISTS (SELECT 1 FROM users WHERE id = ?3)`,
				v.ID, v.TagID, v.UserID, v.VoteType, formatTime(v.CreatedAt))
			if err != nil {
				return err
			}
		}

		for _, c := range snap.Collections {
			err := insert(`INSERT OR IGNORE INTO collections (id, user_id, name, description, is_public, created_at, updated_at)
				SELECT ?, ?, ?, ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM users WHERE id = ?2)`,
				c.ID, c.UserID, c.Name, nullString(c.Description), c.IsPublic, formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
			if err != nil {
				return err
			}
		}

		for _, v := range snap.CollectionVerses {
			err := insert(`INSERT OR IGNORE INTO collection_verses (id, collection_id, verse_key, position, notes, created_at)
				SELECT ?, ?, ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM collections WHERE id = ?2)`,
				v.ID, v.CollectionID, v.VerseKey, v.Position, nullString(v.Notes), formatTime(v.CreatedAt))
			if err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE tags SET votes = (
				SELECT COALESCE(SUM(v.vote_type), 0) FROM tag_votes v WHERE v.tag_id = tags.id
			)`); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE collections SET verse_seq = MAX(verse_seq, (
				SELECT COALESCE(MAX(cv.position), 0) FROM collection_verses cv WHERE cv.collection_id = collections.id
			))`)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
