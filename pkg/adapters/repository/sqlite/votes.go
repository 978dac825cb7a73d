package sqlite

import (
	"context"
	"database/sql"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/ports"
)

// ApplyVote reconciles vote with the ledger. The vote-row mutation and the
// tally adjustment commit together or not at all.
func (r *SQLiteRepository) ApplyVote(ctx context.Context, vote *domain.Vote) (*domain.VoteResult, error) {
	var result domain.VoteResult

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM tags WHERE id = ?`, vote.TagID).Scan(&exists)
		if err == sql.ErrNoRows {
			return ports.ErrNotFound
		}
		if err != nil {
			return err
		}

		var (
			existingID   string
			existingType int
			existing     *int
		)
		err = tx.QueryRowContext(ctx,
			`SELECT id, vote_type FROM tag_votes WHERE tag_id = ? AND user_id = ?`,
			vote.TagID, vote.UserID,
		).Scan(&existingID, &existingType)
		switch {
		case err == sql.ErrNoRows:
		case err != nil:
			return err
		default:
			existing = &existingType
		}

		outcome, delta, stored := domain.ResolveVote(existing, vote.VoteType)

		switch outcome {
		case domain.VoteAdded:
			_, err = tx.ExecContext(ctx,
				`INSERT INTO tag_votes (id, tag_id, user_id, vote_type, created_at) VALUES (?, ?, ?, ?, ?)`,
				vote.ID, vote.TagID, vote.UserID, *stored, formatTime(vote.CreatedAt))
		case domain.VoteRemoved:
			_, err = tx.ExecContext(ctx, `DELETE FROM tag_votes WHERE id = ?`, existingID)
		case domain.VoteChanged:
			_, err = tx.ExecContext(ctx, `UPDATE tag_votes SET vote_type = ? WHERE id = ?`, *stored, existingID)
		}
		if err != nil {
			return mapError(err)
		}

		// Atomic counter adjustment
		if _, err := tx.ExecContext(ctx, `UPDATE tags SET votes = votes + ? WHERE id = ?`, delta, vote.TagID); err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx, `SELECT votes FROM tags WHERE id = ?`, vote.TagID).Scan(&result.Votes); err != nil {
			return err
		}
		result.Outcome = outcome
		result.UserVote = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *SQLiteRepository) GetUserVote(ctx context.Context, tagID, userID string) (*int, error) {
	var voteType int
	err := r.db.QueryRowContext(ctx,
		`SELECT vote_type FROM tag_votes WHERE tag_id = ? AND user_id = ?`, tagID, userID,
	).Scan(&voteType)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &voteType, nil
}

func (r *SQLiteRepository) ListUserVotes(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tag_id, vote_type FROM tag_votes WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := make(map[string]int)
	for rows.Next() {
		var (
			tagID    string
			voteType int
		)
		if err := rows.Scan(&tagID, &voteType); err != nil {
			return nil, err
		}
		votes[tagID] = voteType
	}
	return votes, rows.Err()
}

// RecountVotes recomputes every tally from the ledger and returns how many
// tags were corrected.
func (r *SQLiteRepository) RecountVotes(ctx context.Context) (int64, error) {
	var fixed int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE tags SET votes = (
				SELECT COALESCE(SUM(v.vote_type), 0) FROM tag_votes v WHERE v.tag_id = tags.id
			)
			WHERE votes != (
				SELECT COALESCE(SUM(v.vote_type), 0) FROM tag_votes v WHERE v.tag_id = tags.id
			)`)
		if err != nil {
			return err
		}
		fixed, err = res.RowsAffected()
		return err
	})
	return fixed, err
}
