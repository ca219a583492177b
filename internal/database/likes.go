package database

import (
	"context"
	"fmt"

	"github.com/jdholdren/chatter/internal/chatter"
)

// Like records the like and touches the post's updated_at, which is what the
// activity timeline reads as the time of the like.
func (r Repo) Like(ctx context.Context, postID, userID int64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO post_likes (post_id, user_id) VALUES (?, ?);`), postID, userID)
	if isUniqueViolation(err) {
		return false, nil
	}
	if isForeignKeyViolation(err) {
		return false, fmt.Errorf("post %d or user %d: %w", postID, userID, chatter.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("error inserting like: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE posts SET updated_at = ? WHERE id = ?;`), now(), postID); err != nil {
		return false, fmt.Errorf("error touching post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("error committing transaction: %w", err)
	}

	return true, nil
}

func (r Repo) Unlike(ctx context.Context, postID, userID int64) error {
	q := r.db.Rebind(`DELETE FROM post_likes WHERE post_id = ? AND user_id = ?;`)
	if _, err := r.db.ExecContext(ctx, q, postID, userID); err != nil {
		return fmt.Errorf("error deleting like: %w", err)
	}

	return nil
}

// PostLikes returns the users that liked the post.
func (r Repo) PostLikes(ctx context.Context, postID int64) ([]chatter.User, error) {
	q := r.db.Rebind(`
	SELECT u.*
	FROM
		post_likes pl
		INNER JOIN users u ON u.id = pl.user_id
	WHERE pl.post_id = ?
	ORDER BY u.id;
	`)

	users := []chatter.User{}
	if err := r.db.SelectContext(ctx, &users, q, postID); err != nil {
		return nil, fmt.Errorf("error selecting post likes: %w", err)
	}

	return users, nil
}
