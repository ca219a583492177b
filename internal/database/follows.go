package database

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/jdholdren/chatter/internal/chatter"
)

// Columns for a follow edge with the user on the given side joined in as u.
func followColumns(side string) []string {
	return []string{
		"f.id",
		"f.follower_id",
		"f.following_id",
		"f.created_at",
		fmt.Sprintf(`u.id AS "%s.id"`, side),
		fmt.Sprintf(`u.first_name AS "%s.first_name"`, side),
		fmt.Sprintf(`u.last_name AS "%s.last_name"`, side),
		fmt.Sprintf(`u.email AS "%s.email"`, side),
		fmt.Sprintf(`u.created_at AS "%s.created_at"`, side),
		fmt.Sprintf(`u.updated_at AS "%s.updated_at"`, side),
	}
}

func (r Repo) queryFollows(ctx context.Context, q sq.SelectBuilder) ([]chatter.Follow, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %w", err)
	}

	follows := []chatter.Follow{}
	if err := r.db.SelectContext(ctx, &follows, query, args...); err != nil {
		return nil, fmt.Errorf("error selecting follows: %w", err)
	}

	return follows, nil
}

func (r Repo) InsertFollow(ctx context.Context, followerID, followingID int64) (chatter.Follow, error) {
	f := chatter.Follow{
		FollowerID:  followerID,
		FollowingID: followingID,
		CreatedAt:   now(),
	}

	query, args, err := r.builder.Insert("follows").
		Columns("follower_id", "following_id", "created_at").
		Values(f.FollowerID, f.FollowingID, f.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return chatter.Follow{}, fmt.Errorf("error constructing sql: %w", err)
	}

	err = r.db.QueryRowxContext(ctx, query, args...).Scan(&f.ID)
	switch {
	case isUniqueViolation(err):
		return chatter.Follow{}, fmt.Errorf("already following: %w", chatter.ErrConflict)
	case isCheckViolation(err):
		return chatter.Follow{}, fmt.Errorf("can't follow yourself: %w", chatter.ErrInvalidArgument)
	case isForeignKeyViolation(err):
		return chatter.Follow{}, fmt.Errorf("follow between %d and %d: %w", followerID, followingID, chatter.ErrNotFound)
	case err != nil:
		return chatter.Follow{}, fmt.Errorf("error inserting follow: %w", err)
	}

	return f, nil
}

func (r Repo) FollowEdge(ctx context.Context, followerID, followingID int64) (chatter.Follow, error) {
	q := r.builder.Select(followColumns("following")...).
		From("follows f").
		Join("users u ON u.id = f.following_id").
		Where(sq.Eq{"f.follower_id": followerID, "f.following_id": followingID})

	follows, err := r.queryFollows(ctx, q)
	if err != nil {
		return chatter.Follow{}, err
	}
	if len(follows) == 0 {
		return chatter.Follow{}, fmt.Errorf("follow from %d to %d: %w", followerID, followingID, chatter.ErrNotFound)
	}

	return follows[0], nil
}

func (r Repo) DeleteFollow(ctx context.Context, id int64) error {
	q := r.db.Rebind(`DELETE FROM follows WHERE id = ?;`)

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("error deleting follow: %w", err)
	}

	return affectedOne(res, "follow", id)
}

func (r Repo) FollowsByFollower(ctx context.Context, userID int64, rng *chatter.DateRange) ([]chatter.Follow, error) {
	q := r.builder.Select(followColumns("following")...).
		From("follows f").
		Join("users u ON u.id = f.following_id").
		Where(sq.Eq{"f.follower_id": userID}).
		OrderBy("f.created_at DESC", "f.id DESC")
	if rng != nil {
		q = q.Where("f.created_at BETWEEN ? AND ?", rng.Start.UTC(), rng.End.UTC())
	}

	return r.queryFollows(ctx, q)
}

func (r Repo) FollowsByFollowing(ctx context.Context, userID int64, offset, limit int) ([]chatter.Follow, error) {
	q := r.builder.Select(followColumns("follower")...).
		From("follows f").
		Join("users u ON u.id = f.follower_id").
		Where(sq.Eq{"f.following_id": userID}).
		OrderBy("f.created_at DESC", "f.id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	return r.queryFollows(ctx, q)
}
