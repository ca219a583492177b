package chatter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultActivityPage  = 1
	DefaultActivityLimit = 10
)

type (
	// TimelineRepo is the part of the store the feed and activity reads need.
	TimelineRepo interface {
		User(ctx context.Context, id int64) (User, error)
		FollowsByFollower(ctx context.Context, userID int64, rng *DateRange) ([]Follow, error)
		PostsByAuthors(ctx context.Context, authorIDs []int64, offset, limit int) ([]Post, error)
		PostsByAuthor(ctx context.Context, userID int64, rng *DateRange) ([]Post, error)
		PostsLikedBy(ctx context.Context, userID int64, rng *DateRange) ([]Post, error)
	}

	// Service assembles feeds and activity timelines. It holds no state of its own.
	Service struct {
		repo TimelineRepo
	}

	ActivityQuery struct {
		Type  ActivityType
		Range *DateRange // Applied to all three sources when set
		Page  int
		Limit int
	}
)

func NewService(repo TimelineRepo) Service {
	return Service{repo: repo}
}

// NewDateRange only produces a range if both ends are given. A lone bound is
// dropped rather than treated as open-ended.
func NewDateRange(start, end *time.Time) *DateRange {
	if start == nil || end == nil {
		return nil
	}

	return &DateRange{Start: *start, End: *end}
}

// Feed returns the posts of everyone the user follows, newest first.
func (s Service) Feed(ctx context.Context, userID int64, offset, limit int) ([]Post, error) {
	follows, err := s.repo.FollowsByFollower(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching follows: %w", err)
	}
	if len(follows) == 0 {
		return []Post{}, nil
	}

	followingIDs := make([]int64, 0, len(follows))
	for _, f := range follows {
		followingIDs = append(followingIDs, f.FollowingID)
	}

	posts, err := s.repo.PostsByAuthors(ctx, followingIDs, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error fetching feed posts: %w", err)
	}

	return posts, nil
}

// UserActivity merges the posts a user wrote, the posts they liked and the
// users they followed into one timeline.
//
// The sources are fetched concurrently and the first failure fails the whole
// call. Sources excluded by the type filter aren't fetched at all.
func (s Service) UserActivity(ctx context.Context, userID int64, q ActivityQuery) (ActivityPage, error) {
	if q.Page == 0 {
		q.Page = DefaultActivityPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultActivityLimit
	}

	if _, err := s.repo.User(ctx, userID); err != nil {
		return ActivityPage{}, err
	}

	var (
		posts, liked []Post
		follows      []Follow
	)
	g, gCtx := errgroup.WithContext(ctx)
	if q.Type.includes(ActivityPost) {
		g.Go(func() (err error) {
			posts, err = s.repo.PostsByAuthor(gCtx, userID, q.Range)
			if err != nil {
				return fmt.Errorf("error fetching authored posts: %w", err)
			}
			return nil
		})
	}
	if q.Type.includes(ActivityLike) {
		g.Go(func() (err error) {
			liked, err = s.repo.PostsLikedBy(gCtx, userID, q.Range)
			if err != nil {
				return fmt.Errorf("error fetching liked posts: %w", err)
			}
			return nil
		})
	}
	if q.Type.includes(ActivityFollow) {
		g.Go(func() (err error) {
			follows, err = s.repo.FollowsByFollower(gCtx, userID, q.Range)
			if err != nil {
				return fmt.Errorf("error fetching follows: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ActivityPage{}, err
	}

	slog.DebugContext(ctx, "fetched activity sources",
		"user_id", userID,
		"posts", len(posts),
		"likes", len(liked),
		"follows", len(follows),
	)

	return MergeActivities(posts, liked, follows, q.Type, q.Page, q.Limit), nil
}
