// Package chatter holds the domain types of the social backend and the two
// read paths that do more than a single lookup: the feed and the activity
// timeline.
package chatter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrConflict        = errors.New("resource already exists")
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

type (
	User struct {
		ID        int64     `db:"id" json:"id"`
		FirstName string    `db:"first_name" json:"first_name"`
		LastName  string    `db:"last_name" json:"last_name"`
		Email     string    `db:"email" json:"email"`
		CreatedAt time.Time `db:"created_at" json:"created_at"`
		UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	}

	// Post is a user's post along with its author and the users that liked it.
	//
	// Author and Likes are only populated by the queries that say they do.
	Post struct {
		ID        int64     `db:"id"`
		Title     string    `db:"title"`
		Content   string    `db:"content"`
		Hashtags  Hashtags  `db:"hashtags"`
		AuthorID  int64     `db:"author_id"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`

		Author User   `db:"author"`
		Likes  []User `db:"-"`
	}

	// Follow is a directed edge: Follower receives Following's posts.
	Follow struct {
		ID          int64     `db:"id"`
		FollowerID  int64     `db:"follower_id"`
		FollowingID int64     `db:"following_id"`
		CreatedAt   time.Time `db:"created_at"`

		// The user on the other end of the edge, depending on which side was queried.
		Follower  User `db:"follower"`
		Following User `db:"following"`
	}

	// DateRange bounds a query on both ends. Both ends are inclusive.
	DateRange struct {
		Start time.Time
		End   time.Time
	}

	// Holds the optional fields for updating a user.
	UpdateUserArgs struct {
		FirstName string
		LastName  string
		Email     string
	}

	// Holds the optional fields for updating a post. A nil Hashtags leaves them untouched.
	UpdatePostArgs struct {
		Title    string
		Content  string
		Hashtags Hashtags
	}
)

type (
	UserRepo interface {
		User(ctx context.Context, id int64) (User, error)
		Users(ctx context.Context, offset, limit int) ([]User, error)
		InsertUser(ctx context.Context, usr User) (User, error)
		UpdateUser(ctx context.Context, id int64, args UpdateUserArgs) (User, error)
		DeleteUser(ctx context.Context, id int64) error
	}

	PostRepo interface {
		Post(ctx context.Context, id int64) (Post, error)
		Posts(ctx context.Context, offset, limit int) ([]Post, error)
		InsertPost(ctx context.Context, p Post) (Post, error)
		UpdatePost(ctx context.Context, id int64, args UpdatePostArgs) (Post, error)
		DeletePost(ctx context.Context, id int64) error
		PostsByHashtags(ctx context.Context, tags []string) ([]Post, error)

		// Posts authored by any of the given users, newest first, with author and likes.
		PostsByAuthors(ctx context.Context, authorIDs []int64, offset, limit int) ([]Post, error)
		// Posts authored by the user, newest first. A nil range means no bound.
		PostsByAuthor(ctx context.Context, userID int64, rng *DateRange) ([]Post, error)
		// Posts the user has liked, most recently updated first.
		PostsLikedBy(ctx context.Context, userID int64, rng *DateRange) ([]Post, error)
	}

	LikeRepo interface {
		// Like reports false if the user already liked the post.
		Like(ctx context.Context, postID, userID int64) (bool, error)
		Unlike(ctx context.Context, postID, userID int64) error
		PostLikes(ctx context.Context, postID int64) ([]User, error)
	}

	FollowRepo interface {
		InsertFollow(ctx context.Context, followerID, followingID int64) (Follow, error)
		FollowEdge(ctx context.Context, followerID, followingID int64) (Follow, error)
		DeleteFollow(ctx context.Context, id int64) error
		// Edges where the user is the follower, newest first, with Following populated.
		FollowsByFollower(ctx context.Context, userID int64, rng *DateRange) ([]Follow, error)
		// Edges where the user is followed, newest first, with Follower populated.
		FollowsByFollowing(ctx context.Context, userID int64, offset, limit int) ([]Follow, error)
	}

	// Repository is everything the store provides.
	Repository interface {
		UserRepo
		PostRepo
		LikeRepo
		FollowRepo
	}
)

// ParseID parses a path or body identifier.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrInvalidArgument, s)
	}

	return id, nil
}
