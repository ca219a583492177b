package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/chatter/internal/chatter"
)

var t0 = time.Date(2025, time.April, 23, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) Repo {
	t.Helper()

	dbx, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "chatter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbx.Close() })

	require.NoError(t, RunMigrations(dbx))

	return New(dbx)
}

// setClock pins the repo's clock at t0 plus the given offset.
func setClock(t *testing.T, offset time.Duration) {
	t.Helper()

	prev := now
	now = func() time.Time { return t0.Add(offset) }
	t.Cleanup(func() { now = prev })
}

func insertUser(t *testing.T, r Repo, first, last string) chatter.User {
	t.Helper()

	usr, err := r.InsertUser(context.Background(), chatter.User{
		FirstName: first,
		LastName:  last,
		Email:     first + "." + last + "@example.com",
	})
	require.NoError(t, err)

	return usr
}

func insertPost(t *testing.T, r Repo, authorID int64, title string, tags ...string) chatter.Post {
	t.Helper()

	p, err := r.InsertPost(context.Background(), chatter.Post{
		Title:    title,
		Content:  title + " content",
		Hashtags: tags,
		AuthorID: authorID,
	})
	require.NoError(t, err)

	return p
}

func TestUsers_CRUD(t *testing.T) {
	var (
		ctx = context.Background()
		r   = newTestRepo(t)
	)

	usr := insertUser(t, r, "Grace", "Hopper")
	assert.NotZero(t, usr.ID)
	assert.Equal(t, "Grace", usr.FirstName)
	assert.False(t, usr.CreatedAt.IsZero())

	_, err := r.InsertUser(ctx, chatter.User{FirstName: "Other", LastName: "Grace", Email: usr.Email})
	assert.ErrorIs(t, err, chatter.ErrConflict)

	updated, err := r.UpdateUser(ctx, usr.ID, chatter.UpdateUserArgs{LastName: "Murray"})
	require.NoError(t, err)
	assert.Equal(t, "Grace", updated.FirstName)
	assert.Equal(t, "Murray", updated.LastName)

	_, err = r.UpdateUser(ctx, 999, chatter.UpdateUserArgs{LastName: "Nobody"})
	assert.ErrorIs(t, err, chatter.ErrNotFound)

	require.NoError(t, r.DeleteUser(ctx, usr.ID))
	_, err = r.User(ctx, usr.ID)
	assert.ErrorIs(t, err, chatter.ErrNotFound)
	assert.ErrorIs(t, r.DeleteUser(ctx, usr.ID), chatter.ErrNotFound)
}

func TestUsers_NewestFirst(t *testing.T) {
	r := newTestRepo(t)

	setClock(t, 0)
	insertUser(t, r, "Old", "User")
	setClock(t, time.Hour)
	insertUser(t, r, "New", "User")

	users, err := r.Users(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "New", users[0].FirstName)
	assert.Equal(t, "Old", users[1].FirstName)

	users, err = r.Users(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Old", users[0].FirstName)
}

func TestFollows(t *testing.T) {
	var (
		ctx = context.Background()
		r   = newTestRepo(t)
		a   = insertUser(t, r, "Ada", "Lovelace")
		b   = insertUser(t, r, "Alan", "Turing")
	)

	f, err := r.InsertFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, f.FollowerID)

	_, err = r.InsertFollow(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, chatter.ErrConflict)

	_, err = r.InsertFollow(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, chatter.ErrInvalidArgument)

	following, err := r.FollowsByFollower(ctx, a.ID, nil)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "Turing", following[0].Following.LastName)

	followers, err := r.FollowsByFollowing(ctx, b.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "Lovelace", followers[0].Follower.LastName)

	edge, err := r.FollowEdge(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, r.DeleteFollow(ctx, edge.ID))

	_, err = r.FollowEdge(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, chatter.ErrNotFound)
}

func TestFollowsByFollower_Range(t *testing.T) {
	var (
		ctx = context.Background()
		r   = newTestRepo(t)
		a   = insertUser(t, r, "Ada", "Lovelace")
		b   = insertUser(t, r, "Alan", "Turing")
		c   = insertUser(t, r, "Grace", "Hopper")
	)

	setClock(t, 0)
	_, err := r.InsertFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	setClock(t, 48*time.Hour)
	_, err = r.InsertFollow(ctx, a.ID, c.ID)
	require.NoError(t, err)

	all, err := r.FollowsByFollower(ctx, a.ID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, c.ID, all[0].FollowingID, "newest first")

	inRange, err := r.FollowsByFollower(ctx, a.ID, &chatter.DateRange{Start: t0.Add(-time.Hour), End: t0.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, inRange, 1)
	assert.Equal(t, b.ID, inRange[0].FollowingID)
}

func TestPostsByAuthors(t *testing.T) {
	var (
		ctx    = context.Background()
		r      = newTestRepo(t)
		a      = insertUser(t, r, "Ada", "Lovelace")
		b      = insertUser(t, r, "Alan", "Turing")
		reader = insertUser(t, r, "Grace", "Hopper")
	)

	setClock(t, 0)
	insertPost(t, r, a.ID, "First")
	setClock(t, time.Hour)
	second := insertPost(t, r, b.ID, "Second")
	setClock(t, 2*time.Hour)
	insertPost(t, r, reader.ID, "Not in feed")

	_, err := r.Like(ctx, second.ID, reader.ID)
	require.NoError(t, err)

	posts, err := r.PostsByAuthors(ctx, []int64{a.ID, b.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "Second", posts[0].Title)
	assert.Equal(t, "Turing", posts[0].Author.LastName)
	require.Len(t, posts[0].Likes, 1)
	assert.Equal(t, reader.ID, posts[0].Likes[0].ID)
	assert.Equal(t, "First", posts[1].Title)
	assert.Empty(t, posts[1].Likes)

	page, err := r.PostsByAuthors(ctx, []int64{a.ID, b.ID}, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "First", page[0].Title)

	none, err := r.PostsByAuthors(ctx, nil, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPostsByAuthor_Range(t *testing.T) {
	var (
		ctx = context.Background()
		r   = newTestRepo(t)
		a   = insertUser(t, r, "Ada", "Lovelace")
	)

	setClock(t, -72*time.Hour)
	insertPost(t, r, a.ID, "Old")
	setClock(t, 0)
	insertPost(t, r, a.ID, "New")

	all, err := r.PostsByAuthor(ctx, a.ID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "New", all[0].Title)

	ranged, err := r.PostsByAuthor(ctx, a.ID, &chatter.DateRange{Start: t0.Add(-time.Hour), End: t0.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "New", ranged[0].Title)
}

func TestLikes(t *testing.T) {
	var (
		ctx    = context.Background()
		r      = newTestRepo(t)
		author = insertUser(t, r, "Ada", "Lovelace")
		fan    = insertUser(t, r, "Alan", "Turing")
	)

	setClock(t, 0)
	p := insertPost(t, r, author.ID, "Notes")

	setClock(t, time.Hour)
	liked, err := r.Like(ctx, p.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = r.Like(ctx, p.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, liked, "a second like is a no-op")

	users, err := r.PostLikes(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, fan.ID, users[0].ID)

	// The like moved the post's updated_at, which is what the liked query keys on
	likedPosts, err := r.PostsLikedBy(ctx, fan.ID, &chatter.DateRange{Start: t0.Add(30 * time.Minute), End: t0.Add(2 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, likedPosts, 1)
	assert.True(t, likedPosts[0].UpdatedAt.Equal(t0.Add(time.Hour)))

	require.NoError(t, r.Unlike(ctx, p.ID, fan.ID))
	likedPosts, err = r.PostsLikedBy(ctx, fan.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, likedPosts)
}

func TestPostsByHashtags(t *testing.T) {
	var (
		ctx = context.Background()
		r   = newTestRepo(t)
		a   = insertUser(t, r, "Ada", "Lovelace")
	)

	insertPost(t, r, a.ID, "Engines", "analytical", "math")
	insertPost(t, r, a.ID, "Poetry", "verse")
	insertPost(t, r, a.ID, "Untagged")

	posts, err := r.PostsByHashtags(ctx, []string{"MATH", "verse"})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "Engines", posts[0].Title)
	assert.Equal(t, chatter.Hashtags{"analytical", "math"}, posts[0].Hashtags)
	assert.Equal(t, "Poetry", posts[1].Title)

	posts, err = r.PostsByHashtags(ctx, []string{"nothing"})
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPosts_UpdateAndDelete(t *testing.T) {
	var (
		ctx = context.Background()
		r   = newTestRepo(t)
		a   = insertUser(t, r, "Ada", "Lovelace")
	)

	setClock(t, 0)
	p := insertPost(t, r, a.ID, "Draft", "wip")

	setClock(t, time.Hour)
	updated, err := r.UpdatePost(ctx, p.ID, chatter.UpdatePostArgs{Title: "Final", Hashtags: chatter.Hashtags{}})
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, "Draft content", updated.Content)
	assert.Empty(t, updated.Hashtags)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = r.InsertPost(ctx, chatter.Post{Title: "Orphan", Content: "x", AuthorID: 999})
	assert.ErrorIs(t, err, chatter.ErrNotFound)

	// Deleting the author takes their posts along
	require.NoError(t, r.DeleteUser(ctx, a.ID))
	_, err = r.Post(ctx, p.ID)
	assert.ErrorIs(t, err, chatter.ErrNotFound)
	assert.ErrorIs(t, r.DeletePost(ctx, p.ID), chatter.ErrNotFound)
}

func TestPostsByHashtags_SpecialCharacters(t *testing.T) {
	var (
		ctx = context.Background()
		r   = newTestRepo(t)
		a   = insertUser(t, r, "Ada", "Lovelace")
	)

	insertPost(t, r, a.ID, "Lab", "R&D")
	insertPost(t, r, a.ID, "Gophers", "go")
	insertPost(t, r, a.ID, "Naming", "snake_case")

	tests := []struct {
		term string
		want []string
	}{
		{term: "r&d", want: []string{"Lab"}},
		{term: "_", want: []string{"Naming"}},
		{term: "%", want: []string{}},
		{term: `"`, want: []string{}},
		{term: "[", want: []string{}},
		{term: `","`, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			posts, err := r.PostsByHashtags(ctx, []string{tt.term})
			require.NoError(t, err)

			titles := []string{}
			for _, p := range posts {
				titles = append(titles, p.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestNew_PlaceholdersFollowDriver(t *testing.T) {
	pg, err := Open(DriverPostgres, "postgres://localhost:5432/chatter")
	require.NoError(t, err)
	t.Cleanup(func() { pg.Close() })

	query, _, err := New(pg).builder.Select("id").From("users").Where("id = ?", 1).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users WHERE id = $1", query)

	query, _, err = newTestRepo(t).builder.Select("id").From("users").Where("id = ?", 1).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users WHERE id = ?", query)
}
