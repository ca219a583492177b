package database

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/jdholdren/chatter/internal/chatter"
)

var postColumns = []string{
	"p.id",
	"p.title",
	"p.content",
	"p.hashtags",
	"p.author_id",
	"p.created_at",
	"p.updated_at",
	`u.id AS "author.id"`,
	`u.first_name AS "author.first_name"`,
	`u.last_name AS "author.last_name"`,
	`u.email AS "author.email"`,
	`u.created_at AS "author.created_at"`,
	`u.updated_at AS "author.updated_at"`,
}

// Every post query starts here so the author comes along.
func (r Repo) selectPosts() sq.SelectBuilder {
	return r.builder.Select(postColumns...).From("posts p").Join("users u ON u.id = p.author_id")
}

func (r Repo) queryPosts(ctx context.Context, q sq.SelectBuilder, withLikes bool) ([]chatter.Post, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %w", err)
	}

	posts := []chatter.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("error selecting posts: %w", err)
	}

	if withLikes {
		if err := r.attachLikes(ctx, posts); err != nil {
			return nil, err
		}
	}

	return posts, nil
}

// Fills in the liking users of each post with a single query.
func (r Repo) attachLikes(ctx context.Context, posts []chatter.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(posts))
	for i := range posts {
		ids = append(ids, posts[i].ID)
		posts[i].Likes = []chatter.User{}
	}

	query, args, err := r.builder.Select("pl.post_id", "u.*").
		From("post_likes pl").
		Join("users u ON u.id = pl.user_id").
		Where(sq.Eq{"pl.post_id": ids}).
		OrderBy("u.id").
		ToSql()
	if err != nil {
		return fmt.Errorf("error constructing sql: %w", err)
	}

	var likes []struct {
		PostID int64 `db:"post_id"`
		chatter.User
	}
	if err := r.db.SelectContext(ctx, &likes, query, args...); err != nil {
		return fmt.Errorf("error selecting likes: %w", err)
	}

	byPost := make(map[int64][]chatter.User, len(posts))
	for _, l := range likes {
		byPost[l.PostID] = append(byPost[l.PostID], l.User)
	}
	for i := range posts {
		if users, ok := byPost[posts[i].ID]; ok {
			posts[i].Likes = users
		}
	}

	return nil
}

func (r Repo) Post(ctx context.Context, id int64) (chatter.Post, error) {
	posts, err := r.queryPosts(ctx, r.selectPosts().Where(sq.Eq{"p.id": id}), true)
	if err != nil {
		return chatter.Post{}, err
	}
	if len(posts) == 0 {
		return chatter.Post{}, fmt.Errorf("post %d: %w", id, chatter.ErrNotFound)
	}

	return posts[0], nil
}

// Posts returns a page of all posts in the order they were created.
func (r Repo) Posts(ctx context.Context, offset, limit int) ([]chatter.Post, error) {
	q := r.selectPosts().OrderBy("p.id").Limit(uint64(limit)).Offset(uint64(offset))
	return r.queryPosts(ctx, q, true)
}

func (r Repo) InsertPost(ctx context.Context, p chatter.Post) (chatter.Post, error) {
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	if p.Hashtags == nil {
		p.Hashtags = chatter.Hashtags{}
	}

	query, args, err := r.builder.Insert("posts").
		Columns("title", "content", "hashtags", "author_id", "created_at", "updated_at").
		Values(p.Title, p.Content, p.Hashtags, p.AuthorID, p.CreatedAt, p.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return chatter.Post{}, fmt.Errorf("error constructing sql: %w", err)
	}

	err = r.db.QueryRowxContext(ctx, query, args...).Scan(&p.ID)
	if isForeignKeyViolation(err) {
		return chatter.Post{}, fmt.Errorf("author %d: %w", p.AuthorID, chatter.ErrNotFound)
	}
	if err != nil {
		return chatter.Post{}, fmt.Errorf("error inserting post: %w", err)
	}

	return r.Post(ctx, p.ID)
}

func (r Repo) UpdatePost(ctx context.Context, id int64, args chatter.UpdatePostArgs) (chatter.Post, error) {
	q := r.builder.Update("posts").Set("updated_at", now())
	if args.Title != "" {
		q = q.Set("title", args.Title)
	}
	if args.Content != "" {
		q = q.Set("content", args.Content)
	}
	if args.Hashtags != nil {
		q = q.Set("hashtags", args.Hashtags)
	}

	query, qArgs, err := q.Where("id = ?", id).ToSql()
	if err != nil {
		return chatter.Post{}, fmt.Errorf("error constructing sql: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, qArgs...)
	if err != nil {
		return chatter.Post{}, fmt.Errorf("error updating post: %w", err)
	}
	if err := affectedOne(res, "post", id); err != nil {
		return chatter.Post{}, err
	}

	return r.Post(ctx, id)
}

func (r Repo) DeletePost(ctx context.Context, id int64) error {
	q := r.db.Rebind(`DELETE FROM posts WHERE id = ?;`)

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("error deleting post: %w", err)
	}

	return affectedOne(res, "post", id)
}

// PostsByHashtags finds posts with a tag containing any of the given strings,
// ignoring case.
//
// The LIKE over the encoded column only narrows the candidates, since it can
// also match the JSON around the tags. Candidates are checked against the
// decoded tags before the likes are loaded.
func (r Repo) PostsByHashtags(ctx context.Context, tags []string) ([]chatter.Post, error) {
	if len(tags) == 0 {
		return []chatter.Post{}, nil
	}

	or := sq.Or{}
	for _, tag := range tags {
		pattern, err := tagPattern(tag)
		if err != nil {
			return nil, err
		}
		or = append(or, sq.Expr(`LOWER(p.hashtags) LIKE LOWER(?) ESCAPE '\'`, pattern))
	}

	candidates, err := r.queryPosts(ctx, r.selectPosts().Where(or).OrderBy("p.id"), false)
	if err != nil {
		return nil, err
	}

	posts := []chatter.Post{}
	for _, p := range candidates {
		for _, tag := range tags {
			if p.Hashtags.Contains(tag) {
				posts = append(posts, p)
				break
			}
		}
	}
	if err := r.attachLikes(ctx, posts); err != nil {
		return nil, err
	}

	return posts, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// tagPattern is a LIKE pattern matching the tag as it's written inside the
// stored JSON array.
func tagPattern(tag string) (string, error) {
	v, err := chatter.Hashtags{tag}.Value()
	if err != nil {
		return "", err
	}

	// Drop the [" and "] around the single encoded tag
	encoded := v.(string)
	encoded = encoded[2 : len(encoded)-2]

	return "%" + likeEscaper.Replace(encoded) + "%", nil
}

func (r Repo) PostsByAuthors(ctx context.Context, authorIDs []int64, offset, limit int) ([]chatter.Post, error) {
	if len(authorIDs) == 0 {
		return []chatter.Post{}, nil
	}

	q := r.selectPosts().
		Where(sq.Eq{"p.author_id": authorIDs}).
		OrderBy("p.created_at DESC", "p.id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	return r.queryPosts(ctx, q, true)
}

func (r Repo) PostsByAuthor(ctx context.Context, userID int64, rng *chatter.DateRange) ([]chatter.Post, error) {
	q := r.selectPosts().Where(sq.Eq{"p.author_id": userID}).OrderBy("p.created_at DESC", "p.id DESC")
	if rng != nil {
		q = q.Where("p.created_at BETWEEN ? AND ?", rng.Start.UTC(), rng.End.UTC())
	}

	return r.queryPosts(ctx, q, false)
}

func (r Repo) PostsLikedBy(ctx context.Context, userID int64, rng *chatter.DateRange) ([]chatter.Post, error) {
	q := r.selectPosts().
		Join("post_likes pl ON pl.post_id = p.id").
		Where(sq.Eq{"pl.user_id": userID}).
		OrderBy("p.updated_at DESC", "p.id DESC")
	if rng != nil {
		q = q.Where("p.updated_at BETWEEN ? AND ?", rng.Start.UTC(), rng.End.UTC())
	}

	return r.queryPosts(ctx, q, false)
}
