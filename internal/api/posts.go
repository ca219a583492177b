package api

import (
	"html"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	goaway "github.com/TwiN/go-away"
	"github.com/gorilla/mux"

	"github.com/jdholdren/chatter/internal/chatter"
	chaterrs "github.com/jdholdren/chatter/internal/errors"
	"github.com/jdholdren/chatter/internal/events"
	"github.com/jdholdren/chatter/internal/serverutil"
)

const maxTitleLength = 255

type (
	PostResp struct {
		ID        int64          `json:"id"`
		Title     string         `json:"title"`
		Content   string         `json:"content"`
		Hashtags  []string       `json:"hashtags"`
		Author    chatter.User   `json:"author"`
		Likes     []chatter.User `json:"likes"`
		CreatedAt time.Time      `json:"created_at"`
		UpdatedAt time.Time      `json:"updated_at"`
	}

	createPostReq struct {
		Title    string   `json:"title"`
		Content  string   `json:"content"`
		Hashtags []string `json:"hashtags"`
		AuthorID int64    `json:"author_id"`
	}

	// Blank fields are left alone. Hashtags are replaced when present, even if empty.
	updatePostReq struct {
		Title    string   `json:"title"`
		Content  string   `json:"content"`
		Hashtags []string `json:"hashtags"`
	}

	likeReq struct {
		UserID int64 `json:"user_id"`
	}
)

func (c createPostReq) Validate() error {
	var details []chaterrs.Detail
	if strings.TrimSpace(c.Title) == "" {
		details = append(details, chaterrs.Detail{Field: "title", Error: "is required"})
	}
	if utf8.RuneCountInString(c.Title) > maxTitleLength {
		details = append(details, chaterrs.Detail{Field: "title", Error: "must be at most 255 characters"})
	}
	if strings.TrimSpace(c.Content) == "" {
		details = append(details, chaterrs.Detail{Field: "content", Error: "is required"})
	}
	if c.AuthorID <= 0 {
		details = append(details, chaterrs.Detail{Field: "author_id", Error: "is required"})
	}
	if len(details) > 0 {
		return chaterrs.E(http.StatusBadRequest, "invalid post", details)
	}

	return nil
}

func (u updatePostReq) Validate() error {
	if utf8.RuneCountInString(u.Title) > maxTitleLength {
		return chaterrs.E(http.StatusBadRequest, "invalid post", chaterrs.Detail{Field: "title", Error: "must be at most 255 characters"})
	}
	return nil
}

func (l likeReq) Validate() error {
	if l.UserID <= 0 {
		return chaterrs.E(http.StatusBadRequest, "Invalid user ID")
	}
	return nil
}

func toPostResp(p chatter.Post) PostResp {
	resp := PostResp{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Hashtags:  []string(p.Hashtags),
		Author:    p.Author,
		Likes:     p.Likes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if resp.Hashtags == nil {
		resp.Hashtags = []string{}
	}
	if resp.Likes == nil {
		resp.Likes = []chatter.User{}
	}

	return resp
}

func toPostResps(posts []chatter.Post) []PostResp {
	resps := make([]PostResp, 0, len(posts))
	for _, p := range posts {
		resps = append(resps, toPostResp(p))
	}
	return resps
}

// clean strips any markup and surrounding whitespace from user-supplied text.
// The sanitizer escapes what's left, which plain text doesn't want.
func (s *Server) clean(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(text)))
}

// Profanity is rejected outright rather than filtered.
func checkProfanity(texts ...string) error {
	for _, t := range texts {
		if goaway.IsProfane(t) {
			return chaterrs.E("profanity detected in post", http.StatusUnprocessableEntity)
		}
	}
	return nil
}

func (s *Server) getPosts(w http.ResponseWriter, r *http.Request) error {
	limit, offset := parsePaginationParams(r, defaultLimit, maxLimit)

	posts, err := s.repo.Posts(r.Context(), offset, limit)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		return chaterrs.E(http.StatusNotFound, "No posts found")
	}

	return serverutil.WriteJSON(w, http.StatusOK, toPostResps(posts))
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "Invalid post ID")
	if err != nil {
		return err
	}

	p, err := s.repo.Post(r.Context(), id)
	if err != nil {
		return storeErr(err, "Post not found")
	}

	return serverutil.WriteJSON(w, http.StatusOK, toPostResp(p))
}

func (s *Server) postPost(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	req, err := serverutil.DecodeValid[createPostReq](r.Body)
	if err != nil {
		return err
	}

	title, content := s.clean(req.Title), s.clean(req.Content)
	if title == "" || content == "" {
		return chaterrs.E(http.StatusBadRequest, "title and content can't be only markup")
	}
	tags := chatter.ParseHashtags(s.clean(strings.Join(req.Hashtags, ",")))
	if err := checkProfanity(append([]string{title, content}, tags...)...); err != nil {
		return err
	}

	p, err := s.repo.InsertPost(ctx, chatter.Post{
		Title:    title,
		Content:  content,
		Hashtags: tags,
		AuthorID: req.AuthorID,
	})
	if err != nil {
		return storeErr(err, "Author not found")
	}

	events.Emit(ctx, s.events, events.PostCreated(p.AuthorID, p.ID, p.CreatedAt))

	return serverutil.WriteJSON(w, http.StatusCreated, toPostResp(p))
}

func (s *Server) putPost(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "Invalid post ID")
	if err != nil {
		return err
	}
	req, err := serverutil.DecodeValid[updatePostReq](r.Body)
	if err != nil {
		return err
	}

	args := chatter.UpdatePostArgs{
		Title:   s.clean(req.Title),
		Content: s.clean(req.Content),
	}
	if req.Hashtags != nil {
		args.Hashtags = chatter.ParseHashtags(s.clean(strings.Join(req.Hashtags, ",")))
		if args.Hashtags == nil {
			args.Hashtags = chatter.Hashtags{}
		}
	}
	if err := checkProfanity(append([]string{args.Title, args.Content}, args.Hashtags...)...); err != nil {
		return err
	}

	p, err := s.repo.UpdatePost(r.Context(), id, args)
	if err != nil {
		return storeErr(err, "Post not found")
	}

	return serverutil.WriteJSON(w, http.StatusOK, toPostResp(p))
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "Invalid post ID")
	if err != nil {
		return err
	}

	if err := s.repo.DeletePost(r.Context(), id); err != nil {
		return storeErr(err, "Post not found")
	}

	return serverutil.WriteJSON(w, http.StatusOK, messageResp{Message: "Post deleted successfully"})
}

// Checks that both sides of a like exist, so each can get its own 404.
func (s *Server) likeParties(r *http.Request) (int64, int64, error) {
	postID, err := pathID(r, "Invalid post ID")
	if err != nil {
		return 0, 0, err
	}
	if _, err := s.repo.Post(r.Context(), postID); err != nil {
		return 0, 0, storeErr(err, "Post not found")
	}

	req, err := serverutil.DecodeValid[likeReq](r.Body)
	if err != nil {
		return 0, 0, err
	}
	if _, err := s.repo.User(r.Context(), req.UserID); err != nil {
		return 0, 0, storeErr(err, "User not found")
	}

	return postID, req.UserID, nil
}

func (s *Server) postLike(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	postID, userID, err := s.likeParties(r)
	if err != nil {
		return err
	}

	liked, err := s.repo.Like(ctx, postID, userID)
	if err != nil {
		return storeErr(err, "Post not found")
	}
	if !liked {
		return serverutil.WriteJSON(w, http.StatusOK, messageResp{Message: "Post already liked"})
	}

	p, err := s.repo.Post(ctx, postID)
	if err != nil {
		return storeErr(err, "Post not found")
	}

	events.Emit(ctx, s.events, events.PostLiked(userID, postID, p.UpdatedAt))

	return serverutil.WriteJSON(w, http.StatusOK, toPostResp(p))
}

func (s *Server) postUnlike(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	postID, userID, err := s.likeParties(r)
	if err != nil {
		return err
	}

	if err := s.repo.Unlike(ctx, postID, userID); err != nil {
		return err
	}

	p, err := s.repo.Post(ctx, postID)
	if err != nil {
		return storeErr(err, "Post not found")
	}

	return serverutil.WriteJSON(w, http.StatusOK, toPostResp(p))
}

func (s *Server) getPostLikes(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "Invalid post ID")
	if err != nil {
		return err
	}
	if _, err := s.repo.Post(r.Context(), id); err != nil {
		return storeErr(err, "Post not found")
	}

	users, err := s.repo.PostLikes(r.Context(), id)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, users)
}

func (s *Server) getPostsByHashtags(w http.ResponseWriter, r *http.Request) error {
	tags := chatter.ParseHashtags(mux.Vars(r)["tags"])
	if len(tags) == 0 {
		return chaterrs.E(http.StatusBadRequest, "No hashtags provided")
	}

	posts, err := s.repo.PostsByHashtags(r.Context(), tags)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		return chaterrs.E(http.StatusNotFound, "No posts found with the given hashtags")
	}

	return serverutil.WriteJSON(w, http.StatusOK, toPostResps(posts))
}
