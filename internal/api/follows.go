package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/jdholdren/chatter/internal/chatter"
	chaterrs "github.com/jdholdren/chatter/internal/errors"
	"github.com/jdholdren/chatter/internal/events"
	"github.com/jdholdren/chatter/internal/serverutil"
)

type (
	followReq struct {
		UserToFollowID int64 `json:"user_to_follow_id"`
	}

	unfollowReq struct {
		UserToUnfollowID int64 `json:"user_to_unfollow_id"`
	}

	// One side of a follow edge, as listed under a user.
	followEntry struct {
		ID         int64     `json:"id"`
		FirstName  string    `json:"first_name"`
		LastName   string    `json:"last_name"`
		FollowedAt time.Time `json:"followed_at"`
	}

	followListResp struct {
		Count int           `json:"count"`
		Data  []followEntry `json:"data"`
	}
)

func (f followReq) Validate() error {
	if f.UserToFollowID <= 0 {
		return chaterrs.E(http.StatusBadRequest, "Invalid user ID")
	}
	return nil
}

func (u unfollowReq) Validate() error {
	if u.UserToUnfollowID <= 0 {
		return chaterrs.E(http.StatusBadRequest, "Invalid user ID")
	}
	return nil
}

func (s *Server) postFollow(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	followerID, err := pathID(r, "Invalid user ID")
	if err != nil {
		return err
	}
	req, err := serverutil.DecodeValid[followReq](r.Body)
	if err != nil {
		return err
	}
	if req.UserToFollowID == followerID {
		return chaterrs.E(http.StatusBadRequest, "You can't follow yourself")
	}

	for _, id := range []int64{followerID, req.UserToFollowID} {
		if _, err := s.repo.User(ctx, id); err != nil {
			return storeErr(err, "User not found")
		}
	}

	f, err := s.repo.InsertFollow(ctx, followerID, req.UserToFollowID)
	if errors.Is(err, chatter.ErrConflict) {
		return chaterrs.E(err, "Already following this user", http.StatusBadRequest)
	}
	if err != nil {
		return storeErr(err, "User not found")
	}

	events.Emit(ctx, s.events, events.UserFollowed(f.FollowerID, f.FollowingID, f.CreatedAt))

	return serverutil.WriteJSON(w, http.StatusOK, messageResp{Message: "User followed successfully"})
}

func (s *Server) postUnfollow(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	followerID, err := pathID(r, "Invalid user ID")
	if err != nil {
		return err
	}
	req, err := serverutil.DecodeValid[unfollowReq](r.Body)
	if err != nil {
		return err
	}
	if req.UserToUnfollowID == followerID {
		return chaterrs.E(http.StatusBadRequest, "You can't unfollow yourself")
	}

	edge, err := s.repo.FollowEdge(ctx, followerID, req.UserToUnfollowID)
	if err != nil {
		return storeErr(err, "Follow relation not found")
	}
	if err := s.repo.DeleteFollow(ctx, edge.ID); err != nil {
		return storeErr(err, "Follow relation not found")
	}

	return serverutil.WriteJSON(w, http.StatusOK, messageResp{Message: "User unfollowed successfully"})
}

func (s *Server) getFollowers(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "Invalid user ID")
	if err != nil {
		return err
	}
	limit, offset := parsePaginationParams(r, defaultLimit, maxLimit)

	follows, err := s.repo.FollowsByFollowing(r.Context(), id, offset, limit)
	if err != nil {
		return err
	}

	data := make([]followEntry, 0, len(follows))
	for _, f := range follows {
		data = append(data, followEntry{
			ID:         f.Follower.ID,
			FirstName:  f.Follower.FirstName,
			LastName:   f.Follower.LastName,
			FollowedAt: f.CreatedAt,
		})
	}

	return serverutil.WriteJSON(w, http.StatusOK, followListResp{Count: len(data), Data: data})
}

func (s *Server) getFollowing(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "Invalid user ID")
	if err != nil {
		return err
	}

	follows, err := s.repo.FollowsByFollower(r.Context(), id, nil)
	if err != nil {
		return err
	}

	data := make([]followEntry, 0, len(follows))
	for _, f := range follows {
		data = append(data, followEntry{
			ID:         f.Following.ID,
			FirstName:  f.Following.FirstName,
			LastName:   f.Following.LastName,
			FollowedAt: f.CreatedAt,
		})
	}

	return serverutil.WriteJSON(w, http.StatusOK, followListResp{Count: len(data), Data: data})
}
