package api

import (
	"net/http"

	"github.com/jdholdren/chatter/internal/chatter"
	"github.com/jdholdren/chatter/internal/serverutil"
)

func (s *Server) getFeed(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "Invalid user ID")
	if err != nil {
		return err
	}
	limit, offset := parsePaginationParams(r, defaultLimit, maxLimit)

	posts, err := s.timeline.Feed(r.Context(), id, offset, limit)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, toPostResps(posts))
}

// getUserActivity serves the merged timeline of a user's posts, likes and
// follows. Unlike the other listings, bad paging is rejected rather than
// defaulted.
func (s *Server) getUserActivity(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "Invalid user ID")
	if err != nil {
		return err
	}

	page, err := positiveParam(r, "page")
	if err != nil {
		return err
	}
	limit, err := positiveParam(r, "limit")
	if err != nil {
		return err
	}
	start, err := dateParam(r, "startDate", false)
	if err != nil {
		return err
	}
	end, err := dateParam(r, "endDate", true)
	if err != nil {
		return err
	}

	activity, err := s.timeline.UserActivity(r.Context(), id, chatter.ActivityQuery{
		Type:  chatter.ActivityType(r.URL.Query().Get("type")),
		Range: chatter.NewDateRange(start, end),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return storeErr(err, "User not found")
	}

	return serverutil.WriteJSON(w, http.StatusOK, activity)
}
