package chatter

import (
	"fmt"
	"slices"
	"time"
)

type ActivityType string

const (
	ActivityPost   ActivityType = "post"
	ActivityLike   ActivityType = "like"
	ActivityFollow ActivityType = "follow"
)

// Activity is one display-ready thing a user did. It's only ever built by
// [PostCreated], [PostLiked] or [UserFollowed].
type Activity struct {
	Type      ActivityType `json:"type"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
}

func PostCreated(p Post) Activity {
	return Activity{
		Type:      ActivityPost,
		Message:   fmt.Sprintf("Created post: %s", p.Title),
		Timestamp: p.CreatedAt,
	}
}

// PostLiked uses the post's update time since likes aren't timestamped.
func PostLiked(p Post) Activity {
	return Activity{
		Type:      ActivityLike,
		Message:   fmt.Sprintf("Liked post: %s", p.Title),
		Timestamp: p.UpdatedAt,
	}
}

func UserFollowed(f Follow) Activity {
	return Activity{
		Type:      ActivityFollow,
		Message:   fmt.Sprintf("Followed user: %s %s", f.Following.FirstName, f.Following.LastName),
		Timestamp: f.CreatedAt,
	}
}

// ActivityPage is a window onto a user's merged activity.
type ActivityPage struct {
	// Size of the whole merged set, not of this page.
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
	Data  []Activity `json:"data"`
}

// includes reports if activities of type want survive the filter. An empty
// filter lets everything through.
func (filter ActivityType) includes(want ActivityType) bool {
	return filter == "" || filter == want
}

// MergeActivities normalizes the three sources, orders them newest first and
// cuts out the requested page. Equal timestamps keep the post, like, follow
// order.
func MergeActivities(posts, liked []Post, follows []Follow, filter ActivityType, page, limit int) ActivityPage {
	activities := make([]Activity, 0, len(posts)+len(liked)+len(follows))
	if filter.includes(ActivityPost) {
		for _, p := range posts {
			activities = append(activities, PostCreated(p))
		}
	}
	if filter.includes(ActivityLike) {
		for _, p := range liked {
			activities = append(activities, PostLiked(p))
		}
	}
	if filter.includes(ActivityFollow) {
		for _, f := range follows {
			activities = append(activities, UserFollowed(f))
		}
	}

	slices.SortStableFunc(activities, func(a, b Activity) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	// Checked before multiplying so that a huge page can't wrap around
	skip := 0
	if page > 1 && limit > 0 {
		skip = len(activities)
		if page-1 <= len(activities)/limit {
			skip = min((page-1)*limit, len(activities))
		}
	}
	end := skip + min(max(limit, 0), len(activities)-skip)

	return ActivityPage{
		Total: len(activities),
		Page:  page,
		Limit: limit,
		Data:  slices.Clone(activities[skip:end]),
	}
}
