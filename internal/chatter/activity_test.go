package chatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, time.April, 23, 12, 0, 0, 0, time.UTC)

func at(hours int) time.Time {
	return t0.Add(time.Duration(hours) * time.Hour)
}

func mergeFixtures() ([]Post, []Post, []Follow) {
	posts := []Post{
		{ID: 1, Title: "First", CreatedAt: at(1), UpdatedAt: at(1)},
		{ID: 2, Title: "Second", CreatedAt: at(5), UpdatedAt: at(5)},
	}
	liked := []Post{
		{ID: 9, Title: "Theirs", CreatedAt: at(0), UpdatedAt: at(3)},
	}
	follows := []Follow{
		{ID: 4, CreatedAt: at(4), Following: User{FirstName: "Ada", LastName: "Lovelace"}},
		{ID: 5, CreatedAt: at(2), Following: User{FirstName: "Alan", LastName: "Turing"}},
	}

	return posts, liked, follows
}

func TestMergeActivities_OrdersNewestFirst(t *testing.T) {
	posts, liked, follows := mergeFixtures()

	page := MergeActivities(posts, liked, follows, "", 1, 10)

	assert.Equal(t, 5, page.Total)
	assert.Equal(t, []Activity{
		{Type: ActivityPost, Message: "Created post: Second", Timestamp: at(5)},
		{Type: ActivityFollow, Message: "Followed user: Ada Lovelace", Timestamp: at(4)},
		{Type: ActivityLike, Message: "Liked post: Theirs", Timestamp: at(3)},
		{Type: ActivityFollow, Message: "Followed user: Alan Turing", Timestamp: at(2)},
		{Type: ActivityPost, Message: "Created post: First", Timestamp: at(1)},
	}, page.Data)
}

func TestMergeActivities_Paginates(t *testing.T) {
	posts, liked, follows := mergeFixtures()

	tests := []struct {
		name     string
		page     int
		limit    int
		wantMsgs []string
	}{
		{
			name:     "first page",
			page:     1,
			limit:    2,
			wantMsgs: []string{"Created post: Second", "Followed user: Ada Lovelace"},
		},
		{
			name:     "last partial page",
			page:     3,
			limit:    2,
			wantMsgs: []string{"Created post: First"},
		},
		{
			name:     "past the end",
			page:     4,
			limit:    2,
			wantMsgs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := MergeActivities(posts, liked, follows, "", tt.page, tt.limit)

			// The total never depends on the window
			assert.Equal(t, 5, page.Total)
			assert.Equal(t, tt.page, page.Page)
			assert.Equal(t, tt.limit, page.Limit)
			assert.LessOrEqual(t, len(page.Data), tt.limit)
			require.NotNil(t, page.Data)

			msgs := []string{}
			for _, a := range page.Data {
				msgs = append(msgs, a.Message)
			}
			assert.Equal(t, tt.wantMsgs, msgs)
		})
	}
}

func TestMergeActivities_TypeFilter(t *testing.T) {
	posts, liked, follows := mergeFixtures()
	all := MergeActivities(posts, liked, follows, "", 1, 100)

	for _, typ := range []ActivityType{ActivityPost, ActivityLike, ActivityFollow} {
		t.Run(string(typ), func(t *testing.T) {
			page := MergeActivities(posts, liked, follows, typ, 1, 100)
			require.NotEmpty(t, page.Data)
			for _, a := range page.Data {
				assert.Equal(t, typ, a.Type)
				assert.Contains(t, all.Data, a)
			}
		})
	}

	t.Run("unknown type matches nothing", func(t *testing.T) {
		page := MergeActivities(posts, liked, follows, "comment", 1, 10)
		assert.Equal(t, 0, page.Total)
		assert.Empty(t, page.Data)
	})
}

func TestMergeActivities_TiesKeepSourceOrder(t *testing.T) {
	var (
		posts   = []Post{{Title: "P", CreatedAt: t0}}
		liked   = []Post{{Title: "L", UpdatedAt: t0}}
		follows = []Follow{{CreatedAt: t0, Following: User{FirstName: "F", LastName: "F"}}}
	)

	page := MergeActivities(posts, liked, follows, "", 1, 10)

	require.Len(t, page.Data, 3)
	assert.Equal(t, ActivityPost, page.Data[0].Type)
	assert.Equal(t, ActivityLike, page.Data[1].Type)
	assert.Equal(t, ActivityFollow, page.Data[2].Type)
}

func TestMergeActivities_HugePage(t *testing.T) {
	posts, liked, follows := mergeFixtures()

	got := MergeActivities(posts, liked, follows, "", 1<<62, 4)
	assert.Equal(t, 5, got.Total)
	assert.Equal(t, 1<<62, got.Page)
	assert.Empty(t, got.Data)
	assert.NotNil(t, got.Data)

	got = MergeActivities(posts, liked, follows, "", 2, 1<<62)
	assert.Empty(t, got.Data)
}
