package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mingle/db"
	"mingle/models"
)

func TestCreateAndGetPost(t *testing.T) {
	store := newTestStore(t)

	created := createTestPost(t, store, "u1", "hello world")
	assert.Len(t, created.ID, 16)
	assert.NotZero(t, created.CreatedAt)

	post, err := store.GetPost(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", post.AuthorID)
	assert.Equal(t, "hello world", post.Text)
	assert.Zero(t, post.Likes)
	assert.Empty(t, post.LikedBy)
	assert.Zero(t, post.Comments)
}

func TestGetPostNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPost(context.Background(), "missing")
	assert.ErrorIs(t, err, db.ErrPostNotFound)
}

func TestLikeUnlikeIdempotent(t *testing.T) {
	store := newTestStore(t)
	post := createTestPost(t, store, "u1", "hello")

	// 0 -> 1
	updated, err := store.LikePost(context.Background(), post.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Likes)
	assert.Equal(t, []string{"u2"}, updated.LikedBy)

	// Liking again is idempotent
	updated, err = store.LikePost(context.Background(), post.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Likes)

	// A second user
	updated, err = store.LikePost(context.Background(), post.ID, "u3")
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Likes)

	// 2 -> 1
	updated, err = store.UnlikePost(context.Background(), post.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Likes)
	assert.Equal(t, []string{"u3"}, updated.LikedBy)

	// Unliking an absent member is a no-op
	updated, err = store.UnlikePost(context.Background(), post.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Likes)
}

func TestCounterAlwaysMatchesSetCardinality(t *testing.T) {
	store := newTestStore(t)
	post := createTestPost(t, store, "u1", "hello")

	users := []string{"a", "b", "c", "a", "b"}
	for _, user := range users {
		updated, err := store.LikePost(context.Background(), post.ID, user)
		require.NoError(t, err)
		assert.Equal(t, int64(len(updated.LikedBy)), updated.Likes)
	}

	updated, err := store.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated.Likes)
}

func TestBookmarkAndShare(t *testing.T) {
	store := newTestStore(t)
	post := createTestPost(t, store, "u1", "hello")

	updated, err := store.BookmarkPost(context.Background(), post.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Bookmarks)

	updated, err = store.UnbookmarkPost(context.Background(), post.ID, "u2")
	require.NoError(t, err)
	assert.Zero(t, updated.Bookmarks)

	updated, err = store.SharePost(context.Background(), post.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Shares)
	assert.Equal(t, []string{"u2"}, updated.SharedBy)
}

func TestInteractionOnMissingPost(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LikePost(context.Background(), "missing", "u1")
	assert.ErrorIs(t, err, db.ErrPostNotFound)
}

func TestDeletePost(t *testing.T) {
	store := newTestStore(t)
	post := createTestPost(t, store, "u1", "hello")

	// Only the owner may delete
	err := store.DeletePost(context.Background(), post.ID, "u2")
	assert.ErrorIs(t, err, db.ErrForbidden)

	require.NoError(t, store.DeletePost(context.Background(), post.ID, "u1"))

	_, err = store.GetPost(context.Background(), post.ID)
	assert.ErrorIs(t, err, db.ErrPostNotFound)
}

func TestGetFeedPagination(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 5; i++ {
		createTestPost(t, store, "u1", "post")
	}

	page, err := store.GetFeed(context.Background(), db.FeedOptions{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page, 3)
	// Newest first
	assert.Greater(t, page[0].Seq, page[1].Seq)

	rest, err := store.GetFeed(context.Background(), db.FeedOptions{Limit: 10, Cursor: page[2].Seq})
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestGetFeedLangFilter(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CreatePost(context.Background(), models.Post{AuthorID: "u1", Text: "hei", Langs: []string{"nb"}})
	require.NoError(t, err)
	_, err = store.CreatePost(context.Background(), models.Post{AuthorID: "u1", Text: "hello", Langs: []string{"en"}})
	require.NoError(t, err)

	posts, err := store.GetFeed(context.Background(), db.FeedOptions{Limit: 10, Lang: "en"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "hello", posts[0].Text)
}

func TestHydrateUsesLiveProfiles(t *testing.T) {
	store := newTestStore(t)
	createTestProfile(t, store, "u1", "Ada")
	post := createTestPost(t, store, "u1", "hello")
	orphan := createTestPost(t, store, "ghost", "boo")

	cards, err := store.Hydrate(context.Background(), []models.Post{post, orphan})
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "Ada", cards[0].AuthorName)
	// Missing profile falls back to a neutral identity, never an error
	assert.Equal(t, "User", cards[1].AuthorName)
}
