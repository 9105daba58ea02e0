package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mingle/db"
	"mingle/models"
)

func TestCreateRepost(t *testing.T) {
	store := newTestStore(t)
	createTestProfile(t, store, "alice", "Alice")
	createTestProfile(t, store, "bob", "Bob")

	original := createTestPost(t, store, "alice", "hello")
	_, err := store.LikePost(context.Background(), original.ID, "carol")
	require.NoError(t, err)

	repost, err := store.CreateRepost(context.Background(), original.ID, "bob", "")
	require.NoError(t, err)

	// The repost is a feed-visible post of its own, without content
	assert.NotEqual(t, original.ID, repost.ID)
	assert.Equal(t, original.ID, repost.RepostOf)
	assert.Equal(t, "bob", repost.AuthorID)
	assert.Empty(t, repost.Text)

	// Original counter mirrors its reposted-by set
	reloaded, err := store.GetPost(context.Background(), original.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.Reposts)
	assert.Equal(t, []string{"bob"}, reloaded.RepostedBy)

	// Snapshot froze identity and counters at repost time
	snapshot, err := store.GetSnapshot(context.Background(), original.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, repost.ID, snapshot.RepostPostID)
	assert.Equal(t, "Alice", snapshot.AuthorName)
	assert.Equal(t, "Bob", snapshot.ReposterName)
	assert.Equal(t, "hello", snapshot.Text)
	assert.Equal(t, int64(1), snapshot.Likes)
}

func TestSnapshotStaysFrozen(t *testing.T) {
	store := newTestStore(t)
	original := createTestPost(t, store, "alice", "hello")

	_, err := store.CreateRepost(context.Background(), original.ID, "bob", "")
	require.NoError(t, err)

	// Interactions after the repost never touch the snapshot
	_, err = store.LikePost(context.Background(), original.ID, "carol")
	require.NoError(t, err)

	snapshot, err := store.GetSnapshot(context.Background(), original.ID, "bob")
	require.NoError(t, err)
	assert.Zero(t, snapshot.Likes)
}

func TestDuplicateRepostRejected(t *testing.T) {
	store := newTestStore(t)
	original := createTestPost(t, store, "alice", "hello")

	_, err := store.CreateRepost(context.Background(), original.ID, "bob", "")
	require.NoError(t, err)

	_, err = store.CreateRepost(context.Background(), original.ID, "bob", "")
	assert.ErrorIs(t, err, db.ErrAlreadyReposted)

	// The failed attempt left no artifacts behind
	reloaded, err := store.GetPost(context.Background(), original.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.Reposts)

	feed, err := store.GetFeed(context.Background(), db.FeedOptions{Limit: 100})
	require.NoError(t, err)
	repostRows := 0
	for _, post := range feed {
		if post.RepostOf == original.ID {
			repostRows++
		}
	}
	assert.Equal(t, 1, repostRows)
}

func TestRepostMissingPost(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CreateRepost(context.Background(), "missing", "bob", "")
	assert.ErrorIs(t, err, db.ErrPostNotFound)
}

func TestRepostCommunityScope(t *testing.T) {
	store := newTestStore(t)
	original := createTestPost(t, store, "alice", "hello")

	// A community repost can only target a post inside that community
	_, err := store.CreateRepost(context.Background(), original.ID, "bob", "science-tech")
	assert.ErrorIs(t, err, db.ErrPostNotFound)

	communityPost, err := store.CreatePost(context.Background(), models.Post{
		AuthorID:    "alice",
		CommunityID: "science-tech",
		Text:        "hello community",
	})
	require.NoError(t, err)

	repost, err := store.CreateRepost(context.Background(), communityPost.ID, "bob", "science-tech")
	require.NoError(t, err)
	assert.Equal(t, "science-tech", repost.CommunityID)
}

func TestUndoRepost(t *testing.T) {
	store := newTestStore(t)
	original := createTestPost(t, store, "alice", "hello")

	repost, err := store.CreateRepost(context.Background(), original.ID, "bob", "")
	require.NoError(t, err)

	updated, err := store.UndoRepost(context.Background(), original.ID, "bob")
	require.NoError(t, err)
	assert.Zero(t, updated.Reposts)
	assert.Empty(t, updated.RepostedBy)

	// Snapshot and repost row are both gone
	_, err = store.GetSnapshot(context.Background(), original.ID, "bob")
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = store.GetPost(context.Background(), repost.ID)
	assert.ErrorIs(t, err, db.ErrPostNotFound)

	// Undoing again is a no-op success
	updated, err = store.UndoRepost(context.Background(), original.ID, "bob")
	require.NoError(t, err)
	assert.Zero(t, updated.Reposts)
}

func TestUndoRepostMissingOriginal(t *testing.T) {
	store := newTestStore(t)

	_, err := store.UndoRepost(context.Background(), "missing", "bob")
	assert.ErrorIs(t, err, db.ErrPostNotFound)
}

func TestDeleteRepostRowTearsDownSnapshot(t *testing.T) {
	store := newTestStore(t)
	original := createTestPost(t, store, "alice", "hello")

	repost, err := store.CreateRepost(context.Background(), original.ID, "bob", "")
	require.NoError(t, err)

	require.NoError(t, store.DeletePost(context.Background(), repost.ID, "bob"))

	_, err = store.GetSnapshot(context.Background(), original.ID, "bob")
	assert.ErrorIs(t, err, db.ErrNotFound)

	reloaded, err := store.GetPost(context.Background(), original.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.Reposts)
}

func TestHydrateRepostCard(t *testing.T) {
	store := newTestStore(t)
	createTestProfile(t, store, "alice", "Alice")
	createTestProfile(t, store, "bob", "Bob")

	original := createTestPost(t, store, "alice", "hello")
	repost, err := store.CreateRepost(context.Background(), original.ID, "bob", "")
	require.NoError(t, err)

	// The reposter's name changes after the repost
	createTestProfile(t, store, "bob", "Bobby")

	cards, err := store.Hydrate(context.Background(), []models.Post{repost})
	require.NoError(t, err)
	require.Len(t, cards, 1)

	// Reposter identity is live, original author identity is frozen
	assert.Equal(t, "Bobby", cards[0].AuthorName)
	require.NotNil(t, cards[0].Original)
	assert.Equal(t, "Alice", cards[0].Original.AuthorName)
	assert.Equal(t, "hello", cards[0].Original.Text)
}
