package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mingle/db"
	"mingle/models"
)

func createTestComment(t *testing.T, store *db.Store, postID, parentID, authorID, text string) models.Comment {
	t.Helper()
	comment, err := store.CreateComment(context.Background(), models.Comment{
		PostID:   postID,
		ParentID: parentID,
		AuthorID: authorID,
		Text:     text,
	})
	require.NoError(t, err)
	return comment
}

func TestCreateCommentBumpsCounter(t *testing.T) {
	store := newTestStore(t)
	post := createTestPost(t, store, "alice", "hello")

	comment := createTestComment(t, store, post.ID, "", "bob", "nice post")
	assert.Equal(t, post.ID, comment.PostID)

	reloaded, err := store.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.Comments)
}

func TestCreateCommentMissingPost(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CreateComment(context.Background(), models.Comment{
		PostID:   "missing",
		AuthorID: "bob",
		Text:     "hi",
	})
	assert.ErrorIs(t, err, db.ErrPostNotFound)
}

func TestCreateReplyParentChecks(t *testing.T) {
	store := newTestStore(t)
	post := createTestPost(t, store, "alice", "hello")
	other := createTestPost(t, store, "alice", "elsewhere")
	parent := createTestComment(t, store, post.ID, "", "bob", "top")

	reply := createTestComment(t, store, post.ID, parent.ID, "carol", "reply")
	assert.Equal(t, parent.ID, reply.ParentID)

	// Replies must target a parent on the same post
	_, err := store.CreateComment(context.Background(), models.Comment{
		PostID:   other.ID,
		ParentID: parent.ID,
		AuthorID: "carol",
		Text:     "cross-post reply",
	})
	assert.ErrorIs(t, err, db.ErrCommentNotFound)

	_, err = store.CreateComment(context.Background(), models.Comment{
		PostID:   post.ID,
		ParentID: "missing",
		AuthorID: "carol",
		Text:     "orphan reply",
	})
	assert.ErrorIs(t, err, db.ErrCommentNotFound)
}

func TestListCommentsTree(t *testing.T) {
	store := newTestStore(t)
	post := createTestPost(t, store, "alice", "hello")

	first := createTestComment(t, store, post.ID, "", "bob", "first")
	second := createTestComment(t, store, post.ID, "", "carol", "second")
	reply := createTestComment(t, store, post.ID, first.ID, "dave", "reply")
	nested := createTestComment(t, store, post.ID, reply.ID, "bob", "nested")

	tree, err := store.ListComments(context.Background(), post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)

	assert.Equal(t, first.ID, tree[0].ID)
	assert.Equal(t, second.ID, tree[1].ID)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, reply.ID, tree[0].Replies[0].ID)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Equal(t, nested.ID, tree[0].Replies[0].Replies[0].ID)
}

func TestLikeCommentIdempotent(t *testing.T) {
	store := newTestStore(t)
	post := createTestPost(t, store, "alice", "hello")
	comment := createTestComment(t, store, post.ID, "", "bob", "top")

	liked, err := store.LikeComment(context.Background(), comment.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, int64(1), liked.Likes)

	liked, err = store.LikeComment(context.Background(), comment.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, int64(1), liked.Likes)
	assert.Equal(t, []string{"carol"}, liked.LikedBy)

	unliked, err := store.UnlikeComment(context.Background(), comment.ID, "carol")
	require.NoError(t, err)
	assert.Zero(t, unliked.Likes)
	assert.Empty(t, unliked.LikedBy)
}

func TestDeleteCommentCascade(t *testing.T) {
	store := newTestStore(t)
	post := createTestPost(t, store, "alice", "hello")

	top := createTestComment(t, store, post.ID, "", "bob", "top")
	reply := createTestComment(t, store, post.ID, top.ID, "carol", "reply")
	nested := createTestComment(t, store, post.ID, reply.ID, "dave", "nested")
	sibling := createTestComment(t, store, post.ID, "", "eve", "sibling")

	reloaded, err := store.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	require.Equal(t, int64(4), reloaded.Comments)

	// Deleting the top comment removes its whole subtree and decrements
	// the counter by the number of rows removed.
	require.NoError(t, store.DeleteComment(context.Background(), top.ID, "bob"))

	reloaded, err = store.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.Comments)

	for _, id := range []string{top.ID, reply.ID, nested.ID} {
		_, err := store.GetComment(context.Background(), id)
		assert.ErrorIs(t, err, db.ErrCommentNotFound)
	}
	_, err = store.GetComment(context.Background(), sibling.ID)
	assert.NoError(t, err)
}

func TestDeleteCommentForbidden(t *testing.T) {
	store := newTestStore(t)
	post := createTestPost(t, store, "alice", "hello")
	comment := createTestComment(t, store, post.ID, "", "bob", "top")

	err := store.DeleteComment(context.Background(), comment.ID, "mallory")
	assert.ErrorIs(t, err, db.ErrForbidden)

	_, err = store.GetComment(context.Background(), comment.ID)
	assert.NoError(t, err)
}

func TestDeleteCommentCounterClamp(t *testing.T) {
	store, path := newTestStoreAt(t)
	post := createTestPost(t, store, "alice", "hello")
	comment := createTestComment(t, store, post.ID, "", "bob", "top")

	// Force the counter into a stale state below the real row count
	execSQL(t, path, "UPDATE posts SET comments = 0 WHERE id = ?", post.ID)

	// Deleting must not drive the counter negative
	require.NoError(t, store.DeleteComment(context.Background(), comment.ID, "bob"))

	reloaded, err := store.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.Comments)
}
