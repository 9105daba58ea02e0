package db_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"mingle/db"
	"mingle/models"
)

func newTestStore(t *testing.T) *db.Store {
	store, _ := newTestStoreAt(t)
	return store
}

func newTestStoreAt(t *testing.T) (*db.Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mingle_test.db")
	require.NoError(t, db.Migrate(path))

	store, err := db.NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, path
}

// execSQL runs a statement over a throwaway connection, for tests that
// need to set up state the store API would never produce.
func execSQL(t *testing.T, path, query string, args ...any) {
	t.Helper()

	conn, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(query, args...)
	require.NoError(t, err)
}

func createTestPost(t *testing.T, store *db.Store, authorID, text string) models.Post {
	t.Helper()

	post, err := store.CreatePost(context.Background(), models.Post{
		AuthorID: authorID,
		Text:     text,
	})
	require.NoError(t, err)
	return post
}

func createTestProfile(t *testing.T, store *db.Store, userID, name string, interests ...string) {
	t.Helper()

	require.NoError(t, store.UpsertProfile(context.Background(), models.Profile{
		UserID:      userID,
		DisplayName: name,
		Interests:   interests,
	}))
}
