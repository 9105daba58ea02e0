package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"

	"mingle/ids"
	"mingle/jsonset"
	"mingle/models"
)

var snapshotColumns = []string{
	"id", "original_post_id", "reposted_by", "repost_post_id",
	"reposter_name", "reposter_avatar", "author_id", "author_name", "author_avatar",
	"text", "media", "likes", "comments", "shares", "bookmarks", "reposts", "created_at",
}

func scanSnapshot(row rowScanner) (models.RepostSnapshot, error) {
	var snap models.RepostSnapshot
	var media string
	err := row.Scan(
		&snap.ID, &snap.OriginalPostID, &snap.RepostedBy, &snap.RepostPostID,
		&snap.ReposterName, &snap.ReposterAvatar, &snap.AuthorID, &snap.AuthorName, &snap.AuthorAvatar,
		&snap.Text, &media, &snap.Likes, &snap.Comments, &snap.Shares, &snap.Bookmarks, &snap.Reposts, &snap.CreatedAt,
	)
	if err != nil {
		return models.RepostSnapshot{}, err
	}
	snap.Media = jsonset.Decode(media)
	return snap, nil
}

func getSnapshot(ctx context.Context, q querier, originalPostID, userID string) (models.RepostSnapshot, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(snapshotColumns...).From("repost_snapshots")
	sb.Where(sb.Equal("original_post_id", originalPostID), sb.Equal("reposted_by", userID))

	query, args := sb.Build()
	snap, err := scanSnapshot(q.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return models.RepostSnapshot{}, ErrNotFound
	}
	if err != nil {
		return models.RepostSnapshot{}, fmt.Errorf("query error: %w", err)
	}
	return snap, nil
}

// GetSnapshot returns the snapshot frozen when userID reposted the post.
func (s *Store) GetSnapshot(ctx context.Context, originalPostID, userID string) (models.RepostSnapshot, error) {
	return getSnapshot(ctx, s.db, originalPostID, userID)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateRepost freezes the original post into a snapshot and creates the
// repost row, all inside one transaction. A second repost of the same post
// by the same user is rejected both by the pre-check and by the unique
// constraint on (original_post_id, reposted_by); the constraint violation
// is translated to the same conflict error so a racing duplicate is
// indistinguishable from a pre-checked one.
func (s *Store) CreateRepost(ctx context.Context, originalPostID, actingUserID, communityID string) (models.Post, error) {
	// Display identities are copied from live profiles; read them before
	// the transaction since the pool allows a single writer connection.
	reposter, err := s.GetProfile(ctx, actingUserID)
	if err != nil {
		return models.Post{}, err
	}

	var repost models.Post
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		original, err := getPost(ctx, tx, originalPostID)
		if err != nil {
			return err
		}
		// A community repost can only target a post inside the same
		// community container.
		if communityID != "" && original.CommunityID != communityID {
			return ErrPostNotFound
		}

		if _, err := getSnapshot(ctx, tx, originalPostID, actingUserID); err == nil {
			return ErrAlreadyReposted
		} else if err != ErrNotFound {
			return err
		}

		authorName, authorAvatar := FallbackDisplayName, ""
		var rawAuthorName, rawAuthorAvatar string
		row := tx.QueryRowContext(ctx, "SELECT display_name, avatar FROM profiles WHERE user_id = ?", original.AuthorID)
		if err := row.Scan(&rawAuthorName, &rawAuthorAvatar); err == nil {
			if rawAuthorName != "" {
				authorName = rawAuthorName
			}
			authorAvatar = rawAuthorAvatar
		} else if err != sql.ErrNoRows {
			return fmt.Errorf("query error: %w", err)
		}

		now := time.Now().Unix()
		repost = models.Post{
			ID:          ids.New(),
			AuthorID:    actingUserID,
			CommunityID: original.CommunityID,
			RepostOf:    original.ID,
			CreatedAt:   now,
		}
		if err := insertPost(ctx, tx, repost); err != nil {
			return err
		}

		ib := sqlbuilder.SQLite.NewInsertBuilder()
		ib.InsertInto("repost_snapshots")
		ib.Cols(snapshotColumns...)
		ib.Values(
			ids.New(), original.ID, actingUserID, repost.ID,
			reposter.DisplayName, reposter.Avatar, original.AuthorID, authorName, authorAvatar,
			original.Text, jsonset.Encode(original.Media),
			original.Likes, original.Comments, original.Shares, original.Bookmarks, original.Reposts,
			now,
		)
		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyReposted
			}
			return fmt.Errorf("insert error: %w", err)
		}

		if err := updatePostSetTx(ctx, tx, original.ID, actingUserID, repostColumns, true); err != nil {
			return err
		}

		reloaded, err := getPost(ctx, tx, repost.ID)
		if err != nil {
			return err
		}
		repost = reloaded
		return nil
	})
	if err != nil {
		return models.Post{}, err
	}

	log.WithFields(log.Fields{
		"original": originalPostID,
		"repost":   repost.ID,
		"user":     actingUserID,
	}).Info("Created repost")

	return repost, nil
}

// UndoRepost removes the snapshot, the membership in the reposted-by set
// and the repost post row in one transaction. Repeating the call is a
// no-op as long as the original post still exists.
func (s *Store) UndoRepost(ctx context.Context, originalPostID, actingUserID string) (models.Post, error) {
	var original models.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := undoRepostTx(ctx, tx, originalPostID, actingUserID); err != nil {
			return err
		}
		reloaded, err := getPost(ctx, tx, originalPostID)
		if err != nil {
			return err
		}
		original = reloaded
		return nil
	})
	return original, err
}

func undoRepostTx(ctx context.Context, tx *sql.Tx, originalPostID, actingUserID string) error {
	if _, err := getPost(ctx, tx, originalPostID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM repost_snapshots WHERE original_post_id = ? AND reposted_by = ?",
		originalPostID, actingUserID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}

	if err := updatePostSetTx(ctx, tx, originalPostID, actingUserID, repostColumns, false); err != nil {
		return err
	}

	// Delete the user's repost row for this original, the most recent one
	// if several exist.
	var repostID string
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM posts WHERE repost_of = ? AND author_id = ? ORDER BY seq DESC LIMIT 1",
		originalPostID, actingUserID).Scan(&repostID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query error: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE post_id = ?", repostID); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", repostID); err != nil {
		return fmt.Errorf("delete error: %w", err)
	}
	return nil
}
