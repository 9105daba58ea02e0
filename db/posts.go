package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"mingle/ids"
	"mingle/jsonset"
	"mingle/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx so reads can run inside
// or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var postColumns = []string{
	"seq", "id", "author_id", "community_id", "text", "media", "langs", "repost_of",
	"liked_by", "likes", "shared_by", "shares", "bookmarked_by", "bookmarks",
	"reposted_by", "reposts", "comments", "created_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (models.Post, error) {
	var post models.Post
	var media, langs, likedBy, sharedBy, bookmarkedBy, repostedBy string
	err := row.Scan(
		&post.Seq, &post.ID, &post.AuthorID, &post.CommunityID, &post.Text, &media, &langs, &post.RepostOf,
		&likedBy, &post.Likes, &sharedBy, &post.Shares, &bookmarkedBy, &post.Bookmarks,
		&repostedBy, &post.Reposts, &post.Comments, &post.CreatedAt,
	)
	if err != nil {
		return models.Post{}, err
	}
	post.Media = jsonset.Decode(media)
	post.Langs = jsonset.Decode(langs)
	post.LikedBy = jsonset.Decode(likedBy)
	post.SharedBy = jsonset.Decode(sharedBy)
	post.BookmarkedBy = jsonset.Decode(bookmarkedBy)
	post.RepostedBy = jsonset.Decode(repostedBy)
	return post, nil
}

func getPost(ctx context.Context, q querier, postID string) (models.Post, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(postColumns...).From("posts")
	sb.Where(sb.Equal("id", postID))

	query, args := sb.Build()
	post, err := scanPost(q.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return models.Post{}, ErrPostNotFound
	}
	if err != nil {
		return models.Post{}, fmt.Errorf("query error: %w", err)
	}
	return post, nil
}

// CreatePost inserts a new post row. The identifier and timestamp are
// assigned here when not already set.
func (s *Store) CreatePost(ctx context.Context, post models.Post) (models.Post, error) {
	if post.ID == "" {
		post.ID = ids.New()
	}
	if post.CreatedAt == 0 {
		post.CreatedAt = time.Now().Unix()
	}

	log.WithFields(log.Fields{
		"id":        post.ID,
		"author":    post.AuthorID,
		"community": post.CommunityID,
		"repostOf":  post.RepostOf,
		"langs":     post.Langs,
	}).Info("Creating post")

	if err := insertPost(ctx, s.db, post); err != nil {
		return models.Post{}, err
	}
	return getPost(ctx, s.db, post.ID)
}

func insertPost(ctx context.Context, q querier, post models.Post) error {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("posts")
	ib.Cols("id", "author_id", "community_id", "text", "media", "langs", "repost_of", "created_at")
	ib.Values(
		post.ID,
		post.AuthorID,
		post.CommunityID,
		post.Text,
		jsonset.Encode(post.Media),
		jsonset.Encode(post.Langs),
		post.RepostOf,
		post.CreatedAt,
	)

	query, args := ib.Build()
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert error: %w", err)
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, postID string) (models.Post, error) {
	return getPost(ctx, s.db, postID)
}

// DeletePost removes a post owned by actingUserID together with its
// comments. Deleting a repost row also tears down its snapshot and removes
// the user from the original's reposted-by set.
func (s *Store) DeletePost(ctx context.Context, postID string, actingUserID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		post, err := getPost(ctx, tx, postID)
		if err != nil {
			return err
		}
		if post.AuthorID != actingUserID {
			return ErrForbidden
		}

		if post.RepostOf != "" {
			switch err := undoRepostTx(ctx, tx, post.RepostOf, actingUserID); err {
			case nil:
				// undoRepostTx deletes the repost row itself
				return nil
			case ErrPostNotFound:
				// Original is gone already; fall through and drop the
				// orphaned repost row below.
			default:
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE post_id = ?", post.ID); err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", post.ID); err != nil {
			return fmt.Errorf("delete error: %w", err)
		}
		return nil
	})
}

// interactionColumns names the set column and its mirrored counter. The
// counter is only ever rewritten from the set's cardinality.
type interactionColumns struct {
	set     string
	counter string
}

var (
	likeColumns     = interactionColumns{set: "liked_by", counter: "likes"}
	shareColumns    = interactionColumns{set: "shared_by", counter: "shares"}
	bookmarkColumns = interactionColumns{set: "bookmarked_by", counter: "bookmarks"}
	repostColumns   = interactionColumns{set: "reposted_by", counter: "reposts"}
)

// updatePostSet applies one read-modify-write cycle to an interaction set
// inside a transaction: read set, add or remove the member, write set and
// cardinality back in a single statement.
func (s *Store) updatePostSet(ctx context.Context, postID string, userID string, cols interactionColumns, add bool) (models.Post, error) {
	var updated models.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := updatePostSetTx(ctx, tx, postID, userID, cols, add); err != nil {
			return err
		}
		post, err := getPost(ctx, tx, postID)
		if err != nil {
			return err
		}
		updated = post
		return nil
	})
	return updated, err
}

func updatePostSetTx(ctx context.Context, tx *sql.Tx, postID string, userID string, cols interactionColumns, add bool) error {
	var raw string
	query := fmt.Sprintf("SELECT %s FROM posts WHERE id = ?", cols.set)
	if err := tx.QueryRowContext(ctx, query, postID).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return ErrPostNotFound
		}
		return fmt.Errorf("query error: %w", err)
	}

	set := jsonset.Decode(raw)
	if add {
		set = jsonset.Add(set, userID)
	} else {
		set = jsonset.Remove(set, userID)
	}

	update := fmt.Sprintf("UPDATE posts SET %s = ?, %s = ? WHERE id = ?", cols.set, cols.counter)
	if _, err := tx.ExecContext(ctx, update, jsonset.Encode(set), jsonset.Count(set), postID); err != nil {
		return fmt.Errorf("update error: %w", err)
	}
	return nil
}

func (s *Store) LikePost(ctx context.Context, postID, userID string) (models.Post, error) {
	return s.updatePostSet(ctx, postID, userID, likeColumns, true)
}

func (s *Store) UnlikePost(ctx context.Context, postID, userID string) (models.Post, error) {
	return s.updatePostSet(ctx, postID, userID, likeColumns, false)
}

func (s *Store) SharePost(ctx context.Context, postID, userID string) (models.Post, error) {
	return s.updatePostSet(ctx, postID, userID, shareColumns, true)
}

func (s *Store) BookmarkPost(ctx context.Context, postID, userID string) (models.Post, error) {
	return s.updatePostSet(ctx, postID, userID, bookmarkColumns, true)
}

func (s *Store) UnbookmarkPost(ctx context.Context, postID, userID string) (models.Post, error) {
	return s.updatePostSet(ctx, postID, userID, bookmarkColumns, false)
}

// FeedOptions filter the feed query. A zero cursor starts from the newest
// post; Lang filters on the detected language tags.
type FeedOptions struct {
	CommunityID string
	Lang        string
	Limit       int
	Cursor      int64
}

func (s *Store) GetFeed(ctx context.Context, opts FeedOptions) ([]models.Post, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(postColumns...).From("posts")

	if opts.Cursor != 0 {
		sb.Where(sb.LessThan("seq", opts.Cursor))
	}
	if opts.CommunityID != "" {
		sb.Where(sb.Equal("community_id", opts.CommunityID))
	}
	if opts.Lang != "" {
		sb.Where(fmt.Sprintf("instr(langs, %s) > 0", sb.Args.Add(`"`+opts.Lang+`"`)))
	}

	sb.OrderBy("seq").Desc()
	sb.Limit(opts.Limit)

	query, args := sb.Build()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

// Hydrate builds the client-facing cards for a page of posts. Author
// identity is read live from profiles; a repost row additionally carries
// its frozen snapshot of the original.
func (s *Store) Hydrate(ctx context.Context, posts []models.Post) ([]models.PostCard, error) {
	authorIDs := lo.Uniq(lo.Map(posts, func(p models.Post, _ int) string { return p.AuthorID }))
	profiles := make(map[string]models.Profile, len(authorIDs))
	for _, authorID := range authorIDs {
		profile, err := s.GetProfile(ctx, authorID)
		if err != nil {
			return nil, err
		}
		profiles[authorID] = profile
	}

	cards := make([]models.PostCard, 0, len(posts))
	for _, post := range posts {
		card := models.PostCard{
			Post:         post,
			AuthorName:   profiles[post.AuthorID].DisplayName,
			AuthorAvatar: profiles[post.AuthorID].Avatar,
		}
		if post.RepostOf != "" {
			snapshot, err := s.GetSnapshot(ctx, post.RepostOf, post.AuthorID)
			if err == nil {
				card.Original = &snapshot
			} else if err != ErrNotFound {
				return nil, err
			}
		}
		cards = append(cards, card)
	}

	return cards, nil
}

// HydratePost is Hydrate for a single post.
func (s *Store) HydratePost(ctx context.Context, post models.Post) (models.PostCard, error) {
	cards, err := s.Hydrate(ctx, []models.Post{post})
	if err != nil {
		return models.PostCard{}, err
	}
	return cards[0], nil
}
