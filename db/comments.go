package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"

	"mingle/ids"
	"mingle/jsonset"
	"mingle/models"
)

var commentColumns = []string{
	"id", "post_id", "parent_id", "author_id", "text", "liked_by", "likes", "created_at",
}

func scanComment(row rowScanner) (models.Comment, error) {
	var comment models.Comment
	var likedBy string
	err := row.Scan(
		&comment.ID, &comment.PostID, &comment.ParentID, &comment.AuthorID,
		&comment.Text, &likedBy, &comment.Likes, &comment.CreatedAt,
	)
	if err != nil {
		return models.Comment{}, err
	}
	comment.LikedBy = jsonset.Decode(likedBy)
	return comment, nil
}

func getComment(ctx context.Context, q querier, commentID string) (models.Comment, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(commentColumns...).From("comments")
	sb.Where(sb.Equal("id", commentID))

	query, args := sb.Build()
	comment, err := scanComment(q.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return models.Comment{}, ErrCommentNotFound
	}
	if err != nil {
		return models.Comment{}, fmt.Errorf("query error: %w", err)
	}
	return comment, nil
}

func (s *Store) GetComment(ctx context.Context, commentID string) (models.Comment, error) {
	return getComment(ctx, s.db, commentID)
}

// CreateComment inserts a comment or reply and bumps the post's comment
// counter in the same transaction.
func (s *Store) CreateComment(ctx context.Context, comment models.Comment) (models.Comment, error) {
	if comment.ID == "" {
		comment.ID = ids.New()
	}
	if comment.CreatedAt == 0 {
		comment.CreatedAt = time.Now().Unix()
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getPost(ctx, tx, comment.PostID); err != nil {
			return err
		}
		if comment.ParentID != "" {
			parent, err := getComment(ctx, tx, comment.ParentID)
			if err != nil {
				return err
			}
			if parent.PostID != comment.PostID {
				return ErrCommentNotFound
			}
		}

		ib := sqlbuilder.SQLite.NewInsertBuilder()
		ib.InsertInto("comments")
		ib.Cols("id", "post_id", "parent_id", "author_id", "text", "created_at")
		ib.Values(comment.ID, comment.PostID, comment.ParentID, comment.AuthorID, comment.Text, comment.CreatedAt)

		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert error: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE posts SET comments = comments + 1 WHERE id = ?", comment.PostID); err != nil {
			return fmt.Errorf("update error: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Comment{}, err
	}

	log.WithFields(log.Fields{
		"id":     comment.ID,
		"post":   comment.PostID,
		"parent": comment.ParentID,
	}).Info("Created comment")

	return s.GetComment(ctx, comment.ID)
}

// ListComments returns the post's comments as a tree. Top-level comments
// come in creation order with their reply subtrees attached.
func (s *Store) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	if _, err := getPost(ctx, s.db, postID); err != nil {
		return nil, err
	}

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(commentColumns...).From("comments")
	sb.Where(sb.Equal("post_id", postID))
	sb.OrderBy("created_at").Asc()

	query, args := sb.Build()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*models.Comment)
	var ordered []*models.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		c := comment
		byID[c.ID] = &c
		ordered = append(ordered, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	roots := []*models.Comment{}
	for _, comment := range ordered {
		if parent, ok := byID[comment.ParentID]; comment.ParentID != "" && ok {
			parent.Replies = append(parent.Replies, comment)
		} else {
			roots = append(roots, comment)
		}
	}

	return roots, nil
}

func (s *Store) updateCommentSet(ctx context.Context, commentID, userID string, add bool) (models.Comment, error) {
	var updated models.Comment
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, "SELECT liked_by FROM comments WHERE id = ?", commentID).Scan(&raw)
		if err == sql.ErrNoRows {
			return ErrCommentNotFound
		}
		if err != nil {
			return fmt.Errorf("query error: %w", err)
		}

		set := jsonset.Decode(raw)
		if add {
			set = jsonset.Add(set, userID)
		} else {
			set = jsonset.Remove(set, userID)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE comments SET liked_by = ?, likes = ? WHERE id = ?",
			jsonset.Encode(set), jsonset.Count(set), commentID); err != nil {
			return fmt.Errorf("update error: %w", err)
		}

		comment, err := getComment(ctx, tx, commentID)
		if err != nil {
			return err
		}
		updated = comment
		return nil
	})
	return updated, err
}

func (s *Store) LikeComment(ctx context.Context, commentID, userID string) (models.Comment, error) {
	return s.updateCommentSet(ctx, commentID, userID, true)
}

func (s *Store) UnlikeComment(ctx context.Context, commentID, userID string) (models.Comment, error) {
	return s.updateCommentSet(ctx, commentID, userID, false)
}

// DeleteComment removes a comment with its full reply subtree and
// decrements the post's comment counter by the exact number of deleted
// rows, clamped at zero so racing deletes cannot drive it negative.
func (s *Store) DeleteComment(ctx context.Context, commentID, actingUserID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		comment, err := getComment(ctx, tx, commentID)
		if err != nil {
			return err
		}
		if comment.AuthorID != actingUserID {
			return ErrForbidden
		}

		// Breadth-first walk over parent pointers to collect the subtree.
		doomed := []string{comment.ID}
		frontier := []string{comment.ID}
		for len(frontier) > 0 {
			sb := sqlbuilder.SQLite.NewSelectBuilder()
			sb.Select("id").From("comments")
			sb.Where(sb.In("parent_id", sqlbuilder.List(frontier)))

			query, args := sb.Build()
			rows, err := tx.QueryContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("query error: %w", err)
			}

			var next []string
			for rows.Next() {
				var id string
				if err := rows.Scan(&id); err != nil {
					rows.Close()
					return fmt.Errorf("scan error: %w", err)
				}
				next = append(next, id)
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return err
			}

			doomed = append(doomed, next...)
			frontier = next
		}

		del := sqlbuilder.SQLite.NewDeleteBuilder()
		del.DeleteFrom("comments")
		del.Where(del.In("id", sqlbuilder.List(doomed)))

		query, args := del.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete error: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE posts SET comments = MAX(comments - ?, 0) WHERE id = ?",
			len(doomed), comment.PostID); err != nil {
			return fmt.Errorf("update error: %w", err)
		}

		log.WithFields(log.Fields{
			"comment": commentID,
			"post":    comment.PostID,
			"deleted": len(doomed),
		}).Info("Deleted comment subtree")

		return nil
	})
}
