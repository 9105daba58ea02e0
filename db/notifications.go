package db

import (
	"context"
	"fmt"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"

	"mingle/ids"
	"mingle/models"
)

func (s *Store) InsertNotification(ctx context.Context, notification models.Notification) error {
	if notification.ID == "" {
		notification.ID = ids.New()
	}
	if notification.CreatedAt == 0 {
		notification.CreatedAt = time.Now().Unix()
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("notifications")
	ib.Cols("id", "recipient_id", "actor_id", "kind", "post_id", "comment_id", "created_at")
	ib.Values(
		notification.ID,
		notification.RecipientID,
		notification.ActorID,
		notification.Kind,
		notification.PostID,
		notification.CommentID,
		notification.CreatedAt,
	)

	query, args := ib.Build()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert error: %w", err)
	}
	return nil
}

// ListNotifications returns the recipient's notifications, unread first,
// newest first within each group.
func (s *Store) ListNotifications(ctx context.Context, recipientID string) ([]models.Notification, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "recipient_id", "actor_id", "kind", "post_id", "comment_id", "is_read", "created_at", "read_at")
	sb.From("notifications")
	sb.Where(sb.Equal("recipient_id", recipientID))
	sb.OrderBy("is_read ASC", "created_at DESC")

	query, args := sb.Build()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		var isRead int64
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.ActorID, &n.Kind, &n.PostID, &n.CommentID, &isRead, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		n.IsRead = isRead != 0
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkNotificationRead flips the is-read flag. The recipient scoping means
// a user cannot mark another user's notification.
func (s *Store) MarkNotificationRead(ctx context.Context, notificationID, recipientID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1, read_at = ? WHERE id = ? AND recipient_id = ?",
		time.Now().Unix(), notificationID, recipientID)
	if err != nil {
		return fmt.Errorf("update error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// TidyNotifications removes read notifications older than maxAge.
func (s *Store) TidyNotifications(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	del := sqlbuilder.SQLite.NewDeleteBuilder()
	del.DeleteFrom("notifications")
	del.Where(del.Equal("is_read", 1), del.LessEqualThan("created_at", cutoff))

	query, args := del.Build()
	log.WithFields(log.Fields{
		"sql":  query,
		"args": args,
	}).Info("Tidying notifications")

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete error: %w", err)
	}
	return res.RowsAffected()
}
