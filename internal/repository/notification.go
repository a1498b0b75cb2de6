package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gaman_backend/internal/model"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create inserts a new notification.
func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (recipient_id, actor_id, type, follow_request_id, post_id, comment_id, club_invitation_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_read, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		n.RecipientID, n.ActorID, n.Type, n.FollowRequestID, n.PostID, n.CommentID, n.ClubInvitationID,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListByRecipient returns the latest notifications with the acting person
// attached, plus the recipient's total unread count.
func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID int64, limit int) ([]model.Notification, int, error) {
	query := `
		SELECT n.id, n.recipient_id, n.actor_id, n.type, n.follow_request_id, n.post_id, n.comment_id,
		       n.club_invitation_id, n.is_read, n.created_at,
		       u.username AS actor_username, u.display_name AS actor_display_name, u.photo_url AS actor_photo_url
		FROM notifications n
		JOIN users u ON u.id = n.actor_id
		WHERE n.recipient_id = $1
		ORDER BY n.created_at DESC
		LIMIT $2
	`

	type notifRow struct {
		ID               int64     `db:"id"`
		RecipientID      int64     `db:"recipient_id"`
		ActorID          int64     `db:"actor_id"`
		Type             string    `db:"type"`
		FollowRequestID  *int64    `db:"follow_request_id"`
		PostID           *int64    `db:"post_id"`
		CommentID        *int64    `db:"comment_id"`
		ClubInvitationID *int64    `db:"club_invitation_id"`
		IsRead           bool      `db:"is_read"`
		CreatedAt        time.Time `db:"created_at"`
		ActorUsername    string    `db:"actor_username"`
		ActorDisplayName *string   `db:"actor_display_name"`
		ActorPhotoURL    *string   `db:"actor_photo_url"`
	}

	var rows []notifRow
	if err := r.db.SelectContext(ctx, &rows, query, recipientID, limit); err != nil {
		return nil, 0, fmt.Errorf("get notifications: %w", err)
	}

	notifications := make([]model.Notification, len(rows))
	for i, row := range rows {
		notifications[i] = model.Notification{
			ID:               row.ID,
			RecipientID:      row.RecipientID,
			ActorID:          row.ActorID,
			Type:             row.Type,
			FollowRequestID:  row.FollowRequestID,
			PostID:           row.PostID,
			CommentID:        row.CommentID,
			ClubInvitationID: row.ClubInvitationID,
			IsRead:           row.IsRead,
			CreatedAt:        row.CreatedAt,
			Actor: &model.UserSummary{
				ID:          row.ActorID,
				Username:    row.ActorUsername,
				DisplayName: row.ActorDisplayName,
				PhotoURL:    row.ActorPhotoURL,
			},
		}
	}

	var unread int
	err := r.db.GetContext(ctx, &unread,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT is_read`, recipientID)
	if err != nil {
		return nil, 0, fmt.Errorf("count unread notifications: %w", err)
	}

	return notifications, unread, nil
}

// MarkAsRead marks the given notifications as read. IDs that belong to
// someone else are ignored.
func (r *notificationRepository) MarkAsRead(ctx context.Context, recipientID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND id = ANY($2)`
	if _, err := r.db.ExecContext(ctx, query, recipientID, pq.Array(ids)); err != nil {
		return fmt.Errorf("mark notifications as read: %w", err)
	}
	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, recipientID int64) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND NOT is_read`
	if _, err := r.db.ExecContext(ctx, query, recipientID); err != nil {
		return fmt.Errorf("mark all notifications as read: %w", err)
	}
	return nil
}
