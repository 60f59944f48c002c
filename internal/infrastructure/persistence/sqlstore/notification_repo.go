package sqlstore

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
)

var notificationColumns = []string{
	"id", "type", "recipient", "subject", "body", "transaction_id",
	"channel", "status", "error_message", "created_at", "sent_at",
}

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	store *Store
}

// Create records a notification
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Status == "" {
		n.Status = entity.NotificationStatusPending
	}

	insert := r.store.builder().
		Insert("notifications").
		Columns(notificationColumns...).
		Values(
			n.ID, n.Type, n.Recipient, n.Subject, n.Body, n.TransactionID,
			n.Channel, n.Status, n.ErrorMessage, utc(n.CreatedAt), nullTime(n.SentAt),
		)
	_, err := r.store.exec(ctx, "create notification", insert)
	return err
}

// UpdateStatus updates the notification status and error message
func (r *NotificationRepository) UpdateStatus(ctx context.Context, id string, status string, errorMsg string) error {
	update := r.store.builder().
		Update("notifications").
		Set("status", status).
		Set("error_message", errorMsg).
		Where(sq.Eq{"id": id})
	return r.updateOne(ctx, "update notification status", id, update)
}

// MarkSent marks notification as sent
func (r *NotificationRepository) MarkSent(ctx context.Context, id string) error {
	update := r.store.builder().
		Update("notifications").
		Set("status", entity.NotificationStatusSent).
		Set("error_message", "").
		Set("sent_at", time.Now().UTC()).
		Where(sq.Eq{"id": id})
	return r.updateOne(ctx, "mark notification sent", id, update)
}

// ListByTransaction returns the notifications for a transaction, oldest first
func (r *NotificationRepository) ListByTransaction(ctx context.Context, transactionID string) ([]*entity.Notification, error) {
	rows, err := r.store.query(ctx, "list notifications", r.store.builder().
		Select(notificationColumns...).
		From("notifications").
		Where(sq.Eq{"transaction_id": transactionID}).
		OrderBy("created_at", "id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*entity.Notification, 0)
	for rows.Next() {
		var (
			n      entity.Notification
			sentAt sql.NullTime
		)
		if err := rows.Scan(
			&n.ID, &n.Type, &n.Recipient, &n.Subject, &n.Body, &n.TransactionID,
			&n.Channel, &n.Status, &n.ErrorMessage, &n.CreatedAt, &sentAt,
		); err != nil {
			return nil, r.store.fail("scan notification", err)
		}
		if sentAt.Valid {
			t := sentAt.Time
			n.SentAt = &t
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, r.store.fail("list notifications", err)
	}
	return out, nil
}

func (r *NotificationRepository) updateOne(ctx context.Context, op, id string, b sq.Sqlizer) error {
	n, err := r.store.exec(ctx, op, b)
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound("notification %s not found", id)
	}
	return nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
