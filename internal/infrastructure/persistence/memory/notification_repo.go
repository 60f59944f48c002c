package memory

import (
	"context"
	"sort"
	"time"

	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
)

type notificationRepo struct {
	store *Store
}

func (r *notificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	return r.store.write(ctx, func() error {
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now()
		}
		copied := *n
		r.store.notifications[n.ID] = &copied
		return nil
	})
}

func (r *notificationRepo) UpdateStatus(ctx context.Context, id string, status string, errorMsg string) error {
	return r.store.write(ctx, func() error {
		current, ok := r.store.notifications[id]
		if !ok {
			return errs.NotFound("notification %s not found", id)
		}
		next := *current
		next.Status = status
		next.ErrorMessage = errorMsg
		r.store.notifications[id] = &next
		return nil
	})
}

func (r *notificationRepo) MarkSent(ctx context.Context, id string) error {
	return r.store.write(ctx, func() error {
		current, ok := r.store.notifications[id]
		if !ok {
			return errs.NotFound("notification %s not found", id)
		}
		now := time.Now()
		next := *current
		next.Status = entity.NotificationStatusSent
		next.ErrorMessage = ""
		next.SentAt = &now
		r.store.notifications[id] = &next
		return nil
	})
}

func (r *notificationRepo) ListByTransaction(ctx context.Context, transactionID string) ([]*entity.Notification, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*entity.Notification, 0)
	for _, n := range r.store.notifications {
		if n.TransactionID == transactionID {
			copied := *n
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
