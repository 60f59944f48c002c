package memory

import (
	"context"
	"sort"

	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
)

type transactionRepo struct {
	store *Store
}

func (r *transactionRepo) Create(ctx context.Context, txn *entity.Transaction) error {
	return r.store.write(ctx, func() error {
		if _, exists := r.store.transactions[txn.ID]; exists {
			return errs.Conflict("transaction %s already exists", txn.ID)
		}
		txn.Version = 1
		r.store.transactions[txn.ID] = txn.Clone()
		return nil
	})
}

func (r *transactionRepo) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.transactions[id].Clone(), nil
}

func (r *transactionRepo) Update(ctx context.Context, id string, expectedVersion int64, patch port.TransactionPatch) error {
	return r.store.write(ctx, func() error {
		current, ok := r.store.transactions[id]
		if !ok {
			return errs.NotFound("transaction %s not found", id)
		}
		if current.Version != expectedVersion {
			return errs.Conflict("transaction %s changed (version %d, expected %d)", id, current.Version, expectedVersion)
		}

		next := current.Clone()
		if patch.Status != nil {
			next.Status = *patch.Status
		}
		if patch.AssignedToAgent != nil {
			agent := *patch.AssignedToAgent
			next.AssignedToAgent = &agent
		}
		if patch.SetCompletedAt {
			next.CompletedAt = nil
			if patch.CompletedAt != nil {
				completed := *patch.CompletedAt
				next.CompletedAt = &completed
			}
		}
		if !patch.UpdatedAt.IsZero() {
			next.UpdatedAt = patch.UpdatedAt
		}
		next.Version++

		r.store.transactions[id] = next
		return nil
	})
}

func (r *transactionRepo) AppendRemark(ctx context.Context, id string, remark entity.Remark) error {
	return r.store.write(ctx, func() error {
		current, ok := r.store.transactions[id]
		if !ok {
			return errs.NotFound("transaction %s not found", id)
		}
		next := current.Clone()
		next.Remarks = append(next.Remarks, remark)
		r.store.transactions[id] = next
		return nil
	})
}

func (r *transactionRepo) AppendAttachment(ctx context.Context, id string, attachment entity.Attachment) error {
	return r.store.write(ctx, func() error {
		current, ok := r.store.transactions[id]
		if !ok {
			return errs.NotFound("transaction %s not found", id)
		}
		next := current.Clone()
		next.Attachments = append(next.Attachments, attachment)
		r.store.transactions[id] = next
		return nil
	})
}

func (r *transactionRepo) List(ctx context.Context, filter port.TransactionFilter) ([]*entity.Transaction, int, error) {
	r.store.mu.RLock()
	matches := make([]*entity.Transaction, 0, len(r.store.transactions))
	for _, txn := range r.store.transactions {
		if matchesFilter(txn, filter) {
			matches = append(matches, txn)
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID > matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	total := len(matches)
	start := filter.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && filter.Limit < total-start {
		end = start + filter.Limit
	}

	page := make([]*entity.Transaction, 0, end-start)
	for _, txn := range matches[start:end] {
		page = append(page, txn.Clone())
	}
	return page, total, nil
}

func matchesFilter(txn *entity.Transaction, f port.TransactionFilter) bool {
	if f.Status != "" && txn.Status != f.Status {
		return false
	}
	if f.SocietyID != "" && txn.SocietyID != f.SocietyID {
		return false
	}
	if f.AssignedTo != "" && !txn.IsAssignedTo(f.AssignedTo) {
		return false
	}
	if f.CreatedBy != "" && txn.CreatedBy != f.CreatedBy {
		return false
	}
	if f.From != nil && txn.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && txn.CreatedAt.After(*f.To) {
		return false
	}
	return true
}
