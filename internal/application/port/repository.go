package port

import (
	"context"
	"time"

	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/workflow"
)

// TransactionFilter narrows a transaction listing. Zero values mean "any".
type TransactionFilter struct {
	Status     workflow.State
	SocietyID  string
	AssignedTo string
	CreatedBy  string
	From       *time.Time
	To         *time.Time

	// Limit of 0 returns every match
	Limit  int
	Offset int
}

// TransactionPatch carries the mutable fields of a transaction.
// Nil pointers leave the stored value untouched.
type TransactionPatch struct {
	Status          *workflow.State
	AssignedToAgent *string

	// SetCompletedAt writes CompletedAt, including clearing it with nil
	SetCompletedAt bool
	CompletedAt    *time.Time

	UpdatedAt time.Time
}

// TransactionRepository defines persistence operations for Transaction.
// Remarks and attachments are owned by their transaction and returned with it.
type TransactionRepository interface {
	Create(ctx context.Context, txn *entity.Transaction) error

	// GetByID returns (nil, nil) when the transaction does not exist
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)

	// Update applies patch only if the stored version still equals expectedVersion,
	// and bumps the version. A stale version yields errs.ErrConflict.
	Update(ctx context.Context, id string, expectedVersion int64, patch TransactionPatch) error

	AppendRemark(ctx context.Context, id string, remark entity.Remark) error
	AppendAttachment(ctx context.Context, id string, attachment entity.Attachment) error

	// List returns the requested page ordered newest first, plus the total match count
	List(ctx context.Context, filter TransactionFilter) ([]*entity.Transaction, int, error)
}

// UserFilter narrows a user listing
type UserFilter struct {
	SocietyID string
	Role      entity.Role
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	// Create fails with errs.ErrConflict on a duplicate email
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	List(ctx context.Context, filter UserFilter) ([]*entity.User, error)
}

// SocietyRepository defines persistence operations for Society
type SocietyRepository interface {
	// Create fails with errs.ErrConflict on a duplicate name
	Create(ctx context.Context, society *entity.Society) error
	GetByID(ctx context.Context, id string) (*entity.Society, error)
	GetByName(ctx context.Context, name string) (*entity.Society, error)
	Update(ctx context.Context, society *entity.Society) error

	// List returns societies with the given status, or all when status is empty
	List(ctx context.Context, status entity.SocietyStatus) ([]*entity.Society, error)
}

// NotificationRepository defines persistence operations for Notification
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	UpdateStatus(ctx context.Context, id string, status string, errorMsg string) error
	MarkSent(ctx context.Context, id string) error
	ListByTransaction(ctx context.Context, transactionID string) ([]*entity.Notification, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store is the persistence provider. The durable and in-memory backends
// both implement it with the same semantics.
type Store interface {
	TransactionManager

	Transactions() TransactionRepository
	Users() UserRepository
	Societies() SocietyRepository
	Notifications() NotificationRepository

	Ping(ctx context.Context) error
	Close() error

	// Backend names the active implementation, e.g. "sqlite3", "postgres" or "memory"
	Backend() string
}
