// Package memory is the in-process persistence provider used when the
// durable database cannot be reached. Nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"go.uber.org/zap"
)

type txToken struct{}

// Store keeps every record in maps guarded by one lock.
// Records are copy-on-write: a stored pointer is never mutated in place.
type Store struct {
	// writeMu serializes writers so a transaction can roll back by restoring a snapshot
	writeMu sync.Mutex

	mu            sync.RWMutex
	transactions  map[string]*entity.Transaction
	users         map[string]*entity.User
	societies     map[string]*entity.Society
	notifications map[string]*entity.Notification

	logger *zap.Logger
}

// NewStore creates an empty in-memory store
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		transactions:  make(map[string]*entity.Transaction),
		users:         make(map[string]*entity.User),
		societies:     make(map[string]*entity.Society),
		notifications: make(map[string]*entity.Notification),
		logger:        logger,
	}
}

type snapshot struct {
	transactions  map[string]*entity.Transaction
	users         map[string]*entity.User
	societies     map[string]*entity.Society
	notifications map[string]*entity.Notification
}

// WithTransaction runs fn with all-or-nothing semantics.
// Nested calls join the outer transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snap := s.snapshot()
	txCtx := context.WithValue(ctx, txToken{}, s)

	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			s.logger.Error("Transaction panicked, rolled back", zap.Any("panic", p))
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	return fn(txCtx)
}

// Transactions returns the transaction repository
func (s *Store) Transactions() port.TransactionRepository {
	return &transactionRepo{store: s}
}

// Users returns the user repository
func (s *Store) Users() port.UserRepository {
	return &userRepo{store: s}
}

// Societies returns the society repository
func (s *Store) Societies() port.SocietyRepository {
	return &societyRepo{store: s}
}

// Notifications returns the notification repository
func (s *Store) Notifications() port.NotificationRepository {
	return &notificationRepo{store: s}
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

// Backend names the implementation
func (s *Store) Backend() string {
	return "memory"
}

// write runs fn under the writer lock unless ctx already holds it
func (s *Store) write(ctx context.Context, fn func() error) error {
	if !inTx(ctx) {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return snapshot{
		transactions:  copyMap(s.transactions),
		users:         copyMap(s.users),
		societies:     copyMap(s.societies),
		notifications: copyMap(s.notifications),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = snap.transactions
	s.users = snap.users
	s.societies = snap.societies
	s.notifications = snap.notifications
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txToken{}).(*Store)
	return ok
}

func copyMap[T any](src map[string]*T) map[string]*T {
	dst := make(map[string]*T, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Verify interface compliance
var _ port.Store = (*Store)(nil)
