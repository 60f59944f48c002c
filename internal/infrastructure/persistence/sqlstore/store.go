// Package sqlstore is the durable persistence provider, backed by SQLite or PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/errs"
	"github.com/garyjia/societyhub/pkg/database"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const txKey contextKey = "tx"

// Store implements port.Store on top of a database/sql connection
type Store struct {
	db     *database.DB
	logger *zap.Logger

	transactions  *TransactionRepository
	users         *UserRepository
	societies     *SocietyRepository
	notifications *NotificationRepository
}

// New creates a store over an open, migrated database
func New(db *database.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{db: db, logger: logger}
	s.transactions = &TransactionRepository{store: s}
	s.users = &UserRepository{store: s}
	s.societies = &SocietyRepository{store: s}
	s.notifications = &NotificationRepository{store: s}
	return s
}

// Transactions returns the transaction repository
func (s *Store) Transactions() port.TransactionRepository { return s.transactions }

// Users returns the user repository
func (s *Store) Users() port.UserRepository { return s.users }

// Societies returns the society repository
func (s *Store) Societies() port.SocietyRepository { return s.societies }

// Notifications returns the notification repository
func (s *Store) Notifications() port.NotificationRepository { return s.notifications }

// Backend names the SQL driver in use
func (s *Store) Backend() string {
	return s.db.Driver()
}

// Ping verifies the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errs.Unavailable("ping database", err)
	}
	return nil
}

// Close closes the underlying connection
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTransaction implements port.TransactionManager
// Executes the provided function within a database transaction
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Check if already in a transaction
	if tx := extractTx(ctx); tx != nil {
		// Reuse existing transaction
		return fn(ctx)
	}

	// Start new transaction
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("Failed to begin transaction", zap.Error(err))
		return errs.Unavailable("begin transaction", err)
	}

	// Add transaction to context
	txCtx := context.WithValue(ctx, txKey, tx)

	// Handle panic and ensure rollback
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			s.logger.Error("Transaction panicked, rolled back", zap.Any("panic", p))
			panic(p)
		}
	}()

	// Execute function
	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", zap.Error(err))
		return errs.Unavailable("commit transaction", err)
	}

	return nil
}

// extractTx retrieves transaction from context if present
func extractTx(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txKey).(*sql.Tx); ok {
		return tx
	}
	return nil
}

// getExecutor returns appropriate executor (transaction or database)
func (s *Store) getExecutor(ctx context.Context) executor {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return s.db.DB
}

// executor interface covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *Store) builder() sq.StatementBuilderType {
	return s.db.Builder()
}

// exec builds and runs a statement, returning the rows affected
func (s *Store) exec(ctx context.Context, op string, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build %s query: %w", op, err)
	}
	result, err := s.getExecutor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, s.fail(op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, s.fail(op, err)
	}
	return n, nil
}

// query builds and runs a select
func (s *Store) query(ctx context.Context, op string, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", op, err)
	}
	rows, err := s.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.fail(op, err)
	}
	return rows, nil
}

// queryRow builds and runs a single-row select
func (s *Store) queryRow(ctx context.Context, op string, b sq.Sqlizer) (*sql.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", op, err)
	}
	return s.getExecutor(ctx).QueryRowContext(ctx, query, args...), nil
}

// fail logs a driver error and maps it onto the error taxonomy
func (s *Store) fail(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("failed to %s: %w", op, err)
	case isUniqueViolation(err):
		return errs.Conflict("%s: duplicate key", op)
	case isForeignKeyViolation(err):
		return errs.NotFound("%s: referenced record does not exist", op)
	}
	s.logger.Error("Database operation failed", zap.String("op", op), zap.Error(err))
	return errs.Unavailable(op, err)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

// Verify interface compliance
var _ port.Store = (*Store)(nil)
