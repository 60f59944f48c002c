package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
)

var userColumns = []string{
	"id", "name", "email", "password_hash", "role", "society_id",
	"can_read", "can_write", "is_email_verified", "last_login", "created_at", "updated_at",
}

// UserRepository implements port.UserRepository
type UserRepository struct {
	store *Store
}

// Create inserts a user. Emails are unique regardless of case.
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	insert := r.store.builder().
		Insert("users").
		Columns(userColumns...).
		Values(
			user.ID, user.Name, user.Email, user.PasswordHash, string(user.Role), nullString(user.SocietyID),
			user.Permissions.CanRead, user.Permissions.CanWrite, user.IsEmailVerified,
			nullTime(user.LastLogin), utc(user.CreatedAt), utc(user.UpdatedAt),
		)
	if _, err := r.store.exec(ctx, "create user", insert); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return errs.Conflict("user with email %s already exists", user.Email)
		}
		return err
	}
	return nil
}

// GetByID retrieves a user, or nil when missing
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, "get user", sq.Eq{"id": id})
}

// GetByEmail retrieves a user by case-insensitive email, or nil when missing
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, "get user by email", sq.Expr("lower(email) = lower(?)", email))
}

// Update writes every mutable field of user
func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	update := r.store.builder().
		Update("users").
		SetMap(map[string]interface{}{
			"name":              user.Name,
			"email":             user.Email,
			"password_hash":     user.PasswordHash,
			"role":              string(user.Role),
			"society_id":        nullString(user.SocietyID),
			"can_read":          user.Permissions.CanRead,
			"can_write":         user.Permissions.CanWrite,
			"is_email_verified": user.IsEmailVerified,
			"last_login":        nullTime(user.LastLogin),
			"updated_at":        utc(user.UpdatedAt),
		}).
		Where(sq.Eq{"id": user.ID})

	n, err := r.store.exec(ctx, "update user", update)
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return errs.Conflict("user with email %s already exists", user.Email)
		}
		return err
	}
	if n == 0 {
		return errs.NotFound("user %s not found", user.ID)
	}
	return nil
}

// List returns users matching filter, oldest first
func (r *UserRepository) List(ctx context.Context, filter port.UserFilter) ([]*entity.User, error) {
	where := sq.And{}
	if filter.SocietyID != "" {
		where = append(where, sq.Eq{"society_id": filter.SocietyID})
	}
	if filter.Role != "" {
		where = append(where, sq.Eq{"role": string(filter.Role)})
	}

	rows, err := r.store.query(ctx, "list users", r.store.builder().
		Select(userColumns...).
		From("users").
		Where(where).
		OrderBy("created_at", "id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, r.store.fail("scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.store.fail("list users", err)
	}
	return users, nil
}

func (r *UserRepository) getOne(ctx context.Context, op string, where sq.Sqlizer) (*entity.User, error) {
	row, err := r.store.queryRow(ctx, op, r.store.builder().Select(userColumns...).From("users").Where(where))
	if err != nil {
		return nil, err
	}
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.store.fail(op, err)
	}
	return user, nil
}

func scanUser(row scanner) (*entity.User, error) {
	var (
		user      entity.User
		role      string
		societyID sql.NullString
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&role,
		&societyID,
		&user.Permissions.CanRead,
		&user.Permissions.CanWrite,
		&user.IsEmailVerified,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role = entity.Role(role)
	if societyID.Valid {
		user.SocietyID = &societyID.String
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	return &user, nil
}

// Verify interface compliance
var _ port.UserRepository = (*UserRepository)(nil)
