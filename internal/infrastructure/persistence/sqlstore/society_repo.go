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

var societyColumns = []string{
	"id", "name", "street", "city", "state", "zip_code", "country", "registration_number",
	"contact_phone", "contact_email", "contact_website", "status", "created_by", "created_at", "updated_at",
}

// SocietyRepository implements port.SocietyRepository
type SocietyRepository struct {
	store *Store
}

// Create inserts a society. Names are unique regardless of case.
func (r *SocietyRepository) Create(ctx context.Context, society *entity.Society) error {
	insert := r.store.builder().
		Insert("societies").
		Columns(societyColumns...).
		Values(
			society.ID, society.Name,
			society.Address.Street, society.Address.City, society.Address.State, society.Address.ZipCode, society.Address.Country,
			society.RegistrationNumber,
			society.ContactInfo.Phone, society.ContactInfo.Email, society.ContactInfo.Website,
			string(society.Status), society.CreatedBy, utc(society.CreatedAt), utc(society.UpdatedAt),
		)
	if _, err := r.store.exec(ctx, "create society", insert); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return errs.Conflict("society with name %q already exists", society.Name)
		}
		return err
	}
	return nil
}

// GetByID retrieves a society, or nil when missing
func (r *SocietyRepository) GetByID(ctx context.Context, id string) (*entity.Society, error) {
	return r.getOne(ctx, "get society", sq.Eq{"id": id})
}

// GetByName retrieves a society by case-insensitive name, or nil when missing
func (r *SocietyRepository) GetByName(ctx context.Context, name string) (*entity.Society, error) {
	return r.getOne(ctx, "get society by name", sq.Expr("lower(name) = lower(?)", name))
}

// Update writes every mutable field. ID, creator and creation time are never changed.
func (r *SocietyRepository) Update(ctx context.Context, society *entity.Society) error {
	update := r.store.builder().
		Update("societies").
		SetMap(map[string]interface{}{
			"name":                society.Name,
			"street":              society.Address.Street,
			"city":                society.Address.City,
			"state":               society.Address.State,
			"zip_code":            society.Address.ZipCode,
			"country":             society.Address.Country,
			"registration_number": society.RegistrationNumber,
			"contact_phone":       society.ContactInfo.Phone,
			"contact_email":       society.ContactInfo.Email,
			"contact_website":     society.ContactInfo.Website,
			"status":              string(society.Status),
			"updated_at":          utc(society.UpdatedAt),
		}).
		Where(sq.Eq{"id": society.ID})

	n, err := r.store.exec(ctx, "update society", update)
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return errs.Conflict("society with name %q already exists", society.Name)
		}
		return err
	}
	if n == 0 {
		return errs.NotFound("society %s not found", society.ID)
	}
	return nil
}

// List returns societies with the given status, or all of them, ordered by name
func (r *SocietyRepository) List(ctx context.Context, status entity.SocietyStatus) ([]*entity.Society, error) {
	query := r.store.builder().Select(societyColumns...).From("societies").OrderBy("name", "id")
	if status != "" {
		query = query.Where(sq.Eq{"status": string(status)})
	}

	rows, err := r.store.query(ctx, "list societies", query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	societies := make([]*entity.Society, 0)
	for rows.Next() {
		society, err := scanSociety(rows)
		if err != nil {
			return nil, r.store.fail("scan society", err)
		}
		societies = append(societies, society)
	}
	if err := rows.Err(); err != nil {
		return nil, r.store.fail("list societies", err)
	}
	return societies, nil
}

func (r *SocietyRepository) getOne(ctx context.Context, op string, where sq.Sqlizer) (*entity.Society, error) {
	row, err := r.store.queryRow(ctx, op, r.store.builder().Select(societyColumns...).From("societies").Where(where))
	if err != nil {
		return nil, err
	}
	society, err := scanSociety(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.store.fail(op, err)
	}
	return society, nil
}

func scanSociety(row scanner) (*entity.Society, error) {
	var (
		s      entity.Society
		status string
	)
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Address.Street,
		&s.Address.City,
		&s.Address.State,
		&s.Address.ZipCode,
		&s.Address.Country,
		&s.RegistrationNumber,
		&s.ContactInfo.Phone,
		&s.ContactInfo.Email,
		&s.ContactInfo.Website,
		&status,
		&s.CreatedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Status = entity.SocietyStatus(status)
	return &s, nil
}

// Verify interface compliance
var _ port.SocietyRepository = (*SocietyRepository)(nil)
