package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
	"github.com/garyjia/societyhub/internal/domain/workflow"
	"github.com/shopspring/decimal"
)

var transactionColumns = []string{
	"id", "vendor_name", "nature", "amount", "status", "created_by", "society_id",
	"assigned_to_agent", "version", "created_at", "updated_at", "completed_at",
}

// TransactionRepository implements port.TransactionRepository
type TransactionRepository struct {
	store *Store
}

// Create inserts a transaction together with its initial remarks and attachments
func (r *TransactionRepository) Create(ctx context.Context, txn *entity.Transaction) error {
	return r.store.WithTransaction(ctx, func(ctx context.Context) error {
		var amount decimal.NullDecimal
		if txn.Amount != nil {
			amount = decimal.NullDecimal{Decimal: *txn.Amount, Valid: true}
		}

		insert := r.store.builder().
			Insert("transactions").
			Columns(transactionColumns...).
			Values(
				txn.ID, txn.VendorName, txn.Nature, amount, string(txn.Status), txn.CreatedBy, txn.SocietyID,
				nullString(txn.AssignedToAgent), int64(1), utc(txn.CreatedAt), utc(txn.UpdatedAt), nullTime(txn.CompletedAt),
			)
		if _, err := r.store.exec(ctx, "create transaction", insert); err != nil {
			return err
		}
		txn.Version = 1

		for _, remark := range txn.Remarks {
			if err := r.AppendRemark(ctx, txn.ID, remark); err != nil {
				return err
			}
		}
		for _, attachment := range txn.Attachments {
			if err := r.AppendAttachment(ctx, txn.ID, attachment); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves a transaction with its remarks and attachments
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	row, err := r.store.queryRow(ctx, "get transaction",
		r.store.builder().Select(transactionColumns...).From("transactions").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.store.fail("get transaction", err)
	}

	if err := r.loadChildren(ctx, []*entity.Transaction{txn}); err != nil {
		return nil, err
	}
	return txn, nil
}

// Update applies patch when the stored version matches expectedVersion
func (r *TransactionRepository) Update(ctx context.Context, id string, expectedVersion int64, patch port.TransactionPatch) error {
	update := r.store.builder().
		Update("transactions").
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"id": id, "version": expectedVersion})

	if patch.Status != nil {
		update = update.Set("status", string(*patch.Status))
	}
	if patch.AssignedToAgent != nil {
		update = update.Set("assigned_to_agent", *patch.AssignedToAgent)
	}
	if patch.SetCompletedAt {
		update = update.Set("completed_at", nullTime(patch.CompletedAt))
	}
	if !patch.UpdatedAt.IsZero() {
		update = update.Set("updated_at", utc(patch.UpdatedAt))
	}

	n, err := r.store.exec(ctx, "update transaction", update)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	// Nothing matched: either the row is gone or someone else won the race
	current, err := r.version(ctx, id)
	if err != nil {
		return err
	}
	if current == 0 {
		return errs.NotFound("transaction %s not found", id)
	}
	return errs.Conflict("transaction %s changed (version %d, expected %d)", id, current, expectedVersion)
}

// AppendRemark adds a remark after the existing ones
func (r *TransactionRepository) AppendRemark(ctx context.Context, id string, remark entity.Remark) error {
	insert := r.store.builder().
		Insert("transaction_remarks").
		Columns("transaction_id", "text", "author", "type", "created_at").
		Values(id, remark.Text, remark.Author, string(remark.Type), utc(remark.Timestamp))
	if _, err := r.store.exec(ctx, "append remark", insert); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.NotFound("transaction %s not found", id)
		}
		return err
	}
	return nil
}

// AppendAttachment records an uploaded file against a transaction
func (r *TransactionRepository) AppendAttachment(ctx context.Context, id string, attachment entity.Attachment) error {
	insert := r.store.builder().
		Insert("transaction_attachments").
		Columns("id", "transaction_id", "file_name", "file_path", "file_size", "mime_type", "uploaded_by", "uploaded_at").
		Values(
			attachment.ID, id, attachment.FileName, attachment.FilePath, attachment.FileSize,
			attachment.MimeType, attachment.UploadedBy, utc(attachment.UploadedAt),
		)
	if _, err := r.store.exec(ctx, "append attachment", insert); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.NotFound("transaction %s not found", id)
		}
		return err
	}
	return nil
}

// List returns one page of matching transactions, newest first, and the total match count
func (r *TransactionRepository) List(ctx context.Context, filter port.TransactionFilter) ([]*entity.Transaction, int, error) {
	where := transactionWhere(filter)

	row, err := r.store.queryRow(ctx, "count transactions",
		r.store.builder().Select("COUNT(*)").From("transactions").Where(where))
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := row.Scan(&total); err != nil {
		return nil, 0, r.store.fail("count transactions", err)
	}

	query := r.store.builder().
		Select(transactionColumns...).
		From("transactions").
		Where(where).
		OrderBy("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			// SQLite requires a LIMIT before OFFSET
			query = query.Limit(uint64(total))
		}
		query = query.Offset(uint64(filter.Offset))
	}

	rows, err := r.store.query(ctx, "list transactions", query)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	txns := make([]*entity.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, r.store.fail("scan transaction", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, r.store.fail("list transactions", err)
	}

	if err := r.loadChildren(ctx, txns); err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func transactionWhere(f port.TransactionFilter) sq.And {
	where := sq.And{}
	if f.Status != "" {
		where = append(where, sq.Eq{"status": string(f.Status)})
	}
	if f.SocietyID != "" {
		where = append(where, sq.Eq{"society_id": f.SocietyID})
	}
	if f.AssignedTo != "" {
		where = append(where, sq.Eq{"assigned_to_agent": f.AssignedTo})
	}
	if f.CreatedBy != "" {
		where = append(where, sq.Eq{"created_by": f.CreatedBy})
	}
	if f.From != nil {
		where = append(where, sq.GtOrEq{"created_at": utc(*f.From)})
	}
	if f.To != nil {
		where = append(where, sq.LtOrEq{"created_at": utc(*f.To)})
	}
	return where
}

func (r *TransactionRepository) version(ctx context.Context, id string) (int64, error) {
	row, err := r.store.queryRow(ctx, "get transaction version",
		r.store.builder().Select("version").From("transactions").Where(sq.Eq{"id": id}))
	if err != nil {
		return 0, err
	}
	var v int64
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, r.store.fail("get transaction version", err)
	}
	return v, nil
}

// loadChildren fills remarks and attachments for txns with one query each
func (r *TransactionRepository) loadChildren(ctx context.Context, txns []*entity.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Transaction, len(txns))
	ids := make([]string, 0, len(txns))
	for _, txn := range txns {
		txn.Remarks = []entity.Remark{}
		txn.Attachments = []entity.Attachment{}
		byID[txn.ID] = txn
		ids = append(ids, txn.ID)
	}

	rows, err := r.store.query(ctx, "list remarks", r.store.builder().
		Select("transaction_id", "text", "author", "type", "created_at").
		From("transaction_remarks").
		Where(sq.Eq{"transaction_id": ids}).
		OrderBy("id"))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			txnID  string
			remark entity.Remark
			kind   string
		)
		if err := rows.Scan(&txnID, &remark.Text, &remark.Author, &kind, &remark.Timestamp); err != nil {
			return r.store.fail("scan remark", err)
		}
		remark.Type = workflow.RemarkType(kind)
		byID[txnID].Remarks = append(byID[txnID].Remarks, remark)
	}
	if err := rows.Err(); err != nil {
		return r.store.fail("list remarks", err)
	}

	attRows, err := r.store.query(ctx, "list attachments", r.store.builder().
		Select("transaction_id", "id", "file_name", "file_path", "file_size", "mime_type", "uploaded_by", "uploaded_at").
		From("transaction_attachments").
		Where(sq.Eq{"transaction_id": ids}).
		OrderBy("uploaded_at", "id"))
	if err != nil {
		return err
	}
	defer attRows.Close()
	for attRows.Next() {
		var (
			txnID string
			a     entity.Attachment
		)
		if err := attRows.Scan(&txnID, &a.ID, &a.FileName, &a.FilePath, &a.FileSize, &a.MimeType, &a.UploadedBy, &a.UploadedAt); err != nil {
			return r.store.fail("scan attachment", err)
		}
		byID[txnID].Attachments = append(byID[txnID].Attachments, a)
	}
	if err := attRows.Err(); err != nil {
		return r.store.fail("list attachments", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row scanner) (*entity.Transaction, error) {
	var (
		txn         entity.Transaction
		amount      decimal.NullDecimal
		status      string
		agent       sql.NullString
		completedAt sql.NullTime
	)
	err := row.Scan(
		&txn.ID,
		&txn.VendorName,
		&txn.Nature,
		&amount,
		&status,
		&txn.CreatedBy,
		&txn.SocietyID,
		&agent,
		&txn.Version,
		&txn.CreatedAt,
		&txn.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.Status = workflow.State(status)
	if amount.Valid {
		a := amount.Decimal
		txn.Amount = &a
	}
	if agent.Valid {
		txn.AssignedToAgent = &agent.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		txn.CompletedAt = &t
	}
	return &txn, nil
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Verify interface compliance
var _ port.TransactionRepository = (*TransactionRepository)(nil)
