package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
	"github.com/garyjia/societyhub/internal/domain/event"
	domainwf "github.com/garyjia/societyhub/internal/domain/workflow"
	"github.com/garyjia/societyhub/pkg/utils"
	"github.com/google/uuid"
)

// Annotate appends a manual remark. It is the only way to record a rejection remark.
func (e *engineImpl) Annotate(ctx context.Context, transactionID string, actor entity.Actor, text string, remarkType string) (*entity.Transaction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.InvalidArgument("remark text is required")
	}

	kind := domainwf.RemarkType(strings.TrimSpace(remarkType))
	if kind == "" {
		kind = domainwf.RemarkInfo
	}
	if !kind.IsValid() {
		return nil, errs.InvalidArgument("invalid remark type %q", remarkType)
	}
	if err := checkAnnotate(actor, kind); err != nil {
		return nil, err
	}

	err := e.withRetry(ctx, transactionID, func(txn *entity.Transaction) (func(context.Context) error, error) {
		if err := checkVisible(txn, actor); err != nil {
			return nil, err
		}
		now := e.now()
		return func(txCtx context.Context) error {
			repo := e.store.Transactions()
			if err := repo.Update(txCtx, txn.ID, txn.Version, port.TransactionPatch{UpdatedAt: now}); err != nil {
				return err
			}
			return repo.AppendRemark(txCtx, txn.ID, entity.Remark{
				Text:      text,
				Author:    actor.ID,
				Timestamp: now,
				Type:      kind,
			})
		}, nil
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, event.TypeRemarkAdded, transactionID, actor.ID, map[string]interface{}{
		"remark_type": string(kind),
	})

	return e.load(ctx, transactionID)
}

// AttachFile stores the upload and records its metadata on the transaction
func (e *engineImpl) AttachFile(ctx context.Context, transactionID string, actor entity.Actor, upload AttachmentUpload) (*entity.Transaction, error) {
	if e.files == nil {
		return nil, errs.Unavailable("attach file", fmt.Errorf("file storage is not configured"))
	}

	name := filepath.Base(strings.TrimSpace(upload.FileName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, errs.InvalidArgument("file name is required")
	}
	if len(upload.Content) == 0 {
		return nil, errs.InvalidArgument("file is empty")
	}
	if e.maxAttachmentBytes > 0 && int64(len(upload.Content)) > e.maxAttachmentBytes {
		return nil, errs.InvalidArgument("file exceeds the %d byte limit", e.maxAttachmentBytes)
	}

	txn, err := e.load(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if err := checkVisible(txn, actor); err != nil {
		return nil, err
	}
	if txn.IsCompleted() && !actor.IsAdmin() {
		return nil, errs.Forbidden("cannot attach files to a completed transaction")
	}

	attachment := entity.Attachment{
		ID:         uuid.NewString(),
		FileName:   name,
		FileSize:   int64(len(upload.Content)),
		MimeType:   upload.MimeType,
		UploadedBy: actor.ID,
		UploadedAt: e.now(),
	}
	attachment.FilePath = filepath.ToSlash(filepath.Join(
		"transactions", txn.ID, attachment.ID[:8]+"_"+utils.SanitizeFileName(name),
	))

	if err := e.files.Save(ctx, attachment.FilePath, upload.Content); err != nil {
		return nil, errs.Unavailable("save attachment", err)
	}

	err = e.withRetry(ctx, transactionID, func(current *entity.Transaction) (func(context.Context) error, error) {
		return func(txCtx context.Context) error {
			repo := e.store.Transactions()
			patch := port.TransactionPatch{UpdatedAt: attachment.UploadedAt}
			if err := repo.Update(txCtx, current.ID, current.Version, patch); err != nil {
				return err
			}
			return repo.AppendAttachment(txCtx, current.ID, attachment)
		}, nil
	})
	if err != nil {
		if delErr := e.files.Delete(ctx, attachment.FilePath); delErr != nil {
			e.logger.Error("Failed to remove orphaned attachment", "path", attachment.FilePath, "error", delErr)
		}
		return nil, err
	}

	e.logger.Info("Attachment stored",
		"transaction_id", transactionID,
		"file_name", name,
		"size", attachment.FileSize,
	)
	e.emit(ctx, event.TypeAttachmentAdded, transactionID, actor.ID, map[string]interface{}{
		"attachment_id": attachment.ID,
		"file_name":     name,
	})

	return e.load(ctx, transactionID)
}
