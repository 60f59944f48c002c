package port

import (
	"context"
	"io"

	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/workflow"
)

// OutboundMessage is a rendered notification ready for delivery
type OutboundMessage struct {
	Type          string `json:"type"`
	Recipient     string `json:"recipient"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	TransactionID string `json:"transactionId,omitempty"`
}

// NotificationChannel delivers messages over one transport (log, lark, redis)
type NotificationChannel interface {
	Name() string
	Send(ctx context.Context, msg OutboundMessage) error
}

// TransactionNotifier is told about every committed status change.
// Implementations may fail; callers log the error and carry on.
type TransactionNotifier interface {
	NotifyTransactionUpdate(ctx context.Context, txn *entity.Transaction, actor entity.Actor, newStatus workflow.State, remark string) error
}

// ReportExporter renders a report and its rows into a downloadable document
type ReportExporter interface {
	ContentType() string
	FileExtension() string
	Export(w io.Writer, report *entity.Report, rows []*entity.Transaction) error
}
