package workflow

import (
	"context"

	"github.com/garyjia/societyhub/internal/domain/entity"
	domainwf "github.com/garyjia/societyhub/internal/domain/workflow"
)

// WorkflowEngine drives transactions through the approval workflow.
// Every write is committed atomically; a failed call leaves the record untouched.
type WorkflowEngine interface {
	// Create records a new transaction in pending_on_society
	Create(ctx context.Context, req CreateRequest) (*entity.Transaction, error)

	// Transition moves a transaction to newStatus if the actor's role allows it,
	// appends the optional remark and notifies the sink
	Transition(ctx context.Context, transactionID string, actor entity.Actor, newStatus string, remark string) (*entity.Transaction, error)

	// Assign hands a transaction to an agent and forces pending_on_agent. Admin only.
	Assign(ctx context.Context, transactionID string, actor entity.Actor, agentID string) (*entity.Transaction, error)

	// Get returns a transaction the actor is allowed to see
	Get(ctx context.Context, transactionID string, actor entity.Actor) (*entity.Transaction, error)

	// AllowedStatuses lists the statuses the actor may move txn to, in workflow order
	AllowedStatuses(ctx context.Context, txn *entity.Transaction, actor entity.Actor) []domainwf.State

	// List returns the page of transactions visible to the actor
	List(ctx context.Context, actor entity.Actor, filter ListFilter) (*ListResult, error)

	// Annotate appends a manual remark without changing status
	Annotate(ctx context.Context, transactionID string, actor entity.Actor, text string, remarkType string) (*entity.Transaction, error)

	// AttachFile stores a supporting document and records it on the transaction
	AttachFile(ctx context.Context, transactionID string, actor entity.Actor, upload AttachmentUpload) (*entity.Transaction, error)
}

// CreateRequest carries the input of Create
type CreateRequest struct {
	SocietyID  string
	CreatorID  string
	VendorName string
	Nature     string

	// Amount is the raw amount; empty means "not given"
	Amount string

	InitialRemark string
}

// ListFilter narrows List. Status and SocietyID are optional.
type ListFilter struct {
	Status    string
	SocietyID string
	Page      int
	Limit     int
}

// ListResult is one page of transactions
type ListResult struct {
	Transactions []*entity.Transaction `json:"transactions"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
	TotalPages   int                   `json:"totalPages"`
}

// AttachmentUpload is a file received from a client
type AttachmentUpload struct {
	FileName string
	MimeType string
	Content  []byte
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

const (
	defaultPage        = 1
	defaultLimit       = 10
	maxLimit           = 100
	defaultMaxAttempts = 3
)
