package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/societyhub/internal/application/dispatcher"
	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
	"github.com/garyjia/societyhub/internal/domain/event"
	domainwf "github.com/garyjia/societyhub/internal/domain/workflow"
	"github.com/garyjia/societyhub/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// engineImpl is the concrete implementation of WorkflowEngine
type engineImpl struct {
	store      port.Store
	notifier   port.TransactionNotifier
	dispatcher dispatcher.Dispatcher
	files      port.FileStorage
	logger     Logger
	now        func() time.Time

	maxAttempts        int
	maxAttachmentBytes int64
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithFileStorage enables AttachFile
func WithFileStorage(files port.FileStorage) EngineOption {
	return func(e *engineImpl) {
		e.files = files
	}
}

// WithLogger sets the engine logger
func WithLogger(logger Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = logger
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// WithMaxAttempts sets how often a write is retried after losing a version race
func WithMaxAttempts(n int) EngineOption {
	return func(e *engineImpl) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithMaxAttachmentBytes caps the size of uploaded files. Zero means no cap.
func WithMaxAttachmentBytes(n int64) EngineOption {
	return func(e *engineImpl) {
		e.maxAttachmentBytes = n
	}
}

// NewEngine creates a new workflow engine. notifier may be nil.
func NewEngine(store port.Store, notifier port.TransactionNotifier, opts ...EngineOption) WorkflowEngine {
	e := &engineImpl{
		store:       store,
		notifier:    notifier,
		logger:      nopLogger{},
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Create records a new transaction in the initial state
func (e *engineImpl) Create(ctx context.Context, req CreateRequest) (*entity.Transaction, error) {
	vendorName := strings.TrimSpace(req.VendorName)
	nature := strings.TrimSpace(req.Nature)
	if vendorName == "" || nature == "" {
		return nil, errs.InvalidArgument("vendor name and nature are required")
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	society, err := e.store.Societies().GetByID(ctx, req.SocietyID)
	if err != nil {
		return nil, err
	}
	if society == nil {
		return nil, errs.NotFound("society %s not found", req.SocietyID)
	}

	creator, err := e.store.Users().GetByID(ctx, req.CreatorID)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, errs.NotFound("user %s not found", req.CreatorID)
	}

	now := e.now()
	txn := &entity.Transaction{
		ID:          uuid.NewString(),
		VendorName:  vendorName,
		Nature:      nature,
		Amount:      amount,
		Status:      domainwf.InitialState,
		CreatedBy:   creator.ID,
		SocietyID:   society.ID,
		Remarks:     []entity.Remark{},
		Attachments: []entity.Attachment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if text := strings.TrimSpace(req.InitialRemark); text != "" {
		txn.Remarks = append(txn.Remarks, entity.Remark{
			Text:      text,
			Author:    creator.ID,
			Timestamp: now,
			Type:      domainwf.RemarkInfo,
		})
	}

	if err := e.store.Transactions().Create(ctx, txn); err != nil {
		e.logger.Error("Failed to create transaction", "society_id", society.ID, "error", err)
		return nil, err
	}

	e.logger.Info("Transaction created",
		"transaction_id", txn.ID,
		"society_id", txn.SocietyID,
		"created_by", txn.CreatedBy,
	)
	e.emit(ctx, event.TypeTransactionCreated, txn.ID, creator.ID, map[string]interface{}{
		"society_id":  txn.SocietyID,
		"vendor_name": txn.VendorName,
	})

	return txn, nil
}

// Transition moves a transaction to a new status
func (e *engineImpl) Transition(ctx context.Context, transactionID string, actor entity.Actor, newStatus string, remark string) (*entity.Transaction, error) {
	target, err := domainwf.ParseState(newStatus)
	if err != nil {
		return nil, errs.InvalidArgument("invalid status %q", newStatus)
	}
	trigger, _ := domainwf.TriggerFor(target)
	remark = strings.TrimSpace(remark)

	var previous domainwf.State
	err = e.withRetry(ctx, transactionID, func(txn *entity.Transaction) (func(context.Context) error, error) {
		machine := domainwf.BuildTransactionStateMachine(txn.Status, transitionGuard(txn, actor))
		if err := machine.Fire(ctx, trigger); err != nil {
			return nil, guardError(err)
		}
		previous = txn.Status

		now := e.now()
		status := machine.State()
		patch := port.TransactionPatch{
			Status:         &status,
			SetCompletedAt: true,
			CompletedAt:    completedAt(txn, status, now),
			UpdatedAt:      now,
		}

		return func(txCtx context.Context) error {
			repo := e.store.Transactions()
			if err := repo.Update(txCtx, txn.ID, txn.Version, patch); err != nil {
				return err
			}
			if remark == "" {
				return nil
			}
			return repo.AppendRemark(txCtx, txn.ID, entity.Remark{
				Text:      remark,
				Author:    actor.ID,
				Timestamp: now,
				Type:      domainwf.RemarkTypeFor(status),
			})
		}, nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := e.load(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Transaction status changed",
		"transaction_id", transactionID,
		"actor_id", actor.ID,
		"role", actor.Role,
		"from", previous,
		"to", target,
	)
	if previous.IsTerminal() && !target.IsTerminal() {
		e.logger.Warn("Completed transaction reopened",
			"transaction_id", transactionID,
			"actor_id", actor.ID,
			"to", target,
		)
	}

	e.notify(ctx, updated, actor, target, remark)
	e.emit(ctx, event.TypeStatusChanged, transactionID, actor.ID, map[string]interface{}{
		"previous_status": previous.String(),
		"new_status":      target.String(),
		"trigger":         trigger.String(),
		"has_remark":      remark != "",
	})

	return updated, nil
}

// Assign hands a transaction to an agent
func (e *engineImpl) Assign(ctx context.Context, transactionID string, actor entity.Actor, agentID string) (*entity.Transaction, error) {
	if !actor.IsAdmin() {
		return nil, errs.Forbidden("only admins can assign transactions")
	}

	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, errs.InvalidArgument("agent ID is required")
	}
	agent, err := e.store.Users().GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil || agent.Role != entity.RoleAgent {
		return nil, errs.InvalidArgument("invalid agent ID")
	}

	var previous domainwf.State
	err = e.withRetry(ctx, transactionID, func(txn *entity.Transaction) (func(context.Context) error, error) {
		previous = txn.Status
		status := domainwf.StatePendingOnAgent
		patch := port.TransactionPatch{
			Status:          &status,
			AssignedToAgent: &agent.ID,
			SetCompletedAt:  true,
			CompletedAt:     nil,
			UpdatedAt:       e.now(),
		}
		return func(txCtx context.Context) error {
			return e.store.Transactions().Update(txCtx, txn.ID, txn.Version, patch)
		}, nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := e.load(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Transaction assigned",
		"transaction_id", transactionID,
		"agent_id", agent.ID,
		"previous_status", previous,
	)
	e.emit(ctx, event.TypeTransactionAssigned, transactionID, actor.ID, map[string]interface{}{
		"agent_id":        agent.ID,
		"previous_status": previous.String(),
	})

	return updated, nil
}

// mutation prepares the write for a freshly read transaction. A returned error aborts
// without retrying; the returned func runs inside a store transaction.
type mutation func(txn *entity.Transaction) (func(ctx context.Context) error, error)

// withRetry reads the transaction, lets prepare decide on the write and commits it.
// Losing a version race re-reads and re-evaluates, so permissions are always checked
// against the state that is actually overwritten.
func (e *engineImpl) withRetry(ctx context.Context, transactionID string, prepare mutation) error {
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		txn, err := e.load(ctx, transactionID)
		if err != nil {
			return err
		}

		write, err := prepare(txn)
		if err != nil {
			return err
		}

		err = e.store.WithTransaction(ctx, write)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errs.ErrConflict) {
			return err
		}

		lastErr = err
		e.logger.Warn("Concurrent update detected, retrying",
			"transaction_id", transactionID,
			"attempt", attempt,
		)
	}

	return fmt.Errorf("%w: transaction %s was modified concurrently (%v)", errs.ErrConflict, transactionID, lastErr)
}

func (e *engineImpl) load(ctx context.Context, transactionID string) (*entity.Transaction, error) {
	if strings.TrimSpace(transactionID) == "" {
		return nil, errs.InvalidArgument("transaction ID is required")
	}
	txn, err := e.store.Transactions().GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, errs.NotFound("transaction %s not found", transactionID)
	}
	return txn, nil
}

// notify is best effort: errors and panics from the sink are logged and dropped
func (e *engineImpl) notify(ctx context.Context, txn *entity.Transaction, actor entity.Actor, status domainwf.State, remark string) {
	if e.notifier == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Notification sink panicked",
				"transaction_id", txn.ID,
				"panic", r,
			)
		}
	}()

	if err := e.notifier.NotifyTransactionUpdate(ctx, txn, actor, status, remark); err != nil {
		e.logger.Error("Failed to send transaction notification",
			"transaction_id", txn.ID,
			"status", status,
			"error", err,
		)
	}
}

func (e *engineImpl) emit(ctx context.Context, eventType event.Type, aggregateID, actorID string, payload map[string]interface{}) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.DispatchAsync(ctx, event.NewEvent(eventType, aggregateID, actorID, payload))
}

// completedAt keeps the completion time set exactly while the status is completed.
// Re-completing preserves the original timestamp.
func completedAt(txn *entity.Transaction, status domainwf.State, now time.Time) *time.Time {
	if status != domainwf.StateCompleted {
		return nil
	}
	if txn.CompletedAt != nil {
		completed := *txn.CompletedAt
		return &completed
	}
	return &now
}

// parseAmount accepts an optional non-negative decimal
func parseAmount(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, errs.InvalidArgument("amount %q is not a number", raw)
	}
	if err := utils.ValidateAmount(amount); err != nil {
		return nil, errs.InvalidArgument("%v", err)
	}
	return &amount, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Verify interface compliance
var _ WorkflowEngine = (*engineImpl)(nil)
