package workflow

import (
	"context"
	"math"

	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
	domainwf "github.com/garyjia/societyhub/internal/domain/workflow"
)

// Get returns a transaction the actor is allowed to see
func (e *engineImpl) Get(ctx context.Context, transactionID string, actor entity.Actor) (*entity.Transaction, error) {
	txn, err := e.load(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if err := checkVisible(txn, actor); err != nil {
		return nil, err
	}
	return txn, nil
}

// AllowedStatuses evaluates the transition guard against every status
func (e *engineImpl) AllowedStatuses(ctx context.Context, txn *entity.Transaction, actor entity.Actor) []domainwf.State {
	machine := domainwf.BuildTransactionStateMachine(txn.Status, transitionGuard(txn, actor))
	return domainwf.NextStates(ctx, machine)
}

// List returns a page of transactions scoped to the actor's role, newest first
func (e *engineImpl) List(ctx context.Context, actor entity.Actor, filter ListFilter) (*ListResult, error) {
	query, err := scopeFilter(actor, filter)
	if err != nil {
		return nil, err
	}

	page, limit, err := normalizePage(filter.Page, filter.Limit)
	if err != nil {
		return nil, err
	}
	query.Limit = limit
	query.Offset = (page - 1) * limit

	txns, total, err := e.store.Transactions().List(ctx, query)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Transactions: txns,
		Total:        total,
		Page:         page,
		Limit:        limit,
		TotalPages:   (total + limit - 1) / limit,
	}, nil
}

// scopeFilter restricts a listing to what the actor may see
func scopeFilter(actor entity.Actor, filter ListFilter) (port.TransactionFilter, error) {
	var query port.TransactionFilter

	if filter.Status != "" {
		status, err := domainwf.ParseState(filter.Status)
		if err != nil {
			return query, errs.InvalidArgument("invalid status %q", filter.Status)
		}
		query.Status = status
	}

	switch actor.Role {
	case entity.RoleAdmin:
		query.SocietyID = filter.SocietyID
	case entity.RoleSocietyUser:
		if actor.SocietyID == "" {
			return query, errs.Forbidden("user is not affiliated with a society")
		}
		query.SocietyID = actor.SocietyID
	case entity.RoleAgent:
		query.AssignedTo = actor.ID
	default:
		return query, errs.Forbidden("role %q cannot list transactions", actor.Role)
	}

	return query, nil
}

// normalizePage applies defaults and rejects pages whose offset would overflow
func normalizePage(page, limit int) (int, int, error) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if page-1 > math.MaxInt/limit {
		return 0, 0, errs.InvalidArgument("page %d is out of range", page)
	}
	return page, limit, nil
}
