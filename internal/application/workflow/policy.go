package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
	domainwf "github.com/garyjia/societyhub/internal/domain/workflow"
)

// refusal is the reason a guard turned a transition down
type refusal struct {
	reason string
}

func (r *refusal) Error() string {
	return r.reason
}

func refuse(format string, args ...interface{}) error {
	return &refusal{reason: fmt.Sprintf(format, args...)}
}

// transitionGuard encodes who may move a transaction:
// admins always, society users only to answer a clarification request
// on their own society's transaction, agents only on transactions assigned to them.
func transitionGuard(txn *entity.Transaction, actor entity.Actor) domainwf.GuardFunc {
	return func(ctx context.Context, from, to domainwf.State) error {
		switch actor.Role {
		case entity.RoleAdmin:
			return nil
		case entity.RoleSocietyUser:
			if !actor.BelongsTo(txn.SocietyID) {
				return refuse("transaction belongs to another society")
			}
			if from != domainwf.StatePendingForClarification {
				return refuse("society users can only respond to clarification requests (current status %s)", from)
			}
			return nil
		case entity.RoleAgent:
			if !txn.IsAssignedTo(actor.ID) {
				return refuse("transaction is not assigned to you")
			}
			return nil
		default:
			return refuse("role %q cannot change transaction status", actor.Role)
		}
	}
}

// checkVisible returns Forbidden unless the actor may read the transaction
func checkVisible(txn *entity.Transaction, actor entity.Actor) error {
	switch actor.Role {
	case entity.RoleAdmin:
		return nil
	case entity.RoleSocietyUser:
		if actor.BelongsTo(txn.SocietyID) {
			return nil
		}
		return errs.Forbidden("transaction belongs to another society")
	case entity.RoleAgent:
		if txn.IsAssignedTo(actor.ID) {
			return nil
		}
		return errs.Forbidden("transaction is not assigned to you")
	default:
		return errs.Forbidden("role %q cannot access transactions", actor.Role)
	}
}

// checkAnnotate limits verdict remarks to reviewers
func checkAnnotate(actor entity.Actor, remarkType domainwf.RemarkType) error {
	if actor.Role != entity.RoleSocietyUser {
		return nil
	}
	if remarkType == domainwf.RemarkApproval || remarkType == domainwf.RemarkRejection {
		return errs.Forbidden("society users cannot add %s remarks", remarkType)
	}
	return nil
}

// guardError converts a state machine failure into the error taxonomy
func guardError(err error) error {
	var r *refusal
	if errors.As(err, &r) {
		return errs.Forbidden("%s", r.reason)
	}
	if errors.Is(err, domainwf.ErrGuardFailed) {
		return errs.Forbidden("transition not permitted")
	}
	if errors.Is(err, domainwf.ErrInvalidTransition) {
		return errs.InvalidArgument("%v", err)
	}
	return err
}
