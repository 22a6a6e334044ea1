package policy

import (
	"errors"

	"kasirpos/backend/internal/domain"
)

var ErrForbidden = errors.New("forbidden")

type Action string

const (
	UserViewAny       Action = "user.view_any"
	UserView          Action = "user.view"
	TransactionCreate Action = "transaction.create"
	TransactionSync   Action = "transaction.sync"
	TransactionView   Action = "transaction.view"
	CashFlowCreate    Action = "cashflow.create"
	CashFlowUpdate    Action = "cashflow.update"
	CashFlowDelete    Action = "cashflow.delete"
	ReportExport      Action = "report.export"
)

// Resource identifies the record an action targets. Zero OwnerID means the
// action has no specific owner.
type Resource struct {
	Kind    string
	ID      int64
	OwnerID int64
}

func Owned(kind string, id int64, ownerID int64) Resource {
	return Resource{Kind: kind, ID: id, OwnerID: ownerID}
}

// Check returns ErrForbidden when actor may not perform action on res.
func Check(actor domain.Actor, action Action, res Resource) error {
	if actor.UserID == 0 {
		return ErrForbidden
	}

	switch action {
	case CashFlowUpdate, CashFlowDelete:
		// Ledger entries belong to whoever recorded them, admins included.
		if res.OwnerID != actor.UserID {
			return ErrForbidden
		}
		return nil
	case UserViewAny:
		if actor.Role == domain.RoleAdmin {
			return nil
		}
		return ErrForbidden
	case UserView:
		if actor.Role == domain.RoleAdmin || res.ID == actor.UserID {
			return nil
		}
		return ErrForbidden
	case TransactionCreate, TransactionSync, TransactionView, CashFlowCreate, ReportExport:
		if actor.Role == domain.RoleAdmin || actor.Role == domain.RoleCashier {
			return nil
		}
		return ErrForbidden
	default:
		return ErrForbidden
	}
}

// DeniedError is a refusal carrying a message meant for the client.
type DeniedError struct {
	Message string
}

func (e *DeniedError) Error() string { return e.Message }

func (e *DeniedError) Unwrap() error { return ErrForbidden }

// Deny wraps a policy failure with a client-facing message. Other errors
// pass through untouched.
func Deny(err error, message string) error {
	if errors.Is(err, ErrForbidden) {
		return &DeniedError{Message: message}
	}
	return err
}
