package services

import (
	"context"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
)

// ExpenseEvent describes a status change a listener may react to. The core
// fires events; delivery (email, chat, webhooks) is a host concern.
type ExpenseEvent struct {
	ExpenseID string
	Status    domain.ExpenseStatus
	// ActorID is the user whose action caused the change, empty for system moves.
	ActorID string
}

// Notifier receives expense status change events.
type Notifier interface {
	NotifyExpenseStatusChanged(ctx context.Context, event ExpenseEvent)
}
