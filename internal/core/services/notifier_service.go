package services

import (
	"context"
	"log/slog"

	portssvc "github.com/expensehub/expense_approval_app/internal/core/ports/services"
	"github.com/expensehub/expense_approval_app/internal/middleware"
)

// logNotifier records expense status changes to the structured log. It stands
// in for a real delivery channel (email, chat) behind the same interface.
type logNotifier struct{}

// NewLogNotifier creates a notifier that writes events to the request logger.
func NewLogNotifier() portssvc.Notifier {
	return &logNotifier{}
}

var _ portssvc.Notifier = (*logNotifier)(nil)

func (n *logNotifier) NotifyExpenseStatusChanged(ctx context.Context, event portssvc.ExpenseEvent) {
	middleware.GetLoggerFromCtx(ctx).Info("Expense status changed",
		slog.String("expense_id", event.ExpenseID),
		slog.String("status", string(event.Status)),
		slog.String("actor_id", event.ActorID),
	)
}
