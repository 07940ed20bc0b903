package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expensehub/expense_approval_app/internal/apperrors"
	"github.com/expensehub/expense_approval_app/internal/core/domain"
	portsrepo "github.com/expensehub/expense_approval_app/internal/core/ports/repositories"
	"github.com/expensehub/expense_approval_app/internal/models"
	"github.com/expensehub/expense_approval_app/internal/utils/mapping"
)

type PgxFlowRepository struct {
	BaseRepository
}

func newPgxFlowRepository(db *pgxpool.Pool) portsrepo.FlowRepositoryWithTx {
	return &PgxFlowRepository{BaseRepository{Pool: db}}
}

var _ portsrepo.FlowRepositoryWithTx = (*PgxFlowRepository)(nil)

const flowColumns = `flow_id, expense_id, rule_id, mode, current_level, total_levels, approvers, percentage_threshold, status, steps, started_at, completed_at, created_at, created_by, last_updated_at, last_updated_by`

func scanFlow(row pgx.Row) (models.ApprovalFlow, error) {
	var m models.ApprovalFlow
	err := row.Scan(
		&m.FlowID,
		&m.ExpenseID,
		&m.RuleID,
		&m.Mode,
		&m.CurrentLevel,
		&m.TotalLevels,
		&m.Approvers,
		&m.PercentageThreshold,
		&m.Status,
		&m.Steps,
		&m.StartedAt,
		&m.CompletedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func (r *PgxFlowRepository) SaveFlow(ctx context.Context, flow domain.ApprovalFlow) error {
	m, err := mapping.ToModelApprovalFlow(flow)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO approval_flows (` + flowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err = r.Pool.Exec(ctx, query,
		m.FlowID, m.ExpenseID, m.RuleID, m.Mode, m.CurrentLevel, m.TotalLevels,
		m.Approvers, m.PercentageThreshold, m.Status, m.Steps, m.StartedAt, m.CompletedAt,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save approval flow: %w", err)
	}
	return nil
}

func (r *PgxFlowRepository) FindFlowByID(ctx context.Context, flowID string) (*domain.ApprovalFlow, error) {
	query := `SELECT ` + flowColumns + ` FROM approval_flows WHERE flow_id = $1;`
	m, err := scanFlow(r.Pool.QueryRow(ctx, query, flowID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find flow by ID %s: %w", flowID, err)
	}
	d, err := mapping.ToDomainApprovalFlow(m)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PgxFlowRepository) FindFlowByExpenseID(ctx context.Context, expenseID string) (*domain.ApprovalFlow, error) {
	query := `SELECT ` + flowColumns + ` FROM approval_flows WHERE expense_id = $1;`
	m, err := scanFlow(r.Pool.QueryRow(ctx, query, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find flow for expense %s: %w", expenseID, err)
	}
	d, err := mapping.ToDomainApprovalFlow(m)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListPendingFlowsByRole matches against the jsonb steps payload: the step at
// the current level pointer must list the role in its accepted set.
func (r *PgxFlowRepository) ListPendingFlowsByRole(ctx context.Context, role domain.UserRole) ([]domain.ApprovalFlow, error) {
	query := `
		SELECT ` + flowColumns + `
		FROM approval_flows
		WHERE status = 'PENDING'
		  AND steps -> (current_level - 1) -> 'roles' ? $1
		ORDER BY started_at ASC, flow_id ASC;
	`
	return r.queryFlows(ctx, query, string(role))
}

// ListPendingFlowsByApprover matches pending percentage-mode flows whose voter
// list contains the approver. The not-yet-voted filter happens in the service,
// which already walks the current step's actions.
func (r *PgxFlowRepository) ListPendingFlowsByApprover(ctx context.Context, approverID string) ([]domain.ApprovalFlow, error) {
	query := `
		SELECT ` + flowColumns + `
		FROM approval_flows
		WHERE status = 'PENDING'
		  AND mode = 'PERCENTAGE'
		  AND approvers @> jsonb_build_array(jsonb_build_object('approverID', $1::text))
		ORDER BY started_at ASC, flow_id ASC;
	`
	return r.queryFlows(ctx, query, approverID)
}

func (r *PgxFlowRepository) queryFlows(ctx context.Context, query string, args ...interface{}) ([]domain.ApprovalFlow, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval flows: %w", err)
	}
	defer rows.Close()

	var flows []domain.ApprovalFlow
	for rows.Next() {
		m, err := scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow row: %w", err)
		}
		d, err := mapping.ToDomainApprovalFlow(m)
		if err != nil {
			return nil, err
		}
		flows = append(flows, d)
	}
	return flows, rows.Err()
}

func (r *PgxFlowRepository) UpdateFlow(ctx context.Context, flow domain.ApprovalFlow) error {
	m, err := mapping.ToModelApprovalFlow(flow)
	if err != nil {
		return err
	}
	query := `
		UPDATE approval_flows SET
			current_level = $2,
			status = $3,
			steps = $4,
			completed_at = $5,
			last_updated_at = $6,
			last_updated_by = $7
		WHERE flow_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query,
		m.FlowID, m.CurrentLevel, m.Status, m.Steps, m.CompletedAt,
		m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update flow %s: %w", flow.FlowID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
