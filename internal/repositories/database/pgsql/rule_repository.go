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

type PgxRuleRepository struct {
	db *pgxpool.Pool
}

func newPgxRuleRepository(db *pgxpool.Pool) portsrepo.RuleRepositoryFacade {
	return &PgxRuleRepository{db: db}
}

var _ portsrepo.RuleRepositoryFacade = (*PgxRuleRepository)(nil)

const ruleColumns = `rule_id, name, description, company_id, mode, conditions, levels, approvers, percentage_threshold, priority, active, created_at, created_by, last_updated_at, last_updated_by`

func scanRule(row pgx.Row) (models.ApprovalRule, error) {
	var m models.ApprovalRule
	err := row.Scan(
		&m.RuleID,
		&m.Name,
		&m.Description,
		&m.CompanyID,
		&m.Mode,
		&m.Conditions,
		&m.Levels,
		&m.Approvers,
		&m.PercentageThreshold,
		&m.Priority,
		&m.Active,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func (r *PgxRuleRepository) SaveRule(ctx context.Context, rule domain.ApprovalRule) error {
	m, err := mapping.ToModelApprovalRule(rule)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO approval_rules (` + ruleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err = r.db.Exec(ctx, query,
		m.RuleID, m.Name, m.Description, m.CompanyID, m.Mode,
		m.Conditions, m.Levels, m.Approvers, m.PercentageThreshold,
		m.Priority, m.Active,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save approval rule: %w", err)
	}
	return nil
}

func (r *PgxRuleRepository) FindRuleByID(ctx context.Context, ruleID string) (*domain.ApprovalRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM approval_rules WHERE rule_id = $1;`
	m, err := scanRule(r.db.QueryRow(ctx, query, ruleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find rule by ID %s: %w", ruleID, err)
	}
	d, err := mapping.ToDomainApprovalRule(m)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListRulesByCompany returns all of a company's rules ordered by priority
// descending. Creation time ascending breaks priority ties, so evaluation
// order is stable across calls.
func (r *PgxRuleRepository) ListRulesByCompany(ctx context.Context, companyID string) ([]domain.ApprovalRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM approval_rules
		WHERE company_id = $1
		ORDER BY priority DESC, created_at ASC, rule_id ASC;
	`
	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules for company %s: %w", companyID, err)
	}
	defer rows.Close()

	var rules []domain.ApprovalRule
	for rows.Next() {
		m, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule row: %w", err)
		}
		d, err := mapping.ToDomainApprovalRule(m)
		if err != nil {
			return nil, err
		}
		rules = append(rules, d)
	}
	return rules, rows.Err()
}

func (r *PgxRuleRepository) UpdateRule(ctx context.Context, rule domain.ApprovalRule) error {
	m, err := mapping.ToModelApprovalRule(rule)
	if err != nil {
		return err
	}
	query := `
		UPDATE approval_rules SET
			name = $2,
			description = $3,
			mode = $4,
			conditions = $5,
			levels = $6,
			approvers = $7,
			percentage_threshold = $8,
			priority = $9,
			active = $10,
			last_updated_at = $11,
			last_updated_by = $12
		WHERE rule_id = $1;
	`
	tag, err := r.db.Exec(ctx, query,
		m.RuleID, m.Name, m.Description, m.Mode,
		m.Conditions, m.Levels, m.Approvers, m.PercentageThreshold,
		m.Priority, m.Active, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule %s: %w", rule.RuleID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
