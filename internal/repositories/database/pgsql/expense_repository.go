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
	"github.com/expensehub/expense_approval_app/internal/utils/pagination"
)

type PgxExpenseRepository struct {
	BaseRepository
}

func newPgxExpenseRepository(db *pgxpool.Pool) portsrepo.ExpenseRepositoryWithTx {
	return &PgxExpenseRepository{BaseRepository{Pool: db}}
}

var _ portsrepo.ExpenseRepositoryWithTx = (*PgxExpenseRepository)(nil)

const expenseColumns = `expense_id, requester_id, requester_name, company_id, amount, currency_code, converted_amount, base_currency_code, category, description, expense_date, paid_by, attachments, status, submitted_at, created_at, created_by, last_updated_at, last_updated_by`

func scanExpense(row pgx.Row) (models.Expense, error) {
	var m models.Expense
	err := row.Scan(
		&m.ExpenseID,
		&m.RequesterID,
		&m.RequesterName,
		&m.CompanyID,
		&m.Amount,
		&m.CurrencyCode,
		&m.ConvertedAmount,
		&m.BaseCurrencyCode,
		&m.Category,
		&m.Description,
		&m.ExpenseDate,
		&m.PaidBy,
		&m.Attachments,
		&m.Status,
		&m.SubmittedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func (r *PgxExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense) error {
	m, err := mapping.ToModelExpense(expense)
	if err != nil {
		return err
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`
	_, err = tx.Exec(ctx, query,
		m.ExpenseID, m.RequesterID, m.RequesterName, m.CompanyID,
		m.Amount, m.CurrencyCode, m.ConvertedAmount, m.BaseCurrencyCode,
		m.Category, m.Description, m.ExpenseDate, m.PaidBy, m.Attachments,
		m.Status, m.SubmittedAt,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}

	for _, line := range expense.Lines {
		lm := mapping.ToModelExpenseLine(line)
		_, err = tx.Exec(ctx, `
			INSERT INTO expense_lines (line_id, expense_id, item_description, amount)
			VALUES ($1, $2, $3, $4);
		`, lm.LineID, lm.ExpenseID, lm.ItemDescription, lm.Amount)
		if err != nil {
			return fmt.Errorf("failed to save expense line: %w", err)
		}
	}

	return r.Commit(ctx, tx)
}

func (r *PgxExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE expense_id = $1;`
	m, err := scanExpense(r.Pool.QueryRow(ctx, query, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find expense by ID %s: %w", expenseID, err)
	}

	d, err := mapping.ToDomainExpense(m)
	if err != nil {
		return nil, err
	}

	lines, err := r.findLines(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	d.Lines = lines

	history, err := r.findHistory(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	d.History = history

	return &d, nil
}

func (r *PgxExpenseRepository) findLines(ctx context.Context, expenseID string) ([]domain.ExpenseLine, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT line_id, expense_id, item_description, amount
		FROM expense_lines
		WHERE expense_id = $1
		ORDER BY line_id ASC;
	`, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expense lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.ExpenseLine
	for rows.Next() {
		var m models.ExpenseLine
		if err := rows.Scan(&m.LineID, &m.ExpenseID, &m.ItemDescription, &m.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense line: %w", err)
		}
		lines = append(lines, mapping.ToDomainExpenseLine(m))
	}
	return lines, rows.Err()
}

func (r *PgxExpenseRepository) findHistory(ctx context.Context, expenseID string) ([]domain.ApprovalRecord, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT record_id, expense_id, approver_id, approver_name, approver_role, level, action, comments, acted_at
		FROM approval_records
		WHERE expense_id = $1
		ORDER BY acted_at ASC, record_id ASC;
	`, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query approval records: %w", err)
	}
	defer rows.Close()

	var records []domain.ApprovalRecord
	for rows.Next() {
		var m models.ApprovalRecord
		if err := rows.Scan(&m.RecordID, &m.ExpenseID, &m.ApproverID, &m.ApproverName, &m.ApproverRole, &m.Level, &m.Action, &m.Comments, &m.ActedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval record: %w", err)
		}
		records = append(records, mapping.ToDomainApprovalRecord(m))
	}
	return records, rows.Err()
}

func (r *PgxExpenseRepository) ListExpensesByEmployee(ctx context.Context, employeeID string, status *domain.ExpenseStatus, limit int, nextToken *string) ([]domain.Expense, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE requester_id = $1`
	args := []interface{}{employeeID}

	if status != nil {
		args = append(args, string(*status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if nextToken != nil && *nextToken != "" {
		createdAt, id, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, createdAt, id)
		query += fmt.Sprintf(" AND (created_at, expense_id) < ($%d, $%d)", len(args)-1, len(args))
	}
	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY created_at DESC, expense_id DESC LIMIT $%d;", len(args))

	return r.queryExpensePage(ctx, query, args, limit)
}

func (r *PgxExpenseRepository) ListExpensesByCompany(ctx context.Context, companyID string, limit int, nextToken *string) ([]domain.Expense, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE company_id = $1`
	args := []interface{}{companyID}

	if nextToken != nil && *nextToken != "" {
		createdAt, id, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, createdAt, id)
		query += fmt.Sprintf(" AND (created_at, expense_id) < ($%d, $%d)", len(args)-1, len(args))
	}
	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY created_at DESC, expense_id DESC LIMIT $%d;", len(args))

	return r.queryExpensePage(ctx, query, args, limit)
}

// queryExpensePage runs a page query fetching limit+1 rows; the extra row, if
// present, yields the next pagination token.
func (r *PgxExpenseRepository) queryExpensePage(ctx context.Context, query string, args []interface{}, limit int) ([]domain.Expense, *string, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		m, err := scanExpense(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan expense row: %w", err)
		}
		d, err := mapping.ToDomainExpense(m)
		if err != nil {
			return nil, nil, err
		}
		expenses = append(expenses, d)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating expense rows: %w", err)
	}

	var next *string
	if len(expenses) > limit {
		expenses = expenses[:limit]
		last := expenses[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.ExpenseID)
		next = &token
	}
	return expenses, next, nil
}

func (r *PgxExpenseRepository) FindExpensesByIDs(ctx context.Context, expenseIDs []string) (map[string]domain.Expense, error) {
	if len(expenseIDs) == 0 {
		return map[string]domain.Expense{}, nil
	}
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE expense_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, expenseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find expenses by IDs: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Expense, len(expenseIDs))
	for rows.Next() {
		m, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense row: %w", err)
		}
		d, err := mapping.ToDomainExpense(m)
		if err != nil {
			return nil, err
		}
		byID[d.ExpenseID] = d
	}
	return byID, rows.Err()
}

func (r *PgxExpenseRepository) UpdateExpenseStatus(ctx context.Context, expense domain.Expense) error {
	m, err := mapping.ToModelExpense(expense)
	if err != nil {
		return err
	}
	query := `
		UPDATE expenses SET
			status = $2,
			submitted_at = $3,
			last_updated_at = $4,
			last_updated_by = $5
		WHERE expense_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, m.ExpenseID, m.Status, m.SubmittedAt, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		return fmt.Errorf("failed to update expense status for %s: %w", expense.ExpenseID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AppendApprovalRecord inserts one history record and updates the expense
// status in a single transaction so the audit trail can never drift from the
// status it explains.
func (r *PgxExpenseRepository) AppendApprovalRecord(ctx context.Context, expense domain.Expense, record domain.ApprovalRecord) error {
	m, err := mapping.ToModelExpense(expense)
	if err != nil {
		return err
	}
	rm := mapping.ToModelApprovalRecord(record)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	_, err = tx.Exec(ctx, `
		INSERT INTO approval_records (record_id, expense_id, approver_id, approver_name, approver_role, level, action, comments, acted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`, rm.RecordID, rm.ExpenseID, rm.ApproverID, rm.ApproverName, rm.ApproverRole, rm.Level, rm.Action, rm.Comments, rm.ActedAt)
	if err != nil {
		return fmt.Errorf("failed to insert approval record: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE expenses SET
			status = $2,
			last_updated_at = $3,
			last_updated_by = $4
		WHERE expense_id = $1;
	`, m.ExpenseID, m.Status, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		return fmt.Errorf("failed to update expense status for %s: %w", expense.ExpenseID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return r.Commit(ctx, tx)
}
