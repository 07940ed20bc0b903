package models

import (
	"database/sql"
	"time"
)

// ApprovalFlow is the database representation of an approval flow. Steps carry
// their append-only actions and are stored as jsonb: they are always read and
// written as a unit and their shape is the domain's concern.
type ApprovalFlow struct {
	FlowID              string         `db:"flow_id"`
	ExpenseID           string         `db:"expense_id"`
	RuleID              string         `db:"rule_id"`
	Mode                string         `db:"mode"`
	CurrentLevel        int            `db:"current_level"`
	TotalLevels         int            `db:"total_levels"`
	Approvers           []byte         `db:"approvers"` // jsonb
	PercentageThreshold sql.NullInt32  `db:"percentage_threshold"`
	Status              string         `db:"status"`
	Steps               []byte         `db:"steps"` // jsonb
	StartedAt           time.Time      `db:"started_at"`
	CompletedAt         sql.NullTime   `db:"completed_at"`
	AuditFields
}
