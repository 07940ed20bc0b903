package models

import "database/sql"

// ApprovalRule is the database representation of an approval rule. The
// structured parts (conditions, levels, approvers) are stored as jsonb so the
// closed-variant schema lives in one place, the domain layer.
type ApprovalRule struct {
	RuleID              string         `db:"rule_id"`
	Name                string         `db:"name"`
	Description         sql.NullString `db:"description"`
	CompanyID           string         `db:"company_id"`
	Mode                string         `db:"mode"`
	Conditions          []byte         `db:"conditions"` // jsonb
	Levels              []byte         `db:"levels"`     // jsonb
	Approvers           []byte         `db:"approvers"`  // jsonb
	PercentageThreshold sql.NullInt32  `db:"percentage_threshold"`
	Priority            int            `db:"priority"`
	Active              bool           `db:"active"`
	AuditFields
}
