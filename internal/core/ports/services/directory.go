package services

import "context"

// EmployeeProfile carries the organizational attributes rule conditions may test.
type EmployeeProfile struct {
	Department    string
	EmployeeLevel string
}

// EmployeeDirectory resolves organizational data for rule condition evaluation.
// The rule engine treats it as optional: without a directory, rules carrying
// DEPARTMENT or EMPLOYEE_LEVEL conditions are rejected at creation time so the
// rule author is told, instead of those conditions silently passing.
type EmployeeDirectory interface {
	LookupEmployee(ctx context.Context, employeeID string) (*EmployeeProfile, error)
}
