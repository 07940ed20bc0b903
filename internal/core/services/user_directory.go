package services

import (
	"context"

	portssvc "github.com/expensehub/expense_approval_app/internal/core/ports/services"
)

// userDirectory adapts the user service to the EmployeeDirectory port so rule
// conditions can test the department and level stored on the user record.
type userDirectory struct {
	users portssvc.UserReaderSvc
}

// NewUserDirectory creates an employee directory backed by the user table.
func NewUserDirectory(users portssvc.UserReaderSvc) portssvc.EmployeeDirectory {
	return &userDirectory{users: users}
}

var _ portssvc.EmployeeDirectory = (*userDirectory)(nil)

func (d *userDirectory) LookupEmployee(ctx context.Context, employeeID string) (*portssvc.EmployeeProfile, error) {
	user, err := d.users.GetUserByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return &portssvc.EmployeeProfile{
		Department:    user.Department,
		EmployeeLevel: user.EmployeeLevel,
	}, nil
}
