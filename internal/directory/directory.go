// Package directory exposes read access to the organizational
// directory: employees, their departments and role levels. The chain
// builder consumes this to route approvals; it never writes through it.
package directory

import (
	"context"
	"time"
)

// Known departments. Department values are free-form strings in
// storage; HR is special-cased by the chain builder.
const (
	DepartmentHR = "HR"
	DepartmentIT = "IT"
	DepartmentPR = "PR"
	DepartmentRD = "RD"
	DepartmentBD = "BD"
)

// Employee is an organizational record. AccountID links the employee to
// a platform user; it is empty for employees without an account, who
// can therefore never appear in an approval chain.
type Employee struct {
	ID         int64
	IDNo       string
	Department string
	RoleName   string
	RoleLevel  int
	AccountID  string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// Directory is the read-only query capability over employee records.
// Implementations must be safe to scope to a transaction so chain
// building sees a snapshot consistent with the aggregate write.
type Directory interface {
	// GetEmployeeByAccount resolves the employee linked to an account.
	// Returns (nil, nil) when no employee is linked to it.
	GetEmployeeByAccount(ctx context.Context, accountID string) (*Employee, error)

	// ListEmployeesByDepartment returns all employees of a department.
	ListEmployeesByDepartment(ctx context.Context, department string) ([]Employee, error)

	// FindHighestAuthorityAccount returns the account id of an ADMIN
	// user, or "" when none exists.
	FindHighestAuthorityAccount(ctx context.Context) (string, error)
}
