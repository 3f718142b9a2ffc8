package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"signoff.io/signoff/internal/directory"
)

// ErrDuplicate reports a unique constraint violation (id_no or
// account_id already taken).
var ErrDuplicate = errors.New("duplicate record")

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// pgDirectory serves directory reads over a pool or transaction.
type pgDirectory struct {
	q querier
}

// NewDirectory returns a pool-scoped directory view.
func (p *PG) NewDirectory() directory.Directory {
	return &pgDirectory{q: p.pool}
}

var _ directory.Directory = (*pgDirectory)(nil)

const employeeColumns = "id, id_no, department, role_name, role_level, account_id, created_at, updated_at"

func scanEmployee(row pgx.Row) (*directory.Employee, error) {
	var (
		e         directory.Employee
		accountID *string
	)
	err := row.Scan(&e.ID, &e.IDNo, &e.Department, &e.RoleName, &e.RoleLevel, &accountID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if accountID != nil {
		e.AccountID = *accountID
	}
	return &e, nil
}

func (d *pgDirectory) GetEmployeeByAccount(ctx context.Context, accountID string) (*directory.Employee, error) {
	e, err := scanEmployee(d.q.QueryRow(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE account_id = $1", accountID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get employee by account %s: %w", accountID, err)
	}
	return e, nil
}

func (d *pgDirectory) ListEmployeesByDepartment(ctx context.Context, department string) ([]directory.Employee, error) {
	rows, err := d.q.Query(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE department = $1 ORDER BY role_level, id_no", department)
	if err != nil {
		return nil, fmt.Errorf("list employees of department %s: %w", department, err)
	}
	defer rows.Close()

	var out []directory.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee row: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employee rows: %w", err)
	}
	return out, nil
}

func (d *pgDirectory) FindHighestAuthorityAccount(ctx context.Context) (string, error) {
	var id string
	err := d.q.QueryRow(ctx,
		"SELECT id FROM users WHERE role = 'ADMIN' ORDER BY created_at, id LIMIT 1",
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find administrator account: %w", err)
	}
	return id, nil
}

// --- employee administration ---

// CreateEmployee inserts an employee record and fills in the generated
// id. An empty AccountID is stored as NULL.
func (p *PG) CreateEmployee(ctx context.Context, e *directory.Employee) error {
	var accountID *string
	if e.AccountID != "" {
		accountID = &e.AccountID
	}
	err := p.pool.QueryRow(ctx, `
		INSERT INTO employees (id_no, department, role_name, role_level, account_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		e.IDNo, e.Department, e.RoleName, e.RoleLevel, accountID,
	).Scan(&e.ID, &e.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("create employee %s: %w", e.IDNo, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("create employee %s: %w", e.IDNo, err)
	}
	return nil
}

// UpsertEmployee inserts an employee record or refreshes an existing
// one keyed by id_no. Used by the seeder.
func (p *PG) UpsertEmployee(ctx context.Context, e *directory.Employee) error {
	var accountID *string
	if e.AccountID != "" {
		accountID = &e.AccountID
	}
	err := p.pool.QueryRow(ctx, `
		INSERT INTO employees (id_no, department, role_name, role_level, account_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id_no) DO UPDATE
		SET department = EXCLUDED.department,
		    role_name  = EXCLUDED.role_name,
		    role_level = EXCLUDED.role_level,
		    account_id = EXCLUDED.account_id,
		    updated_at = now()
		RETURNING id, created_at`,
		e.IDNo, e.Department, e.RoleName, e.RoleLevel, accountID,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert employee %s: %w", e.IDNo, err)
	}
	return nil
}

// GetEmployeeByID loads one employee. Returns (nil, nil) when absent.
func (p *PG) GetEmployeeByID(ctx context.Context, id int64) (*directory.Employee, error) {
	e, err := scanEmployee(p.pool.QueryRow(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get employee %d: %w", id, err)
	}
	return e, nil
}

// ListEmployees returns a page of employees with the total count. An
// empty department means all departments.
func (p *PG) ListEmployees(ctx context.Context, department string, page, size int) ([]directory.Employee, int, error) {
	where := "true"
	args := []any{}
	if department != "" {
		where = "department = $1"
		args = append(args, department)
	}

	var total int
	if err := p.pool.QueryRow(ctx,
		"SELECT count(*) FROM employees WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	limitPos := len(args) + 1
	args = append(args, size, (page-1)*size)
	rows, err := p.pool.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM employees WHERE %s ORDER BY department, role_level DESC, id_no LIMIT $%d OFFSET $%d",
		employeeColumns, where, limitPos, limitPos+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []directory.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan employee row: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate employee rows: %w", err)
	}
	return out, total, nil
}

// UpdateEmployee rewrites the mutable fields of an employee record.
// Returns false when the id is unknown.
func (p *PG) UpdateEmployee(ctx context.Context, e *directory.Employee) (bool, error) {
	var accountID *string
	if e.AccountID != "" {
		accountID = &e.AccountID
	}
	tag, err := p.pool.Exec(ctx, `
		UPDATE employees
		SET department = $2, role_name = $3, role_level = $4, account_id = $5, updated_at = now()
		WHERE id = $1`,
		e.ID, e.Department, e.RoleName, e.RoleLevel, accountID,
	)
	if isUniqueViolation(err) {
		return false, fmt.Errorf("update employee %d: %w", e.ID, ErrDuplicate)
	}
	if err != nil {
		return false, fmt.Errorf("update employee %d: %w", e.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteEmployee removes an employee record. Returns false when the id
// is unknown.
func (p *PG) DeleteEmployee(ctx context.Context, id int64) (bool, error) {
	tag, err := p.pool.Exec(ctx, "DELETE FROM employees WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete employee %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
