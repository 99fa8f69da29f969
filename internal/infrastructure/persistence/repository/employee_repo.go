package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/garyjia/hr-approvals/internal/application/port"
	"github.com/garyjia/hr-approvals/internal/domain/entity"
	"github.com/garyjia/hr-approvals/internal/infrastructure/persistence/sqlite"
)

var employeeColumns = []string{
	"id", "full_name", "email", "job_title", "direct_manager", "indirect_manager", "status", "created_at",
}

// EmployeeRepository is the SQLite-backed employee directory
type EmployeeRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewEmployeeRepository creates a new employee directory
func NewEmployeeRepository(db *sqlite.DB, logger *zap.Logger) *EmployeeRepository {
	return &EmployeeRepository{db: db, logger: logger}
}

// ListApproverCandidates returns ACTIVE, PENDING and unset-status employees, newest first
func (r *EmployeeRepository) ListApproverCandidates(ctx context.Context) ([]entity.Employee, error) {
	query, args, err := psql.Select(employeeColumns...).
		From("employees").
		Where(sq.Or{
			sq.Eq{"status": []string{entity.EmployeeStatusActive, entity.EmployeeStatusPending}},
			sq.Eq{"status": nil},
		}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list approver candidates", zap.Error(err))
		return nil, fmt.Errorf("failed to list approver candidates: %w", err)
	}
	defer rows.Close()

	var out []entity.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		out = append(out, *emp)
	}
	return out, rows.Err()
}

// GetEmployee returns nil, nil when the employee does not exist
func (r *EmployeeRepository) GetEmployee(ctx context.Context, id int64) (*entity.Employee, error) {
	query, args, err := psql.Select(employeeColumns...).From("employees").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	emp, err := scanEmployee(r.db.Executor(ctx).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get employee", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

// ListHRUserIDs returns every user holding the HR role
func (r *EmployeeRepository) ListHRUserIDs(ctx context.Context) ([]int64, error) {
	query, args, err := psql.Select("id").From("users").Where(sq.Eq{"role": entity.RoleHR}).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list HR users", zap.Error(err))
		return nil, fmt.Errorf("failed to list HR users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IsHRUser reports whether the user holds the HR role
func (r *EmployeeRepository) IsHRUser(ctx context.Context, userID int64) (bool, error) {
	query, args, err := psql.Select("1").From("users").
		Where(sq.Eq{"id": userID, "role": entity.RoleHR}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build select: %w", err)
	}

	var one int
	err = r.db.Executor(ctx).QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		r.logger.Error("Failed to check HR role", zap.Int64("user_id", userID), zap.Error(err))
		return false, fmt.Errorf("failed to check HR role: %w", err)
	}
	return true, nil
}

// CreateEmployee inserts a directory record; used by seeding and tests
func (r *EmployeeRepository) CreateEmployee(ctx context.Context, emp *entity.Employee) error {
	values := map[string]interface{}{
		"full_name":        emp.FullName,
		"email":            emp.Email,
		"job_title":        emp.JobTitle,
		"direct_manager":   emp.DirectManager,
		"indirect_manager": emp.IndirectManager,
		"status":           nullableString(emp.Status),
	}
	if !emp.CreatedAt.IsZero() {
		values["created_at"] = emp.CreatedAt.UTC()
	}

	query, args, err := psql.Insert("employees").SetMap(values).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	result, err := r.db.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	emp.ID = id
	return nil
}

// CreateUser inserts a login account
func (r *EmployeeRepository) CreateUser(ctx context.Context, u *entity.User) error {
	query, args, err := psql.Insert("users").
		Columns("employee_id", "username", "role").
		Values(u.EmployeeID, u.Username, u.Role).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	result, err := r.db.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	u.ID = id
	return nil
}

func scanEmployee(row rowScanner) (*entity.Employee, error) {
	var emp entity.Employee
	var status sql.NullString
	if err := row.Scan(&emp.ID, &emp.FullName, &emp.Email, &emp.JobTitle,
		&emp.DirectManager, &emp.IndirectManager, &status, &emp.CreatedAt); err != nil {
		return nil, err
	}
	emp.Status = status.String
	emp.CreatedAt = emp.CreatedAt.UTC()
	return &emp, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

var _ port.EmployeeDirectory = (*EmployeeRepository)(nil)
