package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/garyjia/hr-approvals/internal/application/port"
	"github.com/garyjia/hr-approvals/internal/domain/entity"
	"github.com/garyjia/hr-approvals/internal/domain/workflow"
	"github.com/garyjia/hr-approvals/internal/infrastructure/persistence/sqlite"
)

const requestsTable = "approval_requests"

var requestColumns = []string{
	"id", "kind", "employee_id", "team_lead_id", "branch_manager_id", "payload", "status",
	"team_lead_action", "team_lead_action_at", "team_lead_comment",
	"branch_action", "branch_action_at", "branch_comment",
	"hr_admin_user_id", "escalated_at", "due_at", "overdue_notified",
	"created_at", "updated_at",
}

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sqlite.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{db: db, logger: logger}
}

// Create inserts a request and assigns its ID
func (r *RequestRepository) Create(ctx context.Context, req *entity.ApprovalRequest) error {
	values := mutableValues(req)
	values["kind"] = string(req.Kind)
	values["employee_id"] = req.EmployeeID
	values["team_lead_id"] = req.TeamLeadID
	values["created_at"] = req.CreatedAt.UTC()

	query, args, err := psql.Insert(requestsTable).SetMap(values).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to create request", zap.Int64("employee_id", req.EmployeeID), zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	req.ID = id
	return nil
}

// GetByID retrieves a request by ID; nil, nil when it does not exist
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.ApprovalRequest, error) {
	query, args, err := psql.Select(requestColumns...).From(requestsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	req, err := scanRequest(r.db.Executor(ctx).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// List retrieves requests matching filter, newest first
func (r *RequestRepository) List(ctx context.Context, filter entity.RequestFilter) ([]*entity.ApprovalRequest, error) {
	q := psql.Select(requestColumns...).From(requestsTable).OrderBy("created_at DESC", "id DESC")

	if filter.EmployeeID != nil {
		q = q.Where(sq.Eq{"employee_id": *filter.EmployeeID})
	}
	if filter.TeamLeadID != nil {
		q = q.Where(sq.Eq{"team_lead_id": *filter.TeamLeadID})
	}
	if filter.BranchManagerID != nil {
		q = q.Where(sq.Eq{"branch_manager_id": *filter.BranchManagerID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where(sq.Eq{"status": statuses})
	}
	if filter.Kind != "" {
		q = q.Where(sq.Eq{"kind": string(filter.Kind)})
	}
	switch {
	case filter.Limit > 0:
		q = q.Limit(uint64(filter.Limit))
	case filter.Offset > 0:
		// SQLite only accepts OFFSET after a LIMIT
		q = q.Limit(math.MaxInt64)
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var reqs []*entity.ApprovalRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// UpdateIfStatus writes req only while the stored status equals expected
func (r *RequestRepository) UpdateIfStatus(ctx context.Context, req *entity.ApprovalRequest, expected workflow.State) error {
	query, args, err := psql.Update(requestsTable).
		SetMap(mutableValues(req)).
		Where(sq.Eq{"id": req.ID, "status": string(expected)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update request", zap.Int64("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to update request: %w", err)
	}
	return requireOneRow(result)
}

// DeleteIfStatus removes the request only while its status equals expected
func (r *RequestRepository) DeleteIfStatus(ctx context.Context, id int64, expected workflow.State) error {
	query, args, err := psql.Delete(requestsTable).
		Where(sq.Eq{"id": id, "status": string(expected)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete request", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete request: %w", err)
	}
	return requireOneRow(result)
}

// MarkOverdueNotified flags overdue tier-1 requests in one statement and
// returns the IDs that were still eligible.
func (r *RequestRepository) MarkOverdueNotified(ctx context.Context, ids []int64, at time.Time) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	at = at.UTC()

	query, args, err := psql.Update(requestsTable).
		Set("overdue_notified", true).
		Set("updated_at", at).
		Where(sq.Eq{
			"id":               ids,
			"status":           string(workflow.StatePendingTeamLead),
			"overdue_notified": false,
		}).
		Where(sq.Lt{"due_at": at}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update: %w", err)
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to flag overdue requests", zap.Int("candidates", len(ids)), zap.Error(err))
		return nil, fmt.Errorf("failed to flag overdue requests: %w", err)
	}
	defer rows.Close()

	var flagged []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan flagged id: %w", err)
		}
		flagged = append(flagged, id)
	}
	return flagged, rows.Err()
}

// mutableValues returns every column a transition may change
func mutableValues(req *entity.ApprovalRequest) map[string]interface{} {
	return map[string]interface{}{
		"branch_manager_id":   req.BranchManagerID,
		"payload":             nullableJSON(req.Payload),
		"status":              string(req.Status),
		"team_lead_action":    nullableAction(req.TeamLeadAction),
		"team_lead_action_at": utcPtr(req.TeamLeadActionAt),
		"team_lead_comment":   req.TeamLeadComment,
		"branch_action":       nullableAction(req.BranchAction),
		"branch_action_at":    utcPtr(req.BranchActionAt),
		"branch_comment":      req.BranchComment,
		"hr_admin_user_id":    req.HRAdminUserID,
		"escalated_at":        utcPtr(req.EscalatedAt),
		"due_at":              utcPtr(req.DueAt),
		"overdue_notified":    req.OverdueNotified,
		"updated_at":          req.UpdatedAt.UTC(),
	}
}

func scanRequest(row rowScanner) (*entity.ApprovalRequest, error) {
	var (
		req                              entity.ApprovalRequest
		branchManagerID, hrAdminUserID   sql.NullInt64
		payload                          sql.NullString
		teamLeadAction, branchAction     sql.NullString
		teamLeadComment, branchComment   sql.NullString
		teamLeadActionAt, branchActionAt sql.NullTime
		escalatedAt, dueAt               sql.NullTime
	)

	err := row.Scan(
		&req.ID, &req.Kind, &req.EmployeeID, &req.TeamLeadID, &branchManagerID, &payload, &req.Status,
		&teamLeadAction, &teamLeadActionAt, &teamLeadComment,
		&branchAction, &branchActionAt, &branchComment,
		&hrAdminUserID, &escalatedAt, &dueAt, &req.OverdueNotified,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.BranchManagerID = int64Ptr(branchManagerID)
	req.HRAdminUserID = int64Ptr(hrAdminUserID)
	if payload.Valid {
		req.Payload = []byte(payload.String)
	}
	req.TeamLeadAction = actionPtr(teamLeadAction)
	req.TeamLeadActionAt = timePtr(teamLeadActionAt)
	req.TeamLeadComment = stringPtr(teamLeadComment)
	req.BranchAction = actionPtr(branchAction)
	req.BranchActionAt = timePtr(branchActionAt)
	req.BranchComment = stringPtr(branchComment)
	req.EscalatedAt = timePtr(escalatedAt)
	req.DueAt = timePtr(dueAt)
	req.CreatedAt = req.CreatedAt.UTC()
	req.UpdatedAt = req.UpdatedAt.UTC()
	return &req, nil
}

func nullableAction(a *entity.Action) interface{} {
	if a == nil {
		return nil
	}
	return string(*a)
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func actionPtr(v sql.NullString) *entity.Action {
	if !v.Valid {
		return nil
	}
	a := entity.Action(v.String)
	return &a
}
