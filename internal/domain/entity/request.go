package entity

import (
	"encoding/json"
	"time"

	"github.com/garyjia/hr-approvals/internal/domain/workflow"
)

// ApprovalRequest is one leave, overtime or attendance request and its approval trail
type ApprovalRequest struct {
	ID              int64           `json:"id"`
	Kind            RequestKind     `json:"kind"`
	EmployeeID      int64           `json:"employee_id"`
	TeamLeadID      int64           `json:"team_lead_id"`
	BranchManagerID *int64          `json:"branch_manager_id,omitempty"`
	Payload         json.RawMessage `json:"payload,omitempty"`
	Status          workflow.State  `json:"status"`

	TeamLeadAction   *Action    `json:"team_lead_action,omitempty"`
	TeamLeadActionAt *time.Time `json:"team_lead_action_at,omitempty"`
	TeamLeadComment  *string    `json:"team_lead_comment,omitempty"`

	BranchAction   *Action    `json:"branch_action,omitempty"`
	BranchActionAt *time.Time `json:"branch_action_at,omitempty"`
	BranchComment  *string    `json:"branch_comment,omitempty"`

	HRAdminUserID *int64     `json:"hr_admin_user_id,omitempty"`
	EscalatedAt   *time.Time `json:"escalated_at,omitempty"`

	DueAt           *time.Time `json:"due_at,omitempty"`
	OverdueNotified bool       `json:"overdue_notified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy whose pointer fields do not alias the receiver
func (r *ApprovalRequest) Clone() *ApprovalRequest {
	c := *r
	c.BranchManagerID = clonePtr(r.BranchManagerID)
	c.TeamLeadAction = clonePtr(r.TeamLeadAction)
	c.TeamLeadActionAt = clonePtr(r.TeamLeadActionAt)
	c.TeamLeadComment = clonePtr(r.TeamLeadComment)
	c.BranchAction = clonePtr(r.BranchAction)
	c.BranchActionAt = clonePtr(r.BranchActionAt)
	c.BranchComment = clonePtr(r.BranchComment)
	c.HRAdminUserID = clonePtr(r.HRAdminUserID)
	c.EscalatedAt = clonePtr(r.EscalatedAt)
	c.DueAt = clonePtr(r.DueAt)
	if r.Payload != nil {
		c.Payload = append(json.RawMessage(nil), r.Payload...)
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// RequestView is a request as returned to readers, with derived flags
type RequestView struct {
	*ApprovalRequest
	IsOverdue bool `json:"is_overdue"`
}

// RequestFilter narrows request listings; nil fields are ignored
type RequestFilter struct {
	EmployeeID      *int64
	TeamLeadID      *int64
	BranchManagerID *int64
	Statuses        []workflow.State
	Kind            RequestKind
	Limit           int
	Offset          int
}
