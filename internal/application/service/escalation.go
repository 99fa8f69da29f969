package service

import (
	"time"

	"github.com/garyjia/hr-approvals/internal/application/port"
	"github.com/garyjia/hr-approvals/internal/domain/entity"
	"github.com/garyjia/hr-approvals/internal/domain/workflow"
)

// DefaultDeadlineHours is the response window granted at every tier
const DefaultDeadlineHours = 24

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by the wall clock, in UTC
func SystemClock() port.Clock { return systemClock{} }

// EscalationScheduler computes response deadlines and selects overdue
// tier-1 requests. It holds no state besides its clock.
type EscalationScheduler struct {
	clock port.Clock
	hours int
}

// NewEscalationScheduler creates a scheduler; hours <= 0 means DefaultDeadlineHours
func NewEscalationScheduler(clock port.Clock, hours int) *EscalationScheduler {
	if clock == nil {
		clock = SystemClock()
	}
	if hours <= 0 {
		hours = DefaultDeadlineHours
	}
	return &EscalationScheduler{clock: clock, hours: hours}
}

// Now returns the scheduler's current time
func (s *EscalationScheduler) Now() time.Time {
	return s.clock.Now()
}

// ComputeDeadline returns now plus the given hours
func (s *EscalationScheduler) ComputeDeadline(hours int) time.Time {
	return s.clock.Now().Add(time.Duration(hours) * time.Hour)
}

// Deadline returns now plus the configured window
func (s *EscalationScheduler) Deadline() time.Time {
	return s.ComputeDeadline(s.hours)
}

// IsOverdue is true only for tier-1 requests whose deadline has passed
func (s *EscalationScheduler) IsOverdue(req *entity.ApprovalRequest) bool {
	if req == nil || req.Status != workflow.StatePendingTeamLead || req.DueAt == nil {
		return false
	}
	return req.DueAt.Before(s.clock.Now())
}

// SweepOverdue returns every tier-1 request past its deadline that has not
// been flagged yet, and sets OverdueNotified on each returned record.
// Records already flagged are skipped, so repeated sweeps are idempotent.
func (s *EscalationScheduler) SweepOverdue(pending []*entity.ApprovalRequest) []*entity.ApprovalRequest {
	var due []*entity.ApprovalRequest
	for _, req := range pending {
		if req.OverdueNotified || !s.IsOverdue(req) {
			continue
		}
		req.OverdueNotified = true
		due = append(due, req)
	}
	return due
}

// View wraps a request with its read-time overdue flag
func (s *EscalationScheduler) View(req *entity.ApprovalRequest) *entity.RequestView {
	return &entity.RequestView{ApprovalRequest: req, IsOverdue: s.IsOverdue(req)}
}
