package workflow

import (
	"context"
	"sync"
)

// Tier identifies which approver acts on a request
type Tier string

const (
	TierTeamLead Tier = "TEAM_LEAD"
	TierBranch   Tier = "BRANCH"
)

// IsValid reports whether the tier is known
func (t Tier) IsValid() bool {
	return t == TierTeamLead || t == TierBranch
}

// ExpectedState returns the pending state in which the tier may decide
func (t Tier) ExpectedState() State {
	if t == TierBranch {
		return StatePendingBranch
	}
	return StatePendingTeamLead
}

// approvalChart is the two-tier approval lifecycle.
//
//	PENDING_TEAM_LEAD --APPROVE/ESCALATE--> PENDING_BRANCH --APPROVE--> APPROVED
//	        |                                      |
//	        +---------------REJECT-----------------+------------------> REJECTED
var (
	chartOnce     sync.Once
	approvalChart StateMachineBuilder
)

func buildApprovalChart() {
	b := NewBuilder()
	b.Configure(StatePendingTeamLead).
		Permit(TriggerApprove, StatePendingBranch).
		Permit(TriggerEscalate, StatePendingBranch).
		Permit(TriggerReject, StateRejected)
	b.Configure(StatePendingBranch).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)
	b.Configure(StateApproved)
	b.Configure(StateRejected)
	b.Configure(StateCancelled)
	approvalChart = b
}

// NewApprovalMachine returns a machine positioned at the given request status
func NewApprovalMachine(current State) StateMachine {
	chartOnce.Do(buildApprovalChart)
	return approvalChart.Build(current)
}

// NextState computes the status a request moves to when trigger fires in current.
// It never mutates anything; callers apply the result in a single conditional write.
func NextState(ctx context.Context, current State, trigger Trigger) (State, error) {
	if !current.IsValid() {
		return "", ErrInvalidState
	}
	m := NewApprovalMachine(current)
	if err := m.Fire(ctx, trigger); err != nil {
		return "", err
	}
	return m.State(), nil
}
