package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/hr-approvals/internal/application/port"
	"github.com/garyjia/hr-approvals/internal/domain/approver"
	"github.com/garyjia/hr-approvals/internal/domain/entity"
)

// RoutingPolicy controls how a request kind picks its tier-2 approver
type RoutingPolicy struct {
	// BranchRequired fails submission when no tier-2 approver resolves
	BranchRequired bool
	// FallbackBranchManagerID is used when the indirect-manager reference does not resolve
	FallbackBranchManagerID *int64
}

// DefaultPolicies returns the routing policy for each request kind.
// attendanceFallback may be nil.
func DefaultPolicies(attendanceFallback *int64) map[entity.RequestKind]RoutingPolicy {
	return map[entity.RequestKind]RoutingPolicy{
		entity.KindLeave:      {BranchRequired: true},
		entity.KindOvertime:   {BranchRequired: true},
		entity.KindAttendance: {FallbackBranchManagerID: attendanceFallback},
	}
}

// References overrides the employee's profile manager references
type References struct {
	DirectManager   *string
	IndirectManager *string
}

// Routing is the resolved approver chain for one submission
type Routing struct {
	TeamLead       entity.Employee  `json:"team_lead"`
	TeamLeadStage  approver.Stage   `json:"team_lead_stage"`
	BranchManager  *entity.Employee `json:"branch_manager,omitempty"`
	BranchStage    approver.Stage   `json:"branch_stage"`
	BranchFallback bool             `json:"branch_fallback"`
}

// BranchManagerID returns the tier-2 approver ID or nil
func (r *Routing) BranchManagerID() *int64 {
	if r.BranchManager == nil {
		return nil
	}
	id := r.BranchManager.ID
	return &id
}

type approverRouter struct {
	directory port.EmployeeDirectory
	policies  map[entity.RequestKind]RoutingPolicy
	logger    *zap.Logger
}

func newApproverRouter(directory port.EmployeeDirectory, policies map[entity.RequestKind]RoutingPolicy, logger *zap.Logger) *approverRouter {
	if policies == nil {
		policies = DefaultPolicies(nil)
	}
	return &approverRouter{directory: directory, policies: policies, logger: logger}
}

// route resolves both tiers for an employee. Failures to resolve a required
// tier are ValidationErrors; directory failures are returned wrapped.
func (r *approverRouter) route(ctx context.Context, emp *entity.Employee, kind entity.RequestKind, refs References) (*Routing, error) {
	policy, ok := r.policies[kind]
	if !ok {
		return nil, &ValidationError{Field: "kind", Message: fmt.Sprintf("unsupported request kind %q", kind)}
	}

	candidates, err := r.directory.ListApproverCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list approver candidates: %w", err)
	}

	direct := emp.DirectManager
	if refs.DirectManager != nil {
		direct = *refs.DirectManager
	}
	indirect := emp.IndirectManager
	if refs.IndirectManager != nil {
		indirect = *refs.IndirectManager
	}

	lead, found := approver.Resolve(direct, candidates)
	if !found {
		return nil, &ValidationError{Field: "direct_manager", Message: fmt.Sprintf("cannot resolve team lead from %q", direct)}
	}
	routing := &Routing{TeamLead: lead.Employee, TeamLeadStage: lead.Stage}

	if branch, found := approver.Resolve(indirect, candidates); found {
		routing.BranchManager = &branch.Employee
		routing.BranchStage = branch.Stage
		return routing, nil
	}

	if policy.FallbackBranchManagerID != nil {
		fallback, err := r.directory.GetEmployee(ctx, *policy.FallbackBranchManagerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load fallback branch manager: %w", err)
		}
		if fallback != nil {
			routing.BranchManager = fallback
			routing.BranchFallback = true
			return routing, nil
		}
		r.logger.Warn("Configured fallback branch manager does not exist",
			zap.Int64("employee_id", *policy.FallbackBranchManagerID))
	}

	if policy.BranchRequired {
		return nil, &ValidationError{Field: "indirect_manager", Message: fmt.Sprintf("cannot resolve branch manager from %q", indirect)}
	}
	return routing, nil
}
