package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/garyjia/hr-approvals/internal/application/port"
	"github.com/garyjia/hr-approvals/internal/domain/entity"
	"github.com/garyjia/hr-approvals/internal/domain/workflow"
	"github.com/garyjia/hr-approvals/pkg/utils"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// SubmitInput opens a new request for an employee
type SubmitInput struct {
	Kind       entity.RequestKind `json:"kind" validate:"required,oneof=LEAVE OVERTIME ATTENDANCE"`
	EmployeeID int64              `json:"employee_id" validate:"gt=0"`
	Payload    json.RawMessage    `json:"payload"`
	References References         `json:"-"`
}

// DecideInput is an approve or reject decision at one tier
type DecideInput struct {
	RequestID int64            `json:"request_id" validate:"gt=0"`
	Tier      workflow.Tier    `json:"tier" validate:"required,oneof=TEAM_LEAD BRANCH"`
	ActorID   int64            `json:"actor_id" validate:"gt=0"`
	Decision  workflow.Trigger `json:"decision" validate:"required,oneof=APPROVE REJECT"`
	Comment   *string          `json:"comment" validate:"omitempty,max=2000"`
}

// EscalateInput moves a stalled tier-1 request to the branch manager
type EscalateInput struct {
	RequestID int64   `json:"request_id" validate:"gt=0"`
	HRActorID int64   `json:"hr_actor_id" validate:"gt=0"`
	Comment   *string `json:"comment" validate:"omitempty,max=2000"`
}

// ApprovalService runs the two-tier approval workflow
type ApprovalService interface {
	Submit(ctx context.Context, in SubmitInput) (*entity.ApprovalRequest, error)
	Decide(ctx context.Context, in DecideInput) (*entity.ApprovalRequest, error)
	Escalate(ctx context.Context, in EscalateInput) (*entity.ApprovalRequest, error)
	Withdraw(ctx context.Context, requestID, requesterID int64) error
	PurgeRejected(ctx context.Context, requestID, hrActorID int64) error
	SweepOverdue(ctx context.Context) ([]*entity.ApprovalRequest, error)
	RequireHR(ctx context.Context, actorID int64) error
	Get(ctx context.Context, requestID int64) (*entity.RequestView, error)
	List(ctx context.Context, filter entity.RequestFilter) ([]*entity.RequestView, error)
	ResolveApprovers(ctx context.Context, employeeID int64, kind entity.RequestKind) (*Routing, error)
}

// Deps groups the collaborators of the approval service
type Deps struct {
	Requests  port.RequestRepository
	Directory port.EmployeeDirectory
	Notifier  port.Notifier
	Scheduler *EscalationScheduler
	Policies  map[entity.RequestKind]RoutingPolicy
	Logger    *zap.Logger
}

type approvalServiceImpl struct {
	requests  port.RequestRepository
	directory port.EmployeeDirectory
	notifier  port.Notifier
	scheduler *EscalationScheduler
	router    *approverRouter
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(deps Deps) (ApprovalService, error) {
	if deps.Requests == nil {
		return nil, fmt.Errorf("request repository is required")
	}
	if deps.Directory == nil {
		return nil, fmt.Errorf("employee directory is required")
	}
	if deps.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if deps.Scheduler == nil {
		deps.Scheduler = NewEscalationScheduler(SystemClock(), DefaultDeadlineHours)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &approvalServiceImpl{
		requests:  deps.Requests,
		directory: deps.Directory,
		notifier:  deps.Notifier,
		scheduler: deps.Scheduler,
		router:    newApproverRouter(deps.Directory, deps.Policies, deps.Logger),
		validate:  utils.NewValidator(),
		logger:    deps.Logger,
	}, nil
}

// Submit resolves both approvers and opens the request at tier 1
func (s *approvalServiceImpl) Submit(ctx context.Context, in SubmitInput) (*entity.ApprovalRequest, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	if len(in.Payload) > 0 && !json.Valid(in.Payload) {
		return nil, &ValidationError{Field: "payload", Message: "must be a JSON document"}
	}

	emp, err := s.directory.GetEmployee(ctx, in.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	if emp == nil {
		return nil, &ValidationError{Field: "employee_id", Message: fmt.Sprintf("employee %d does not exist", in.EmployeeID)}
	}

	routing, err := s.router.route(ctx, emp, in.Kind, in.References)
	if err != nil {
		return nil, err
	}

	now := s.scheduler.Now()
	due := s.scheduler.Deadline()
	req := &entity.ApprovalRequest{
		Kind:            in.Kind,
		EmployeeID:      emp.ID,
		TeamLeadID:      routing.TeamLead.ID,
		BranchManagerID: routing.BranchManagerID(),
		Payload:         in.Payload,
		Status:          workflow.StatePendingTeamLead,
		DueAt:           &due,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	s.logger.Info("Request submitted",
		zap.Int64("request_id", req.ID),
		zap.String("kind", string(req.Kind)),
		zap.Int64("employee_id", req.EmployeeID),
		zap.Int64("team_lead_id", req.TeamLeadID),
		zap.String("team_lead_stage", string(routing.TeamLeadStage)))

	title, msg := submittedMessage(req, emp.FullName)
	s.notify(ctx, port.Recipients{EmployeeIDs: []int64{req.TeamLeadID}}, title, msg)
	if req.Kind == entity.KindOvertime && req.BranchManagerID != nil {
		title, msg = overtimeInfoMessage(req, emp.FullName)
		s.notify(ctx, port.Recipients{EmployeeIDs: []int64{*req.BranchManagerID}}, title, msg)
	}

	return req, nil
}

// Decide applies an approve or reject decision from the tier's assigned approver
func (s *approvalServiceImpl) Decide(ctx context.Context, in DecideInput) (*entity.ApprovalRequest, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}

	current, err := s.load(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}

	switch in.Tier {
	case workflow.TierTeamLead:
		if in.ActorID != current.TeamLeadID {
			return nil, &AuthorizationError{ActorID: in.ActorID, Message: "not the team lead of this request"}
		}
	case workflow.TierBranch:
		if current.BranchManagerID == nil || in.ActorID != *current.BranchManagerID {
			return nil, &AuthorizationError{ActorID: in.ActorID, Message: "not the branch manager of this request"}
		}
	}

	if current.Status != in.Tier.ExpectedState() {
		return nil, &InvalidStateError{RequestID: current.ID, Status: current.Status, Operation: "decide"}
	}
	if in.Tier == workflow.TierTeamLead && in.Decision == workflow.TriggerApprove && current.BranchManagerID == nil {
		return nil, &ValidationError{Field: "branch_manager_id", Message: "request has no branch manager to forward to"}
	}

	next, err := workflow.NextState(ctx, current.Status, in.Decision)
	if err != nil {
		return nil, &InvalidStateError{RequestID: current.ID, Status: current.Status, Operation: "decide"}
	}

	now := s.scheduler.Now()
	action := entity.ActionApproved
	if in.Decision == workflow.TriggerReject {
		action = entity.ActionRejected
	}

	updated := current.Clone()
	updated.Status = next
	updated.UpdatedAt = now
	if in.Tier == workflow.TierTeamLead {
		updated.TeamLeadAction = &action
		updated.TeamLeadActionAt = &now
		updated.TeamLeadComment = cleanComment(in.Comment)
	} else {
		updated.BranchAction = &action
		updated.BranchActionAt = &now
		updated.BranchComment = cleanComment(in.Comment)
	}
	if next == workflow.StatePendingBranch {
		due := s.scheduler.Deadline()
		updated.DueAt = &due
		updated.OverdueNotified = false
	} else {
		updated.DueAt = nil
	}

	if err := s.commit(ctx, updated, current.Status, "decide"); err != nil {
		return nil, err
	}

	s.logger.Info("Request decided",
		zap.Int64("request_id", updated.ID),
		zap.String("tier", string(in.Tier)),
		zap.Int64("actor_id", in.ActorID),
		zap.String("decision", in.Decision.String()),
		zap.String("status", updated.Status.String()))

	s.notifyDecision(ctx, updated, in.Tier)
	return updated, nil
}

// Escalate lets an HR actor skip an unresponsive team lead
func (s *approvalServiceImpl) Escalate(ctx context.Context, in EscalateInput) (*entity.ApprovalRequest, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}

	current, err := s.load(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	if err := s.requireHR(ctx, in.HRActorID); err != nil {
		return nil, err
	}
	if current.BranchManagerID == nil {
		return nil, &ValidationError{Field: "branch_manager_id", Message: "request has no branch manager to escalate to"}
	}
	if current.Status != workflow.StatePendingTeamLead {
		return nil, &InvalidStateError{RequestID: current.ID, Status: current.Status, Operation: "escalate"}
	}

	next, err := workflow.NextState(ctx, current.Status, workflow.TriggerEscalate)
	if err != nil {
		return nil, &InvalidStateError{RequestID: current.ID, Status: current.Status, Operation: "escalate"}
	}

	now := s.scheduler.Now()
	due := s.scheduler.Deadline()
	action := entity.ActionEscalated
	hrID := in.HRActorID

	updated := current.Clone()
	updated.Status = next
	updated.TeamLeadAction = &action
	updated.TeamLeadActionAt = &now
	if c := cleanComment(in.Comment); c != nil {
		updated.TeamLeadComment = c
	}
	updated.HRAdminUserID = &hrID
	updated.EscalatedAt = &now
	updated.DueAt = &due
	updated.OverdueNotified = false
	updated.UpdatedAt = now

	if err := s.commit(ctx, updated, current.Status, "escalate"); err != nil {
		return nil, err
	}

	s.logger.Info("Request escalated",
		zap.Int64("request_id", updated.ID),
		zap.Int64("hr_actor_id", hrID),
		zap.Int64("branch_manager_id", *updated.BranchManagerID))

	title, msg := escalatedMessage(updated)
	s.notify(ctx, port.Recipients{EmployeeIDs: []int64{*updated.BranchManagerID, updated.TeamLeadID}}, title, msg)
	return updated, nil
}

// Withdraw deletes a request its submitter no longer wants, while still at tier 1
func (s *approvalServiceImpl) Withdraw(ctx context.Context, requestID, requesterID int64) error {
	current, err := s.load(ctx, requestID)
	if err != nil {
		return err
	}
	if requesterID != current.EmployeeID {
		return &AuthorizationError{ActorID: requesterID, Message: "only the submitter may withdraw a request"}
	}
	if current.Status != workflow.StatePendingTeamLead {
		return &InvalidStateError{RequestID: current.ID, Status: current.Status, Operation: "withdraw"}
	}

	if err := s.remove(ctx, current, "withdraw"); err != nil {
		return err
	}
	s.logger.Info("Request withdrawn", zap.Int64("request_id", requestID), zap.Int64("employee_id", requesterID))
	return nil
}

// PurgeRejected lets an HR actor delete a rejected request
func (s *approvalServiceImpl) PurgeRejected(ctx context.Context, requestID, hrActorID int64) error {
	current, err := s.load(ctx, requestID)
	if err != nil {
		return err
	}
	if err := s.requireHR(ctx, hrActorID); err != nil {
		return err
	}
	if current.Status != workflow.StateRejected {
		return &InvalidStateError{RequestID: current.ID, Status: current.Status, Operation: "purge"}
	}

	if err := s.remove(ctx, current, "purge"); err != nil {
		return err
	}
	s.logger.Info("Rejected request purged", zap.Int64("request_id", requestID), zap.Int64("hr_actor_id", hrActorID))
	return nil
}

// SweepOverdue flags tier-1 requests past their deadline and alerts HR once per request
func (s *approvalServiceImpl) SweepOverdue(ctx context.Context) ([]*entity.ApprovalRequest, error) {
	pending, err := s.requests.List(ctx, entity.RequestFilter{
		Statuses: []workflow.State{workflow.StatePendingTeamLead},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}

	candidates := s.scheduler.SweepOverdue(pending)
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(candidates))
	for i, req := range candidates {
		ids[i] = req.ID
	}
	flagged, err := s.requests.MarkOverdueNotified(ctx, ids, s.scheduler.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to flag overdue requests: %w", err)
	}

	won := make(map[int64]bool, len(flagged))
	for _, id := range flagged {
		won[id] = true
	}
	overdue := make([]*entity.ApprovalRequest, 0, len(flagged))
	for _, req := range candidates {
		if won[req.ID] {
			overdue = append(overdue, req)
		}
	}
	if len(overdue) == 0 {
		return nil, nil
	}

	hr := s.hrRecipients(ctx)
	for _, req := range overdue {
		title, msg := overdueMessage(req)
		s.notify(ctx, hr, title, msg)
	}

	s.logger.Info("Overdue sweep flagged requests", zap.Int("count", len(overdue)))
	return overdue, nil
}

// Get returns a request with its read-time overdue flag
func (s *approvalServiceImpl) Get(ctx context.Context, requestID int64) (*entity.RequestView, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return s.scheduler.View(req), nil
}

// List returns requests matching filter, newest first
func (s *approvalServiceImpl) List(ctx context.Context, filter entity.RequestFilter) ([]*entity.RequestView, error) {
	for _, st := range filter.Statuses {
		if !st.IsValid() {
			return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", st)}
		}
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		return nil, &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", filter.Kind)}
	}
	if filter.Offset < 0 {
		return nil, &ValidationError{Field: "offset", Message: "must not be negative"}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	reqs, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	views := make([]*entity.RequestView, len(reqs))
	for i, req := range reqs {
		views[i] = s.scheduler.View(req)
	}
	return views, nil
}

// ResolveApprovers previews the routing a submission would get
func (s *approvalServiceImpl) ResolveApprovers(ctx context.Context, employeeID int64, kind entity.RequestKind) (*Routing, error) {
	if !kind.IsValid() {
		return nil, &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", kind)}
	}
	emp, err := s.directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	if emp == nil {
		return nil, &ValidationError{Field: "employee_id", Message: fmt.Sprintf("employee %d does not exist", employeeID)}
	}
	return s.router.route(ctx, emp, kind, References{})
}

func (s *approvalServiceImpl) check(in interface{}) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	fields := utils.FieldErrors(err)
	if len(fields) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = f.String()
	}
	return &ValidationError{Field: fields[0].Field, Message: strings.Join(msgs, "; ")}
}

func (s *approvalServiceImpl) load(ctx context.Context, id int64) (*entity.ApprovalRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load request %d: %w", id, err)
	}
	if req == nil {
		return nil, &NotFoundError{RequestID: id}
	}
	return req, nil
}

// RequireHR returns an AuthorizationError unless actorID belongs to an HR user
func (s *approvalServiceImpl) RequireHR(ctx context.Context, actorID int64) error {
	return s.requireHR(ctx, actorID)
}

func (s *approvalServiceImpl) requireHR(ctx context.Context, userID int64) error {
	ok, err := s.directory.IsHRUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to check HR role: %w", err)
	}
	if !ok {
		return &AuthorizationError{ActorID: userID, Message: "HR role required"}
	}
	return nil
}

// commit performs the single conditional write of a transition
func (s *approvalServiceImpl) commit(ctx context.Context, updated *entity.ApprovalRequest, expected workflow.State, op string) error {
	err := s.requests.UpdateIfStatus(ctx, updated, expected)
	if errors.Is(err, port.ErrStatusConflict) {
		s.logger.Warn("Lost transition race",
			zap.Int64("request_id", updated.ID),
			zap.String("operation", op),
			zap.String("expected_status", expected.String()))
		return &InvalidStateError{RequestID: updated.ID, Operation: op}
	}
	if err != nil {
		return fmt.Errorf("failed to update request %d: %w", updated.ID, err)
	}
	return nil
}

func (s *approvalServiceImpl) remove(ctx context.Context, current *entity.ApprovalRequest, op string) error {
	err := s.requests.DeleteIfStatus(ctx, current.ID, current.Status)
	if errors.Is(err, port.ErrStatusConflict) {
		return &InvalidStateError{RequestID: current.ID, Operation: op}
	}
	if err != nil {
		return fmt.Errorf("failed to delete request %d: %w", current.ID, err)
	}
	return nil
}

func (s *approvalServiceImpl) notifyDecision(ctx context.Context, req *entity.ApprovalRequest, tier workflow.Tier) {
	switch {
	case req.Status == workflow.StateRejected:
		who := "team lead"
		if tier == workflow.TierBranch {
			who = "branch manager"
		}
		title, msg := rejectedMessage(req, who)
		s.notify(ctx, s.hrRecipients(ctx), title, msg)
	case req.Status == workflow.StatePendingBranch:
		title, msg := teamLeadApprovedMessage(req)
		s.notify(ctx, port.Recipients{EmployeeIDs: []int64{*req.BranchManagerID}}, title, msg)
	case req.Status == workflow.StateApproved:
		to := s.hrRecipients(ctx)
		to.EmployeeIDs = []int64{req.TeamLeadID}
		title, msg := approvedMessage(req)
		s.notify(ctx, to, title, msg)
	}
}

func (s *approvalServiceImpl) hrRecipients(ctx context.Context) port.Recipients {
	ids, err := s.directory.ListHRUserIDs(ctx)
	if err != nil {
		s.logger.Error("Failed to list HR users", zap.Error(err))
		return port.Recipients{}
	}
	return port.Recipients{UserIDs: ids}
}

// notify never fails the caller; delivery problems are only logged
func (s *approvalServiceImpl) notify(ctx context.Context, to port.Recipients, title, message string) {
	if to.Empty() {
		return
	}
	if err := s.notifier.Notify(ctx, to, title, message); err != nil {
		s.logger.Error("Failed to send notification",
			zap.String("title", title),
			zap.Int("employees", len(to.EmployeeIDs)),
			zap.Int("users", len(to.UserIDs)),
			zap.Error(err))
	}
}

func cleanComment(c *string) *string {
	if c == nil {
		return nil
	}
	v := utils.SanitizeString(*c)
	if v == "" {
		return nil
	}
	return &v
}
