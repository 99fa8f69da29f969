package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/hr-approvals/internal/application/service"
	"github.com/garyjia/hr-approvals/internal/domain/entity"
	"github.com/garyjia/hr-approvals/internal/domain/workflow"
)

// ActorIDHeader identifies the calling user or employee
const ActorIDHeader = "X-Actor-ID"

const missingActorMessage = "missing or invalid " + ActorIDHeader + " header"

// Handlers contains all HTTP request handlers
type Handlers struct {
	approvals service.ApprovalService
	health    HealthChecker
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(approvals service.ApprovalService, health HealthChecker, logger *zap.Logger) *Handlers {
	return &Handlers{approvals: approvals, health: health, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database,omitempty"`
}

// SubmitRequestBody opens a request for the calling employee
type SubmitRequestBody struct {
	Kind            string          `json:"kind" binding:"required"`
	Payload         json.RawMessage `json:"payload"`
	DirectManager   *string         `json:"direct_manager"`
	IndirectManager *string         `json:"indirect_manager"`
}

// DecisionBody is an approve or reject at one tier
type DecisionBody struct {
	Tier     string  `json:"tier" binding:"required"`
	Decision string  `json:"decision" binding:"required"`
	Comment  *string `json:"comment"`
}

// EscalateBody carries the optional HR note
type EscalateBody struct {
	Comment *string `json:"comment"`
}

// ListRequestsQuery holds the listing filters
type ListRequestsQuery struct {
	Kind            string `form:"kind"`
	EmployeeID      *int64 `form:"employee_id"`
	TeamLeadID      *int64 `form:"team_lead_id"`
	BranchManagerID *int64 `form:"branch_manager_id"`
	Limit           int    `form:"limit"`
	Offset          int    `form:"offset"`
}

// SweepResponse reports the requests flagged by one overdue sweep
type SweepResponse struct {
	Flagged  int                       `json:"flagged"`
	Requests []*entity.ApprovalRequest `json:"requests"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if h.health != nil {
		if err := h.health.PingContext(c.Request.Context()); err != nil {
			h.logger.Error("Health check failed", zap.Error(err))
			resp.Status = "unhealthy"
			resp.Database = "unreachable"
			c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: resp, Error: "database unreachable"})
			return
		}
		resp.Database = "ok"
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: resp})
}

// SubmitRequest handles POST /api/requests
func (h *Handlers) SubmitRequest(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	var body SubmitRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	req, err := h.approvals.Submit(c.Request.Context(), service.SubmitInput{
		Kind:       entity.RequestKind(strings.ToUpper(body.Kind)),
		EmployeeID: actorID,
		Payload:    body.Payload,
		References: service.References{
			DirectManager:   body.DirectManager,
			IndirectManager: body.IndirectManager,
		},
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// ListRequests handles GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	var q ListRequestsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}

	views, err := h.approvals.List(c.Request.Context(), entity.RequestFilter{
		EmployeeID:      q.EmployeeID,
		TeamLeadID:      q.TeamLeadID,
		BranchManagerID: q.BranchManagerID,
		Statuses:        parseStatuses(c.QueryArray("status")),
		Kind:            entity.RequestKind(strings.ToUpper(q.Kind)),
		Limit:           q.Limit,
		Offset:          q.Offset,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	if views == nil {
		views = []*entity.RequestView{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: views})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	view, err := h.approvals.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// DecideRequest handles POST /api/requests/:id/decision
func (h *Handlers) DecideRequest(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	var body DecisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	req, err := h.approvals.Decide(c.Request.Context(), service.DecideInput{
		RequestID: id,
		Tier:      workflow.Tier(strings.ToUpper(body.Tier)),
		ActorID:   actorID,
		Decision:  workflow.Trigger(strings.ToUpper(body.Decision)),
		Comment:   body.Comment,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// EscalateRequest handles POST /api/requests/:id/escalate
func (h *Handlers) EscalateRequest(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	var body EscalateBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, err)
		return
	}

	req, err := h.approvals.Escalate(c.Request.Context(), service.EscalateInput{
		RequestID: id,
		HRActorID: actorID,
		Comment:   body.Comment,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// WithdrawRequest handles DELETE /api/requests/:id
func (h *Handlers) WithdrawRequest(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	if err := h.approvals.Withdraw(c.Request.Context(), id, actorID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// PurgeRequest handles DELETE /api/requests/:id/purge
func (h *Handlers) PurgeRequest(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	if err := h.approvals.PurgeRejected(c.Request.Context(), id, actorID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// SweepOverdue handles POST /api/sweeps/overdue, restricted to HR actors
func (h *Handlers) SweepOverdue(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	if err := h.approvals.RequireHR(c.Request.Context(), actorID); err != nil {
		h.writeError(c, err)
		return
	}
	flagged, err := h.approvals.SweepOverdue(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if flagged == nil {
		flagged = []*entity.ApprovalRequest{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: SweepResponse{Flagged: len(flagged), Requests: flagged}})
}

// ResolveApprovers handles GET /api/employees/:id/approvers?kind=
func (h *Handlers) ResolveApprovers(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	kind := entity.RequestKind(strings.ToUpper(c.Query("kind")))
	routing, err := h.approvals.ResolveApprovers(c.Request.Context(), id, kind)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: routing})
}

// writeError maps service error kinds onto HTTP status codes
func (h *Handlers) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case service.IsValidation(err):
		status = http.StatusBadRequest
	case service.IsAuthorization(err):
		status = http.StatusForbidden
	case service.IsNotFound(err):
		status = http.StatusNotFound
	case service.IsInvalidState(err):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, Response{Success: false, Error: "internal error"})
		return
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

func (h *Handlers) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
}

func (h *Handlers) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *Handlers) actor(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.GetHeader(ActorIDHeader)), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: missingActorMessage})
		return 0, false
	}
	return id, true
}

// parseStatuses accepts both repeated and comma-separated status values
func parseStatuses(raw []string) []workflow.State {
	var out []workflow.State
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, workflow.State(strings.ToUpper(part)))
			}
		}
	}
	return out
}
