package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/garyjia/hr-approvals/internal/application/port"
	"github.com/garyjia/hr-approvals/internal/domain/entity"
	"github.com/garyjia/hr-approvals/internal/domain/workflow"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeRequestRepo is an in-memory store whose conditional writes are atomic
type fakeRequestRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*entity.ApprovalRequest

	getErr    error
	updateErr error
	updates   int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{rows: make(map[int64]*entity.ApprovalRequest)}
}

func (r *fakeRequestRepo) Create(ctx context.Context, req *entity.ApprovalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	req.ID = r.nextID
	r.rows[req.ID] = req.Clone()
	return nil
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, id int64) (*entity.ApprovalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return row.Clone(), nil
}

func (r *fakeRequestRepo) List(ctx context.Context, filter entity.RequestFilter) ([]*entity.ApprovalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ApprovalRequest
	for _, row := range r.rows {
		if filter.EmployeeID != nil && row.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.TeamLeadID != nil && row.TeamLeadID != *filter.TeamLeadID {
			continue
		}
		if filter.BranchManagerID != nil && (row.BranchManagerID == nil || *row.BranchManagerID != *filter.BranchManagerID) {
			continue
		}
		if filter.Kind != "" && row.Kind != filter.Kind {
			continue
		}
		if len(filter.Statuses) > 0 && !containsState(filter.Statuses, row.Status) {
			continue
		}
		out = append(out, row.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeRequestRepo) UpdateIfStatus(ctx context.Context, req *entity.ApprovalRequest, expected workflow.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	row, ok := r.rows[req.ID]
	if !ok || row.Status != expected {
		return port.ErrStatusConflict
	}
	r.rows[req.ID] = req.Clone()
	r.updates++
	return nil
}

func (r *fakeRequestRepo) DeleteIfStatus(ctx context.Context, id int64, expected workflow.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.Status != expected {
		return port.ErrStatusConflict
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeRequestRepo) MarkOverdueNotified(ctx context.Context, ids []int64, at time.Time) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var flagged []int64
	for _, id := range ids {
		row, ok := r.rows[id]
		if !ok || row.OverdueNotified || row.Status != workflow.StatePendingTeamLead {
			continue
		}
		if row.DueAt == nil || !row.DueAt.Before(at) {
			continue
		}
		row.OverdueNotified = true
		row.UpdatedAt = at
		flagged = append(flagged, id)
	}
	return flagged, nil
}

// stored returns the persisted copy, for assertions
func (r *fakeRequestRepo) stored(id int64) *entity.ApprovalRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		return row.Clone()
	}
	return nil
}

func containsState(states []workflow.State, s workflow.State) bool {
	for _, st := range states {
		if st == s {
			return true
		}
	}
	return false
}

type fakeDirectory struct {
	employees []entity.Employee // newest first
	hrUsers   []int64
	listErr   error
	hrErr     error
}

func (d *fakeDirectory) ListApproverCandidates(ctx context.Context) ([]entity.Employee, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	var out []entity.Employee
	for _, e := range d.employees {
		if e.IsApproverCandidate() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (d *fakeDirectory) GetEmployee(ctx context.Context, id int64) (*entity.Employee, error) {
	for _, e := range d.employees {
		if e.ID == id {
			emp := e
			return &emp, nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) ListHRUserIDs(ctx context.Context) ([]int64, error) {
	if d.hrErr != nil {
		return nil, d.hrErr
	}
	return d.hrUsers, nil
}

func (d *fakeDirectory) IsHRUser(ctx context.Context, userID int64) (bool, error) {
	if d.hrErr != nil {
		return false, d.hrErr
	}
	for _, id := range d.hrUsers {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

type sentNotification struct {
	to      port.Recipients
	title   string
	message string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) Notify(ctx context.Context, to port.Recipients, title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{to: to, title: title, message: message})
	return n.err
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
}

func (n *recordingNotifier) all() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}

var errBoom = errors.New("boom")
