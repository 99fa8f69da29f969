package port

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/hr-approvals/internal/domain/entity"
	"github.com/garyjia/hr-approvals/internal/domain/workflow"
)

// ErrStatusConflict is returned by conditional writes when the stored status
// no longer matches the status the caller read.
var ErrStatusConflict = errors.New("request status changed concurrently")

// RequestRepository defines persistence operations for ApprovalRequest
type RequestRepository interface {
	// Create inserts the request and assigns its ID
	Create(ctx context.Context, req *entity.ApprovalRequest) error

	// GetByID returns nil, nil when the request does not exist
	GetByID(ctx context.Context, id int64) (*entity.ApprovalRequest, error)

	// List returns requests matching the filter, newest first
	List(ctx context.Context, filter entity.RequestFilter) ([]*entity.ApprovalRequest, error)

	// UpdateIfStatus writes every mutable field of req only if the stored
	// status still equals expected; otherwise ErrStatusConflict
	UpdateIfStatus(ctx context.Context, req *entity.ApprovalRequest, expected workflow.State) error

	// DeleteIfStatus removes the request only if its status equals expected
	DeleteIfStatus(ctx context.Context, id int64, expected workflow.State) error

	// MarkOverdueNotified flags the given tier-1 requests in one statement and
	// returns the IDs it actually flagged
	MarkOverdueNotified(ctx context.Context, ids []int64, at time.Time) ([]int64, error)
}

// NotificationRepository defines persistence operations for the notification inbox
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByRecipient(ctx context.Context, kind string, recipientID int64, limit int) ([]*entity.Notification, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
