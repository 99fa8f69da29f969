package port

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/hr-approvals/internal/domain/entity"
)

// EmployeeDirectory is the read-only view of employee and user records
type EmployeeDirectory interface {
	// ListApproverCandidates returns ACTIVE, PENDING and unset-status employees, newest first
	ListApproverCandidates(ctx context.Context) ([]entity.Employee, error)

	// GetEmployee returns nil, nil when the employee does not exist
	GetEmployee(ctx context.Context, id int64) (*entity.Employee, error)

	// ListHRUserIDs returns the user IDs of every HR actor
	ListHRUserIDs(ctx context.Context) ([]int64, error)

	// IsHRUser reports whether the user is an HR actor
	IsHRUser(ctx context.Context, userID int64) (bool, error)
}

// EmployeeWriter adds directory records, e.g. when seeding
type EmployeeWriter interface {
	CreateEmployee(ctx context.Context, emp *entity.Employee) error
}

// Recipients addresses a notification to employees, users, or both
type Recipients struct {
	EmployeeIDs []int64
	UserIDs     []int64
}

// Empty reports whether there is nobody to notify
func (r Recipients) Empty() bool {
	return len(r.EmployeeIDs) == 0 && len(r.UserIDs) == 0
}

// Notifier delivers a message to recipients
type Notifier interface {
	Notify(ctx context.Context, to Recipients, title, message string) error
}

// Clock is the source of "now" for deadlines and overdue checks
type Clock interface {
	Now() time.Time
}

// ErrCacheMiss is returned by CacheStore.Get when the key is absent
var ErrCacheMiss = errors.New("cache miss")

// CacheStore is a string key/value cache with expiry
type CacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
