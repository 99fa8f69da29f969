// Package cache holds the Redis-backed snapshot cache for the employee directory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/hr-approvals/internal/application/port"
	"github.com/garyjia/hr-approvals/internal/domain/entity"
)

// CandidatesKey holds the JSON snapshot of approver candidates
const CandidatesKey = "hr-approvals:approver-candidates"

// CachedDirectory serves approver candidates from a cached snapshot.
// Resolution tolerates a stale snapshot, so cache failures fall through
// to the wrapped directory instead of failing.
type CachedDirectory struct {
	port.EmployeeDirectory
	store  port.CacheStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedDirectory wraps dir with a candidate snapshot cache
func NewCachedDirectory(dir port.EmployeeDirectory, store port.CacheStore, ttl time.Duration, logger *zap.Logger) *CachedDirectory {
	return &CachedDirectory{EmployeeDirectory: dir, store: store, ttl: ttl, logger: logger}
}

// ListApproverCandidates returns the cached snapshot, loading it on miss
func (d *CachedDirectory) ListApproverCandidates(ctx context.Context) ([]entity.Employee, error) {
	raw, err := d.store.Get(ctx, CandidatesKey)
	switch {
	case err == nil:
		var cached []entity.Employee
		jsonErr := json.Unmarshal([]byte(raw), &cached)
		if jsonErr == nil {
			return cached, nil
		}
		d.logger.Warn("Discarding corrupt candidate snapshot", zap.Error(jsonErr))
	case !errors.Is(err, port.ErrCacheMiss):
		d.logger.Warn("Candidate cache unavailable", zap.Error(err))
	}

	candidates, err := d.EmployeeDirectory.ListApproverCandidates(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(candidates)
	if err != nil {
		d.logger.Warn("Failed to encode candidate snapshot", zap.Error(err))
		return candidates, nil
	}
	if err := d.store.Set(ctx, CandidatesKey, string(payload), d.ttl); err != nil {
		d.logger.Warn("Failed to store candidate snapshot", zap.Error(err))
	}
	return candidates, nil
}

// CreateEmployee writes through to the wrapped directory and drops the
// snapshot so the new record is routable right away
func (d *CachedDirectory) CreateEmployee(ctx context.Context, emp *entity.Employee) error {
	w, ok := d.EmployeeDirectory.(port.EmployeeWriter)
	if !ok {
		return fmt.Errorf("wrapped directory does not accept writes")
	}
	if err := w.CreateEmployee(ctx, emp); err != nil {
		return err
	}
	if err := d.Invalidate(ctx); err != nil {
		d.logger.Warn("Failed to drop candidate snapshot", zap.Int64("employee_id", emp.ID), zap.Error(err))
	}
	return nil
}

// Invalidate drops the snapshot so the next call reloads it
func (d *CachedDirectory) Invalidate(ctx context.Context) error {
	return d.store.Del(ctx, CandidatesKey)
}

var (
	_ port.EmployeeDirectory = (*CachedDirectory)(nil)
	_ port.EmployeeWriter    = (*CachedDirectory)(nil)
)
