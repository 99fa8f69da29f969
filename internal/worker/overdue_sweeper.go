package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/hr-approvals/internal/domain/entity"
)

// Sweeper is the operation the overdue worker drives
type Sweeper interface {
	SweepOverdue(ctx context.Context) ([]*entity.ApprovalRequest, error)
}

// OverdueSweeper periodically flags tier-1 requests past their deadline
type OverdueSweeper struct {
	sweeper  Sweeper
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewOverdueSweeper creates a sweeper; interval <= 0 means 15 minutes
func NewOverdueSweeper(sweeper Sweeper, interval time.Duration, logger *zap.Logger) *OverdueSweeper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &OverdueSweeper{
		sweeper:  sweeper,
		interval: interval,
		timeout:  time.Minute,
		logger:   logger,
	}
}

// Start launches the sweep loop; the first sweep runs immediately
func (s *OverdueSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("overdue sweeper is already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.isRunning = true

	s.logger.Info("OverdueSweeper started", zap.Duration("interval", s.interval))
	go s.loop(loopCtx, s.done)
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep to finish
func (s *OverdueSweeper) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	<-done
	s.logger.Info("OverdueSweeper stopped")
}

// Name returns the worker name for identification
func (s *OverdueSweeper) Name() string {
	return "OverdueSweeper"
}

func (s *OverdueSweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *OverdueSweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	flagged, err := s.sweeper.SweepOverdue(sweepCtx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("Overdue sweep failed", zap.Error(err))
		}
		return
	}
	if len(flagged) > 0 {
		ids := make([]int64, len(flagged))
		for i, r := range flagged {
			ids[i] = r.ID
		}
		s.logger.Info("Overdue requests flagged", zap.Int64s("request_ids", ids))
	}
}
