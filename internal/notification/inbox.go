// Package notification delivers workflow messages to the in-app inbox.
package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/hr-approvals/internal/application/port"
	"github.com/garyjia/hr-approvals/internal/domain/entity"
)

// InboxNotifier implements port.Notifier by writing one inbox row per recipient
type InboxNotifier struct {
	repo   port.NotificationRepository
	tx     port.TransactionManager
	clock  port.Clock
	logger *zap.Logger
}

// NewInboxNotifier creates a new inbox notifier
func NewInboxNotifier(repo port.NotificationRepository, tx port.TransactionManager, clock port.Clock, logger *zap.Logger) *InboxNotifier {
	return &InboxNotifier{repo: repo, tx: tx, clock: clock, logger: logger}
}

// Notify stores the message for every distinct recipient, all or nothing
func (n *InboxNotifier) Notify(ctx context.Context, to port.Recipients, title, message string) error {
	rows := n.expand(to, title, message)
	if len(rows) == 0 {
		return nil
	}

	err := n.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, row := range rows {
			if err := n.repo.Create(txCtx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store notification %q: %w", title, err)
	}

	n.logger.Debug("Notification stored", zap.String("title", title), zap.Int("recipients", len(rows)))
	return nil
}

func (n *InboxNotifier) expand(to port.Recipients, title, message string) []*entity.Notification {
	now := n.clock.Now()
	seen := make(map[string]map[int64]bool, 2)
	var rows []*entity.Notification

	add := func(kind string, ids []int64) {
		if seen[kind] == nil {
			seen[kind] = make(map[int64]bool, len(ids))
		}
		for _, id := range ids {
			if seen[kind][id] {
				continue
			}
			seen[kind][id] = true
			rows = append(rows, &entity.Notification{
				RecipientKind: kind,
				RecipientID:   id,
				Title:         title,
				Message:       message,
				CreatedAt:     now,
			})
		}
	}
	add(entity.RecipientEmployee, to.EmployeeIDs)
	add(entity.RecipientUser, to.UserIDs)
	return rows
}

var _ port.Notifier = (*InboxNotifier)(nil)
