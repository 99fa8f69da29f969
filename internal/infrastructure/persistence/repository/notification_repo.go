package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/garyjia/hr-approvals/internal/application/port"
	"github.com/garyjia/hr-approvals/internal/domain/entity"
	"github.com/garyjia/hr-approvals/internal/infrastructure/persistence/sqlite"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlite.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

// Create inserts one inbox row
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query, args, err := psql.Insert("notifications").
		Columns("recipient_kind", "recipient_id", "title", "message", "created_at").
		Values(n.RecipientKind, n.RecipientID, n.Title, n.Message, n.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("recipient_kind", n.RecipientKind),
			zap.Int64("recipient_id", n.RecipientID),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	n.ID = id
	return nil
}

// ListByRecipient returns a recipient's inbox, newest first
func (r *NotificationRepository) ListByRecipient(ctx context.Context, kind string, recipientID int64, limit int) ([]*entity.Notification, error) {
	q := psql.Select("id", "recipient_kind", "recipient_id", "title", "message", "read_at", "created_at").
		From("notifications").
		Where(sq.Eq{"recipient_kind": kind, "recipient_id": recipientID}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Int64("recipient_id", recipientID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		var readAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.RecipientKind, &n.RecipientID, &n.Title, &n.Message, &readAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.ReadAt = timePtr(readAt)
		n.CreatedAt = n.CreatedAt.UTC()
		out = append(out, &n)
	}
	return out, rows.Err()
}

var _ port.NotificationRepository = (*NotificationRepository)(nil)
