package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/hr-approvals/internal/domain/entity"
)

func TestNotificationRepository_CreateAndList(t *testing.T) {
	repo := NewNotificationRepository(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	first := &entity.Notification{RecipientKind: entity.RecipientEmployee, RecipientID: 10, Title: "one", Message: "m1", CreatedAt: t0}
	second := &entity.Notification{RecipientKind: entity.RecipientEmployee, RecipientID: 10, Title: "two", Message: "m2", CreatedAt: t0.Add(time.Minute)}
	other := &entity.Notification{RecipientKind: entity.RecipientUser, RecipientID: 10, Title: "hr", Message: "m3", CreatedAt: t0}
	for _, n := range []*entity.Notification{first, second, other} {
		require.NoError(t, repo.Create(ctx, n))
		require.NotZero(t, n.ID)
	}

	inbox, err := repo.ListByRecipient(ctx, entity.RecipientEmployee, 10, 0)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, second, inbox[0])
	assert.Equal(t, first, inbox[1])

	limited, err := repo.ListByRecipient(ctx, entity.RecipientEmployee, 10, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "two", limited[0].Title)

	users, err := repo.ListByRecipient(ctx, entity.RecipientUser, 10, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "hr", users[0].Title)
}

func TestNotificationRepository_RejectsUnknownRecipientKind(t *testing.T) {
	repo := NewNotificationRepository(newTestDB(t), zap.NewNop())
	err := repo.Create(context.Background(), &entity.Notification{RecipientKind: "GROUP", RecipientID: 1, Title: "x", Message: "y", CreatedAt: t0})
	assert.Error(t, err)
}
