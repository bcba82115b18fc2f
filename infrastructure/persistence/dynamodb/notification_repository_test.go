package dynamodb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"schemstory-backend/application/ports"
	"schemstory-backend/domain/model"
	"schemstory-backend/infrastructure/persistence/memory"
)

func seedNotifications(t *testing.T, repo ports.NotificationRepository, userID string, n int) []*model.Notification {
	t.Helper()
	out := make([]*model.Notification, 0, n)
	for i := 0; i < n; i++ {
		notif := &model.Notification{
			UserID:        userID,
			Type:          model.NotificationFollow,
			ActorID:       fmt.Sprintf("actor%d", i),
			ActorUsername: fmt.Sprintf("actor%d", i),
			Message:       fmt.Sprintf("message %d", i),
		}
		require.NoError(t, repo.CreateNotification(context.Background(), notif))
		out = append(out, notif)
		time.Sleep(2 * time.Millisecond)
	}
	return out
}

func TestNotificationListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(memory.NewStore(), zap.NewNop())
	seedNotifications(t, repo, "u1", 5)

	page, next, err := repo.GetUserNotifications(ctx, "u1", ports.Page{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.NotEmpty(t, next)
	assert.Equal(t, "message 4", page[0].Message)
	assert.False(t, page[0].IsRead)

	rest, next, err := repo.GetUserNotifications(ctx, "u1", ports.Page{Limit: 3, Token: next})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Empty(t, next)
	assert.Equal(t, "message 0", rest[1].Message)
}

func TestNotificationMarkRead(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(memory.NewStore(), zap.NewNop())
	notifs := seedNotifications(t, repo, "u1", 2)

	marked, err := repo.MarkNotificationAsRead(ctx, "u1", notifs[0].NotificationID)
	require.NoError(t, err)
	assert.True(t, marked)

	page, _, err := repo.GetUserNotifications(ctx, "u1", ports.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page, 2)
	for _, n := range page {
		assert.Equal(t, n.NotificationID == notifs[0].NotificationID, n.IsRead)
	}

	t.Run("missing notification reports false", func(t *testing.T) {
		marked, err := repo.MarkNotificationAsRead(ctx, "u1", "2020-01-01T00:00:00.000Z#nope")
		require.NoError(t, err)
		assert.False(t, marked)
	})
}

func TestNotificationMarkAllRead(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(memory.NewStore(), zap.NewNop())
	notifs := seedNotifications(t, repo, "u1", 7)

	// One already read; the sweep must count only the flips.
	_, err := repo.MarkNotificationAsRead(ctx, "u1", notifs[2].NotificationID)
	require.NoError(t, err)

	marked, err := repo.MarkAllNotificationsAsRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 6, marked)

	page, _, err := repo.GetUserNotifications(ctx, "u1", ports.Page{Limit: 10})
	require.NoError(t, err)
	for _, n := range page {
		assert.True(t, n.IsRead)
	}

	t.Run("second sweep is a no-op", func(t *testing.T) {
		marked, err := repo.MarkAllNotificationsAsRead(ctx, "u1")
		require.NoError(t, err)
		assert.Zero(t, marked)
	})
}
