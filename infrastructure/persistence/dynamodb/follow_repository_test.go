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
	appErrors "schemstory-backend/pkg/errors"
)

func newFollowFixtures(t *testing.T, userIDs ...string) (ports.UserRepository, ports.FollowRepository) {
	t.Helper()
	store := memory.NewStore()
	logger := zap.NewNop()
	users := NewUserRepository(store, logger)
	follows := NewFollowRepository(store, logger)
	for _, id := range userIDs {
		require.NoError(t, users.CreateUser(context.Background(), &model.User{
			UserID: id, Username: id,
		}))
	}
	return users, follows
}

func TestFollowLifecycle(t *testing.T) {
	ctx := context.Background()
	users, follows := newFollowFixtures(t, "u1", "u2")

	created, err := follows.Follow(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, created)

	following, err := follows.IsFollowing(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, following)

	t.Run("counters on both sides", func(t *testing.T) {
		s1, err := users.GetUserStats(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, s1.FollowingCount)
		assert.Zero(t, s1.FollowerCount)

		s2, err := users.GetUserStats(ctx, "u2")
		require.NoError(t, err)
		assert.Equal(t, 1, s2.FollowerCount)
	})

	t.Run("duplicate follow leaves counters alone", func(t *testing.T) {
		created, err := follows.Follow(ctx, "u1", "u2")
		require.NoError(t, err)
		assert.False(t, created)

		s1, err := users.GetUserStats(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, s1.FollowingCount)
	})

	t.Run("unfollow", func(t *testing.T) {
		removed, err := follows.Unfollow(ctx, "u1", "u2")
		require.NoError(t, err)
		assert.True(t, removed)

		following, err := follows.IsFollowing(ctx, "u1", "u2")
		require.NoError(t, err)
		assert.False(t, following)

		s2, err := users.GetUserStats(ctx, "u2")
		require.NoError(t, err)
		assert.Zero(t, s2.FollowerCount)
	})

	t.Run("unfollow without edge leaves counters alone", func(t *testing.T) {
		removed, err := follows.Unfollow(ctx, "u1", "u2")
		require.NoError(t, err)
		assert.False(t, removed)

		s1, err := users.GetUserStats(ctx, "u1")
		require.NoError(t, err)
		assert.Zero(t, s1.FollowingCount)
	})
}

func TestFollowSelf(t *testing.T) {
	_, follows := newFollowFixtures(t, "u1")

	_, err := follows.Follow(context.Background(), "u1", "u1")
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
}

func TestFollowListings(t *testing.T) {
	ctx := context.Background()
	ids := []string{"star"}
	for i := 0; i < 4; i++ {
		ids = append(ids, fmt.Sprintf("fan%d", i))
	}
	_, follows := newFollowFixtures(t, ids...)

	for i := 0; i < 4; i++ {
		_, err := follows.Follow(ctx, fmt.Sprintf("fan%d", i), "star")
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	_, err := follows.Follow(ctx, "star", "fan0")
	require.NoError(t, err)

	t.Run("followers newest edge first", func(t *testing.T) {
		page, next, err := follows.GetUserFollowers(ctx, "star", ports.Page{Limit: 3})
		require.NoError(t, err)
		require.Len(t, page, 3)
		require.NotEmpty(t, next)
		assert.Equal(t, "fan3", page[0].FollowerID)

		rest, _, err := follows.GetUserFollowers(ctx, "star", ports.Page{Limit: 3, Token: next})
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, "fan0", rest[0].FollowerID)
	})

	t.Run("following", func(t *testing.T) {
		page, _, err := follows.GetUserFollowing(ctx, "star", ports.Page{Limit: 10})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "fan0", page[0].FolloweeID)
	})
}
