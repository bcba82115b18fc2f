package dynamodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"schemstory-backend/domain/model"
	"schemstory-backend/infrastructure/persistence/memory"
	appErrors "schemstory-backend/pkg/errors"
)

func TestUserRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(memory.NewStore(), zap.NewNop())

	user := &model.User{
		UserID:   "u1",
		Username: "steve",
		Email:    "steve@example.com",
	}
	require.NoError(t, repo.CreateUser(ctx, user))
	assert.Equal(t, model.UserActive, user.Status)
	assert.False(t, user.CreatedAt.IsZero())

	got, err := repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "steve", got.Username)

	stats, err := repo.GetUserStats(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Zero(t, stats.SchematicCount)
	assert.Zero(t, stats.FollowerCount)
}

func TestUserRepositoryDuplicateCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(memory.NewStore(), zap.NewNop())

	require.NoError(t, repo.CreateUser(ctx, &model.User{UserID: "u1", Username: "steve"}))

	err := repo.CreateUser(ctx, &model.User{UserID: "u1", Username: "alex"})
	require.Error(t, err)
	assert.True(t, appErrors.IsConflict(err))

	// The loser must not have clobbered the original profile.
	got, err := repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "steve", got.Username)
}

func TestUserRepositoryGetAbsent(t *testing.T) {
	repo := NewUserRepository(memory.NewStore(), zap.NewNop())

	got, err := repo.GetUser(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(memory.NewStore(), zap.NewNop())
	require.NoError(t, repo.CreateUser(ctx, &model.User{UserID: "u1", Username: "steve"}))

	bio := "I build castles"
	updated, err := repo.UpdateUser(ctx, "u1", model.UserUpdate{Bio: &bio})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "I build castles", updated.Bio)
	assert.Equal(t, "steve", updated.Username)

	t.Run("absent user yields nil", func(t *testing.T) {
		updated, err := repo.UpdateUser(ctx, "nope", model.UserUpdate{Bio: &bio})
		require.NoError(t, err)
		assert.Nil(t, updated)
	})
}
