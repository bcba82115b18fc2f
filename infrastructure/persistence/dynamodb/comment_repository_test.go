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

func newCommentFixtures(t *testing.T) (ports.SchematicRepository, ports.CommentRepository, *model.Schematic) {
	t.Helper()
	store := memory.NewStore()
	logger := zap.NewNop()
	users := NewUserRepository(store, logger)
	schematics := NewSchematicRepository(store, logger)
	comments := NewCommentRepository(store, logger)

	ctx := context.Background()
	require.NoError(t, users.CreateUser(ctx, &model.User{UserID: "author", Username: "steve"}))
	s := &model.Schematic{Title: "castle", AuthorID: "author", AuthorUsername: "steve"}
	require.NoError(t, schematics.CreateSchematic(ctx, s))
	return schematics, comments, s
}

func TestCommentCreateBumpsCount(t *testing.T) {
	ctx := context.Background()
	schematics, comments, s := newCommentFixtures(t)

	c := &model.Comment{
		SchematicID:    s.SchematicID,
		AuthorID:       "alex",
		AuthorUsername: "alex",
		Content:        "nice build",
	}
	require.NoError(t, comments.CreateComment(ctx, c))
	require.NotEmpty(t, c.CommentID)
	assert.Equal(t, model.CommentActive, c.Status)

	stats, err := schematics.GetSchematicStats(ctx, s.SchematicID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CommentCount)
}

func TestCommentListNewestFirst(t *testing.T) {
	ctx := context.Background()
	_, comments, s := newCommentFixtures(t)

	for i := 0; i < 4; i++ {
		require.NoError(t, comments.CreateComment(ctx, &model.Comment{
			SchematicID: s.SchematicID,
			AuthorID:    "alex",
			Content:     fmt.Sprintf("comment-%d", i),
		}))
		time.Sleep(2 * time.Millisecond)
	}

	page, next, err := comments.GetCommentsBySchematic(ctx, s.SchematicID, ports.Page{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.NotEmpty(t, next)
	assert.Equal(t, "comment-3", page[0].Content)

	rest, next, err := comments.GetCommentsBySchematic(ctx, s.SchematicID, ports.Page{Limit: 3, Token: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Empty(t, next)
	assert.Equal(t, "comment-0", rest[0].Content)
}

func TestCommentUpdate(t *testing.T) {
	ctx := context.Background()
	_, comments, s := newCommentFixtures(t)

	c := &model.Comment{SchematicID: s.SchematicID, AuthorID: "alex", Content: "first"}
	require.NoError(t, comments.CreateComment(ctx, c))

	updated, err := comments.UpdateComment(ctx, c.CommentID, "alex", "edited")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "edited", updated.Content)
	assert.Equal(t, model.CommentEdited, updated.Status)

	t.Run("non-author gets nil", func(t *testing.T) {
		updated, err := comments.UpdateComment(ctx, c.CommentID, "intruder", "hijacked")
		require.NoError(t, err)
		assert.Nil(t, updated)
	})
}

func TestCommentDelete(t *testing.T) {
	ctx := context.Background()
	schematics, comments, s := newCommentFixtures(t)

	c := &model.Comment{SchematicID: s.SchematicID, AuthorID: "alex", Content: "bye"}
	require.NoError(t, comments.CreateComment(ctx, c))

	t.Run("non-author cannot delete", func(t *testing.T) {
		deleted, err := comments.DeleteComment(ctx, c.CommentID, "intruder")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	deleted, err := comments.DeleteComment(ctx, c.CommentID, "alex")
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := comments.GetComment(ctx, c.CommentID)
	require.NoError(t, err)
	assert.Nil(t, got)

	listed, _, err := comments.GetCommentsBySchematic(ctx, s.SchematicID, ports.Page{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, listed)

	stats, err := schematics.GetSchematicStats(ctx, s.SchematicID)
	require.NoError(t, err)
	assert.Zero(t, stats.CommentCount)

	t.Run("second delete reports false", func(t *testing.T) {
		deleted, err := comments.DeleteComment(ctx, c.CommentID, "alex")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestCommentUpdateAfterDelete(t *testing.T) {
	ctx := context.Background()
	schematics, comments, s := newCommentFixtures(t)

	c := &model.Comment{SchematicID: s.SchematicID, AuthorID: "alex", Content: "bye"}
	require.NoError(t, comments.CreateComment(ctx, c))

	deleted, err := comments.DeleteComment(ctx, c.CommentID, "alex")
	require.NoError(t, err)
	require.True(t, deleted)

	// Even the author cannot edit a deleted comment back into existence.
	updated, err := comments.UpdateComment(ctx, c.CommentID, "alex", "back from the dead")
	require.NoError(t, err)
	assert.Nil(t, updated)

	listed, _, err := comments.GetCommentsBySchematic(ctx, s.SchematicID, ports.Page{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, listed)

	stats, err := schematics.GetSchematicStats(ctx, s.SchematicID)
	require.NoError(t, err)
	assert.Zero(t, stats.CommentCount)
}
