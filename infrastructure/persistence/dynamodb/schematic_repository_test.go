package dynamodb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"schemstory-backend/application/ports"
	"schemstory-backend/domain/model"
	"schemstory-backend/infrastructure/persistence/memory"
	"schemstory-backend/infrastructure/persistence/schema"
	appErrors "schemstory-backend/pkg/errors"
)

func newSchematicFixtures(t *testing.T) (ports.UserRepository, ports.SchematicRepository, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	logger := zap.NewNop()
	users := NewUserRepository(store, logger)
	schematics := NewSchematicRepository(store, logger)
	require.NoError(t, users.CreateUser(context.Background(), &model.User{
		UserID: "author", Username: "steve",
	}))
	return users, schematics, store
}

func createSchematic(t *testing.T, repo ports.SchematicRepository, title string, tags ...string) *model.Schematic {
	t.Helper()
	s := &model.Schematic{
		Title:          title,
		AuthorID:       "author",
		AuthorUsername: "steve",
		Tags:           tags,
		FileURL:        "https://files.example.com/" + title,
	}
	require.NoError(t, repo.CreateSchematic(context.Background(), s))
	return s
}

func TestSchematicCreateBumpsAuthorCount(t *testing.T) {
	ctx := context.Background()
	users, schematics, _ := newSchematicFixtures(t)

	createSchematic(t, schematics, "castle", "medieval")
	createSchematic(t, schematics, "bridge")

	stats, err := users.GetUserStats(ctx, "author")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.SchematicCount)
}

func TestSchematicGetAndViewCount(t *testing.T) {
	ctx := context.Background()
	_, schematics, _ := newSchematicFixtures(t)
	s := createSchematic(t, schematics, "castle")

	got, err := schematics.GetSchematic(ctx, s.SchematicID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "castle", got.Title)
	assert.Equal(t, 1, got.Version)

	// The view increment is detached from the read.
	assert.Eventually(t, func() bool {
		stats, err := schematics.GetSchematicStats(ctx, s.SchematicID)
		return err == nil && stats != nil && stats.ViewCount == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSchematicIncrementStat(t *testing.T) {
	ctx := context.Background()
	_, schematics, _ := newSchematicFixtures(t)
	s := createSchematic(t, schematics, "castle")

	require.NoError(t, schematics.IncrementSchematicStat(ctx, s.SchematicID, "downloadCount"))
	require.NoError(t, schematics.IncrementSchematicStat(ctx, s.SchematicID, "downloadCount"))
	require.NoError(t, schematics.IncrementSchematicStat(ctx, s.SchematicID, "likeCount"))

	stats, err := schematics.GetSchematicStats(ctx, s.SchematicID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DownloadCount)
	assert.Equal(t, 1, stats.LikeCount)

	t.Run("unknown stat rejected", func(t *testing.T) {
		err := schematics.IncrementSchematicStat(ctx, s.SchematicID, "karma")
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
	})
}

func TestSchematicUpdateOwnership(t *testing.T) {
	ctx := context.Background()
	_, schematics, _ := newSchematicFixtures(t)
	s := createSchematic(t, schematics, "castle")

	title := "big castle"
	updated, err := schematics.UpdateSchematic(ctx, s.SchematicID, "author", model.SchematicUpdate{Title: &title})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "big castle", updated.Title)

	t.Run("non-owner gets nil, same as missing", func(t *testing.T) {
		updated, err := schematics.UpdateSchematic(ctx, s.SchematicID, "intruder", model.SchematicUpdate{Title: &title})
		require.NoError(t, err)
		assert.Nil(t, updated)

		updated, err = schematics.UpdateSchematic(ctx, "missing", "author", model.SchematicUpdate{Title: &title})
		require.NoError(t, err)
		assert.Nil(t, updated)
	})
}

func TestSchematicUpdateAfterDelete(t *testing.T) {
	ctx := context.Background()
	_, schematics, store := newSchematicFixtures(t)
	s := createSchematic(t, schematics, "castle")

	deleted, err := schematics.SoftDeleteSchematic(ctx, s.SchematicID, "author")
	require.NoError(t, err)
	require.True(t, deleted)

	title := "big castle"
	updated, err := schematics.UpdateSchematic(ctx, s.SchematicID, "author", model.SchematicUpdate{Title: &title})
	require.NoError(t, err)
	assert.Nil(t, updated)

	// The deleted item keeps its attributes untouched.
	raw, err := store.Get(ctx, schema.SchematicKey(s.SchematicID))
	require.NoError(t, err)
	require.NotNil(t, raw)
	var it schematicItem
	require.NoError(t, attributevalue.UnmarshalMap(raw, &it))
	assert.Equal(t, "castle", it.Title)
	assert.Equal(t, string(model.SchematicDeleted), it.Status)
}

func TestSchematicSoftDelete(t *testing.T) {
	ctx := context.Background()
	users, schematics, _ := newSchematicFixtures(t)
	s := createSchematic(t, schematics, "castle")

	t.Run("non-owner cannot delete", func(t *testing.T) {
		deleted, err := schematics.SoftDeleteSchematic(ctx, s.SchematicID, "intruder")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	deleted, err := schematics.SoftDeleteSchematic(ctx, s.SchematicID, "author")
	require.NoError(t, err)
	assert.True(t, deleted)

	t.Run("deleted schematic reads as absent", func(t *testing.T) {
		got, err := schematics.GetSchematic(ctx, s.SchematicID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("author count decremented", func(t *testing.T) {
		stats, err := users.GetUserStats(ctx, "author")
		require.NoError(t, err)
		assert.Zero(t, stats.SchematicCount)
	})

	t.Run("second delete loses the condition", func(t *testing.T) {
		deleted, err := schematics.SoftDeleteSchematic(ctx, s.SchematicID, "author")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestSchematicListings(t *testing.T) {
	ctx := context.Background()
	_, schematics, _ := newSchematicFixtures(t)

	var created []*model.Schematic
	for i := 0; i < 5; i++ {
		created = append(created, createSchematic(t, schematics, fmt.Sprintf("build-%d", i), "redstone"))
		time.Sleep(2 * time.Millisecond) // distinct sortable timestamps
	}

	t.Run("author listing newest-first with pagination", func(t *testing.T) {
		page1, next, err := schematics.GetUserSchematics(ctx, "author", ports.Page{Limit: 3})
		require.NoError(t, err)
		require.Len(t, page1, 3)
		require.NotEmpty(t, next)
		assert.Equal(t, "build-4", page1[0].Title)

		page2, next, err := schematics.GetUserSchematics(ctx, "author", ports.Page{Limit: 3, Token: next})
		require.NoError(t, err)
		require.Len(t, page2, 2)
		assert.Empty(t, next)
		assert.Equal(t, "build-0", page2[1].Title)
	})

	t.Run("feed", func(t *testing.T) {
		feed, _, err := schematics.GetLatestSchematics(ctx, ports.Page{Limit: 10})
		require.NoError(t, err)
		require.Len(t, feed, 5)
		assert.Equal(t, "build-4", feed[0].Title)
	})

	t.Run("by tag", func(t *testing.T) {
		tagged, _, err := schematics.GetSchematicsByTag(ctx, "redstone", ports.Page{Limit: 10})
		require.NoError(t, err)
		assert.Len(t, tagged, 5)
	})

	t.Run("deleted schematics drop from listings", func(t *testing.T) {
		_, err := schematics.SoftDeleteSchematic(ctx, created[2].SchematicID, "author")
		require.NoError(t, err)

		feed, _, err := schematics.GetLatestSchematics(ctx, ports.Page{Limit: 10})
		require.NoError(t, err)
		assert.Len(t, feed, 4)

		// Tag items outlive the metadata; resolution skips the corpse.
		tagged, _, err := schematics.GetSchematicsByTag(ctx, "redstone", ports.Page{Limit: 10})
		require.NoError(t, err)
		assert.Len(t, tagged, 4)
	})

	t.Run("malformed page token", func(t *testing.T) {
		_, _, err := schematics.GetUserSchematics(ctx, "author", ports.Page{Limit: 3, Token: "%%%not-base64%%%"})
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
	})
}
