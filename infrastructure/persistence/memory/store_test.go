package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemstory-backend/application/ports"
	"schemstory-backend/infrastructure/persistence/schema"
)

func testItem(t *testing.T, attrs map[string]any) ports.Item {
	t.Helper()
	item, err := attributevalue.MarshalMap(attrs)
	require.NoError(t, err)
	return item
}

func TestStorePutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	key := schema.UserKey("u1")

	item := testItem(t, map[string]any{
		"PK": key.PK, "SK": key.SK, "username": "steve",
	})
	require.NoError(t, store.Put(ctx, item, ports.Condition{}))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)

	require.NoError(t, store.Delete(ctx, key, ports.Condition{}))
	got, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreConditions(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	key := schema.UserKey("u1")
	item := testItem(t, map[string]any{
		"PK": key.PK, "SK": key.SK, "status": "active",
	})

	t.Run("not-exists blocks duplicate put", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, item, ports.Condition{NotExists: true}))
		err := store.Put(ctx, item, ports.Condition{NotExists: true})
		assert.ErrorIs(t, err, ports.ErrConditionFailed)
	})

	t.Run("equals guards update", func(t *testing.T) {
		err := store.Update(ctx, key,
			ports.Patch{Set: map[string]any{"bio": "hi"}},
			ports.Condition{Equals: map[string]any{"status": "deleted"}})
		assert.ErrorIs(t, err, ports.ErrConditionFailed)

		err = store.Update(ctx, key,
			ports.Patch{Set: map[string]any{"bio": "hi"}},
			ports.Condition{Equals: map[string]any{"status": "active"}})
		assert.NoError(t, err)
	})

	t.Run("exists guards delete", func(t *testing.T) {
		err := store.Delete(ctx, schema.UserKey("missing"), ports.Condition{Exists: true})
		assert.ErrorIs(t, err, ports.ErrConditionFailed)
	})
}

func TestStoreAtomicAdd(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	key := schema.UserStatsKey("u1")

	// Add creates the attribute, and the item, on first touch.
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Update(ctx, key,
			ports.Patch{Add: map[string]int{"followerCount": 1}}, ports.Condition{}))
	}
	require.NoError(t, store.Update(ctx, key,
		ports.Patch{Add: map[string]int{"followerCount": -1}}, ports.Condition{}))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	var stats struct {
		FollowerCount int `dynamodbav:"followerCount"`
	}
	require.NoError(t, attributevalue.UnmarshalMap(got, &stats))
	assert.Equal(t, 2, stats.FollowerCount)
}

func TestStoreTransactWrite(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	edge := schema.FollowKey("u1", "u2")
	edgeItem := testItem(t, map[string]any{"PK": edge.PK, "SK": edge.SK})

	tx := []ports.TransactItem{
		{Put: &ports.TransactPut{Item: edgeItem, Condition: ports.Condition{NotExists: true}}},
		{Update: &ports.TransactUpdate{
			Key:   schema.UserStatsKey("u1"),
			Patch: ports.Patch{Add: map[string]int{"followingCount": 1}},
		}},
	}
	require.NoError(t, store.TransactWrite(ctx, tx))

	// Re-running cancels on the Put branch and must leave the counter alone.
	err := store.TransactWrite(ctx, tx)
	require.ErrorIs(t, err, ports.ErrTransactionCanceled)

	got, err := store.Get(ctx, schema.UserStatsKey("u1"))
	require.NoError(t, err)
	var stats struct {
		FollowingCount int `dynamodbav:"followingCount"`
	}
	require.NoError(t, attributevalue.UnmarshalMap(got, &stats))
	assert.Equal(t, 1, stats.FollowingCount)
}

func TestStoreQuery(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	// Ten feed entries, sort keys already in time order.
	for i := 0; i < 10; i++ {
		status := "active"
		if i == 4 {
			status = "deleted"
		}
		item := testItem(t, map[string]any{
			"PK":     fmt.Sprintf("SCHEMATIC#s%d", i),
			"SK":     "METADATA",
			"GSI3PK": "FEED#LATEST",
			"GSI3SK": fmt.Sprintf("2025-01-01T00:00:0%d.000Z#SCHEMATIC#s%d", i, i),
			"status": status,
			"n":      i,
		})
		require.NoError(t, store.Put(ctx, item, ports.Condition{}))
	}

	t.Run("descending with pagination", func(t *testing.T) {
		q := ports.Query{Index: "GSI3", Partition: "FEED#LATEST", Limit: 4}
		page1, err := store.Query(ctx, q)
		require.NoError(t, err)
		require.Len(t, page1.Items, 4)
		require.NotNil(t, page1.LastKey)

		q.StartKey = page1.LastKey
		page2, err := store.Query(ctx, q)
		require.NoError(t, err)
		require.Len(t, page2.Items, 4)

		// Newest-first and no overlap across pages.
		var ns []int
		for _, it := range append(page1.Items, page2.Items...) {
			var row struct {
				N int `dynamodbav:"n"`
			}
			require.NoError(t, attributevalue.UnmarshalMap(it, &row))
			ns = append(ns, row.N)
		}
		assert.Equal(t, []int{9, 8, 7, 6, 5, 4, 3, 2}, ns)
	})

	t.Run("status filter runs after the limit", func(t *testing.T) {
		res, err := store.Query(ctx, ports.Query{
			Index: "GSI3", Partition: "FEED#LATEST", Limit: 6, ExcludeStatus: "deleted",
		})
		require.NoError(t, err)
		// Items 9..4 fetched, the deleted one dropped; short page, more remain.
		assert.Len(t, res.Items, 5)
		assert.NotNil(t, res.LastKey)
	})

	t.Run("sort prefix", func(t *testing.T) {
		res, err := store.Query(ctx, ports.Query{Partition: "SCHEMATIC#s1", SortPrefix: "META"})
		require.NoError(t, err)
		assert.Len(t, res.Items, 1)

		res, err = store.Query(ctx, ports.Query{Partition: "SCHEMATIC#s1", SortPrefix: "TAG#"})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
	})

	t.Run("exhausted scan has no continuation", func(t *testing.T) {
		res, err := store.Query(ctx, ports.Query{Index: "GSI3", Partition: "FEED#LATEST", Limit: 50})
		require.NoError(t, err)
		assert.Len(t, res.Items, 10)
		assert.Nil(t, res.LastKey)
	})
}
