package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"go.uber.org/zap"

	"schemstory-backend/application/ports"
	"schemstory-backend/domain/model"
	"schemstory-backend/infrastructure/persistence/schema"
	appErrors "schemstory-backend/pkg/errors"
)

// FollowRepository implements ports.FollowRepository on the single table.
type FollowRepository struct {
	store  ports.Store
	logger *zap.Logger
}

// NewFollowRepository creates a new FollowRepository.
func NewFollowRepository(store ports.Store, logger *zap.Logger) ports.FollowRepository {
	return &FollowRepository{store: store, logger: logger}
}

type followItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI4PK     string `dynamodbav:"GSI4PK"`
	GSI4SK     string `dynamodbav:"GSI4SK"`
	EntityType string `dynamodbav:"entityType"`
	FollowerID string `dynamodbav:"followerId"`
	FolloweeID string `dynamodbav:"followeeId"`
	CreatedAt  string `dynamodbav:"createdAt"`
}

func (it followItem) toModel() *model.Follow {
	return &model.Follow{
		FollowerID: it.FollowerID,
		FolloweeID: it.FolloweeID,
		CreatedAt:  parseTime(it.CreatedAt),
	}
}

// Follow creates the edge and bumps both counters in one transaction. The
// edge put requires the edge not exist, so a duplicate follow cancels the
// whole transaction and reports false with no counter drift. Self-follow is
// rejected up front.
func (r *FollowRepository) Follow(ctx context.Context, followerID, followeeID string) (bool, error) {
	if followerID == followeeID {
		return false, appErrors.NewValidationError("cannot follow yourself")
	}

	now := time.Now().UTC()
	key := schema.FollowKey(followerID, followeeID)
	byFollowee := schema.FollowByFollowee(followerID, followeeID, now)

	item, err := attributevalue.MarshalMap(followItem{
		PK:         key.PK,
		SK:         key.SK,
		GSI4PK:     byFollowee.PK,
		GSI4SK:     byFollowee.SK,
		EntityType: entityFollow,
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  formatTime(now),
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal follow item: %w", err)
	}

	err = r.store.TransactWrite(ctx, []ports.TransactItem{
		{Put: &ports.TransactPut{Item: item, Condition: ports.Condition{NotExists: true}}},
		{Update: &ports.TransactUpdate{
			Key:   schema.UserStatsKey(followerID),
			Patch: ports.Patch{Add: map[string]int{"followingCount": 1}},
		}},
		{Update: &ports.TransactUpdate{
			Key:   schema.UserStatsKey(followeeID),
			Patch: ports.Patch{Add: map[string]int{"followerCount": 1}},
		}},
	})
	if err != nil {
		if errors.Is(err, ports.ErrTransactionCanceled) {
			return false, nil
		}
		return false, appErrors.NewDatabaseError("follow user", err)
	}

	r.logger.Info("user followed",
		zap.String("followerId", followerID),
		zap.String("followeeId", followeeID),
	)
	return true, nil
}

// Unfollow deletes the edge and decrements both counters in one transaction.
// The delete requires the edge to exist, so unfollowing a non-followed user
// reports false with no counter drift.
func (r *FollowRepository) Unfollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	err := r.store.TransactWrite(ctx, []ports.TransactItem{
		{Delete: &ports.TransactDelete{
			Key:       schema.FollowKey(followerID, followeeID),
			Condition: ports.Condition{Exists: true},
		}},
		{Update: &ports.TransactUpdate{
			Key:   schema.UserStatsKey(followerID),
			Patch: ports.Patch{Add: map[string]int{"followingCount": -1}},
		}},
		{Update: &ports.TransactUpdate{
			Key:   schema.UserStatsKey(followeeID),
			Patch: ports.Patch{Add: map[string]int{"followerCount": -1}},
		}},
	})
	if err != nil {
		if errors.Is(err, ports.ErrTransactionCanceled) {
			return false, nil
		}
		return false, appErrors.NewDatabaseError("unfollow user", err)
	}
	return true, nil
}

// IsFollowing reports whether the follow edge exists.
func (r *FollowRepository) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	raw, err := r.store.Get(ctx, schema.FollowKey(followerID, followeeID))
	if err != nil {
		return false, appErrors.NewDatabaseError("get follow", err)
	}
	return raw != nil, nil
}

func (r *FollowRepository) queryFollows(ctx context.Context, q ports.Query) ([]*model.Follow, string, error) {
	result, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, "", appErrors.NewDatabaseError("query follows", err)
	}

	follows := make([]*model.Follow, 0, len(result.Items))
	for _, raw := range result.Items {
		var it followItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			r.logger.Warn("failed to unmarshal follow item", zap.Error(err))
			continue
		}
		follows = append(follows, it.toModel())
	}

	next, err := EncodePageToken(result.LastKey)
	if err != nil {
		return nil, "", err
	}
	return follows, next, nil
}

// GetUserFollowers lists who follows userID, newest edge first.
func (r *FollowRepository) GetUserFollowers(ctx context.Context, userID string, page ports.Page) ([]*model.Follow, string, error) {
	startKey, err := DecodePageToken(page.Token)
	if err != nil {
		return nil, "", err
	}
	return r.queryFollows(ctx, ports.Query{
		Index:     schema.IndexByFollowee,
		Partition: "FOLLOWEE#" + userID,
		Limit:     page.Limit,
		StartKey:  startKey,
	})
}

// GetUserFollowing lists who userID follows. Edges live on the follower's
// base partition keyed by followee id, so ordering is by followee id rather
// than recency.
func (r *FollowRepository) GetUserFollowing(ctx context.Context, userID string, page ports.Page) ([]*model.Follow, string, error) {
	startKey, err := DecodePageToken(page.Token)
	if err != nil {
		return nil, "", err
	}
	return r.queryFollows(ctx, ports.Query{
		Partition:  "USER#" + userID,
		SortPrefix: schema.FollowingPrefix,
		Limit:      page.Limit,
		Ascending:  true,
		StartKey:   startKey,
	})
}
