package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"schemstory-backend/application/ports"
	"schemstory-backend/domain/model"
	"schemstory-backend/infrastructure/persistence/schema"
	appErrors "schemstory-backend/pkg/errors"
)

// UserRepository implements ports.UserRepository on the single table.
type UserRepository struct {
	store  ports.Store
	logger *zap.Logger
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(store ports.Store, logger *zap.Logger) ports.UserRepository {
	return &UserRepository{store: store, logger: logger}
}

// userItem represents the profile item at (USER#<id>, METADATA).
type userItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"entityType"`
	UserID      string `dynamodbav:"userId"`
	Username    string `dynamodbav:"username"`
	Email       string `dynamodbav:"email"`
	DisplayName string `dynamodbav:"displayName"`
	Bio         string `dynamodbav:"bio,omitempty"`
	AvatarURL   string `dynamodbav:"avatarUrl,omitempty"`
	Status      string `dynamodbav:"status"`
	CreatedAt   string `dynamodbav:"createdAt"`
	UpdatedAt   string `dynamodbav:"updatedAt"`
}

// userStatsItem is the sibling counter item at (USER#<id>, STATS).
type userStatsItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	EntityType     string `dynamodbav:"entityType"`
	UserID         string `dynamodbav:"userId"`
	SchematicCount int    `dynamodbav:"schematicCount"`
	FollowerCount  int    `dynamodbav:"followerCount"`
	FollowingCount int    `dynamodbav:"followingCount"`
}

func (it userItem) toModel() *model.User {
	return &model.User{
		UserID:      it.UserID,
		Username:    it.Username,
		Email:       it.Email,
		DisplayName: it.DisplayName,
		Bio:         it.Bio,
		AvatarURL:   it.AvatarURL,
		Status:      model.UserStatus(it.Status),
		CreatedAt:   parseTime(it.CreatedAt),
		UpdatedAt:   parseTime(it.UpdatedAt),
	}
}

// CreateUser writes the profile item guarded against duplicate identity, then
// initializes the zeroed stats item. Two concurrent creates with the same
// identity race on the existence condition; exactly one wins.
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.Status = model.UserActive
	user.CreatedAt = now
	user.UpdatedAt = now

	key := schema.UserKey(user.UserID)
	item, err := attributevalue.MarshalMap(userItem{
		PK:          key.PK,
		SK:          key.SK,
		EntityType:  entityUser,
		UserID:      user.UserID,
		Username:    user.Username,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Bio:         user.Bio,
		AvatarURL:   user.AvatarURL,
		Status:      string(user.Status),
		CreatedAt:   formatTime(now),
		UpdatedAt:   formatTime(now),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal user item: %w", err)
	}

	if err := r.store.Put(ctx, item, ports.Condition{NotExists: true}); err != nil {
		if errors.Is(err, ports.ErrConditionFailed) {
			return appErrors.NewConflictError("user already exists").WithCode("USER_EXISTS")
		}
		return appErrors.NewDatabaseError("create user", err)
	}

	statsKey := schema.UserStatsKey(user.UserID)
	stats, err := attributevalue.MarshalMap(userStatsItem{
		PK:         statsKey.PK,
		SK:         statsKey.SK,
		EntityType: entityUserStats,
		UserID:     user.UserID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal user stats item: %w", err)
	}
	if err := r.store.Put(ctx, stats, ports.Condition{}); err != nil {
		return appErrors.NewDatabaseError("create user stats", err)
	}

	r.logger.Info("user created",
		zap.String("userId", user.UserID),
		zap.String("username", user.Username),
	)
	return nil
}

// GetUser returns the profile, or nil when absent or soft-deleted.
func (r *UserRepository) GetUser(ctx context.Context, userID string) (*model.User, error) {
	raw, err := r.store.Get(ctx, schema.UserKey(userID))
	if err != nil {
		return nil, appErrors.NewDatabaseError("get user", err)
	}
	if raw == nil {
		return nil, nil
	}

	var it userItem
	if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user item: %w", err)
	}
	if it.Status == string(model.UserDeleted) {
		return nil, nil
	}
	return it.toModel(), nil
}

// GetUserStats returns the counter item, or nil when the user has none.
func (r *UserRepository) GetUserStats(ctx context.Context, userID string) (*model.UserStats, error) {
	raw, err := r.store.Get(ctx, schema.UserStatsKey(userID))
	if err != nil {
		return nil, appErrors.NewDatabaseError("get user stats", err)
	}
	if raw == nil {
		return nil, nil
	}

	var it userStatsItem
	if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user stats item: %w", err)
	}
	return &model.UserStats{
		UserID:         userID,
		SchematicCount: it.SchematicCount,
		FollowerCount:  it.FollowerCount,
		FollowingCount: it.FollowingCount,
	}, nil
}

// UpdateUser patches present profile fields and refreshes updatedAt. A
// missing or deleted profile yields nil.
func (r *UserRepository) UpdateUser(ctx context.Context, userID string, upd model.UserUpdate) (*model.User, error) {
	patch := ports.Patch{Set: map[string]any{
		"updatedAt": formatTime(time.Now().UTC()),
	}}
	if upd.DisplayName != nil {
		patch.Set["displayName"] = *upd.DisplayName
	}
	if upd.Bio != nil {
		patch.Set["bio"] = *upd.Bio
	}
	if upd.AvatarURL != nil {
		patch.Set["avatarUrl"] = *upd.AvatarURL
	}

	cond := ports.Condition{Equals: map[string]any{
		schema.AttrStatus: string(model.UserActive),
	}}
	if err := r.store.Update(ctx, schema.UserKey(userID), patch, cond); err != nil {
		if errors.Is(err, ports.ErrConditionFailed) {
			return nil, nil
		}
		return nil, appErrors.NewDatabaseError("update user", err)
	}

	return r.GetUser(ctx, userID)
}
