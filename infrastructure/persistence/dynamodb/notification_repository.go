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
	"schemstory-backend/pkg/common"
	appErrors "schemstory-backend/pkg/errors"
)

// NotificationRepository implements ports.NotificationRepository on the
// single table. Notifications live on the recipient's partition under a
// timestamp-prefixed sort key, so a plain reverse query yields newest-first.
type NotificationRepository struct {
	store  ports.Store
	logger *zap.Logger
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(store ports.Store, logger *zap.Logger) ports.NotificationRepository {
	return &NotificationRepository{store: store, logger: logger}
}

type notificationItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	EntityType     string `dynamodbav:"entityType"`
	NotificationID string `dynamodbav:"notificationId"`
	UserID         string `dynamodbav:"userId"`
	Type           string `dynamodbav:"type"`
	ActorID        string `dynamodbav:"actorId"`
	ActorUsername  string `dynamodbav:"actorUsername"`
	TargetID       string `dynamodbav:"targetId,omitempty"`
	Message        string `dynamodbav:"message"`
	IsRead         bool   `dynamodbav:"isRead"`
	CreatedAt      string `dynamodbav:"createdAt"`
}

func (it notificationItem) toModel() *model.Notification {
	return &model.Notification{
		NotificationID: it.NotificationID,
		UserID:         it.UserID,
		Type:           model.NotificationType(it.Type),
		ActorID:        it.ActorID,
		ActorUsername:  it.ActorUsername,
		TargetID:       it.TargetID,
		Message:        it.Message,
		IsRead:         it.IsRead,
		CreatedAt:      parseTime(it.CreatedAt),
	}
}

// CreateNotification writes a notification onto the recipient's partition.
func (r *NotificationRepository) CreateNotification(ctx context.Context, n *model.Notification) error {
	now := time.Now().UTC()
	n.CreatedAt = now
	if n.NotificationID == "" {
		n.NotificationID = schema.NotificationID(now, uuid.NewString())
	}

	key := schema.NotificationKey(n.UserID, n.NotificationID)
	item, err := attributevalue.MarshalMap(notificationItem{
		PK:             key.PK,
		SK:             key.SK,
		EntityType:     entityNotification,
		NotificationID: n.NotificationID,
		UserID:         n.UserID,
		Type:           string(n.Type),
		ActorID:        n.ActorID,
		ActorUsername:  n.ActorUsername,
		TargetID:       n.TargetID,
		Message:        n.Message,
		IsRead:         false,
		CreatedAt:      formatTime(now),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification item: %w", err)
	}

	if err := r.store.Put(ctx, item, ports.Condition{}); err != nil {
		return appErrors.NewDatabaseError("create notification", err)
	}
	return nil
}

// GetUserNotifications lists a user's notifications newest-first.
func (r *NotificationRepository) GetUserNotifications(ctx context.Context, userID string, page ports.Page) ([]*model.Notification, string, error) {
	startKey, err := DecodePageToken(page.Token)
	if err != nil {
		return nil, "", err
	}

	result, err := r.store.Query(ctx, ports.Query{
		Partition:  "USER#" + userID,
		SortPrefix: schema.NotificationPrefix,
		Limit:      page.Limit,
		StartKey:   startKey,
	})
	if err != nil {
		return nil, "", appErrors.NewDatabaseError("query notifications", err)
	}

	notifications := make([]*model.Notification, 0, len(result.Items))
	for _, raw := range result.Items {
		var it notificationItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			r.logger.Warn("failed to unmarshal notification item", zap.Error(err))
			continue
		}
		notifications = append(notifications, it.toModel())
	}

	next, err := EncodePageToken(result.LastKey)
	if err != nil {
		return nil, "", err
	}
	return notifications, next, nil
}

// MarkNotificationAsRead flips isRead on one notification iff it exists.
// Marking a missing notification reports false.
func (r *NotificationRepository) MarkNotificationAsRead(ctx context.Context, userID, notificationID string) (bool, error) {
	patch := ports.Patch{Set: map[string]any{"isRead": true}}
	cond := ports.Condition{Exists: true}

	err := r.store.Update(ctx, schema.NotificationKey(userID, notificationID), patch, cond)
	if err != nil {
		if errors.Is(err, ports.ErrConditionFailed) {
			return false, nil
		}
		return false, appErrors.NewDatabaseError("mark notification read", err)
	}
	return true, nil
}

// MarkAllNotificationsAsRead walks every unread notification for the user
// and flips each best-effort, returning how many were marked. Notifications
// arriving during the sweep may be missed.
func (r *NotificationRepository) MarkAllNotificationsAsRead(ctx context.Context, userID string) (int, error) {
	marked := 0
	var startKey ports.Item

	for {
		result, err := r.store.Query(ctx, ports.Query{
			Partition:  "USER#" + userID,
			SortPrefix: schema.NotificationPrefix,
			Limit:      100,
			StartKey:   startKey,
		})
		if err != nil {
			return marked, appErrors.NewDatabaseError("query notifications", err)
		}

		ops := make([]func(context.Context) error, 0, len(result.Items))
		for _, raw := range result.Items {
			var it notificationItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil || it.IsRead {
				continue
			}
			key := schema.NotificationKey(userID, it.NotificationID)
			ops = append(ops, func(ctx context.Context) error {
				return r.store.Update(ctx, key,
					ports.Patch{Set: map[string]any{"isRead": true}}, ports.Condition{})
			})
		}

		succeeded, failures := common.BestEffort(ctx, ops)
		marked += succeeded
		if len(failures) > 0 {
			r.logger.Warn("mark-all-read incomplete",
				zap.String("userId", userID),
				zap.Int("failed", len(failures)),
				zap.Error(failures[0]),
			)
		}

		if result.LastKey == nil {
			return marked, nil
		}
		startKey = result.LastKey
	}
}
