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

// CommentRepository implements ports.CommentRepository on the single table.
type CommentRepository struct {
	store  ports.Store
	logger *zap.Logger
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(store ports.Store, logger *zap.Logger) ports.CommentRepository {
	return &CommentRepository{store: store, logger: logger}
}

type commentItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	GSI1PK         string `dynamodbav:"GSI1PK"`
	GSI1SK         string `dynamodbav:"GSI1SK"`
	EntityType     string `dynamodbav:"entityType"`
	CommentID      string `dynamodbav:"commentId"`
	SchematicID    string `dynamodbav:"schematicId"`
	AuthorID       string `dynamodbav:"authorId"`
	AuthorUsername string `dynamodbav:"authorUsername"`
	Content        string `dynamodbav:"content"`
	Status         string `dynamodbav:"status"`
	CreatedAt      string `dynamodbav:"createdAt"`
	UpdatedAt      string `dynamodbav:"updatedAt"`
}

func (it commentItem) toModel() *model.Comment {
	return &model.Comment{
		CommentID:      it.CommentID,
		SchematicID:    it.SchematicID,
		AuthorID:       it.AuthorID,
		AuthorUsername: it.AuthorUsername,
		Content:        it.Content,
		Status:         model.CommentStatus(it.Status),
		CreatedAt:      parseTime(it.CreatedAt),
		UpdatedAt:      parseTime(it.UpdatedAt),
	}
}

// CreateComment writes the comment and bumps the schematic's commentCount in
// one transaction, so the counter never drifts from the comment items.
func (r *CommentRepository) CreateComment(ctx context.Context, c *model.Comment) error {
	if c.CommentID == "" {
		c.CommentID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.Status = model.CommentActive
	c.CreatedAt = now
	c.UpdatedAt = now

	key := schema.CommentKey(c.CommentID)
	bySchematic := schema.CommentBySchematic(c.SchematicID, c.CommentID, now)

	item, err := attributevalue.MarshalMap(commentItem{
		PK:             key.PK,
		SK:             key.SK,
		GSI1PK:         bySchematic.PK,
		GSI1SK:         bySchematic.SK,
		EntityType:     entityComment,
		CommentID:      c.CommentID,
		SchematicID:    c.SchematicID,
		AuthorID:       c.AuthorID,
		AuthorUsername: c.AuthorUsername,
		Content:        c.Content,
		Status:         string(c.Status),
		CreatedAt:      formatTime(now),
		UpdatedAt:      formatTime(now),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal comment item: %w", err)
	}

	err = r.store.TransactWrite(ctx, []ports.TransactItem{
		{Put: &ports.TransactPut{Item: item}},
		{Update: &ports.TransactUpdate{
			Key:   schema.SchematicStatsKey(c.SchematicID),
			Patch: ports.Patch{Add: map[string]int{"commentCount": 1}},
		}},
	})
	if err != nil {
		return appErrors.NewDatabaseError("create comment", err)
	}

	r.logger.Info("comment created",
		zap.String("commentId", c.CommentID),
		zap.String("schematicId", c.SchematicID),
		zap.String("authorId", c.AuthorID),
	)
	return nil
}

// GetComment returns the comment, or nil when absent or deleted.
func (r *CommentRepository) GetComment(ctx context.Context, commentID string) (*model.Comment, error) {
	raw, err := r.store.Get(ctx, schema.CommentKey(commentID))
	if err != nil {
		return nil, appErrors.NewDatabaseError("get comment", err)
	}
	if raw == nil {
		return nil, nil
	}

	var it commentItem
	if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comment item: %w", err)
	}
	if it.Status == string(model.CommentDeleted) {
		return nil, nil
	}
	return it.toModel(), nil
}

// GetCommentsBySchematic lists a schematic's comments newest-first.
func (r *CommentRepository) GetCommentsBySchematic(ctx context.Context, schematicID string, page ports.Page) ([]*model.Comment, string, error) {
	startKey, err := DecodePageToken(page.Token)
	if err != nil {
		return nil, "", err
	}

	// The schematic's GSI1 partition holds only comments, keyed by timestamp.
	result, err := r.store.Query(ctx, ports.Query{
		Index:         schema.IndexByOwner,
		Partition:     "SCHEMATIC#" + schematicID,
		Limit:         page.Limit,
		StartKey:      startKey,
		ExcludeStatus: string(model.CommentDeleted),
	})
	if err != nil {
		return nil, "", appErrors.NewDatabaseError("query comments", err)
	}

	comments := make([]*model.Comment, 0, len(result.Items))
	for _, raw := range result.Items {
		var it commentItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			r.logger.Warn("failed to unmarshal comment item", zap.Error(err))
			continue
		}
		comments = append(comments, it.toModel())
	}

	next, err := EncodePageToken(result.LastKey)
	if err != nil {
		return nil, "", err
	}
	return comments, next, nil
}

// UpdateComment rewrites the content iff userID authored the comment and it
// is not deleted, marking it edited. Nil covers missing and unauthorized.
func (r *CommentRepository) UpdateComment(ctx context.Context, commentID, userID, content string) (*model.Comment, error) {
	current, err := r.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	patch := ports.Patch{Set: map[string]any{
		"content":         content,
		schema.AttrStatus: string(model.CommentEdited),
		"updatedAt":       formatTime(time.Now().UTC()),
	}}
	// Conditioning on the status just read keeps a concurrent delete from
	// being overwritten back to edited.
	cond := ports.Condition{Equals: map[string]any{
		"authorId":        userID,
		schema.AttrStatus: string(current.Status),
	}}

	if err := r.store.Update(ctx, schema.CommentKey(commentID), patch, cond); err != nil {
		if errors.Is(err, ports.ErrConditionFailed) {
			return nil, nil
		}
		return nil, appErrors.NewDatabaseError("update comment", err)
	}

	return r.GetComment(ctx, commentID)
}

// DeleteComment soft-deletes iff userID authored the comment, then decrements
// the schematic's commentCount. Losing the condition reports false.
func (r *CommentRepository) DeleteComment(ctx context.Context, commentID, userID string) (bool, error) {
	raw, err := r.store.Get(ctx, schema.CommentKey(commentID))
	if err != nil {
		return false, appErrors.NewDatabaseError("get comment", err)
	}
	if raw == nil {
		return false, nil
	}
	var it commentItem
	if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
		return false, fmt.Errorf("failed to unmarshal comment item: %w", err)
	}
	if it.Status == string(model.CommentDeleted) {
		return false, nil
	}

	patch := ports.Patch{Set: map[string]any{
		schema.AttrStatus: string(model.CommentDeleted),
		"updatedAt":       formatTime(time.Now().UTC()),
	}}
	cond := ports.Condition{Equals: map[string]any{
		"authorId":        userID,
		schema.AttrStatus: it.Status,
	}}

	if err := r.store.Update(ctx, schema.CommentKey(commentID), patch, cond); err != nil {
		if errors.Is(err, ports.ErrConditionFailed) {
			return false, nil
		}
		return false, appErrors.NewDatabaseError("delete comment", err)
	}

	if err := r.store.Update(ctx, schema.SchematicStatsKey(it.SchematicID),
		ports.Patch{Add: map[string]int{"commentCount": -1}}, ports.Condition{}); err != nil {
		r.logger.Warn("comment count decrement failed",
			zap.String("schematicId", it.SchematicID),
			zap.Error(err),
		)
	}

	return true, nil
}
