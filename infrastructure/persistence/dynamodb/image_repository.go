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

// ImageRepository implements ports.ImageRepository on the single table.
// Staged images carry a TTL attribute so the table expires abandoned uploads
// on its own.
type ImageRepository struct {
	store  ports.Store
	logger *zap.Logger
}

// NewImageRepository creates a new ImageRepository.
func NewImageRepository(store ports.Store, logger *zap.Logger) ports.ImageRepository {
	return &ImageRepository{store: store, logger: logger}
}

type imageItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	GSI1PK       string `dynamodbav:"GSI1PK"`
	GSI1SK       string `dynamodbav:"GSI1SK"`
	EntityType   string `dynamodbav:"entityType"`
	ImageID      string `dynamodbav:"imageId"`
	OwnerID      string `dynamodbav:"ownerId"`
	SchematicID  string `dynamodbav:"schematicId,omitempty"`
	Kind         string `dynamodbav:"kind"`
	Status       string `dynamodbav:"status"`
	ContentType  string `dynamodbav:"contentType,omitempty"`
	OriginalKey  string `dynamodbav:"originalKey,omitempty"`
	OptimizedKey string `dynamodbav:"optimizedKey,omitempty"`
	ThumbnailKey string `dynamodbav:"thumbnailKey,omitempty"`
	Width        int    `dynamodbav:"width,omitempty"`
	Height       int    `dynamodbav:"height,omitempty"`
	ExpiresAt    int64  `dynamodbav:"expiresAt,omitempty"`
	CreatedAt    string `dynamodbav:"createdAt"`
	UpdatedAt    string `dynamodbav:"updatedAt"`
}

func (it imageItem) toModel() *model.Image {
	return &model.Image{
		ImageID:      it.ImageID,
		OwnerID:      it.OwnerID,
		SchematicID:  it.SchematicID,
		Kind:         model.ImageKind(it.Kind),
		Status:       model.ImageStatus(it.Status),
		ContentType:  it.ContentType,
		OriginalKey:  it.OriginalKey,
		OptimizedKey: it.OptimizedKey,
		ThumbnailKey: it.ThumbnailKey,
		Width:        it.Width,
		Height:       it.Height,
		ExpiresAt:    it.ExpiresAt,
		CreatedAt:    parseTime(it.CreatedAt),
		UpdatedAt:    parseTime(it.UpdatedAt),
	}
}

// CreateImage writes a fresh image record. Staged images get the TTL the
// caller set on ExpiresAt.
func (r *ImageRepository) CreateImage(ctx context.Context, img *model.Image) error {
	if img.ImageID == "" {
		img.ImageID = uuid.NewString()
	}
	now := time.Now().UTC()
	img.CreatedAt = now
	img.UpdatedAt = now
	if img.Status == "" {
		img.Status = model.ImageUploading
	}

	key := schema.ImageKey(img.ImageID)
	byOwner := schema.ImageByOwner(img.OwnerID, img.ImageID, now)

	item, err := attributevalue.MarshalMap(imageItem{
		PK:           key.PK,
		SK:           key.SK,
		GSI1PK:       byOwner.PK,
		GSI1SK:       byOwner.SK,
		EntityType:   entityImage,
		ImageID:      img.ImageID,
		OwnerID:      img.OwnerID,
		SchematicID:  img.SchematicID,
		Kind:         string(img.Kind),
		Status:       string(img.Status),
		ContentType:  img.ContentType,
		OriginalKey:  img.OriginalKey,
		OptimizedKey: img.OptimizedKey,
		ThumbnailKey: img.ThumbnailKey,
		Width:        img.Width,
		Height:       img.Height,
		ExpiresAt:    img.ExpiresAt,
		CreatedAt:    formatTime(now),
		UpdatedAt:    formatTime(now),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal image item: %w", err)
	}

	cond := ports.Condition{NotExists: true}
	if err := r.store.Put(ctx, item, cond); err != nil {
		if errors.Is(err, ports.ErrConditionFailed) {
			return appErrors.NewConflictError("image already exists").WithCode("IMAGE_EXISTS")
		}
		return appErrors.NewDatabaseError("create image", err)
	}

	r.logger.Info("image created",
		zap.String("imageId", img.ImageID),
		zap.String("ownerId", img.OwnerID),
		zap.String("kind", string(img.Kind)),
	)
	return nil
}

// GetImage returns the image record, or nil when absent.
func (r *ImageRepository) GetImage(ctx context.Context, imageID string) (*model.Image, error) {
	raw, err := r.store.Get(ctx, schema.ImageKey(imageID))
	if err != nil {
		return nil, appErrors.NewDatabaseError("get image", err)
	}
	if raw == nil {
		return nil, nil
	}

	var it imageItem
	if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal image item: %w", err)
	}
	return it.toModel(), nil
}

// SetImageStatus moves the record to a new status, optionally patching the
// derived keys and dimensions produced by processing.
func (r *ImageRepository) SetImageStatus(ctx context.Context, imageID string, status model.ImageStatus, upd model.ImageUpdate) error {
	patch := ports.Patch{Set: map[string]any{
		schema.AttrStatus: string(status),
		"updatedAt":       formatTime(time.Now().UTC()),
	}}
	if upd.OptimizedKey != nil {
		patch.Set["optimizedKey"] = *upd.OptimizedKey
	}
	if upd.ThumbnailKey != nil {
		patch.Set["thumbnailKey"] = *upd.ThumbnailKey
	}
	if upd.Width != nil {
		patch.Set["width"] = *upd.Width
	}
	if upd.Height != nil {
		patch.Set["height"] = *upd.Height
	}

	err := r.store.Update(ctx, schema.ImageKey(imageID), patch, ports.Condition{Exists: true})
	if err != nil {
		if errors.Is(err, ports.ErrConditionFailed) {
			return appErrors.NewNotFoundError("image not found")
		}
		return appErrors.NewDatabaseError("set image status", err)
	}
	return nil
}

// PromoteStagedImage turns a staged image into a permanent one by clearing
// the TTL attribute and activating it, recording the owning schematic when
// one is given. Only staged-ready images promote.
func (r *ImageRepository) PromoteStagedImage(ctx context.Context, imageID, schematicID string) (*model.Image, error) {
	patch := ports.Patch{
		Set: map[string]any{
			schema.AttrStatus: string(model.ImageActive),
			"updatedAt":       formatTime(time.Now().UTC()),
		},
		Remove: []string{schema.AttrTTL},
	}
	if schematicID != "" {
		patch.Set["schematicId"] = schematicID
	}
	cond := ports.Condition{Equals: map[string]any{
		schema.AttrStatus: string(model.ImageStagedReady),
	}}

	if err := r.store.Update(ctx, schema.ImageKey(imageID), patch, cond); err != nil {
		if errors.Is(err, ports.ErrConditionFailed) {
			return nil, nil
		}
		return nil, appErrors.NewDatabaseError("promote staged image", err)
	}

	return r.GetImage(ctx, imageID)
}

// DeleteImage removes the record iff userID owns it. Losing the condition
// reports false.
func (r *ImageRepository) DeleteImage(ctx context.Context, imageID, userID string) (bool, error) {
	cond := ports.Condition{Equals: map[string]any{"ownerId": userID}}
	if err := r.store.Delete(ctx, schema.ImageKey(imageID), cond); err != nil {
		if errors.Is(err, ports.ErrConditionFailed) {
			return false, nil
		}
		return false, appErrors.NewDatabaseError("delete image", err)
	}
	return true, nil
}

// GetUserImages lists a user's image records newest-first.
func (r *ImageRepository) GetUserImages(ctx context.Context, ownerID string, page ports.Page) ([]*model.Image, string, error) {
	startKey, err := DecodePageToken(page.Token)
	if err != nil {
		return nil, "", err
	}

	result, err := r.store.Query(ctx, ports.Query{
		Index:      schema.IndexByOwner,
		Partition:  "USER#" + ownerID,
		SortPrefix: "IMAGE#",
		Limit:      page.Limit,
		StartKey:   startKey,
	})
	if err != nil {
		return nil, "", appErrors.NewDatabaseError("query images", err)
	}

	images := make([]*model.Image, 0, len(result.Items))
	for _, raw := range result.Items {
		var it imageItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			r.logger.Warn("failed to unmarshal image item", zap.Error(err))
			continue
		}
		images = append(images, it.toModel())
	}

	next, err := EncodePageToken(result.LastKey)
	if err != nil {
		return nil, "", err
	}
	return images, next, nil
}
