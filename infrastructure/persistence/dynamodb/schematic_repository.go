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

// SchematicRepository implements ports.SchematicRepository on the single table.
type SchematicRepository struct {
	store  ports.Store
	logger *zap.Logger
}

// NewSchematicRepository creates a new SchematicRepository.
func NewSchematicRepository(store ports.Store, logger *zap.Logger) ports.SchematicRepository {
	return &SchematicRepository{store: store, logger: logger}
}

// schematicItem is the metadata item at (SCHEMATIC#<id>, METADATA), carrying
// the author and feed projections.
type schematicItem struct {
	PK             string   `dynamodbav:"PK"`
	SK             string   `dynamodbav:"SK"`
	GSI1PK         string   `dynamodbav:"GSI1PK"`
	GSI1SK         string   `dynamodbav:"GSI1SK"`
	GSI3PK         string   `dynamodbav:"GSI3PK"`
	GSI3SK         string   `dynamodbav:"GSI3SK"`
	EntityType     string   `dynamodbav:"entityType"`
	SchematicID    string   `dynamodbav:"schematicId"`
	Title          string   `dynamodbav:"title"`
	Description    string   `dynamodbav:"description,omitempty"`
	AuthorID       string   `dynamodbav:"authorId"`
	AuthorUsername string   `dynamodbav:"authorUsername"`
	Tags           []string `dynamodbav:"tags,omitempty"`
	Status         string   `dynamodbav:"status"`
	Version        int      `dynamodbav:"version"`
	FileURL        string   `dynamodbav:"fileUrl,omitempty"`
	CoverImageURL  string   `dynamodbav:"coverImageUrl,omitempty"`
	Width          int      `dynamodbav:"width,omitempty"`
	Height         int      `dynamodbav:"height,omitempty"`
	Length         int      `dynamodbav:"length,omitempty"`
	BlockCount     int      `dynamodbav:"blockCount,omitempty"`
	CreatedAt      string   `dynamodbav:"createdAt"`
	UpdatedAt      string   `dynamodbav:"updatedAt"`
	DeletedAt      string   `dynamodbav:"deletedAt,omitempty"`
}

// schematicStatsItem is the counter item at (SCHEMATIC#<id>, STATS).
type schematicStatsItem struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	EntityType    string `dynamodbav:"entityType"`
	SchematicID   string `dynamodbav:"schematicId"`
	ViewCount     int    `dynamodbav:"viewCount"`
	LikeCount     int    `dynamodbav:"likeCount"`
	CommentCount  int    `dynamodbav:"commentCount"`
	DownloadCount int    `dynamodbav:"downloadCount"`
}

// schematicTagItem is one tag-association item at (SCHEMATIC#<id>, TAG#<tag>),
// projected into the tag dimension.
type schematicTagItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	GSI2PK      string `dynamodbav:"GSI2PK"`
	GSI2SK      string `dynamodbav:"GSI2SK"`
	EntityType  string `dynamodbav:"entityType"`
	SchematicID string `dynamodbav:"schematicId"`
	Tag         string `dynamodbav:"tag"`
	Status      string `dynamodbav:"status"`
	CreatedAt   string `dynamodbav:"createdAt"`
}

func (it schematicItem) toModel() *model.Schematic {
	s := &model.Schematic{
		SchematicID:    it.SchematicID,
		Title:          it.Title,
		Description:    it.Description,
		AuthorID:       it.AuthorID,
		AuthorUsername: it.AuthorUsername,
		Tags:           it.Tags,
		Status:         model.SchematicStatus(it.Status),
		Version:        it.Version,
		FileURL:        it.FileURL,
		CoverImageURL:  it.CoverImageURL,
		Width:          it.Width,
		Height:         it.Height,
		Length:         it.Length,
		BlockCount:     it.BlockCount,
		CreatedAt:      parseTime(it.CreatedAt),
		UpdatedAt:      parseTime(it.UpdatedAt),
	}
	if it.DeletedAt != "" {
		deletedAt := parseTime(it.DeletedAt)
		s.DeletedAt = &deletedAt
	}
	return s
}

// CreateSchematic writes the metadata item and bumps the author's
// schematicCount in one transaction, then creates the stats item and the tag
// items best-effort. A crash between the two leaves the schematic visible but
// not yet tag-searchable, which heals on the next successful write.
func (r *SchematicRepository) CreateSchematic(ctx context.Context, s *model.Schematic) error {
	if s.SchematicID == "" {
		s.SchematicID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.Status = model.SchematicActive
	s.Version = 1
	s.CreatedAt = now
	s.UpdatedAt = now

	key := schema.SchematicKey(s.SchematicID)
	byAuthor := schema.SchematicByAuthor(s.AuthorID, s.SchematicID, now)
	byFeed := schema.SchematicByFeed(s.SchematicID, now)

	item, err := attributevalue.MarshalMap(schematicItem{
		PK:             key.PK,
		SK:             key.SK,
		GSI1PK:         byAuthor.PK,
		GSI1SK:         byAuthor.SK,
		GSI3PK:         byFeed.PK,
		GSI3SK:         byFeed.SK,
		EntityType:     entitySchematic,
		SchematicID:    s.SchematicID,
		Title:          s.Title,
		Description:    s.Description,
		AuthorID:       s.AuthorID,
		AuthorUsername: s.AuthorUsername,
		Tags:           s.Tags,
		Status:         string(s.Status),
		Version:        s.Version,
		FileURL:        s.FileURL,
		CoverImageURL:  s.CoverImageURL,
		Width:          s.Width,
		Height:         s.Height,
		Length:         s.Length,
		BlockCount:     s.BlockCount,
		CreatedAt:      formatTime(now),
		UpdatedAt:      formatTime(now),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal schematic item: %w", err)
	}

	err = r.store.TransactWrite(ctx, []ports.TransactItem{
		{Put: &ports.TransactPut{Item: item}},
		{Update: &ports.TransactUpdate{
			Key:   schema.UserStatsKey(s.AuthorID),
			Patch: ports.Patch{Add: map[string]int{"schematicCount": 1}},
		}},
	})
	if err != nil {
		return appErrors.NewDatabaseError("create schematic", err)
	}

	r.writeStatsAndTags(ctx, s, now)

	r.logger.Info("schematic created",
		zap.String("schematicId", s.SchematicID),
		zap.String("authorId", s.AuthorID),
		zap.Int("tagCount", len(s.Tags)),
	)
	return nil
}

// writeStatsAndTags issues the non-transactional follow-up writes.
func (r *SchematicRepository) writeStatsAndTags(ctx context.Context, s *model.Schematic, now time.Time) {
	statsKey := schema.SchematicStatsKey(s.SchematicID)
	ops := make([]func(context.Context) error, 0, len(s.Tags)+1)

	ops = append(ops, func(ctx context.Context) error {
		stats, err := attributevalue.MarshalMap(schematicStatsItem{
			PK:          statsKey.PK,
			SK:          statsKey.SK,
			EntityType:  entitySchematicStats,
			SchematicID: s.SchematicID,
		})
		if err != nil {
			return err
		}
		return r.store.Put(ctx, stats, ports.Condition{})
	})

	for _, tag := range s.Tags {
		tagKey := schema.SchematicTagKey(s.SchematicID, tag)
		byTag := schema.SchematicByTag(tag, s.SchematicID, now)
		tag := tag
		ops = append(ops, func(ctx context.Context) error {
			item, err := attributevalue.MarshalMap(schematicTagItem{
				PK:          tagKey.PK,
				SK:          tagKey.SK,
				GSI2PK:      byTag.PK,
				GSI2SK:      byTag.SK,
				EntityType:  entitySchematicTag,
				SchematicID: s.SchematicID,
				Tag:         tag,
				Status:      string(model.SchematicActive),
				CreatedAt:   formatTime(now),
			})
			if err != nil {
				return err
			}
			return r.store.Put(ctx, item, ports.Condition{})
		})
	}

	succeeded, failures := common.BestEffort(ctx, ops)
	if len(failures) > 0 {
		r.logger.Warn("best-effort schematic fan-out incomplete",
			zap.String("schematicId", s.SchematicID),
			zap.Int("succeeded", succeeded),
			zap.Int("failed", len(failures)),
			zap.Error(failures[0]),
		)
	}
}

// load reads the metadata item without side effects.
func (r *SchematicRepository) load(ctx context.Context, schematicID string) (*model.Schematic, error) {
	raw, err := r.store.Get(ctx, schema.SchematicKey(schematicID))
	if err != nil {
		return nil, appErrors.NewDatabaseError("get schematic", err)
	}
	if raw == nil {
		return nil, nil
	}

	var it schematicItem
	if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schematic item: %w", err)
	}
	if it.Status == string(model.SchematicDeleted) {
		return nil, nil
	}
	return it.toModel(), nil
}

// GetSchematic returns the metadata, or nil when absent or soft-deleted. A
// successful read fires a detached best-effort viewCount increment that never
// blocks or fails the read; rapid repeated reads inflate the counter once per
// read.
func (r *SchematicRepository) GetSchematic(ctx context.Context, schematicID string) (*model.Schematic, error) {
	s, err := r.load(ctx, schematicID)
	if err != nil || s == nil {
		return s, err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.IncrementSchematicStat(ctx, schematicID, "viewCount"); err != nil {
			r.logger.Warn("view count increment failed",
				zap.String("schematicId", schematicID),
				zap.Error(err),
			)
		}
	}()

	return s, nil
}

// GetSchematicStats returns the counter item, or nil when absent.
func (r *SchematicRepository) GetSchematicStats(ctx context.Context, schematicID string) (*model.SchematicStats, error) {
	raw, err := r.store.Get(ctx, schema.SchematicStatsKey(schematicID))
	if err != nil {
		return nil, appErrors.NewDatabaseError("get schematic stats", err)
	}
	if raw == nil {
		return nil, nil
	}

	var it schematicStatsItem
	if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schematic stats item: %w", err)
	}
	return &model.SchematicStats{
		SchematicID:   schematicID,
		ViewCount:     it.ViewCount,
		LikeCount:     it.LikeCount,
		CommentCount:  it.CommentCount,
		DownloadCount: it.DownloadCount,
	}, nil
}

// UpdateSchematic patches present fields iff userID owns the schematic. The
// ownership check rides on the write itself; nil covers both missing and
// unauthorized so callers cannot test for existence.
func (r *SchematicRepository) UpdateSchematic(ctx context.Context, schematicID, userID string, upd model.SchematicUpdate) (*model.Schematic, error) {
	patch := ports.Patch{Set: map[string]any{
		"updatedAt": formatTime(time.Now().UTC()),
	}}
	if upd.Title != nil {
		patch.Set["title"] = *upd.Title
	}
	if upd.Description != nil {
		patch.Set["description"] = *upd.Description
	}
	if upd.Tags != nil {
		patch.Set["tags"] = *upd.Tags
	}
	if upd.CoverImageURL != nil {
		patch.Set["coverImageUrl"] = *upd.CoverImageURL
	}
	if upd.FileURL != nil {
		patch.Set["fileUrl"] = *upd.FileURL
	}

	cond := ports.Condition{Equals: map[string]any{
		"authorId":        userID,
		schema.AttrStatus: string(model.SchematicActive),
	}}
	if err := r.store.Update(ctx, schema.SchematicKey(schematicID), patch, cond); err != nil {
		if errors.Is(err, ports.ErrConditionFailed) {
			return nil, nil
		}
		return nil, appErrors.NewDatabaseError("update schematic", err)
	}

	return r.load(ctx, schematicID)
}

// SoftDeleteSchematic marks the schematic deleted iff userID owns it and it
// is still active, then decrements the author's schematicCount. The condition
// losing reports false, never an error.
func (r *SchematicRepository) SoftDeleteSchematic(ctx context.Context, schematicID, userID string) (bool, error) {
	now := time.Now().UTC()
	patch := ports.Patch{Set: map[string]any{
		schema.AttrStatus: string(model.SchematicDeleted),
		"deletedAt":       formatTime(now),
		"updatedAt":       formatTime(now),
	}}
	cond := ports.Condition{Equals: map[string]any{
		"authorId":        userID,
		schema.AttrStatus: string(model.SchematicActive),
	}}

	if err := r.store.Update(ctx, schema.SchematicKey(schematicID), patch, cond); err != nil {
		if errors.Is(err, ports.ErrConditionFailed) {
			return false, nil
		}
		return false, appErrors.NewDatabaseError("delete schematic", err)
	}

	if err := r.store.Update(ctx, schema.UserStatsKey(userID),
		ports.Patch{Add: map[string]int{"schematicCount": -1}}, ports.Condition{}); err != nil {
		r.logger.Warn("schematic count decrement failed",
			zap.String("userId", userID),
			zap.Error(err),
		)
	}

	r.logger.Info("schematic soft-deleted",
		zap.String("schematicId", schematicID),
		zap.String("authorId", userID),
	)
	return true, nil
}

// IncrementSchematicStat atomically adds one to a named counter. Unknown
// counter names are rejected before any store call.
func (r *SchematicRepository) IncrementSchematicStat(ctx context.Context, schematicID, stat string) error {
	if !model.StatNames[stat] {
		return appErrors.NewValidationError(fmt.Sprintf("unknown stat %q", stat))
	}

	err := r.store.Update(ctx, schema.SchematicStatsKey(schematicID),
		ports.Patch{Add: map[string]int{stat: 1}}, ports.Condition{})
	if err != nil {
		return appErrors.NewDatabaseError("increment schematic stat", err)
	}
	return nil
}

// querySchematics runs one index page and maps the items.
func (r *SchematicRepository) querySchematics(ctx context.Context, q ports.Query) ([]*model.Schematic, string, error) {
	result, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, "", appErrors.NewDatabaseError("query schematics", err)
	}

	schematics := make([]*model.Schematic, 0, len(result.Items))
	for _, raw := range result.Items {
		var it schematicItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			r.logger.Warn("failed to unmarshal schematic item", zap.Error(err))
			continue
		}
		schematics = append(schematics, it.toModel())
	}

	next, err := EncodePageToken(result.LastKey)
	if err != nil {
		return nil, "", err
	}
	return schematics, next, nil
}

// GetUserSchematics lists an author's schematics newest-first.
func (r *SchematicRepository) GetUserSchematics(ctx context.Context, authorID string, page ports.Page) ([]*model.Schematic, string, error) {
	startKey, err := DecodePageToken(page.Token)
	if err != nil {
		return nil, "", err
	}
	return r.querySchematics(ctx, ports.Query{
		Index:         schema.IndexByOwner,
		Partition:     "USER#" + authorID,
		SortPrefix:    schema.SchematicByAuthorPrefix,
		Limit:         page.Limit,
		StartKey:      startKey,
		ExcludeStatus: string(model.SchematicDeleted),
	})
}

// GetLatestSchematics lists the global feed newest-first.
func (r *SchematicRepository) GetLatestSchematics(ctx context.Context, page ports.Page) ([]*model.Schematic, string, error) {
	startKey, err := DecodePageToken(page.Token)
	if err != nil {
		return nil, "", err
	}
	return r.querySchematics(ctx, ports.Query{
		Index:         schema.IndexByFeed,
		Partition:     "FEED#LATEST",
		Limit:         page.Limit,
		StartKey:      startKey,
		ExcludeStatus: string(model.SchematicDeleted),
	})
}

// GetSchematicsByTag pages through the tag dimension, then resolves each hit
// to its metadata item, silently skipping schematics deleted since the tag
// item was written.
func (r *SchematicRepository) GetSchematicsByTag(ctx context.Context, tag string, page ports.Page) ([]*model.Schematic, string, error) {
	startKey, err := DecodePageToken(page.Token)
	if err != nil {
		return nil, "", err
	}

	result, err := r.store.Query(ctx, ports.Query{
		Index:     schema.IndexByTag,
		Partition: "TAG#" + tag,
		Limit:     page.Limit,
		StartKey:  startKey,
	})
	if err != nil {
		return nil, "", appErrors.NewDatabaseError("query schematics by tag", err)
	}

	schematics := make([]*model.Schematic, 0, len(result.Items))
	for _, raw := range result.Items {
		var it schematicTagItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			r.logger.Warn("failed to unmarshal tag item", zap.Error(err))
			continue
		}
		s, err := r.load(ctx, it.SchematicID)
		if err != nil {
			return nil, "", err
		}
		if s != nil {
			schematics = append(schematics, s)
		}
	}

	next, err := EncodePageToken(result.LastKey)
	if err != nil {
		return nil, "", err
	}
	return schematics, next, nil
}
