package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"schemstory-backend/application/ports"
	"schemstory-backend/domain/model"
	"schemstory-backend/pkg/common"
	appErrors "schemstory-backend/pkg/errors"
)

// S3API is the subset of the S3 client the image service uses.
type S3API interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// ImageService owns the image record lifecycle and the bucket objects behind
// it. Records come first: the bucket cleanup after a delete is best-effort,
// and stragglers age out via bucket lifecycle rules.
type ImageService struct {
	images ports.ImageRepository
	s3     S3API
	bucket string
	ttl    time.Duration
	logger *zap.Logger
}

// NewImageService creates a new image service.
func NewImageService(
	images ports.ImageRepository,
	s3Client S3API,
	bucket string,
	stagedTTL time.Duration,
	logger *zap.Logger,
) *ImageService {
	return &ImageService{
		images: images,
		s3:     s3Client,
		bucket: bucket,
		ttl:    stagedTTL,
		logger: logger,
	}
}

// NewUpload describes an incoming image upload.
type NewUpload struct {
	Kind        model.ImageKind
	OriginalKey string
	ContentType string
	// SchematicID ties a direct upload to its schematic. Empty means the
	// schematic does not exist yet and the record is staged with a TTL.
	SchematicID string
}

// BeginUpload creates the record for an object the client just uploaded.
// Uploads tied to an existing schematic start in uploading; the rest are
// staged and expire unless promoted.
func (s *ImageService) BeginUpload(ctx context.Context, ownerID string, up NewUpload) (*model.Image, error) {
	img := &model.Image{
		OwnerID:     ownerID,
		SchematicID: up.SchematicID,
		Kind:        up.Kind,
		ContentType: up.ContentType,
		OriginalKey: up.OriginalKey,
	}
	if up.SchematicID == "" {
		img.Status = model.ImageStaged
		img.ExpiresAt = time.Now().Add(s.ttl).Unix()
	} else {
		img.Status = model.ImageUploading
	}
	if err := s.images.CreateImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

// RecordRendition notes a derived object landing in the bucket and, once both
// renditions are there, finishes processing. Called per object by the bucket
// event consumer.
func (s *ImageService) RecordRendition(ctx context.Context, imageID, rendition, objectKey string) error {
	img, err := s.images.GetImage(ctx, imageID)
	if err != nil {
		return err
	}
	if img == nil {
		return appErrors.NewNotFoundError("image")
	}

	upd := model.ImageUpdate{}
	switch rendition {
	case "optimized":
		upd.OptimizedKey = &objectKey
	case "thumbnail":
		upd.ThumbnailKey = &objectKey
	default:
		return appErrors.NewValidationError(fmt.Sprintf("unknown rendition %q", rendition))
	}

	status := img.Status
	if status == model.ImageUploading {
		status = model.ImageProcessing
	}
	if err := s.images.SetImageStatus(ctx, imageID, status, upd); err != nil {
		return err
	}

	img, err = s.images.GetImage(ctx, imageID)
	if err != nil {
		return err
	}
	if img != nil && img.Rendered() {
		return s.FinishProcessing(ctx, imageID, img.Status)
	}
	return nil
}

// FinishProcessing moves a fully rendered image to its resting state: staged
// records become staged-ready and wait for promotion, direct uploads go
// straight to active.
func (s *ImageService) FinishProcessing(ctx context.Context, imageID string, current model.ImageStatus) error {
	next := model.ImageActive
	if current == model.ImageStaged || current == model.ImageStagedReady {
		next = model.ImageStagedReady
	}
	return s.images.SetImageStatus(ctx, imageID, next, model.ImageUpdate{})
}

// FailProcessing marks an image whose pipeline reported an error.
func (s *ImageService) FailProcessing(ctx context.Context, imageID string) error {
	return s.images.SetImageStatus(ctx, imageID, model.ImageFailed, model.ImageUpdate{})
}

// PromoteImage makes a staged-ready image permanent, attaching it to the
// schematic it was uploaded for.
func (s *ImageService) PromoteImage(ctx context.Context, imageID, schematicID string) (*model.Image, error) {
	img, err := s.images.PromoteStagedImage(ctx, imageID, schematicID)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, appErrors.NewNotFoundError("image is not ready for promotion")
	}
	return img, nil
}

// DeleteImage removes the record and then the bucket objects in parallel.
// Object deletion failures are logged, not surfaced; the record is already
// gone and the bucket lifecycle sweeps leftovers.
func (s *ImageService) DeleteImage(ctx context.Context, imageID, userID string) (bool, error) {
	img, err := s.images.GetImage(ctx, imageID)
	if err != nil {
		return false, err
	}
	if img == nil {
		return false, nil
	}

	deleted, err := s.images.DeleteImage(ctx, imageID, userID)
	if err != nil || !deleted {
		return deleted, err
	}

	keys := img.ObjectKeys()
	ops := make([]func(context.Context) error, 0, len(keys))
	for _, key := range keys {
		key := key
		ops = append(ops, func(ctx context.Context) error {
			_, err := s.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return fmt.Errorf("failed to delete object %s: %w", key, err)
			}
			return nil
		})
	}

	succeeded, failures := common.BestEffort(ctx, ops)
	if len(failures) > 0 {
		s.logger.Warn("image object cleanup incomplete",
			zap.String("imageId", imageID),
			zap.Int("deleted", succeeded),
			zap.Int("failed", len(failures)),
			zap.Error(failures[0]),
		)
	}

	s.logger.Info("image deleted",
		zap.String("imageId", imageID),
		zap.String("ownerId", userID),
		zap.Int("objectsDeleted", succeeded),
	)
	return true, nil
}

// GetImage returns one image record.
func (s *ImageService) GetImage(ctx context.Context, imageID string) (*model.Image, error) {
	return s.images.GetImage(ctx, imageID)
}

// ListUserImages pages a user's image records.
func (s *ImageService) ListUserImages(ctx context.Context, ownerID string, page ports.Page) ([]*model.Image, string, error) {
	return s.images.GetUserImages(ctx, ownerID, page)
}
