package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"schemstory-backend/domain/model"
	"schemstory-backend/infrastructure/persistence/dynamodb"
	"schemstory-backend/infrastructure/persistence/memory"
)

type fakeS3 struct {
	mu      sync.Mutex
	deleted []string
	failOn  string
}

func (f *fakeS3) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(params.Key)
	if key == f.failOn {
		return nil, errors.New("access denied")
	}
	f.deleted = append(f.deleted, key)
	return &s3.DeleteObjectOutput{}, nil
}

func newImageService(t *testing.T, s3Client *fakeS3) *ImageService {
	t.Helper()
	repo := dynamodb.NewImageRepository(memory.NewStore(), zap.NewNop())
	return NewImageService(repo, s3Client, "images-bucket", time.Hour, zap.NewNop())
}

func renderBoth(t *testing.T, svc *ImageService, imageID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, svc.RecordRendition(ctx, imageID, "optimized", "images/"+imageID+"/optimized.webp"))
	require.NoError(t, svc.RecordRendition(ctx, imageID, "thumbnail", "images/"+imageID+"/thumbnail.webp"))
}

func TestImageServiceStagedLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newImageService(t, &fakeS3{})

	img, err := svc.BeginUpload(ctx, "u1", NewUpload{
		Kind:        model.ImageKindCover,
		OriginalKey: "images/raw/original.png",
		ContentType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ImageStaged, img.Status)
	assert.Greater(t, img.ExpiresAt, time.Now().Unix())

	t.Run("first rendition keeps it staged", func(t *testing.T) {
		require.NoError(t, svc.RecordRendition(ctx, img.ImageID, "optimized", "images/"+img.ImageID+"/optimized.webp"))
		got, err := svc.GetImage(ctx, img.ImageID)
		require.NoError(t, err)
		assert.Equal(t, model.ImageStaged, got.Status)
	})

	t.Run("second rendition makes it promotable", func(t *testing.T) {
		require.NoError(t, svc.RecordRendition(ctx, img.ImageID, "thumbnail", "images/"+img.ImageID+"/thumbnail.webp"))
		got, err := svc.GetImage(ctx, img.ImageID)
		require.NoError(t, err)
		assert.Equal(t, model.ImageStagedReady, got.Status)
	})

	t.Run("promotion attaches the schematic", func(t *testing.T) {
		promoted, err := svc.PromoteImage(ctx, img.ImageID, "s1")
		require.NoError(t, err)
		assert.Equal(t, model.ImageActive, promoted.Status)
		assert.Equal(t, "s1", promoted.SchematicID)
		assert.Zero(t, promoted.ExpiresAt)
	})
}

func TestImageServiceDirectLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newImageService(t, &fakeS3{})

	img, err := svc.BeginUpload(ctx, "u1", NewUpload{
		Kind:        model.ImageKindCover,
		OriginalKey: "images/raw/original.png",
		SchematicID: "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ImageUploading, img.Status)
	assert.Zero(t, img.ExpiresAt)

	require.NoError(t, svc.RecordRendition(ctx, img.ImageID, "optimized", "images/"+img.ImageID+"/optimized.webp"))
	got, err := svc.GetImage(ctx, img.ImageID)
	require.NoError(t, err)
	assert.Equal(t, model.ImageProcessing, got.Status)

	require.NoError(t, svc.RecordRendition(ctx, img.ImageID, "thumbnail", "images/"+img.ImageID+"/thumbnail.webp"))
	got, err = svc.GetImage(ctx, img.ImageID)
	require.NoError(t, err)
	assert.Equal(t, model.ImageActive, got.Status)
	assert.Equal(t, "s1", got.SchematicID)
}

func TestImageServiceFailProcessing(t *testing.T) {
	ctx := context.Background()
	svc := newImageService(t, &fakeS3{})

	img, err := svc.BeginUpload(ctx, "u1", NewUpload{
		Kind:        model.ImageKindAvatar,
		OriginalKey: "images/raw/original.png",
	})
	require.NoError(t, err)

	require.NoError(t, svc.FailProcessing(ctx, img.ImageID))
	got, err := svc.GetImage(ctx, img.ImageID)
	require.NoError(t, err)
	assert.Equal(t, model.ImageFailed, got.Status)
}

func TestImageServiceRecordRendition(t *testing.T) {
	ctx := context.Background()
	svc := newImageService(t, &fakeS3{})

	t.Run("unknown image", func(t *testing.T) {
		err := svc.RecordRendition(ctx, "missing", "optimized", "images/missing/optimized.webp")
		require.Error(t, err)
	})

	t.Run("unknown rendition", func(t *testing.T) {
		img, err := svc.BeginUpload(ctx, "u1", NewUpload{
			Kind:        model.ImageKindCover,
			OriginalKey: "images/raw/original.png",
		})
		require.NoError(t, err)
		require.Error(t, svc.RecordRendition(ctx, img.ImageID, "banner", "images/"+img.ImageID+"/banner.webp"))
	})
}

func TestImageServicePromoteBeforeReady(t *testing.T) {
	ctx := context.Background()
	svc := newImageService(t, &fakeS3{})

	img, err := svc.BeginUpload(ctx, "u1", NewUpload{
		Kind:        model.ImageKindAvatar,
		OriginalKey: "images/raw/original.png",
	})
	require.NoError(t, err)

	_, err = svc.PromoteImage(ctx, img.ImageID, "")
	require.Error(t, err)
}

func TestImageServiceDeleteRemovesObjects(t *testing.T) {
	ctx := context.Background()
	bucket := &fakeS3{}
	svc := newImageService(t, bucket)

	img, err := svc.BeginUpload(ctx, "u1", NewUpload{
		Kind:        model.ImageKindCover,
		OriginalKey: "images/raw/original.png",
	})
	require.NoError(t, err)
	renderBoth(t, svc, img.ImageID)

	deleted, err := svc.DeleteImage(ctx, img.ImageID, "u1")
	require.NoError(t, err)
	assert.True(t, deleted)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()
	assert.ElementsMatch(t, []string{
		"images/raw/original.png",
		"images/" + img.ImageID + "/optimized.webp",
		"images/" + img.ImageID + "/thumbnail.webp",
	}, bucket.deleted)

	got, err := svc.GetImage(ctx, img.ImageID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestImageServiceDeleteSurvivesObjectFailure(t *testing.T) {
	ctx := context.Background()
	bucket := &fakeS3{failOn: "images/raw/original.png"}
	svc := newImageService(t, bucket)

	img, err := svc.BeginUpload(ctx, "u1", NewUpload{
		Kind:        model.ImageKindCover,
		OriginalKey: "images/raw/original.png",
	})
	require.NoError(t, err)

	// The record delete wins even when the bucket cleanup does not.
	deleted, err := svc.DeleteImage(ctx, img.ImageID, "u1")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestImageServiceDeleteOwnership(t *testing.T) {
	ctx := context.Background()
	bucket := &fakeS3{}
	svc := newImageService(t, bucket)

	img, err := svc.BeginUpload(ctx, "u1", NewUpload{
		Kind:        model.ImageKindCover,
		OriginalKey: "images/raw/original.png",
	})
	require.NoError(t, err)

	deleted, err := svc.DeleteImage(ctx, img.ImageID, "intruder")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, bucket.deleted)
}
