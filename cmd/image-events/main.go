// image-events consumes ObjectCreated notifications from the images bucket.
// The processing pipeline writes derived objects (and an error marker on
// failure) under the image's prefix; this consumer advances the lifecycle
// record as they land.
package main

import (
	"context"
	"log"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"schemstory-backend/application/services"
	"schemstory-backend/infrastructure/config"
	"schemstory-backend/infrastructure/di"
)

var (
	imageService *services.ImageService
	logger       *zap.Logger
)

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx := context.Background()
	awsCfg, err := di.ProvideAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to load AWS configuration: %v", err)
	}

	store := di.ProvideStore(di.ProvideDynamoDBClient(awsCfg), cfg, logger)
	imageService = di.ProvideImageService(
		di.ProvideImageRepository(store, logger),
		di.ProvideS3Client(awsCfg),
		cfg,
		logger,
	)
}

// parseObjectKey splits "images/<imageID>/<name>[.<ext>]" into the image id
// and rendition name. Anything else in the bucket is not ours.
func parseObjectKey(key string) (imageID, rendition string, ok bool) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 || parts[0] != "images" || parts[1] == "" {
		return "", "", false
	}
	name := parts[2]
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return parts[1], name, true
}

// handle walks one notification batch. Derived renditions advance their
// record; an error marker fails it; originals and foreign objects are
// ignored.
func handle(ctx context.Context, event events.S3Event) error {
	for _, record := range event.Records {
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			logger.Warn("undecodable object key", zap.String("rawKey", record.S3.Object.Key))
			continue
		}

		imageID, rendition, ok := parseObjectKey(key)
		if !ok || rendition == "original" {
			continue
		}

		switch rendition {
		case "failed":
			err = imageService.FailProcessing(ctx, imageID)
		default:
			err = imageService.RecordRendition(ctx, imageID, rendition, key)
		}
		if err != nil {
			// A record can legitimately be gone (deleted or TTL-expired)
			// by the time its rendition lands. Log and move on.
			logger.Warn("image event not applied",
				zap.String("imageId", imageID),
				zap.String("rendition", rendition),
				zap.Error(err),
			)
			continue
		}

		logger.Debug("image event applied",
			zap.String("imageId", imageID),
			zap.String("rendition", rendition),
		)
	}
	return nil
}

func main() {
	lambda.Start(handle)
}
