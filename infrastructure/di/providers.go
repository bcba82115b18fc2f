package di

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"schemstory-backend/application/ports"
	"schemstory-backend/application/services"
	"schemstory-backend/infrastructure/config"
	"schemstory-backend/infrastructure/messaging/eventbridge"
	"schemstory-backend/infrastructure/persistence/dynamodb"
	"schemstory-backend/infrastructure/search/algolia"
	"schemstory-backend/interfaces/http/rest"
	"schemstory-backend/interfaces/http/rest/handlers"
	"schemstory-backend/pkg/auth"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideS3Client creates an S3 client
func ProvideS3Client(awsCfg aws.Config) *awss3.Client {
	return awss3.NewFromConfig(awsCfg)
}

// ProvideStore creates the single-table store
func ProvideStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.Store {
	return dynamodb.NewStore(client, cfg.DynamoDBTable, logger)
}

// ProvideUserRepository creates a user repository
func ProvideUserRepository(store ports.Store, logger *zap.Logger) ports.UserRepository {
	return dynamodb.NewUserRepository(store, logger)
}

// ProvideSchematicRepository creates a schematic repository
func ProvideSchematicRepository(store ports.Store, logger *zap.Logger) ports.SchematicRepository {
	return dynamodb.NewSchematicRepository(store, logger)
}

// ProvideCommentRepository creates a comment repository
func ProvideCommentRepository(store ports.Store, logger *zap.Logger) ports.CommentRepository {
	return dynamodb.NewCommentRepository(store, logger)
}

// ProvideFollowRepository creates a follow repository
func ProvideFollowRepository(store ports.Store, logger *zap.Logger) ports.FollowRepository {
	return dynamodb.NewFollowRepository(store, logger)
}

// ProvideNotificationRepository creates a notification repository
func ProvideNotificationRepository(store ports.Store, logger *zap.Logger) ports.NotificationRepository {
	return dynamodb.NewNotificationRepository(store, logger)
}

// ProvideImageRepository creates an image repository
func ProvideImageRepository(store ports.Store, logger *zap.Logger) ports.ImageRepository {
	return dynamodb.NewImageRepository(store, logger)
}

// ProvideEventPublisher creates an EventBridge-backed publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideSearchIndex creates the Algolia search index client
func ProvideSearchIndex(cfg *config.Config, logger *zap.Logger) ports.SearchIndex {
	return algolia.NewIndexer(cfg.AlgoliaAppID, cfg.AlgoliaAPIKey, cfg.AlgoliaIndex, logger)
}

// ProvideImageService creates the image lifecycle service
func ProvideImageService(
	images ports.ImageRepository,
	s3Client *awss3.Client,
	cfg *config.Config,
	logger *zap.Logger,
) *services.ImageService {
	ttl := time.Duration(cfg.StagedImageTTLSeconds) * time.Second
	return services.NewImageService(images, s3Client, cfg.ImagesBucket, ttl, logger)
}

// ProvideJWTConfig extracts the JWT validation settings
func ProvideJWTConfig(cfg *config.Config) auth.JWTConfig {
	return auth.JWTConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
	}
}

// ProvideUserHandler creates the user handler
func ProvideUserHandler(
	users ports.UserRepository,
	follows ports.FollowRepository,
	notifications ports.NotificationRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *handlers.UserHandler {
	return handlers.NewUserHandler(users, follows, notifications, publisher, logger)
}

// ProvideSchematicHandler creates the schematic handler
func ProvideSchematicHandler(
	schematics ports.SchematicRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *handlers.SchematicHandler {
	return handlers.NewSchematicHandler(schematics, publisher, logger)
}

// ProvideCommentHandler creates the comment handler
func ProvideCommentHandler(
	comments ports.CommentRepository,
	schematics ports.SchematicRepository,
	notifications ports.NotificationRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *handlers.CommentHandler {
	return handlers.NewCommentHandler(comments, schematics, notifications, publisher, logger)
}

// ProvideNotificationHandler creates the notification handler
func ProvideNotificationHandler(notifications ports.NotificationRepository, logger *zap.Logger) *handlers.NotificationHandler {
	return handlers.NewNotificationHandler(notifications, logger)
}

// ProvideImageHandler creates the image handler
func ProvideImageHandler(images *services.ImageService, logger *zap.Logger) *handlers.ImageHandler {
	return handlers.NewImageHandler(images, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	users *handlers.UserHandler,
	schematics *handlers.SchematicHandler,
	comments *handlers.CommentHandler,
	notifications *handlers.NotificationHandler,
	images *handlers.ImageHandler,
	jwtConfig auth.JWTConfig,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(users, schematics, comments, notifications, images, jwtConfig, cfg.EnableCORS, logger)
}
