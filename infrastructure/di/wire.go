//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"schemstory-backend/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideS3Client,
	ProvideStore,
	ProvideUserRepository,
	ProvideSchematicRepository,
	ProvideCommentRepository,
	ProvideFollowRepository,
	ProvideNotificationRepository,
	ProvideImageRepository,
	ProvideEventPublisher,
	ProvideSearchIndex,
	ProvideImageService,
	ProvideJWTConfig,
	ProvideUserHandler,
	ProvideSchematicHandler,
	ProvideCommentHandler,
	ProvideNotificationHandler,
	ProvideImageHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
