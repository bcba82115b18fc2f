package di

import (
	"go.uber.org/zap"

	"schemstory-backend/application/ports"
	"schemstory-backend/application/services"
	"schemstory-backend/infrastructure/config"
	"schemstory-backend/interfaces/http/rest"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	Store          ports.Store
	Users          ports.UserRepository
	Schematics     ports.SchematicRepository
	Comments       ports.CommentRepository
	Follows        ports.FollowRepository
	Notifications  ports.NotificationRepository
	Images         ports.ImageRepository
	EventPublisher ports.EventPublisher
	SearchIndex    ports.SearchIndex
	ImageService   *services.ImageService
	Router         *rest.Router
}
