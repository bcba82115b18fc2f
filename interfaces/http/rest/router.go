package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"schemstory-backend/interfaces/http/rest/handlers"
	"schemstory-backend/interfaces/http/rest/middleware"
	"schemstory-backend/pkg/auth"
)

// Router creates and configures the HTTP router
type Router struct {
	users         *handlers.UserHandler
	schematics    *handlers.SchematicHandler
	comments      *handlers.CommentHandler
	notifications *handlers.NotificationHandler
	images        *handlers.ImageHandler
	jwtConfig     auth.JWTConfig
	enableCORS    bool
	logger        *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	users *handlers.UserHandler,
	schematics *handlers.SchematicHandler,
	comments *handlers.CommentHandler,
	notifications *handlers.NotificationHandler,
	images *handlers.ImageHandler,
	jwtConfig auth.JWTConfig,
	enableCORS bool,
	logger *zap.Logger,
) *Router {
	return &Router{
		users:         users,
		schematics:    schematics,
		comments:      comments,
		notifications: notifications,
		images:        images,
		jwtConfig:     jwtConfig,
		enableCORS:    enableCORS,
		logger:        logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.schemstory.com"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)

	authenticated := middleware.Authenticate(rt.jwtConfig, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		// Public reads
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuthenticate(rt.jwtConfig))

			r.Get("/schematics", rt.schematics.ListSchematics)
			r.Get("/schematics/{schematicID}", rt.schematics.GetSchematic)
			r.Get("/schematics/{schematicID}/comments", rt.comments.ListComments)
			r.Post("/schematics/{schematicID}/download", rt.schematics.RecordDownload)

			r.Get("/users/{userID}", rt.users.GetUser)
			r.Get("/users/{userID}/schematics", rt.schematics.ListUserSchematics)
			r.Get("/users/{userID}/followers", rt.users.GetFollowers)
			r.Get("/users/{userID}/following", rt.users.GetFollowing)
		})

		// Authenticated writes
		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Post("/users", rt.users.RegisterUser)
			r.Put("/users/me", rt.users.UpdateMe)
			r.Post("/users/{userID}/follow", rt.users.FollowUser)
			r.Delete("/users/{userID}/follow", rt.users.UnfollowUser)

			r.Post("/schematics", rt.schematics.CreateSchematic)
			r.Put("/schematics/{schematicID}", rt.schematics.UpdateSchematic)
			r.Delete("/schematics/{schematicID}", rt.schematics.DeleteSchematic)
			r.Post("/schematics/{schematicID}/like", rt.schematics.LikeSchematic)
			r.Post("/schematics/{schematicID}/comments", rt.comments.CreateComment)

			r.Put("/comments/{commentID}", rt.comments.UpdateComment)
			r.Delete("/comments/{commentID}", rt.comments.DeleteComment)

			r.Get("/notifications", rt.notifications.ListNotifications)
			r.Post("/notifications/{notificationID}/read", rt.notifications.MarkRead)
			r.Post("/notifications/read-all", rt.notifications.MarkAllRead)

			r.Get("/images", rt.images.ListMyImages)
			r.Post("/images", rt.images.UploadImage)
			r.Post("/images/{imageID}/promote", rt.images.PromoteImage)
			r.Delete("/images/{imageID}", rt.images.DeleteImage)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
