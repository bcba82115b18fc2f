package ports

import (
	"context"

	"schemstory-backend/domain/model"
)

// Page carries token pagination through list operations. An empty NextToken
// means the listing is exhausted.
type Page struct {
	Limit int32
	Token string
}

// UserRepository manages user profiles and their stats items.
//
// Expected outcomes follow one convention across all repositories: point
// reads return (nil, nil) for absent or soft-deleted entities; uniqueness
// violations surface as a typed conflict error; ownership-gated mutations
// report false or nil without distinguishing "missing" from "not yours".
type UserRepository interface {
	// CreateUser writes the profile, guarded against duplicate identity, and
	// initializes the zeroed stats item. A lost race returns a conflict error.
	CreateUser(ctx context.Context, user *model.User) error

	GetUser(ctx context.Context, userID string) (*model.User, error)

	GetUserStats(ctx context.Context, userID string) (*model.UserStats, error)

	// UpdateUser patches profile fields, requiring the profile to exist.
	UpdateUser(ctx context.Context, userID string, upd model.UserUpdate) (*model.User, error)
}

// SchematicRepository manages schematic metadata, stats, and tag items.
type SchematicRepository interface {
	// CreateSchematic transactionally writes the metadata item and bumps the
	// author's schematicCount, then best-effort writes the stats item and one
	// tag item per tag.
	CreateSchematic(ctx context.Context, s *model.Schematic) error

	// GetSchematic reads the metadata item and fires a non-blocking
	// best-effort viewCount increment.
	GetSchematic(ctx context.Context, schematicID string) (*model.Schematic, error)

	GetSchematicStats(ctx context.Context, schematicID string) (*model.SchematicStats, error)

	// UpdateSchematic patches metadata iff userID owns the schematic; nil
	// result covers both missing and unauthorized.
	UpdateSchematic(ctx context.Context, schematicID, userID string, upd model.SchematicUpdate) (*model.Schematic, error)

	// SoftDeleteSchematic flips status to deleted iff userID owns the active
	// schematic, then decrements the author's schematicCount.
	SoftDeleteSchematic(ctx context.Context, schematicID, userID string) (bool, error)

	// IncrementSchematicStat atomically adds one to a named counter.
	IncrementSchematicStat(ctx context.Context, schematicID, stat string) error

	GetUserSchematics(ctx context.Context, authorID string, page Page) ([]*model.Schematic, string, error)
	GetLatestSchematics(ctx context.Context, page Page) ([]*model.Schematic, string, error)
	GetSchematicsByTag(ctx context.Context, tag string, page Page) ([]*model.Schematic, string, error)
}

// CommentRepository manages comments and the schematic commentCount pairing.
type CommentRepository interface {
	// CreateComment transactionally writes the comment and bumps the
	// schematic's commentCount.
	CreateComment(ctx context.Context, c *model.Comment) error

	GetComment(ctx context.Context, commentID string) (*model.Comment, error)

	GetCommentsBySchematic(ctx context.Context, schematicID string, page Page) ([]*model.Comment, string, error)

	// UpdateComment rewrites content iff userID owns the comment, marking it
	// edited.
	UpdateComment(ctx context.Context, commentID, userID, content string) (*model.Comment, error)

	// DeleteComment soft-deletes iff userID owns the comment.
	DeleteComment(ctx context.Context, commentID, userID string) (bool, error)
}

// FollowRepository manages the directed follow graph and both parties'
// counters.
type FollowRepository interface {
	// Follow creates the edge and bumps both counters in one transaction; a
	// duplicate edge loses the condition and reports false.
	Follow(ctx context.Context, followerID, followeeID string) (bool, error)

	// Unfollow deletes the edge and decrements both counters; a missing edge
	// reports false.
	Unfollow(ctx context.Context, followerID, followeeID string) (bool, error)

	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)

	GetUserFollowers(ctx context.Context, userID string, page Page) ([]*model.Follow, string, error)
	GetUserFollowing(ctx context.Context, userID string, page Page) ([]*model.Follow, string, error)
}

// NotificationRepository manages per-user append-only feeds.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *model.Notification) error

	GetUserNotifications(ctx context.Context, userID string, page Page) ([]*model.Notification, string, error)

	// MarkNotificationAsRead flips one entry's isRead flag; false when the
	// entry does not exist.
	MarkNotificationAsRead(ctx context.Context, userID, notificationID string) (bool, error)

	// MarkAllNotificationsAsRead updates every unread entry independently
	// and reports how many succeeded. Partial completion is accepted.
	MarkAllNotificationsAsRead(ctx context.Context, userID string) (int, error)
}

// ImageRepository manages upload lifecycle records. Image records are the one
// entity that is hard-deleted (explicit delete or TTL expiry of staged rows).
type ImageRepository interface {
	// CreateImage writes a new record; staged records carry their TTL.
	CreateImage(ctx context.Context, img *model.Image) error

	GetImage(ctx context.Context, imageID string) (*model.Image, error)

	// SetImageStatus advances the lifecycle and optionally records the
	// derived object keys and dimensions produced by post-processing.
	SetImageStatus(ctx context.Context, imageID string, status model.ImageStatus, upd model.ImageUpdate) error

	// PromoteStagedImage activates a staged-ready record, clearing its TTL
	// and, when schematicID is non-empty, attaching it to that schematic.
	// A record that is not staged-ready returns (nil, nil).
	PromoteStagedImage(ctx context.Context, imageID, schematicID string) (*model.Image, error)

	// DeleteImage removes the record iff userID owns it.
	DeleteImage(ctx context.Context, imageID, userID string) (bool, error)

	GetUserImages(ctx context.Context, ownerID string, page Page) ([]*model.Image, string, error)
}
