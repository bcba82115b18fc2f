package model

import "time"

// CommentStatus marks the lifecycle state of a comment.
type CommentStatus string

const (
	CommentActive  CommentStatus = "active"
	CommentEdited  CommentStatus = "edited"
	CommentDeleted CommentStatus = "deleted"
)

// Comment is a single comment on a schematic.
type Comment struct {
	CommentID      string        `json:"commentId"`
	SchematicID    string        `json:"schematicId"`
	AuthorID       string        `json:"authorId"`
	AuthorUsername string        `json:"authorUsername"`
	Content        string        `json:"content"`
	Status         CommentStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}
