package model

import "time"

// SchematicStatus marks the lifecycle state of a schematic.
type SchematicStatus string

const (
	SchematicActive  SchematicStatus = "active"
	SchematicDeleted SchematicStatus = "deleted"
)

// Schematic is the metadata item for an uploaded schematic file.
// AuthorUsername is denormalized from the author's profile at creation time.
type Schematic struct {
	SchematicID    string          `json:"schematicId"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	AuthorID       string          `json:"authorId"`
	AuthorUsername string          `json:"authorUsername"`
	Tags           []string        `json:"tags,omitempty"`
	Status         SchematicStatus `json:"status"`
	Version        int             `json:"version"`
	FileURL        string          `json:"fileUrl,omitempty"`
	CoverImageURL  string          `json:"coverImageUrl,omitempty"`
	Width          int             `json:"width,omitempty"`
	Height         int             `json:"height,omitempty"`
	Length         int             `json:"length,omitempty"`
	BlockCount     int             `json:"blockCount,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	DeletedAt      *time.Time      `json:"deletedAt,omitempty"`
}

// SchematicStats holds the per-schematic counters on the STATS item.
type SchematicStats struct {
	SchematicID   string `json:"schematicId"`
	ViewCount     int    `json:"viewCount"`
	LikeCount     int    `json:"likeCount"`
	CommentCount  int    `json:"commentCount"`
	DownloadCount int    `json:"downloadCount"`
}

// StatNames enumerates the counter attributes IncrementSchematicStat accepts.
var StatNames = map[string]bool{
	"viewCount":     true,
	"likeCount":     true,
	"commentCount":  true,
	"downloadCount": true,
}

// SchematicUpdate is a partial metadata patch; nil fields are left untouched.
type SchematicUpdate struct {
	Title         *string
	Description   *string
	Tags          *[]string
	CoverImageURL *string
	FileURL       *string
}
