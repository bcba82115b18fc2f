package model

import "time"

// ImageStatus tracks the upload pipeline for an image record.
//
// Direct uploads run uploading -> processing -> active|failed. Staged uploads
// (created before their owning schematic exists) run staged -> staged-ready
// and carry a TTL so abandoned ones expire out of the table.
type ImageStatus string

const (
	ImageUploading   ImageStatus = "uploading"
	ImageProcessing  ImageStatus = "processing"
	ImageActive      ImageStatus = "active"
	ImageFailed      ImageStatus = "failed"
	ImageStaged      ImageStatus = "staged"
	ImageStagedReady ImageStatus = "staged-ready"
)

// ImageKind says what the image is attached to.
type ImageKind string

const (
	ImageKindCover  ImageKind = "cover"
	ImageKindAvatar ImageKind = "avatar"
)

// Image is an upload lifecycle record. The three object keys point at the
// original and its derived renditions in the images bucket.
type Image struct {
	ImageID      string      `json:"imageId"`
	OwnerID      string      `json:"ownerId"`
	SchematicID  string      `json:"schematicId,omitempty"`
	Kind         ImageKind   `json:"kind"`
	Status       ImageStatus `json:"status"`
	OriginalKey  string      `json:"originalKey"`
	OptimizedKey string      `json:"optimizedKey,omitempty"`
	ThumbnailKey string      `json:"thumbnailKey,omitempty"`
	ContentType  string      `json:"contentType,omitempty"`
	Width        int         `json:"width,omitempty"`
	Height       int         `json:"height,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	// ExpiresAt is an epoch-seconds TTL, set only on staged records.
	ExpiresAt int64 `json:"expiresAt,omitempty"`
}

// Rendered reports whether post-processing has produced both derived
// renditions.
func (i *Image) Rendered() bool {
	return i.OptimizedKey != "" && i.ThumbnailKey != ""
}

// ImageUpdate carries the outputs of post-processing; nil fields are left
// untouched.
type ImageUpdate struct {
	OptimizedKey *string
	ThumbnailKey *string
	Width        *int
	Height       *int
}

// ObjectKeys returns the non-empty S3 keys belonging to this record.
func (i *Image) ObjectKeys() []string {
	keys := make([]string, 0, 3)
	for _, k := range []string{i.OriginalKey, i.OptimizedKey, i.ThumbnailKey} {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
