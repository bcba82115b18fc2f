package ports

import "context"

// Event types published on the app's event bus.
const (
	EventSchematicCreated = "schematic.created"
	EventSchematicDeleted = "schematic.deleted"
	EventCommentCreated   = "comment.created"
	EventUserFollowed     = "user.followed"
)

// EventPublisher fans domain events out to interested consumers. Publishing
// is best-effort from the caller's point of view; handlers log failures and
// carry on.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, detail any) error
}

// SchematicDocument is the denormalized search projection of a schematic.
type SchematicDocument struct {
	ObjectID       string   `json:"objectID"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	AuthorID       string   `json:"authorId"`
	AuthorUsername string   `json:"authorUsername"`
	Tags           []string `json:"tags,omitempty"`
	CreatedAt      string   `json:"createdAt"`
}

// SearchIndex mirrors active schematics into the external search service.
type SearchIndex interface {
	SaveSchematic(ctx context.Context, doc SchematicDocument) error
	DeleteSchematic(ctx context.Context, schematicID string) error
}
