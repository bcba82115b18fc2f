// Package schema owns the single-table key layout: primary keys, the four
// secondary-index projections, and the sortable timestamp format they embed.
// Key construction is pure and total; invalid ids are the caller's problem.
package schema

import (
	"fmt"
	"time"
)

// Primary key attribute names.
const (
	AttrPK = "PK"
	AttrSK = "SK"
)

// AttrStatus is the soft-delete marker filtered on every list query.
const AttrStatus = "status"

// AttrTTL is the epoch-seconds expiry attribute on staged-image items.
const AttrTTL = "expiresAt"

// Secondary indexes, one per query dimension. GSI1 is overloaded: it carries
// the owner dimension for schematics, comments, and images alike.
const (
	IndexByOwner    = "GSI1" // USER#<author> / SCHEMATIC#<ts>#<id>, SCHEMATIC#<id> / <ts>#COMMENT#<id>
	IndexByTag      = "GSI2" // TAG#<tag> / <ts>#SCHEMATIC#<id>
	IndexByFeed     = "GSI3" // FEED#LATEST / <ts>#SCHEMATIC#<id>
	IndexByFollowee = "GSI4" // FOLLOWEE#<id> / <ts>#USER#<follower>
)

// IndexKeyAttrs maps an index name to its partition/sort attribute pair.
// The empty name addresses the primary key.
func IndexKeyAttrs(index string) (pk, sk string) {
	switch index {
	case "":
		return AttrPK, AttrSK
	default:
		return index + "PK", index + "SK"
	}
}

// sortableTimeLayout is fixed-width so lexicographic order equals time order;
// RFC3339Nano trims trailing zeros and would break that.
const sortableTimeLayout = "2006-01-02T15:04:05.000Z"

// SortableTime renders t for use inside sort keys, newest-last so a reverse
// index scan yields newest-first.
func SortableTime(t time.Time) string {
	return t.UTC().Format(sortableTimeLayout)
}

// Key is a primary-key pair.
type Key struct {
	PK string
	SK string
}

// Projection is a secondary-index key pair together with the index it lives on.
type Projection struct {
	Index string
	PK    string
	SK    string
}

func UserKey(userID string) Key {
	return Key{PK: "USER#" + userID, SK: "METADATA"}
}

func UserStatsKey(userID string) Key {
	return Key{PK: "USER#" + userID, SK: "STATS"}
}

func SchematicKey(schematicID string) Key {
	return Key{PK: "SCHEMATIC#" + schematicID, SK: "METADATA"}
}

func SchematicStatsKey(schematicID string) Key {
	return Key{PK: "SCHEMATIC#" + schematicID, SK: "STATS"}
}

func SchematicTagKey(schematicID, tag string) Key {
	return Key{PK: "SCHEMATIC#" + schematicID, SK: "TAG#" + tag}
}

func CommentKey(commentID string) Key {
	return Key{PK: "COMMENT#" + commentID, SK: "METADATA"}
}

func FollowKey(followerID, followeeID string) Key {
	return Key{PK: "USER#" + followerID, SK: "FOLLOWING#" + followeeID}
}

func ImageKey(imageID string) Key {
	return Key{PK: "IMAGE#" + imageID, SK: "METADATA"}
}

// NotificationKey addresses one feed entry. notificationID is the sort-key
// suffix produced by NotificationID.
func NotificationKey(userID, notificationID string) Key {
	return Key{PK: "USER#" + userID, SK: "NOTIF#" + notificationID}
}

// NotificationID builds the "<ts>#<uuid>" sort-key suffix for a feed entry.
func NotificationID(createdAt time.Time, id string) string {
	return SortableTime(createdAt) + "#" + id
}

// NotificationPrefix is the sort-key prefix selecting a user's feed.
const NotificationPrefix = "NOTIF#"

// FollowingPrefix is the sort-key prefix selecting a user's outgoing edges.
const FollowingPrefix = "FOLLOWING#"

// SchematicByAuthor projects a schematic into its author's partition.
func SchematicByAuthor(authorID, schematicID string, createdAt time.Time) Projection {
	return Projection{
		Index: IndexByOwner,
		PK:    "USER#" + authorID,
		SK:    fmt.Sprintf("SCHEMATIC#%s#%s", SortableTime(createdAt), schematicID),
	}
}

// SchematicByAuthorPrefix selects only schematic rows in an owner partition.
const SchematicByAuthorPrefix = "SCHEMATIC#"

// SchematicByFeed projects a schematic into the global latest feed.
func SchematicByFeed(schematicID string, createdAt time.Time) Projection {
	return Projection{
		Index: IndexByFeed,
		PK:    "FEED#LATEST",
		SK:    fmt.Sprintf("%s#SCHEMATIC#%s", SortableTime(createdAt), schematicID),
	}
}

// SchematicByTag projects one tag-association item into the tag dimension.
func SchematicByTag(tag, schematicID string, createdAt time.Time) Projection {
	return Projection{
		Index: IndexByTag,
		PK:    "TAG#" + tag,
		SK:    fmt.Sprintf("%s#SCHEMATIC#%s", SortableTime(createdAt), schematicID),
	}
}

// CommentBySchematic projects a comment into its schematic's partition.
func CommentBySchematic(schematicID, commentID string, createdAt time.Time) Projection {
	return Projection{
		Index: IndexByOwner,
		PK:    "SCHEMATIC#" + schematicID,
		SK:    fmt.Sprintf("%s#COMMENT#%s", SortableTime(createdAt), commentID),
	}
}

// FollowByFollowee projects a follow edge into the followee's partition.
func FollowByFollowee(followerID, followeeID string, createdAt time.Time) Projection {
	return Projection{
		Index: IndexByFollowee,
		PK:    "FOLLOWEE#" + followeeID,
		SK:    fmt.Sprintf("%s#USER#%s", SortableTime(createdAt), followerID),
	}
}

// ImageByOwner projects an image record into its owner's partition.
func ImageByOwner(ownerID, imageID string, createdAt time.Time) Projection {
	return Projection{
		Index: IndexByOwner,
		PK:    "USER#" + ownerID,
		SK:    fmt.Sprintf("IMAGE#%s#%s", SortableTime(createdAt), imageID),
	}
}
