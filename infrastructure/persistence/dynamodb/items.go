package dynamodb

import "time"

// Entity type discriminators stored on every item.
const (
	entityUser           = "USER"
	entityUserStats      = "USER_STATS"
	entitySchematic      = "SCHEMATIC"
	entitySchematicStats = "SCHEMATIC_STATS"
	entitySchematicTag   = "SCHEMATIC_TAG"
	entityComment        = "COMMENT"
	entityFollow         = "FOLLOW"
	entityNotification   = "NOTIFICATION"
	entityImage          = "IMAGE"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime tolerates missing or malformed timestamps; items predating a
// field come back as the zero time rather than failing the read.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
