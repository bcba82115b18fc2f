package model

import "time"

// UserStatus marks the lifecycle state of a user account.
type UserStatus string

const (
	UserActive  UserStatus = "active"
	UserDeleted UserStatus = "deleted"
)

// User is the public profile stored at (USER#<id>, METADATA).
type User struct {
	UserID      string     `json:"userId"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Bio         string     `json:"bio,omitempty"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	Status      UserStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// UserStats holds the counters kept on the sibling STATS item. Counters are
// only ever moved by atomic deltas issued alongside the mutation they track.
type UserStats struct {
	UserID         string `json:"userId"`
	SchematicCount int    `json:"schematicCount"`
	FollowerCount  int    `json:"followerCount"`
	FollowingCount int    `json:"followingCount"`
}

// UserUpdate is a partial profile patch; nil fields are left untouched.
type UserUpdate struct {
	DisplayName *string
	Bio         *string
	AvatarURL   *string
}
