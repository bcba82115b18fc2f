package model

import "time"

// Follow is a directed edge: FollowerID follows FolloweeID.
// Stored once at (USER#<follower>, FOLLOWING#<followee>) and projected to the
// followee dimension so both directions are cheap to list.
type Follow struct {
	FollowerID string    `json:"followerId"`
	FolloweeID string    `json:"followeeId"`
	CreatedAt  time.Time `json:"createdAt"`
}
