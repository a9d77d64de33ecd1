package models

import (
	"time"
)

// Follow represents a directed follow edge: the follower subscribes to the
// following user's tweets. The pair is unique and self-edges are rejected
// before they ever reach storage.
type Follow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id"`
	FollowerID  int64     `gorm:"not null;uniqueIndex:idx_follows_pair;column:follower_id"`
	FollowingID int64     `gorm:"not null;uniqueIndex:idx_follows_pair;index;column:following_id"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Follower  *User `gorm:"foreignKey:FollowerID;references:ID"`
	Following *User `gorm:"foreignKey:FollowingID;references:ID"`
}

// TableName specifies the table name for Follow
func (Follow) TableName() string {
	return "follows"
}
