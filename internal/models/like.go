package models

import (
	"time"
)

// Like represents a user liking a tweet. The composite unique index makes
// a repeated like from the same user a storage-layer constraint violation,
// which is how concurrent duplicate requests stay safe.
type Like struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_likes_user_tweet;column:user_id"`
	TweetID   int64     `gorm:"not null;uniqueIndex:idx_likes_user_tweet;index;column:tweet_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Relationships
	User  *User  `gorm:"foreignKey:UserID;references:ID"`
	Tweet *Tweet `gorm:"foreignKey:TweetID;references:ID"`
}

// TableName specifies the table name for Like
func (Like) TableName() string {
	return "likes"
}
