package models

import (
	"time"
)

// Tweet represents a short text post, optionally carrying media attachments
// through the tweet_media join table. CreatedAt is always assigned by the
// server clock, never taken from the client.
type Tweet struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Content   string    `gorm:"type:varchar(280);not null;column:content"`
	AuthorID  int64     `gorm:"not null;index;column:author_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Author *User  `gorm:"foreignKey:AuthorID;references:ID"`
	Likes  []Like `gorm:"foreignKey:TweetID;references:ID"`
}

// TableName specifies the table name for Tweet
func (Tweet) TableName() string {
	return "tweets"
}

// MaxContentLength is the longest tweet content accepted, in runes.
const MaxContentLength = 280
