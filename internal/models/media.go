package models

import (
	"time"
)

// Media represents an uploaded attachment. The blob itself lives outside the
// database; FilePath is the stable reference the blob store hands back.
type Media struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	FilePath  string    `gorm:"type:varchar(255);not null;column:file_path"`
	OwnerID   int64     `gorm:"not null;index;column:owner_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Owner *User `gorm:"foreignKey:OwnerID;references:ID"`
}

// TableName specifies the table name for Media
func (Media) TableName() string {
	return "media"
}

// TweetMedia links an attachment to the tweet that carries it.
type TweetMedia struct {
	TweetID int64 `gorm:"primaryKey;column:tweet_id"`
	MediaID int64 `gorm:"primaryKey;column:media_id"`

	// Relationships
	Tweet *Tweet `gorm:"foreignKey:TweetID;references:ID"`
	Media *Media `gorm:"foreignKey:MediaID;references:ID"`
}

// TableName specifies the table name for TweetMedia
func (TweetMedia) TableName() string {
	return "tweet_media"
}
