package models

import (
	"time"
)

// User represents an account that can author tweets, like them, and follow
// other users. Users are provisioned out of band (see cmd/seed); the API
// only ever looks them up by their long-lived key.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Name      string    `gorm:"type:varchar(50);not null;column:name"`
	APIKey    string    `gorm:"type:varchar(64);not null;uniqueIndex:users_api_key_ux;column:api_key"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Tweets []Tweet `gorm:"foreignKey:AuthorID;references:ID"`
	Likes  []Like  `gorm:"foreignKey:UserID;references:ID"`
	Media  []Media `gorm:"foreignKey:OwnerID;references:ID"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
