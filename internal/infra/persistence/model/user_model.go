package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. The composite unique index on
// (oauth_provider, oauth_id) is the constraint concurrent logins race on.
//
// Email and the oauth columns are pointers so rows without them store NULL.
// Postgres treats NULLs as distinct, an empty string would make the unique
// indexes collide across password accounts and email-less OAuth accounts.
type UserModel struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	UUID          uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Email         *string   `gorm:"type:varchar(255);uniqueIndex"`
	DisplayName   string    `gorm:"type:varchar(100)"`
	AvatarURL     string    `gorm:"type:text"`
	StreamKey     string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	OAuthProvider *string   `gorm:"type:varchar(32);index:idx_users_oauth_identity,unique"`
	OAuthID       *string   `gorm:"type:varchar(255);index:idx_users_oauth_identity,unique"`
	OAuthEmail    string    `gorm:"type:varchar(255)"`
	PasswordHash  string    `gorm:"type:varchar(255)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
