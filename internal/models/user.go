package models

import (
	"time"
)

// User represents an account that owns devices and playlists
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	Email        string    `json:"email" gorm:"type:text;not null;uniqueIndex;column:email" validate:"required,email"`
	PasswordHash string    `json:"-" gorm:"type:text;not null;column:password_hash"`
	CreatedAt    time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// NewUser creates a new User with the creation timestamp set
func NewUser(email, passwordHash string) *User {
	return &User{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}
