package models

import "time"

// User is the internal record for an external authenticated principal.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FirebaseUID string    `json:"-" gorm:"size:128;not null;uniqueIndex"`        // External principal identifier
	Username    string    `json:"username" gorm:"size:100;not null;uniqueIndex"` // Display name
	Email       string    `json:"email" gorm:"size:100;not null;uniqueIndex"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserCompact is the public projection of a user embedded in other responses
type UserCompact struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// ToCompact returns the public projection of the user
func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Username: u.Username}
}

// RegisterUserRequest defines the request body for linking a principal to a new user
type RegisterUserRequest struct {
	Username string `json:"username" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
}
