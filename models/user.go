package models

import "time"

// User represents a registered reader. Passwords are stored as bcrypt hashes only.
// Accounts are never edited or deleted through the application.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:250;not null" json:"name"`
	Email        string    `gorm:"size:250;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:250;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Posts        []Post    `json:"-"`
	Comments     []Comment `json:"-"`
}
