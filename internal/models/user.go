// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents a registered account in the Circle network.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Username       string     `gorm:"unique;not null" json:"username"`
	Email          string     `gorm:"unique;not null" json:"email"`
	Password       string     `gorm:"not null" json:"-"`
	Name           string     `json:"name"`
	Bio            string     `json:"bio"`
	ProfilePicture string     `json:"profile_picture"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// PublicProfile is what other users and anonymous callers see of an account.
type PublicProfile struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Name           string    `json:"name"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
}

// Profile drops the email and date of birth.
func (u *User) Profile() PublicProfile {
	return PublicProfile{
		ID:             u.ID,
		Username:       u.Username,
		Name:           u.Name,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
	}
}
