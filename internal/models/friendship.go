package models

import (
	"strings"
	"time"
)

// FriendshipStatus represents the status of a friendship request.
type FriendshipStatus string

const (
	// FriendshipStatusPending indicates a pending friendship request.
	FriendshipStatusPending FriendshipStatus = "pending"
	// FriendshipStatusAccepted indicates an accepted friendship request.
	FriendshipStatusAccepted FriendshipStatus = "accepted"
	// FriendshipStatusBlocked indicates a blocked friendship.
	FriendshipStatusBlocked FriendshipStatus = "blocked"
)

// ParseFriendshipStatus is case-insensitive.
func ParseFriendshipStatus(raw string) (FriendshipStatus, error) {
	switch s := FriendshipStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case FriendshipStatusPending, FriendshipStatusAccepted, FriendshipStatusBlocked:
		return s, nil
	default:
		return "", NewValidationError("status must be one of pending, accepted, blocked")
	}
}

// Friendship is created directionally: UserID1 requested, UserID2 received.
// The pair is not unique; either order may exist for the same two users.
type Friendship struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID1   uint             `gorm:"column:user_id1;not null;index:idx_friendship_pair" json:"user_id1"`
	UserID2   uint             `gorm:"column:user_id2;not null;index:idx_friendship_pair" json:"user_id2"`
	Status    FriendshipStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_friendships_status" json:"status"`
	CreatedAt time.Time        `gorm:"autoCreateTime:false" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}

// Involves reports whether userID is one of the two parties.
func (f *Friendship) Involves(userID uint) bool {
	return f.UserID1 == userID || f.UserID2 == userID
}
