package models

import (
	"strings"
	"time"
)

// Visibility controls which viewers may read a post.
type Visibility string

const (
	// VisibilityPublic posts are readable by anyone not blocked by the author.
	VisibilityPublic Visibility = "public"
	// VisibilityFriendsOnly posts are readable only by accepted friends.
	VisibilityFriendsOnly Visibility = "friends_only"
)

// ParseVisibility accepts either case; empty means public.
func ParseVisibility(raw string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(VisibilityPublic):
		return VisibilityPublic, nil
	case string(VisibilityFriendsOnly):
		return VisibilityFriendsOnly, nil
	default:
		return "", NewValidationError("visibility must be one of public, friends_only")
	}
}

// Post is authored by exactly one user and owned by them.
type Post struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	MediaURL   string     `json:"media_url"`
	Visibility Visibility `gorm:"type:varchar(20);not null;default:'public'" json:"visibility"`
	CreatedAt  time.Time  `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt  *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`

	// CommentCount is not persisted; computed by the post service
	CommentCount int64 `gorm:"-" json:"comment_count"`
	// LikeCount is not persisted; computed by the post service
	LikeCount int64 `gorm:"-" json:"like_count"`
}

// TableName specifies the table name for GORM
func (Post) TableName() string {
	return "posts"
}

// PostPatch carries the mutable fields of a post. Nil fields are left alone.
type PostPatch struct {
	Content  *string `json:"content"`
	MediaURL *string `json:"media_url"`
}
