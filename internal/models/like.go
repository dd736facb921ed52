package models

import (
	"time"

	"gorm.io/gorm"
)

// LikeTarget names what a like points at.
type LikeTarget string

const (
	LikeTargetPost    LikeTarget = "post"
	LikeTargetComment LikeTarget = "comment"
)

// Like references exactly one of a post or a comment.
// Uniqueness per (user, target) is checked before insert, not by an index.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	PostID    *uint     `gorm:"index" json:"post_id,omitempty"`
	CommentID *uint     `gorm:"index" json:"comment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Like) TableName() string {
	return "likes"
}

// Target returns the kind of parent the like references.
func (l *Like) Target() (LikeTarget, error) {
	switch {
	case l.PostID != nil && l.CommentID != nil:
		return "", NewValidationError("a like cannot reference both a post and a comment")
	case l.PostID != nil:
		return LikeTargetPost, nil
	case l.CommentID != nil:
		return LikeTargetComment, nil
	default:
		return "", NewValidationError("a like must reference a post or a comment")
	}
}

// BeforeSave rejects likes without exactly one parent.
func (l *Like) BeforeSave(_ *gorm.DB) error {
	_, err := l.Target()
	return err
}
