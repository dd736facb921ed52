package models

import "time"

// Comment is either top-level (ParentCommentID nil) or a reply on the same post.
type Comment struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	PostID          uint       `gorm:"not null;index" json:"post_id"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	Content         string     `gorm:"type:text;not null" json:"content"`
	ParentCommentID *uint      `gorm:"index" json:"parent_comment_id,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt       *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
	// LikeCount is not persisted; filled in when comments are listed
	LikeCount int64 `gorm:"-" json:"like_count"`
}

// TableName specifies the table name for GORM
func (Comment) TableName() string {
	return "comments"
}

// IsReply reports whether the comment answers another comment.
func (c *Comment) IsReply() bool {
	return c.ParentCommentID != nil
}
