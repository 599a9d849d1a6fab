package models

import "time"

// Comment is a reply to a post
type Comment struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	Created  time.Time `json:"created" gorm:"autoCreateTime;index"`
	AuthorID uint      `json:"author_id" gorm:"not null;index"`
	Author   User      `json:"author" gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	PostID   uint      `json:"post_id" gorm:"not null;index"`
	Post     Post      `json:"-" gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// CommentForm defines the form body for commenting on a post
type CommentForm struct {
	Text string `form:"text" validate:"required"`
}
