package models

import (
	"time"
)

// postPreviewLength is how many characters of the text String() keeps.
const postPreviewLength = 15

// Post is a user-authored text entry, optionally filed under a group.
type Post struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	PubDate  time.Time `json:"pub_date" gorm:"autoCreateTime;index"`
	AuthorID uint      `json:"author_id" gorm:"not null;index"`
	Author   User      `json:"author" gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	GroupID  *uint     `json:"group_id,omitempty" gorm:"index"`
	Group    *Group    `json:"group,omitempty" gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Image    string    `json:"image,omitempty" gorm:"size:100"` // storage name, e.g. posts/cat.gif
}

func (p Post) String() string {
	runes := []rune(p.Text)
	if len(runes) > postPreviewLength {
		return string(runes[:postPreviewLength])
	}
	return p.Text
}

// PostForm defines the form body for creating or editing a post
type PostForm struct {
	Text       string `form:"text" validate:"required"`
	Group      string `form:"group" validate:"omitempty,number"`
	ImageClear string `form:"image-clear"`
}

// ClearImage reports whether the "clear" checkbox of the image field was ticked.
func (f *PostForm) ClearImage() bool {
	return f.ImageClear != "" && f.ImageClear != "false"
}
