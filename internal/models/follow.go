package models

// Follow is a directed subscription: User follows Author.
type Follow struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	UserID   uint `json:"user_id" gorm:"not null;uniqueIndex:idx_follow_user_author"`
	User     User `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	AuthorID uint `json:"author_id" gorm:"not null;index;uniqueIndex:idx_follow_user_author"`
	Author   User `json:"-" gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
