package models

import "time"

// Post represents a blog post authored by the admin user.
// ImageURL is either a pasted absolute URL or a /static/uploads/... path and is never empty.
// Date is the human-readable publish date shown on the page.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Title     string    `gorm:"size:250;uniqueIndex;not null" json:"title"`
	Subtitle  string    `gorm:"size:250;not null" json:"subtitle"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	ImageURL  string    `gorm:"size:250;not null" json:"image_url"`
	Date      string    `gorm:"size:250;not null" json:"date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Comments  []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments"`
}
