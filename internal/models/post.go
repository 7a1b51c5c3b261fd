package models

import "time"

// Post represents a photo post in the PhotoShare application.
type Post struct {
	ID            uint     `gorm:"primaryKey" json:"id"`
	Description   string   `gorm:"size:255;not null" json:"description"`
	PhotoURL      string   `gorm:"size:255" json:"photo_url"`
	PhotoPublicID string   `gorm:"size:255" json:"photo_public_id"`
	TransformURL  string   `gorm:"size:255" json:"transform_url,omitempty"`
	Rating        *float64 `json:"rating"`
	UserID        uint     `gorm:"not null;index" json:"user_id"`
	User          User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Tags          []Tag    `gorm:"many2many:post_m2m_tag;constraint:OnDelete:CASCADE" json:"tags"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int       `gorm:"->" json:"comments_count"`
	Comments      []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	Ratings       []Rating  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
