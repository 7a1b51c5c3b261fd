package models

import "time"

// Rating is a single user's 1-5 score for one post. The composite unique
// index backstops the caller's duplicate check under concurrent requests.
type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_ratings_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_ratings_post_user" json:"user_id"`
	Score     int       `gorm:"not null" json:"score"`
	CreatedAt time.Time `json:"created_at"`
}
