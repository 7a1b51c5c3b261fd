package models

// Tag is a shared, reusable lowercase label attachable to many posts.
// Tags are created on demand and never deleted; the unique index backstops
// the resolver's lookup-before-insert against concurrent creation.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Text string `gorm:"size:32;uniqueIndex;not null" json:"text"`
}
