package seed

import (
	"testing"

	"photoshare/internal/models"
	"photoshare/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeederRun(t *testing.T) {
	db := testutil.OpenTestDB(t)
	s := NewSeeder(db)

	require.NoError(t, s.Run(Options{NumUsers: 5, NumPosts: 10, ShouldClean: true}))

	var userCount, postCount int64
	db.Model(&models.User{}).Count(&userCount)
	db.Model(&models.Post{}).Count(&postCount)
	assert.Equal(t, int64(6), userCount) // 5 plus the admin account
	assert.Equal(t, int64(10), postCount)

	// Nobody rated their own post.
	var selfRatings int64
	db.Table("ratings").
		Joins("JOIN posts ON posts.id = ratings.post_id").
		Where("posts.user_id = ratings.user_id").
		Count(&selfRatings)
	assert.Zero(t, selfRatings)

	// An admin account exists for moderation testing.
	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@photoshare.local").First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)
}

func TestSeederClearAll(t *testing.T) {
	db := testutil.OpenTestDB(t)
	s := NewSeeder(db)
	require.NoError(t, s.Run(Options{NumUsers: 2, NumPosts: 3}))

	require.NoError(t, s.ClearAll())

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)
}
