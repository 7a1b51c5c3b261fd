package repository

import (
	"context"
	"testing"

	"photoshare/internal/models"
	"photoshare/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_CRUD(t *testing.T) {
	db := testutil.OpenTestDB(t)
	posts := NewPostRepository(db)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, db, models.RoleUser)
	commenter := testutil.CreateTestUser(t, db, models.RoleUser)
	post := createTestPost(t, posts, owner.ID, "commented", "")

	comment := &models.Comment{Text: "great shot", PostID: post.ID, UserID: commenter.ID}
	require.NoError(t, repo.Create(ctx, comment))
	require.NotZero(t, comment.ID)

	got, err := repo.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "great shot", got.Text)
	assert.Equal(t, commenter.ID, got.User.ID)

	got.Text = "edited"
	require.NoError(t, repo.Update(ctx, got))

	list, err := repo.ListByPost(ctx, post.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "edited", list[0].Text)

	require.NoError(t, repo.Delete(ctx, comment.ID))

	_, err = repo.GetByID(ctx, comment.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)

	err = repo.Delete(ctx, comment.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}
