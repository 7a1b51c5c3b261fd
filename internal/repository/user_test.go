package repository

import (
	"context"
	"regexp"
	"testing"

	"photoshare/internal/models"
	"photoshare/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1 ORDER BY "users"."id" LIMIT $2`)).
		WithArgs("alice@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role"}).AddRow(1, "alice@example.com", "user"))

	user, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, uint(1), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail_AbsentIsNilNil(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WithArgs("nobody@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{
		Email:     "dup@example.com",
		FirstName: "A",
		LastName:  "B",
		Password:  "hash",
		Role:      models.RoleUser,
	}
	require.NoError(t, repo.Create(ctx, user))

	again := &models.User{
		Email:     "dup@example.com",
		FirstName: "C",
		LastName:  "D",
		Password:  "hash",
		Role:      models.RoleUser,
	}
	err := repo.Create(ctx, again)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestUserRepository_BanUnbanConfirm(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, db, models.RoleUser)

	require.NoError(t, repo.SetBanned(ctx, user.ID, true))
	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.Banned)

	require.NoError(t, repo.SetBanned(ctx, user.ID, false))
	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, got.Banned)

	require.NoError(t, repo.Confirm(ctx, user.ID))

	err = repo.SetBanned(ctx, 9999, true)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestUserRepository_FillCounts(t *testing.T) {
	db := testutil.OpenTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, db, models.RoleUser)
	post := createTestPost(t, posts, user.ID, "count me", "")
	require.NoError(t, comments.Create(ctx, &models.Comment{Text: "one", PostID: post.ID, UserID: user.ID}))
	require.NoError(t, comments.Create(ctx, &models.Comment{Text: "two", PostID: post.ID, UserID: user.ID}))

	require.NoError(t, users.FillCounts(ctx, user))
	assert.Equal(t, 1, user.PostsCount)
	assert.Equal(t, 2, user.CommentsCount)
}
