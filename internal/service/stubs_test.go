package service

import (
	"context"
	"errors"
	"testing"

	"photoshare/internal/models"
	"photoshare/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn     func(context.Context, *models.Post, string) error
	getByIDFn    func(context.Context, uint) (*models.Post, error)
	listFn       func(context.Context, int, int) ([]*models.Post, error)
	listByUserFn func(context.Context, uint, int, int) ([]*models.Post, error)
	searchFn     func(context.Context, repository.SearchCriteria, int, int) ([]*models.Post, error)
	updateFn     func(context.Context, *models.Post, *string) error
	deleteFn     func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post, tags string) error {
	return s.createFn(ctx, post, tags)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *postRepoStub) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.listByUserFn(ctx, userID, limit, offset)
}
func (s *postRepoStub) Search(ctx context.Context, criteria repository.SearchCriteria, limit, offset int) ([]*models.Post, error) {
	return s.searchFn(ctx, criteria, limit, offset)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post, tags *string) error {
	return s.updateFn(ctx, post, tags)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, post *models.Post, _ string) error {
			post.ID = 1
			return nil
		},
		getByIDFn:    func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn:       func(_ context.Context, _, _ int) ([]*models.Post, error) { return nil, nil },
		listByUserFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) { return nil, nil },
		searchFn: func(_ context.Context, _ repository.SearchCriteria, _, _ int) ([]*models.Post, error) {
			return nil, nil
		},
		updateFn: func(_ context.Context, _ *models.Post, _ *string) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// ratingRepoStub is a stub for repository.RatingRepository.
type ratingRepoStub struct {
	hasRatedFn func(context.Context, uint, uint) (bool, error)
	rateFn     func(context.Context, uint, uint, int) (float64, error)
}

func (s *ratingRepoStub) HasRated(ctx context.Context, postID, userID uint) (bool, error) {
	return s.hasRatedFn(ctx, postID, userID)
}
func (s *ratingRepoStub) Rate(ctx context.Context, postID, userID uint, score int) (float64, error) {
	return s.rateFn(ctx, postID, userID, score)
}

func noopRatingRepo() *ratingRepoStub {
	return &ratingRepoStub{
		hasRatedFn: func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		rateFn:     func(_ context.Context, _, _ uint, score int) (float64, error) { return float64(score), nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	createFn     func(context.Context, *models.User) error
	updateFn     func(context.Context, *models.User) error
	setBannedFn  func(context.Context, uint, bool) error
	confirmFn    func(context.Context, uint) error
	fillCountsFn func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) SetBanned(ctx context.Context, id uint, banned bool) error {
	return s.setBannedFn(ctx, id, banned)
}
func (s *userRepoStub) Confirm(ctx context.Context, id uint) error {
	return s.confirmFn(ctx, id)
}
func (s *userRepoStub) FillCounts(ctx context.Context, user *models.User) error {
	return s.fillCountsFn(ctx, user)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Email: "actor@example.com", Role: models.RoleUser}, nil
		},
		getByEmailFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn: func(_ context.Context, user *models.User) error {
			user.ID = 1
			return nil
		},
		updateFn:     func(_ context.Context, _ *models.User) error { return nil },
		setBannedFn:  func(_ context.Context, _ uint, _ bool) error { return nil },
		confirmFn:    func(_ context.Context, _ uint) error { return nil },
		fillCountsFn: func(_ context.Context, _ *models.User) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint, int, int) ([]models.Comment, error)
	updateFn     func(context.Context, *models.Comment) error
	deleteFn     func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error) {
	return s.listByPostFn(ctx, postID, limit, offset)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, comment *models.Comment) error {
			comment.ID = 1
			return nil
		},
		getByIDFn:    func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByPostFn: func(_ context.Context, _ uint, _, _ int) ([]models.Comment, error) { return nil, nil },
		updateFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
	}
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
