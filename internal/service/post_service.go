package service

import (
	"context"
	"strings"
	"time"

	"photoshare/internal/imaging"
	"photoshare/internal/models"
	"photoshare/internal/observability"
	"photoshare/internal/repository"
	"photoshare/internal/validation"
)

// CreatePostInput is the payload for creating a photo post.
type CreatePostInput struct {
	ActorID     uint
	Description string
	Tags        string
	UserEmail   string // admin-only: create on behalf of another account
	Photo       []byte
	ContentType string
}

// UpdatePostInput carries optional changes; nil fields are untouched.
type UpdatePostInput struct {
	ActorID     uint
	PostID      uint
	Description *string
	Tags        *string
	Effect      imaging.Effect
	Photo       []byte
	ContentType string
	// RatingOverride is the admin-only average override.
	RatingOverride *float64
	AsAdmin        bool
}

// SearchPostsInput mirrors the search endpoint's JSON body.
type SearchPostsInput struct {
	Query    string
	Tags     []string
	Rating   *int
	ShowDate *time.Time
	Order    string
	OrderBy  string
	Limit    int
	Offset   int
}

// PostService orchestrates post CRUD, tag resolution, photo storage and
// rating aggregation.
type PostService struct {
	postRepo   repository.PostRepository
	ratingRepo repository.RatingRepository
	userRepo   repository.UserRepository
	storage    imaging.Storage
	provider   string
}

// NewPostService creates a PostService.
func NewPostService(
	postRepo repository.PostRepository,
	ratingRepo repository.RatingRepository,
	userRepo repository.UserRepository,
	storage imaging.Storage,
	provider string,
) *PostService {
	return &PostService{
		postRepo:   postRepo,
		ratingRepo: ratingRepo,
		userRepo:   userRepo,
		storage:    storage,
		provider:   provider,
	}
}

// canModify is the single owner-or-admin policy used by update and delete.
func canModify(user *models.User, post *models.Post) bool {
	return user.ID == post.UserID || user.IsAdmin()
}

// CreatePost uploads the photo first, then inserts the row with its resolved
// tags, so a failed upload never leaves a post without a photo URL.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validation.ValidateDescription(in.Description); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if len(in.Photo) == 0 {
		return nil, models.NewValidationError("Photo file is required")
	}

	actor, err := s.userRepo.GetByID(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}

	ownerID := actor.ID
	if email := strings.TrimSpace(in.UserEmail); email != "" && !strings.EqualFold(email, actor.Email) {
		if !actor.IsAdmin() {
			return nil, models.NewForbiddenError("Only admins may create posts for other users")
		}
		owner, err := s.userRepo.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if owner == nil {
			return nil, models.NewNotFoundError("User", email)
		}
		ownerID = owner.ID
	}

	url, publicID, err := s.storage.Upload(ctx, in.Photo, in.ContentType)
	if err != nil {
		observability.MediaUploads.WithLabelValues(s.provider, "error").Inc()
		return nil, models.NewValidationError("Photo upload failed: " + err.Error())
	}
	observability.MediaUploads.WithLabelValues(s.provider, "ok").Inc()

	post := &models.Post{
		Description:   strings.TrimSpace(in.Description),
		PhotoURL:      url,
		PhotoPublicID: publicID,
		UserID:        ownerID,
	}
	if err := s.postRepo.Create(ctx, post, in.Tags); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID)
}

// GetPost returns the post with comments_count included.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// ListPosts pages through all posts, newest first.
func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.List(ctx, limit, offset)
}

// ListUserPosts pages through one user's posts.
func (s *PostService) ListUserPosts(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.ListByUser(ctx, userID, limit, offset)
}

// SearchPosts composes the optional criteria into a filtered, ordered page.
func (s *PostService) SearchPosts(ctx context.Context, in SearchPostsInput) ([]*models.Post, error) {
	if in.Query != "" && len(in.Query) < 3 {
		return nil, models.NewValidationError("Search query must be at least 3 characters")
	}
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return nil, models.NewValidationError("Rating filter must be between 1 and 5")
	}

	tags := make([]string, 0, len(in.Tags))
	for _, tag := range in.Tags {
		if normalized := strings.ToLower(strings.TrimSpace(tag)); normalized != "" {
			tags = append(tags, normalized)
		}
	}

	return s.postRepo.Search(ctx, repository.SearchCriteria{
		Query:    strings.TrimSpace(in.Query),
		Tags:     tags,
		Rating:   in.Rating,
		ShowDate: in.ShowDate,
		Order:    in.Order,
		OrderBy:  in.OrderBy,
	}, in.Limit, in.Offset)
}

// UpdatePost applies provided fields. Supplying tags replaces the whole tag
// set; supplying an effect derives a new transform URL from the stored photo.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	actor, err := s.userRepo.GetByID(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, post) {
		return nil, models.NewForbiddenError("You may only modify your own posts")
	}

	if in.Description != nil {
		if err := validation.ValidateDescription(*in.Description); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		post.Description = strings.TrimSpace(*in.Description)
	}

	if len(in.Photo) > 0 {
		url, publicID, err := s.storage.Upload(ctx, in.Photo, in.ContentType)
		if err != nil {
			observability.MediaUploads.WithLabelValues(s.provider, "error").Inc()
			return nil, models.NewValidationError("Photo upload failed: " + err.Error())
		}
		observability.MediaUploads.WithLabelValues(s.provider, "ok").Inc()
		post.PhotoURL = url
		post.PhotoPublicID = publicID
		post.TransformURL = ""
	}

	if in.Effect != "" {
		url, err := s.storage.Transform(ctx, post.PhotoPublicID, in.Effect)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		observability.MediaTransforms.WithLabelValues(in.Effect.String()).Inc()
		post.TransformURL = url
	}

	if in.RatingOverride != nil {
		if !in.AsAdmin || !actor.IsAdmin() {
			return nil, models.NewForbiddenError("Only admins may override a post's rating")
		}
		post.Rating = in.RatingOverride
	}

	if err := s.postRepo.Update(ctx, post, in.Tags); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// DeletePost removes the post and returns the deleted row. Media removal is
// best-effort; the row delete is the source of truth.
func (s *PostService) DeletePost(ctx context.Context, actorID, postID uint) (*models.Post, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, post) {
		return nil, models.NewForbiddenError("You may only delete your own posts")
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return nil, err
	}
	if post.PhotoPublicID != "" {
		_ = s.storage.Delete(ctx, post.PhotoPublicID)
	}
	return post, nil
}

// RatePost enforces the rating preconditions (post exists, no self-rating,
// no duplicate) before handing off to the transactional aggregator. Score
// range is validated at the HTTP boundary.
func (s *PostService) RatePost(ctx context.Context, actorID, postID uint, score int) (uint, float64, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return 0, 0, err
	}
	if post.UserID == actorID {
		return 0, 0, models.NewConflictError("You cannot rate your own post")
	}

	rated, err := s.ratingRepo.HasRated(ctx, postID, actorID)
	if err != nil {
		return 0, 0, err
	}
	if rated {
		return 0, 0, models.NewConflictError("You have already rated this post")
	}

	avg, err := s.ratingRepo.Rate(ctx, postID, actorID, score)
	if err != nil {
		return 0, 0, err
	}
	return postID, avg, nil
}
