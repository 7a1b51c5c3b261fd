package service

import (
	"context"
	"strings"

	"photoshare/internal/models"
	"photoshare/internal/repository"
	"photoshare/internal/validation"
)

// CommentService owns comment lifecycle and its moderation policy.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
}

// NewCommentService creates a CommentService.
func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
	}
}

// AddComment creates a comment on an existing post.
func (s *CommentService) AddComment(ctx context.Context, actorID, postID uint, text string) (*models.Comment, error) {
	if err := validation.ValidateCommentText(text); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Text:   strings.TrimSpace(text),
		PostID: postID,
		UserID: actorID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// ListComments pages a post's comments oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID, limit, offset)
}

// UpdateComment lets only the author edit their comment text.
func (s *CommentService) UpdateComment(ctx context.Context, actorID, commentID uint, text string) (*models.Comment, error) {
	if err := validation.ValidateCommentText(text); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actorID {
		return nil, models.NewForbiddenError("You may only edit your own comments")
	}

	comment.Text = strings.TrimSpace(text)
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment allows the author, moderators and admins to remove a comment.
func (s *CommentService) DeleteComment(ctx context.Context, actorID, commentID uint) error {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != actorID && !actor.CanModerate() {
		return models.NewForbiddenError("You may only delete your own comments")
	}
	return s.commentRepo.Delete(ctx, commentID)
}
