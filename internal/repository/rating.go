package repository

import (
	"context"
	"errors"
	"math"

	"photoshare/internal/cache"
	"photoshare/internal/models"
	"photoshare/internal/observability"

	"gorm.io/gorm"
)

// RatingRepository records per-user scores and maintains post averages.
type RatingRepository interface {
	HasRated(ctx context.Context, postID, userID uint) (bool, error)
	Rate(ctx context.Context, postID, userID uint, score int) (float64, error)
}

type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository returns a new RatingRepository implementation.
func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) HasRated(ctx context.Context, postID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Rate inserts the score and recomputes the post's average in one transaction
// so a recorded rating is never observable without the updated average. The
// mean is rounded half-to-even to two decimals.
func (r *ratingRepository) Rate(ctx context.Context, postID, userID uint, score int) (float64, error) {
	defer observability.TrackQuery("rate", "ratings")()

	var avg float64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rating := models.Rating{PostID: postID, UserID: userID, Score: score}
		if err := tx.Create(&rating).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.NewConflictError("You have already rated this post")
			}
			return models.NewInternalError(err)
		}

		var mean float64
		if err := tx.Model(&models.Rating{}).
			Where("post_id = ?", postID).
			Select("AVG(score)").
			Scan(&mean).Error; err != nil {
			return models.NewInternalError(err)
		}
		avg = math.RoundToEven(mean*100) / 100

		result := tx.Model(&models.Post{}).Where("id = ?", postID).Update("rating", avg)
		if result.Error != nil {
			return models.NewInternalError(result.Error)
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Post", postID)
		}
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return 0, appErr
		}
		return 0, models.NewInternalError(err)
	}

	observability.RatingsRecorded.Inc()
	cache.InvalidatePost(ctx, postID)
	return avg, nil
}
