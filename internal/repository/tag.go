// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"photoshare/internal/cache"
	"photoshare/internal/models"

	"gorm.io/gorm"
)

// MaxTagsPerPost caps how many tags a single post may carry.
const MaxTagsPerPost = 5

// TagRepository defines persistence operations for tags.
type TagRepository interface {
	Resolve(ctx context.Context, raw string) ([]models.Tag, error)
	List(ctx context.Context, limit, offset int) ([]models.Tag, error)
	GetByID(ctx context.Context, id uint) (*models.Tag, error)
	GetByText(ctx context.Context, text string) (*models.Tag, error)
	Create(ctx context.Context, text string) (*models.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a new TagRepository implementation.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

// resolveTagList turns a comma-separated string into canonical tag rows on the
// given handle (which may be a transaction). Tokens are trimmed, lowercased
// and deduplicated; empty tokens are skipped; at most MaxTagsPerPost tags are
// returned, extra tokens are silently discarded. An empty input yields an
// empty list.
func resolveTagList(ctx context.Context, tx *gorm.DB, raw string) ([]models.Tag, error) {
	tokens := strings.Split(raw, ",")
	seen := make(map[string]struct{}, len(tokens))
	tags := make([]models.Tag, 0, MaxTagsPerPost)

	for _, token := range tokens {
		if len(tags) >= MaxTagsPerPost {
			break
		}
		text := strings.ToLower(strings.TrimSpace(token))
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}

		var tag models.Tag
		if err := tx.WithContext(ctx).Where("text = ?", text).FirstOrCreate(&tag, models.Tag{Text: text}).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
		tags = append(tags, tag)
	}

	return tags, nil
}

func (r *tagRepository) Resolve(ctx context.Context, raw string) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resolved, err := resolveTagList(ctx, tx, raw)
		if err != nil {
			return err
		}
		tags = resolved
		return nil
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidateTags(ctx)
	return tags, nil
}

func (r *tagRepository) List(ctx context.Context, limit, offset int) ([]models.Tag, error) {
	var tags []models.Tag
	err := cache.CacheAside(ctx, cache.TagListKey, &tags, cache.TagListTTL, func() error {
		if err := r.db.WithContext(ctx).Order("text ASC").Limit(limit).Offset(offset).Find(&tags).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Tag", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &tag, nil
}

func (r *tagRepository) GetByText(ctx context.Context, text string) (*models.Tag, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("text = ?", normalized).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Tag", normalized)
		}
		return nil, models.NewInternalError(err)
	}
	return &tag, nil
}

func (r *tagRepository) Create(ctx context.Context, text string) (*models.Tag, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return nil, models.NewValidationError("Tag text is required")
	}

	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("text = ?", normalized).FirstOrCreate(&tag, models.Tag{Text: normalized}).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, models.NewConflictError("Tag already exists")
		}
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateTags(ctx)
	return &tag, nil
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505; SQLite reports "UNIQUE constraint failed"
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
