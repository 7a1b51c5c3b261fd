package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"photoshare/internal/cache"
	"photoshare/internal/models"
	"photoshare/internal/observability"

	"gorm.io/gorm"
)

// SearchCriteria holds the optional post search filters. All present criteria
// are combined with AND; an empty criteria set matches every post.
type SearchCriteria struct {
	Query    string
	Tags     []string
	Rating   *int
	ShowDate *time.Time
	OrderBy  string
	Order    string
}

// Empty reports whether no filter criteria were supplied.
func (c SearchCriteria) Empty() bool {
	return c.Query == "" && len(c.Tags) == 0 && c.Rating == nil && c.ShowDate == nil
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, tagString string) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	Search(ctx context.Context, criteria SearchCriteria, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post, tagString *string) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// withCommentCounts joins a grouped comment aggregate so an entire page of
// posts gets its comments_count in a single query.
func withCommentCounts(db *gorm.DB) *gorm.DB {
	return db.
		Select("posts.*, COALESCE(cc.comments_count, 0) AS comments_count").
		Joins("LEFT JOIN (SELECT post_id, COUNT(*) AS comments_count FROM comments GROUP BY post_id) cc ON cc.post_id = posts.id")
}

// Create resolves the tag string and inserts the post in one transaction so a
// tag persistence failure aborts the whole create.
func (r *postRepository) Create(ctx context.Context, post *models.Post, tagString string) error {
	defer observability.TrackQuery("create", "posts")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTagList(ctx, tx, tagString)
		if err != nil {
			return err
		}
		post.Tags = tags
		if err := tx.Create(post).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return asAppError(err)
	}

	cache.InvalidatePostLists(ctx)
	cache.InvalidateTags(ctx)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.CacheAside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		if err := withCommentCounts(r.db.WithContext(ctx)).
			Preload("User").
			Preload("Tags").
			Preload("Comments").
			Preload("Comments.User").
			First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := cache.CacheAside(ctx, cache.PostsListKey(limit, offset), &posts, cache.PostsListTTL, func() error {
		if err := withCommentCounts(r.db.WithContext(ctx)).
			Preload("User").
			Preload("Tags").
			Order("posts.created_at DESC").
			Limit(limit).
			Offset(offset).
			Find(&posts).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}
	return posts, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	if err := withCommentCounts(r.db.WithContext(ctx)).
		Preload("User").
		Preload("Tags").
		Where("posts.user_id = ?", userID).
		Order("posts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Search(ctx context.Context, criteria SearchCriteria, limit, offset int) ([]*models.Post, error) {
	defer observability.TrackQuery("search", "posts")()
	observability.SearchRequests.WithLabelValues(boolLabel(!criteria.Empty())).Inc()

	db := withCommentCounts(r.db.WithContext(ctx)).
		Preload("User").
		Preload("Tags").
		Preload("Comments")

	if criteria.Query != "" {
		like := "%" + strings.ToLower(criteria.Query) + "%"
		db = db.Where(
			"LOWER(posts.description) LIKE ? OR EXISTS (SELECT 1 FROM post_m2m_tag pt JOIN tags t ON t.id = pt.tag_id WHERE pt.post_id = posts.id AND LOWER(t.text) LIKE ?)",
			like, like,
		)
	}
	if len(criteria.Tags) > 0 {
		db = db.Where(
			"EXISTS (SELECT 1 FROM post_m2m_tag pt JOIN tags t ON t.id = pt.tag_id WHERE pt.post_id = posts.id AND t.text IN ?)",
			criteria.Tags,
		)
	}
	if criteria.Rating != nil {
		lo := float64(*criteria.Rating)
		db = db.Where("posts.rating >= ? AND posts.rating < ?", lo, lo+1)
	}
	if criteria.ShowDate != nil {
		db = db.Where("date(posts.created_at) = ?", criteria.ShowDate.Format("2006-01-02"))
	}

	var posts []*models.Post
	if err := db.Order(orderClause(criteria.OrderBy, criteria.Order)).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// orderClause whitelists sortable columns so request input never reaches SQL.
func orderClause(orderBy, order string) string {
	column := "posts.created_at"
	if orderBy == "rating" {
		column = "posts.rating"
	}
	direction := "DESC"
	if strings.EqualFold(order, "asc") {
		direction = "ASC"
	}
	return column + " " + direction
}

// Update saves the post and, when a tag string is supplied, replaces the full
// tag set inside the same transaction. A nil tagString leaves tags untouched.
func (r *postRepository) Update(ctx context.Context, post *models.Post, tagString *string) error {
	defer observability.TrackQuery("update", "posts")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tagString != nil {
			tags, err := resolveTagList(ctx, tx, *tagString)
			if err != nil {
				return err
			}
			if err := tx.Model(post).Association("Tags").Replace(tags); err != nil {
				return models.NewInternalError(err)
			}
			post.Tags = tags
		}
		if err := tx.Omit("Tags", "Comments", "Ratings", "User").Save(post).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return asAppError(err)
	}

	cache.InvalidatePost(ctx, post.ID)
	cache.InvalidateTags(ctx)
	return nil
}

// Delete hard-deletes the post; comments, ratings and tag associations go via
// the storage layer's cascade rules and tag rows themselves are kept.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

func asAppError(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return models.NewInternalError(err)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
