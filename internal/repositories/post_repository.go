package repositories

import (
	"context"

	"github.com/anonto42/yatube/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows a post listing. Zero value means all posts.
type PostFilter struct {
	GroupID    uint // posts filed under this group
	AuthorID   uint // posts written by this user
	FollowerID uint // posts by authors this user follows
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	CreatePosts(ctx context.Context, posts []models.Post, batchSize int) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	CountPosts(ctx context.Context, filter PostFilter) (int64, error)
	ListPosts(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, error)
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// CreatePost inserts a post; pub_date is set by the database layer.
func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

// CreatePosts inserts posts in batches of batchSize.
func (r *PostgresPostRepository) CreatePosts(ctx context.Context, posts []models.Post, batchSize int) error {
	if len(posts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(posts, batchSize).Error
}

// GetPostByID retrieves a post with its author and group
func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Author").Preload("Group").First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost saves text, group and image of an existing post.
func (r *PostgresPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Model(post).
		Select("text", "group_id", "image").
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		}).Error
}

func (r *PostgresPostRepository) CountPosts(ctx context.Context, filter PostFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Model(&models.Post{}).Count(&count).Error
	return count, err
}

// ListPosts returns one window of the filtered posts, newest first.
func (r *PostgresPostRepository) ListPosts(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.filtered(ctx, filter).
		Preload("Author").
		Preload("Group").
		Order("pub_date DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *PostgresPostRepository) filtered(ctx context.Context, filter PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx)
	if filter.GroupID != 0 {
		q = q.Where("group_id = ?", filter.GroupID)
	}
	if filter.AuthorID != 0 {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if filter.FollowerID != 0 {
		q = q.Where("author_id IN (?)",
			r.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", filter.FollowerID),
		)
	}
	return q
}
