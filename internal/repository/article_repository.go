package repository

import (
	"context"

	"backoffice-core/internal/entity"

	"gorm.io/gorm"
)

// ArticleRepository defines the interface for operator-authored articles.
type ArticleRepository interface {
	Create(ctx context.Context, article *entity.Article) error
	Update(ctx context.Context, article *entity.Article) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*entity.Article, error)
	GetByIDs(ctx context.Context, ids []uint) ([]entity.Article, error)
	List(ctx context.Context, scopes []func(*gorm.DB) *gorm.DB, offset, limit int) ([]entity.Article, int64, error)
}

// NewArticleRepository creates a new instance of ArticleRepository.
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

type articleRepository struct {
	db *gorm.DB
}

func (r *articleRepository) Create(ctx context.Context, article *entity.Article) error {
	return r.db.WithContext(ctx).Create(article).Error
}

func (r *articleRepository) Update(ctx context.Context, article *entity.Article) error {
	return r.db.WithContext(ctx).Save(article).Error
}

func (r *articleRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.Article{}, id).Error
}

func (r *articleRepository) GetByID(ctx context.Context, id uint) (*entity.Article, error) {
	var article entity.Article
	if err := r.db.WithContext(ctx).First(&article, id).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) GetByIDs(ctx context.Context, ids []uint) ([]entity.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var articles []entity.Article
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

func (r *articleRepository) List(ctx context.Context, scopes []func(*gorm.DB) *gorm.DB, offset, limit int) ([]entity.Article, int64, error) {
	var (
		articles []entity.Article
		total    int64
	)
	q := r.db.WithContext(ctx).Model(&entity.Article{}).Scopes(scopes...)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&articles).Error; err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}
