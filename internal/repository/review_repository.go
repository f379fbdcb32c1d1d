package repository

import (
	"context"

	"reviewhub/internal/models"

	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, reviewID int64) error
	FindByID(ctx context.Context, reviewID int64) (*models.Review, error)
	FindByAuthorAndTitle(ctx context.Context, authorID string, titleID int64) (*models.Review, error)
	ListByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error)
	AverageScoreByTitle(ctx context.Context, titleID int64) (*float64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create inserts a review, enforcing one review per (author, title). The
// existence check and the insert run in one transaction; when a concurrent
// insert wins the race anyway, the unique index reports it and the violation
// is returned as ErrDuplicateReview, so exactly one of two racing submissions
// succeeds.
func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Review{}).
			Where("author_id = ? AND title_id = ?", review.AuthorID, review.TitleID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateReview
		}
		return tx.Create(review).Error
	})
	if IsUniqueViolation(err) {
		return ErrDuplicateReview
	}
	return err
}

func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *reviewRepository) Delete(ctx context.Context, reviewID int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Review{}, reviewID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *reviewRepository) FindByID(ctx context.Context, reviewID int64) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Preload("Author").
		First(&review, reviewID).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) FindByAuthorAndTitle(ctx context.Context, authorID string, titleID int64) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("author_id = ? AND title_id = ?", authorID, titleID).
		Preload("Author").
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ListByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	var reviews []models.Review
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Review{}).Where("title_id = ?", titleID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).
		Where("title_id = ?", titleID).
		Preload("Author").
		Order("pub_date DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

// AverageScoreByTitle returns the mean review score, or nil when the title
// has no reviews yet (AVG over zero rows is NULL, not zero).
func (r *reviewRepository) AverageScoreByTitle(ctx context.Context, titleID int64) (*float64, error) {
	var result struct {
		Average *float64
	}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("AVG(score) as average").
		Where("title_id = ?", titleID).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return result.Average, nil
}
