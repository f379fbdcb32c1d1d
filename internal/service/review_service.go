package service

import (
	"context"
	"errors"
	"log/slog"

	"reviewhub/internal/cache"
	"reviewhub/internal/dto"
	"reviewhub/internal/models"
	"reviewhub/internal/permissions"
	"reviewhub/internal/repository"

	"gorm.io/gorm"
)

// ReviewService scopes reviews under their title. A missing title
// short-circuits with NotFound before any authorization or uniqueness check.
type ReviewService interface {
	ListByTitle(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedReviewResponse, error)
	Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error)
	Create(ctx context.Context, principal permissions.Principal, titleID int64, in dto.CreateReviewDTO) (*dto.ReviewResponse, error)
	Update(ctx context.Context, principal permissions.Principal, titleID, reviewID int64, in dto.UpdateReviewDTO) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, principal permissions.Principal, titleID, reviewID int64) error
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	titleRepo  repository.TitleRepository
	ratings    cache.RatingCache
	logger     *slog.Logger
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	titleRepo repository.TitleRepository,
	ratings cache.RatingCache,
	logger *slog.Logger,
) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
		ratings:    ratings,
		logger:     logger,
	}
}

func (s *reviewService) ListByTitle(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedReviewResponse, error) {
	if err := s.resolveTitle(ctx, titleID); err != nil {
		return nil, err
	}

	reviews, total, err := s.reviewRepo.ListByTitle(ctx, titleID, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		responses = append(responses, *dto.FromModelToReviewResponse(&reviews[i]))
	}
	return dto.NewPaginatedReviewResponse(responses, int(total), page, pageSize), nil
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error) {
	if err := s.resolveTitle(ctx, titleID); err != nil {
		return nil, err
	}
	review, err := s.resolveReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToReviewResponse(review), nil
}

// Create persists a new review for the title. The one-review-per-author
// invariant is checked here first for a friendly failure, and the storage
// unique index catches whatever races past the check.
func (s *reviewService) Create(ctx context.Context, principal permissions.Principal, titleID int64, in dto.CreateReviewDTO) (*dto.ReviewResponse, error) {
	if err := s.resolveTitle(ctx, titleID); err != nil {
		return nil, err
	}
	if err := decisionError(permissions.Decide(principal, permissions.ActionCreate, permissions.Resource{Kind: permissions.KindReview})); err != nil {
		return nil, err
	}

	if _, err := s.reviewRepo.FindByAuthorAndTitle(ctx, principal.UserID, titleID); err == nil {
		return nil, ErrReviewExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	review := &models.Review{
		AuthorID: principal.UserID,
		TitleID:  titleID,
		Score:    in.Score,
		Text:     in.Text,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, ErrReviewExists
		}
		return nil, err
	}

	s.invalidateRating(ctx, titleID)

	// Reload with author data
	review, err := s.reviewRepo.FindByID(ctx, review.ID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToReviewResponse(review), nil
}

func (s *reviewService) Update(ctx context.Context, principal permissions.Principal, titleID, reviewID int64, in dto.UpdateReviewDTO) (*dto.ReviewResponse, error) {
	if err := s.resolveTitle(ctx, titleID); err != nil {
		return nil, err
	}
	review, err := s.resolveReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	if err := decisionError(permissions.Decide(principal, permissions.ActionUpdate, permissions.Resource{Kind: permissions.KindReview, OwnerID: review.AuthorID})); err != nil {
		return nil, err
	}

	if in.Text != nil {
		review.Text = *in.Text
	}
	if in.Score != nil {
		review.Score = *in.Score
	}
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}

	s.invalidateRating(ctx, titleID)
	return dto.FromModelToReviewResponse(review), nil
}

func (s *reviewService) Delete(ctx context.Context, principal permissions.Principal, titleID, reviewID int64) error {
	if err := s.resolveTitle(ctx, titleID); err != nil {
		return err
	}
	review, err := s.resolveReview(ctx, titleID, reviewID)
	if err != nil {
		return err
	}

	if err := decisionError(permissions.Decide(principal, permissions.ActionDelete, permissions.Resource{Kind: permissions.KindReview, OwnerID: review.AuthorID})); err != nil {
		return err
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}

	s.invalidateRating(ctx, titleID)
	return nil
}

func (s *reviewService) resolveTitle(ctx context.Context, titleID int64) error {
	if _, err := s.titleRepo.FindByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTitleNotFound
		}
		return err
	}
	return nil
}

// resolveReview fetches the review and confirms it belongs to the routed
// title; a review reached through the wrong title is NotFound, not a leak.
func (s *reviewService) resolveReview(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	if review.TitleID != titleID {
		return nil, ErrReviewNotFound
	}
	return review, nil
}

func (s *reviewService) invalidateRating(ctx context.Context, titleID int64) {
	if err := s.ratings.Invalidate(ctx, titleID); err != nil {
		s.logger.Warn("rating cache invalidation failed", "title_id", titleID, "error", err)
	}
}
