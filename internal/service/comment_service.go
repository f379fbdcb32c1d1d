package service

import (
	"context"
	"errors"

	"reviewhub/internal/dto"
	"reviewhub/internal/models"
	"reviewhub/internal/permissions"
	"reviewhub/internal/repository"

	"gorm.io/gorm"
)

// CommentService scopes comments under a review, which is itself scoped
// under a title.
type CommentService interface {
	ListByReview(ctx context.Context, titleID, reviewID int64, page, pageSize int) (*dto.PaginatedCommentResponse, error)
	Get(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error)
	Create(ctx context.Context, principal permissions.Principal, titleID, reviewID int64, in dto.CreateCommentDTO) (*dto.CommentResponse, error)
	Update(ctx context.Context, principal permissions.Principal, titleID, reviewID, commentID int64, in dto.UpdateCommentDTO) (*dto.CommentResponse, error)
	Delete(ctx context.Context, principal permissions.Principal, titleID, reviewID, commentID int64) error
}

type commentService struct {
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository
	titleRepo   repository.TitleRepository
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	reviewRepo repository.ReviewRepository,
	titleRepo repository.TitleRepository,
) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
		titleRepo:   titleRepo,
	}
}

func (s *commentService) ListByReview(ctx context.Context, titleID, reviewID int64, page, pageSize int) (*dto.PaginatedCommentResponse, error) {
	if err := s.resolveParents(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	comments, total, err := s.commentRepo.ListByReview(ctx, reviewID, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		responses = append(responses, *dto.FromModelToCommentResponse(&comments[i]))
	}
	return dto.NewPaginatedCommentResponse(responses, int(total), page, pageSize), nil
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error) {
	if err := s.resolveParents(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.resolveComment(ctx, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) Create(ctx context.Context, principal permissions.Principal, titleID, reviewID int64, in dto.CreateCommentDTO) (*dto.CommentResponse, error) {
	if err := s.resolveParents(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	if err := decisionError(permissions.Decide(principal, permissions.ActionCreate, permissions.Resource{Kind: permissions.KindComment})); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		AuthorID: principal.UserID,
		ReviewID: reviewID,
		Text:     in.Text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	// Reload with author data
	comment, err := s.commentRepo.FindByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) Update(ctx context.Context, principal permissions.Principal, titleID, reviewID, commentID int64, in dto.UpdateCommentDTO) (*dto.CommentResponse, error) {
	if err := s.resolveParents(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.resolveComment(ctx, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	if err := decisionError(permissions.Decide(principal, permissions.ActionUpdate, permissions.Resource{Kind: permissions.KindComment, OwnerID: comment.AuthorID})); err != nil {
		return nil, err
	}

	comment.Text = in.Text
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) Delete(ctx context.Context, principal permissions.Principal, titleID, reviewID, commentID int64) error {
	if err := s.resolveParents(ctx, titleID, reviewID); err != nil {
		return err
	}
	comment, err := s.resolveComment(ctx, reviewID, commentID)
	if err != nil {
		return err
	}

	if err := decisionError(permissions.Decide(principal, permissions.ActionDelete, permissions.Resource{Kind: permissions.KindComment, OwnerID: comment.AuthorID})); err != nil {
		return err
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	return nil
}

// resolveParents confirms the title exists and the review belongs to it.
func (s *commentService) resolveParents(ctx context.Context, titleID, reviewID int64) error {
	if _, err := s.titleRepo.FindByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTitleNotFound
		}
		return err
	}
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	if review.TitleID != titleID {
		return ErrReviewNotFound
	}
	return nil
}

func (s *commentService) resolveComment(ctx context.Context, reviewID, commentID int64) (*models.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	if comment.ReviewID != reviewID {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}
