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

type CategoryService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedCategoryResponse, error)
	Create(ctx context.Context, principal permissions.Principal, in dto.CreateCategoryDTO) (*dto.CategoryResponse, error)
	Delete(ctx context.Context, principal permissions.Principal, slug string) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedCategoryResponse, error) {
	categories, total, err := s.categoryRepo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		responses = append(responses, *dto.FromModelToCategoryResponse(&categories[i]))
	}
	return dto.NewPaginatedCategoryResponse(responses, int(total), page, pageSize), nil
}

func (s *categoryService) Create(ctx context.Context, principal permissions.Principal, in dto.CreateCategoryDTO) (*dto.CategoryResponse, error) {
	if err := decisionError(permissions.Decide(principal, permissions.ActionCreate, permissions.Resource{Kind: permissions.KindCategory})); err != nil {
		return nil, err
	}

	verr := NewValidationError()
	validateSlug(in.Slug, verr)
	if verr.HasErrors() {
		return nil, verr
	}

	category := &models.Category{Name: in.Name, Slug: in.Slug}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, ErrSlugInUse
		}
		return nil, err
	}
	return dto.FromModelToCategoryResponse(category), nil
}

func (s *categoryService) Delete(ctx context.Context, principal permissions.Principal, slug string) error {
	if err := decisionError(permissions.Decide(principal, permissions.ActionDelete, permissions.Resource{Kind: permissions.KindCategory})); err != nil {
		return err
	}

	if err := s.categoryRepo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}
