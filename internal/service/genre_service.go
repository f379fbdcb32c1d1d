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

type GenreService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedGenreResponse, error)
	Create(ctx context.Context, principal permissions.Principal, in dto.CreateGenreDTO) (*dto.GenreResponse, error)
	Delete(ctx context.Context, principal permissions.Principal, slug string) error
}

type genreService struct {
	genreRepo repository.GenreRepository
}

func NewGenreService(genreRepo repository.GenreRepository) GenreService {
	return &genreService{genreRepo: genreRepo}
}

func (s *genreService) List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedGenreResponse, error) {
	genres, total, err := s.genreRepo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.GenreResponse, 0, len(genres))
	for i := range genres {
		responses = append(responses, *dto.FromModelToGenreResponse(&genres[i]))
	}
	return dto.NewPaginatedGenreResponse(responses, int(total), page, pageSize), nil
}

func (s *genreService) Create(ctx context.Context, principal permissions.Principal, in dto.CreateGenreDTO) (*dto.GenreResponse, error) {
	if err := decisionError(permissions.Decide(principal, permissions.ActionCreate, permissions.Resource{Kind: permissions.KindGenre})); err != nil {
		return nil, err
	}

	verr := NewValidationError()
	validateSlug(in.Slug, verr)
	if verr.HasErrors() {
		return nil, verr
	}

	genre := &models.Genre{Name: in.Name, Slug: in.Slug}
	if err := s.genreRepo.Create(ctx, genre); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, ErrSlugInUse
		}
		return nil, err
	}
	return dto.FromModelToGenreResponse(genre), nil
}

func (s *genreService) Delete(ctx context.Context, principal permissions.Principal, slug string) error {
	if err := decisionError(permissions.Decide(principal, permissions.ActionDelete, permissions.Resource{Kind: permissions.KindGenre})); err != nil {
		return err
	}

	if err := s.genreRepo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGenreNotFound
		}
		return err
	}
	return nil
}
