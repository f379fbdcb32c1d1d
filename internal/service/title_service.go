package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reviewhub/internal/cache"
	"reviewhub/internal/dto"
	"reviewhub/internal/models"
	"reviewhub/internal/permissions"
	"reviewhub/internal/repository"

	"gorm.io/gorm"
)

type TitleService interface {
	List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) (*dto.PaginatedTitleResponse, error)
	Get(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Create(ctx context.Context, principal permissions.Principal, in dto.CreateTitleDTO) (*dto.TitleResponse, error)
	Update(ctx context.Context, principal permissions.Principal, id int64, in dto.UpdateTitleDTO) (*dto.TitleResponse, error)
	Delete(ctx context.Context, principal permissions.Principal, id int64) error
}

type titleService struct {
	titleRepo    repository.TitleRepository
	categoryRepo repository.CategoryRepository
	genreRepo    repository.GenreRepository
	reviewRepo   repository.ReviewRepository
	ratings      cache.RatingCache
	logger       *slog.Logger
}

func NewTitleService(
	titleRepo repository.TitleRepository,
	categoryRepo repository.CategoryRepository,
	genreRepo repository.GenreRepository,
	reviewRepo repository.ReviewRepository,
	ratings cache.RatingCache,
	logger *slog.Logger,
) TitleService {
	return &titleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		reviewRepo:   reviewRepo,
		ratings:      ratings,
		logger:       logger,
	}
}

func (s *titleService) List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) (*dto.PaginatedTitleResponse, error) {
	titles, total, err := s.titleRepo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.TitleResponse, 0, len(titles))
	for i := range titles {
		rating, err := s.titleRating(ctx, titles[i].ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *dto.FromModelToTitleResponse(&titles[i], rating))
	}
	return dto.NewPaginatedTitleResponse(responses, int(total), page, pageSize), nil
}

func (s *titleService) Get(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	title, err := s.titleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	rating, err := s.titleRating(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToTitleResponse(title, rating), nil
}

func (s *titleService) Create(ctx context.Context, principal permissions.Principal, in dto.CreateTitleDTO) (*dto.TitleResponse, error) {
	if err := decisionError(permissions.Decide(principal, permissions.ActionCreate, permissions.Resource{Kind: permissions.KindTitle})); err != nil {
		return nil, err
	}

	if err := validateYear(in.Year); err != nil {
		return nil, err
	}

	title := &models.Title{
		Name:        in.Name,
		Year:        in.Year,
		Description: in.Description,
	}

	if in.Category != "" {
		category, err := s.resolveCategory(ctx, in.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = &category.ID
	}

	genres, err := s.resolveGenres(ctx, in.Genres)
	if err != nil {
		return nil, err
	}
	title.Genres = genres

	if err := s.titleRepo.Create(ctx, title); err != nil {
		return nil, err
	}
	return s.Get(ctx, title.ID)
}

func (s *titleService) Update(ctx context.Context, principal permissions.Principal, id int64, in dto.UpdateTitleDTO) (*dto.TitleResponse, error) {
	if err := decisionError(permissions.Decide(principal, permissions.ActionUpdate, permissions.Resource{Kind: permissions.KindTitle})); err != nil {
		return nil, err
	}

	title, err := s.titleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	if in.Name != nil {
		title.Name = *in.Name
	}
	if in.Year != nil {
		if err := validateYear(*in.Year); err != nil {
			return nil, err
		}
		title.Year = *in.Year
	}
	if in.Description != nil {
		title.Description = *in.Description
	}
	if in.Category != nil {
		if *in.Category == "" {
			title.CategoryID = nil
			title.Category = nil
		} else {
			category, err := s.resolveCategory(ctx, *in.Category)
			if err != nil {
				return nil, err
			}
			title.CategoryID = &category.ID
			title.Category = category
		}
	}

	if err := s.titleRepo.Update(ctx, title); err != nil {
		return nil, err
	}

	if in.Genres != nil {
		genres, err := s.resolveGenres(ctx, *in.Genres)
		if err != nil {
			return nil, err
		}
		if err := s.titleRepo.ReplaceGenres(ctx, title, genres); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, id)
}

// Delete removes a title; its reviews and their comments cascade away in the
// store. The cached rating goes with it.
func (s *titleService) Delete(ctx context.Context, principal permissions.Principal, id int64) error {
	if err := decisionError(permissions.Decide(principal, permissions.ActionDelete, permissions.Resource{Kind: permissions.KindTitle})); err != nil {
		return err
	}

	if err := s.titleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTitleNotFound
		}
		return err
	}

	if err := s.ratings.Invalidate(ctx, id); err != nil {
		s.logger.Warn("rating cache invalidation failed", "title_id", id, "error", err)
	}
	return nil
}

// titleRating serves the mean score from cache when possible and recomputes
// it otherwise. Cache failures degrade to the database, never to an error.
func (s *titleService) titleRating(ctx context.Context, titleID int64) (*float64, error) {
	if rating, found, err := s.ratings.Get(ctx, titleID); err == nil && found {
		return rating, nil
	} else if err != nil {
		s.logger.Warn("rating cache read failed", "title_id", titleID, "error", err)
	}

	rating, err := s.reviewRepo.AverageScoreByTitle(ctx, titleID)
	if err != nil {
		return nil, err
	}
	if err := s.ratings.Set(ctx, titleID, rating); err != nil {
		s.logger.Warn("rating cache write failed", "title_id", titleID, "error", err)
	}
	return rating, nil
}

func (s *titleService) resolveCategory(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			verr := NewValidationError()
			verr.Add("category", fmt.Sprintf("category %q does not exist", slug))
			return nil, verr
		}
		return nil, err
	}
	return category, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]models.Genre, error) {
	genres, err := s.genreRepo.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	if len(genres) != len(slugs) {
		known := make(map[string]bool, len(genres))
		for _, g := range genres {
			known[g.Slug] = true
		}
		verr := NewValidationError()
		for _, slug := range slugs {
			if !known[slug] {
				verr.Add("genre", fmt.Sprintf("genre %q does not exist", slug))
			}
		}
		return nil, verr
	}
	return genres, nil
}

func validateYear(year int) error {
	if year > time.Now().Year() {
		verr := NewValidationError()
		verr.Add("year", "must not be later than the current year")
		return verr
	}
	return nil
}
