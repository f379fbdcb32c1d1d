package dto

import "reviewhub/internal/models"

// CreateGenreDTO for creating a genre
type CreateGenreDTO struct {
	Name string `json:"name" binding:"required,max=100"`
	Slug string `json:"slug" binding:"required,max=50"`
}

// GenreResponse for returning genre information
type GenreResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func FromModelToGenreResponse(genre *models.Genre) *GenreResponse {
	return &GenreResponse{
		Name: genre.Name,
		Slug: genre.Slug,
	}
}

// PaginatedGenreResponse for returning paginated genres
type PaginatedGenreResponse struct {
	Data       []GenreResponse `json:"data"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
}

func NewPaginatedGenreResponse(data []GenreResponse, total, page, pageSize int) *PaginatedGenreResponse {
	return &PaginatedGenreResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}
}
