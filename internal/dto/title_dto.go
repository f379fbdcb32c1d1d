package dto

import (
	"reviewhub/internal/models"
)

// CreateTitleDTO used for POST /api/v1/titles. Category and genres are
// referenced by slug, matching how they are exposed.
type CreateTitleDTO struct {
	Name        string   `json:"name" binding:"required,max=200"`
	Year        int      `json:"year" binding:"required"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Genres      []string `json:"genre,omitempty"`
}

// UpdateTitleDTO used for PATCH /api/v1/titles/:id (partial updates allowed)
type UpdateTitleDTO struct {
	Name        *string   `json:"name,omitempty"`
	Year        *int      `json:"year,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Genres      *[]string `json:"genre,omitempty"`
}

// TitleResponse DTO for responses. Rating is the mean review score and is
// omitted entirely for titles nobody reviewed yet.
type TitleResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Rating      *float64          `json:"rating,omitempty"`
	Description string            `json:"description,omitempty"`
	Category    *CategoryResponse `json:"category,omitempty"`
	Genres      []GenreResponse   `json:"genre"`
}

func FromModelToTitleResponse(title *models.Title, rating *float64) *TitleResponse {
	resp := &TitleResponse{
		ID:          title.ID,
		Name:        title.Name,
		Year:        title.Year,
		Rating:      rating,
		Description: title.Description,
		Genres:      make([]GenreResponse, 0, len(title.Genres)),
	}
	if title.Category != nil {
		resp.Category = FromModelToCategoryResponse(title.Category)
	}
	for i := range title.Genres {
		resp.Genres = append(resp.Genres, *FromModelToGenreResponse(&title.Genres[i]))
	}
	return resp
}

// PaginatedTitleResponse for returning paginated titles
type PaginatedTitleResponse struct {
	Data       []TitleResponse `json:"data"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
}

func NewPaginatedTitleResponse(data []TitleResponse, total, page, pageSize int) *PaginatedTitleResponse {
	return &PaginatedTitleResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}
}
