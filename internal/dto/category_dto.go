package dto

import "reviewhub/internal/models"

// CreateCategoryDTO for creating a category
type CreateCategoryDTO struct {
	Name string `json:"name" binding:"required,max=100"`
	Slug string `json:"slug" binding:"required,max=50"`
}

// CategoryResponse for returning category information
type CategoryResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func FromModelToCategoryResponse(category *models.Category) *CategoryResponse {
	return &CategoryResponse{
		Name: category.Name,
		Slug: category.Slug,
	}
}

// PaginatedCategoryResponse for returning paginated categories
type PaginatedCategoryResponse struct {
	Data       []CategoryResponse `json:"data"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	Total      int                `json:"total"`
	TotalPages int                `json:"total_pages"`
}

func NewPaginatedCategoryResponse(data []CategoryResponse, total, page, pageSize int) *PaginatedCategoryResponse {
	return &PaginatedCategoryResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}
}
