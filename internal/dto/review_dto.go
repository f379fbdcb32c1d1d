package dto

import (
	"time"

	"reviewhub/internal/models"
)

// CreateReviewDTO for creating a review
type CreateReviewDTO struct {
	Text  string `json:"text" binding:"required,min=1,max=10000"`
	Score int    `json:"score" binding:"required,min=1,max=10"`
}

// UpdateReviewDTO for partial review updates
type UpdateReviewDTO struct {
	Text  *string `json:"text,omitempty" binding:"omitempty,min=1,max=10000"`
	Score *int    `json:"score,omitempty" binding:"omitempty,min=1,max=10"`
}

// ReviewResponse for returning review information
type ReviewResponse struct {
	ID      int64     `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func FromModelToReviewResponse(review *models.Review) *ReviewResponse {
	return &ReviewResponse{
		ID:      review.ID,
		Author:  review.Author.Username,
		Text:    review.Text,
		Score:   review.Score,
		PubDate: review.PubDate,
	}
}

// PaginatedReviewResponse for returning paginated reviews
type PaginatedReviewResponse struct {
	Data       []ReviewResponse `json:"data"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
}

func NewPaginatedReviewResponse(data []ReviewResponse, total, page, pageSize int) *PaginatedReviewResponse {
	return &PaginatedReviewResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}
}
