package dto

import "reviewhub/internal/models"

// CreateUserDTO for admin user creation
type CreateUserDTO struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Role     string `json:"role,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// UpdateUserDTO for admin edits of an arbitrary user (partial)
type UpdateUserDTO struct {
	Email *string `json:"email,omitempty"`
	Role  *string `json:"role,omitempty"`
	Bio   *string `json:"bio,omitempty"`
}

// UpdateMeDTO for self-profile edits. Role is accepted in the payload but
// ignored unless the caller is an admin.
type UpdateMeDTO struct {
	Email *string `json:"email,omitempty"`
	Role  *string `json:"role,omitempty"`
	Bio   *string `json:"bio,omitempty"`
}

// UserResponse for returning user information
type UserResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Bio      string `json:"bio,omitempty"`
}

func FromModelToUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		Bio:      user.Bio,
	}
}

// PaginatedUserResponse for returning paginated users
type PaginatedUserResponse struct {
	Data       []UserResponse `json:"data"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
}

func NewPaginatedUserResponse(data []UserResponse, total, page, pageSize int) *PaginatedUserResponse {
	return &PaginatedUserResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}
}
