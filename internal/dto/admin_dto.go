package dto

import (
	"time"

	"github.com/noah-isme/examind-api/internal/models"
)

// SetRoleRequest overrides a user's role (admin only).
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student teacher admin"`
}

// SetProfileRequest overrides a user's plan/grade profile (admin only).
type SetProfileRequest struct {
	Plan       *string `json:"plan" validate:"omitempty,oneof=free premium"`
	GradeLevel *int    `json:"grade_level" validate:"omitempty,gte=1,lte=12"`
}

// AdminUserListRequest pages through accounts.
type AdminUserListRequest struct {
	Search   string `query:"search"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// AdminUserResponse summarizes an account for administrative listings.
type AdminUserResponse struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// AdminUserListResponse wraps a page of accounts.
type AdminUserListResponse struct {
	Items      []AdminUserResponse `json:"items"`
	TotalItems int64               `json:"total_items"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
}

// NewAdminUserResponseSlice converts user models into admin DTOs.
func NewAdminUserResponseSlice(users []models.User) []AdminUserResponse {
	responses := make([]AdminUserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, AdminUserResponse{
			ID:          user.ID,
			Username:    user.Username,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			CreatedAt:   user.CreatedAt,
		})
	}

	return responses
}
