package dto

import "github.com/noah-isme/examind-api/internal/models"

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"omitempty,max=128"`
}

// LoginRequest is the payload for credential verification.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthContext is the per-request identity/authorization snapshot resolved from
// the token and the role/profile side tables. It is re-fetched every request.
type AuthContext struct {
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Plan       string `json:"plan"`
	GradeLevel *int   `json:"grade_level"`
}

// IsAdmin reports whether the caller holds the admin role.
func (a AuthContext) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// LoginResponse carries the issued token and the user summary.
type LoginResponse struct {
	Token string      `json:"token"`
	User  AuthContext `json:"user"`
}

// NewAuthContext assembles the context from the user row and its side tables,
// applying the registration defaults when side rows are missing.
func NewAuthContext(user models.User, role *models.UserRole, profile *models.UserProfile) AuthContext {
	ctx := AuthContext{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     models.RoleStudent,
		Plan:     models.PlanFree,
	}

	if role != nil && role.Role != "" {
		ctx.Role = role.Role
	}
	if profile != nil {
		if profile.Plan != "" {
			ctx.Plan = profile.Plan
		}
		ctx.GradeLevel = profile.GradeLevel
	}

	return ctx
}
