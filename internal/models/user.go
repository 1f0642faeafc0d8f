package models

import "time"

// Role values stored in user_roles.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// Plan values stored in user_profiles.
const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// User represents an account identity.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	DisplayName  string    `gorm:"size:128" json:"display_name"`
	AvatarURL    string    `gorm:"size:512" json:"avatar_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserRole is the one-to-one role side table, defaulted to student at registration.
type UserRole struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserProfile is the one-to-one plan/grade side table, defaulted to free at registration.
type UserProfile struct {
	UserID     uint      `gorm:"primaryKey" json:"user_id"`
	Plan       string    `gorm:"size:32;not null" json:"plan"`
	GradeLevel *int      `json:"grade_level"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ValidRole reports whether the value belongs to the closed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}
