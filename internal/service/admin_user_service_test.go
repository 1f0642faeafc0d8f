package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/examind-api/internal/dto"
	"github.com/noah-isme/examind-api/internal/models"
	"github.com/noah-isme/examind-api/internal/repository"
)

func newAdminUserService(t *testing.T) (AdminUserService, AuthService) {
	t.Helper()

	db := openTestDB(t)
	users := repository.NewUserRepository(db)
	validate := newTestValidator()
	auth := NewAuthService(users, validate, "test-secret", time.Hour, bcrypt.MinCost, zerolog.Nop())

	return NewAdminUserService(users, validate, zerolog.Nop()), auth
}

func TestAdminUserServiceSetRole(t *testing.T) {
	svc, auth := newAdminUserService(t)
	ctx := context.Background()

	account, err := auth.Register(ctx, dto.RegisterRequest{Username: "eve", Email: "eve@example.com", Password: "password123"})
	require.NoError(t, err)

	// Non-admins may not override roles.
	err = svc.SetRole(ctx, teacherContext(2), account.UserID, dto.SetRoleRequest{Role: models.RoleTeacher})
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.SetRole(ctx, adminContext(1), account.UserID, dto.SetRoleRequest{Role: models.RoleTeacher}))

	resolved, err := auth.Resolve(ctx, account.UserID)
	require.NoError(t, err)
	require.Equal(t, models.RoleTeacher, resolved.Role)

	err = svc.SetRole(ctx, adminContext(1), 9999, dto.SetRoleRequest{Role: models.RoleTeacher})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdminUserServiceSetProfilePreservesFields(t *testing.T) {
	svc, auth := newAdminUserService(t)
	ctx := context.Background()

	account, err := auth.Register(ctx, dto.RegisterRequest{Username: "frank", Email: "frank@example.com", Password: "password123"})
	require.NoError(t, err)

	plan := models.PlanPremium
	require.NoError(t, svc.SetProfile(ctx, adminContext(1), account.UserID, dto.SetProfileRequest{Plan: &plan}))

	// A later grade-only update keeps the premium plan.
	require.NoError(t, svc.SetProfile(ctx, adminContext(1), account.UserID, dto.SetProfileRequest{GradeLevel: intPointer(8)}))

	resolved, err := auth.Resolve(ctx, account.UserID)
	require.NoError(t, err)
	require.Equal(t, models.PlanPremium, resolved.Plan)
	require.NotNil(t, resolved.GradeLevel)
	require.Equal(t, 8, *resolved.GradeLevel)
}

func TestAdminUserServiceListSearches(t *testing.T) {
	svc, auth := newAdminUserService(t)
	ctx := context.Background()

	for _, username := range []string{"grace", "heidi", "graham"} {
		_, err := auth.Register(ctx, dto.RegisterRequest{Username: username, Email: username + "@example.com", Password: "password123"})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, adminContext(1), dto.AdminUserListRequest{Search: "gra"})
	require.NoError(t, err)
	require.EqualValues(t, 2, page.TotalItems)

	_, err = svc.List(ctx, studentContext(2), dto.AdminUserListRequest{})
	require.ErrorIs(t, err, ErrForbidden)
}
