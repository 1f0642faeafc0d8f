package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/examind-api/internal/dto"
	"github.com/noah-isme/examind-api/internal/models"
	"github.com/noah-isme/examind-api/internal/repository"
)

func newAuthService(t *testing.T) (AuthService, *repositoryBundle) {
	t.Helper()

	db := openTestDB(t)
	users := repository.NewUserRepository(db)
	svc := NewAuthService(users, newTestValidator(), "test-secret", time.Hour, bcrypt.MinCost, zerolog.Nop())

	return svc, &repositoryBundle{users: users}
}

type repositoryBundle struct {
	users repository.UserRepository
}

func TestAuthServiceRegisterCreatesRoleAndProfile(t *testing.T) {
	svc, repos := newAuthService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, dto.RegisterRequest{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleStudent, account.Role)
	require.Equal(t, models.PlanFree, account.Plan)
	require.Equal(t, "alice@example.com", account.Email)

	role, err := repos.users.GetRole(ctx, account.UserID)
	require.NoError(t, err)
	require.Equal(t, models.RoleStudent, role.Role)

	profile, err := repos.users.GetProfile(ctx, account.UserID)
	require.NoError(t, err)
	require.Equal(t, models.PlanFree, profile.Plan)
	require.Nil(t, profile.GradeLevel)
}

func TestAuthServiceRegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	payload := dto.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "password123"}
	_, err := svc.Register(ctx, payload)
	require.NoError(t, err)

	_, err = svc.Register(ctx, payload)
	require.ErrorIs(t, err, ErrDuplicateUser)

	_, err = svc.Register(ctx, dto.RegisterRequest{Username: "bob2", Email: "bob@example.com", Password: "password123"})
	require.ErrorIs(t, err, ErrDuplicateUser)
}

// blindUserRepository simulates a registration racing past the duplicate
// lookups: the reads see nothing while the row already exists for the insert.
type blindUserRepository struct {
	repository.UserRepository
}

func (r *blindUserRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return models.User{}, gorm.ErrRecordNotFound
}

func (r *blindUserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return models.User{}, gorm.ErrRecordNotFound
}

func TestAuthServiceRegisterMapsUniqueViolationToDuplicate(t *testing.T) {
	db := openTestDB(t)
	users := &blindUserRepository{UserRepository: repository.NewUserRepository(db)}
	svc := NewAuthService(users, newTestValidator(), "test-secret", time.Hour, bcrypt.MinCost, zerolog.Nop())
	ctx := context.Background()

	payload := dto.RegisterRequest{Username: "erin", Email: "erin@example.com", Password: "password123"}
	_, err := svc.Register(ctx, payload)
	require.NoError(t, err)

	_, err = svc.Register(ctx, payload)
	require.ErrorIs(t, err, ErrDuplicateUser)
}

func TestAuthServiceLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, dto.RegisterRequest{Username: "carol", Email: "carol@example.com", Password: "password123"})
	require.NoError(t, err)

	session, err := svc.Login(ctx, dto.LoginRequest{Username: "carol", Password: "password123"})
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.Equal(t, "carol", session.User.Username)
	require.Equal(t, models.RoleStudent, session.User.Role)

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "carol", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "nobody", Password: "password123"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceResolveReflectsRoleChanges(t *testing.T) {
	svc, repos := newAuthService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, dto.RegisterRequest{Username: "dave", Email: "dave@example.com", Password: "password123"})
	require.NoError(t, err)

	// Role and plan overrides must be visible on the very next resolve.
	require.NoError(t, repos.users.UpsertRole(ctx, &models.UserRole{UserID: account.UserID, Role: models.RoleTeacher}))
	require.NoError(t, repos.users.UpsertProfile(ctx, &models.UserProfile{UserID: account.UserID, Plan: models.PlanPremium, GradeLevel: intPointer(9)}))

	resolved, err := svc.Resolve(ctx, account.UserID)
	require.NoError(t, err)
	require.Equal(t, models.RoleTeacher, resolved.Role)
	require.Equal(t, models.PlanPremium, resolved.Plan)
	require.NotNil(t, resolved.GradeLevel)
	require.Equal(t, 9, *resolved.GradeLevel)

	_, err = svc.Resolve(ctx, 9999)
	require.ErrorIs(t, err, ErrUserNotFound)
}
