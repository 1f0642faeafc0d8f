package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/examind-api/internal/dto"
	"github.com/noah-isme/examind-api/internal/models"
	"github.com/noah-isme/examind-api/internal/repository"
)

// ErrUserNotFound indicates the account could not be located.
var ErrUserNotFound = errors.New("user not found")

// AuthService handles registration, login and per-request context resolution.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthContext, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
	// Resolve re-fetches the caller's role and plan/grade profile. It is
	// invoked per request by the auth middleware; results are never cached.
	Resolve(ctx context.Context, userID uint) (dto.AuthContext, error)
}

type authService struct {
	users      repository.UserRepository
	validator  *validator.Validate
	logger     zerolog.Logger
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
	now        func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users repository.UserRepository, validate *validator.Validate, secret string, tokenTTL time.Duration, bcryptCost int, logger zerolog.Logger) AuthService {
	return &authService{
		users:      users,
		validator:  validate,
		logger:     logger.With().Str("component", "auth_service").Logger(),
		secret:     []byte(secret),
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthContext, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthContext{}, err
	}

	username := strings.TrimSpace(payload.Username)
	email := strings.ToLower(strings.TrimSpace(payload.Email))

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return dto.AuthContext{}, ErrDuplicateUser
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AuthContext{}, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return dto.AuthContext{}, ErrDuplicateUser
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AuthContext{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), s.bcryptCost)
	if err != nil {
		return dto.AuthContext{}, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(payload.DisplayName),
	}

	if err := s.users.Create(ctx, &user); err != nil {
		// A concurrent registration can pass the lookups above and still
		// collide on the unique index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.AuthContext{}, ErrDuplicateUser
		}
		return dto.AuthContext{}, err
	}

	// Exactly one role row and one profile row per user; upserts keep the
	// invariant even if registration is retried.
	role := models.UserRole{UserID: user.ID, Role: models.RoleStudent}
	if err := s.users.UpsertRole(ctx, &role); err != nil {
		return dto.AuthContext{}, err
	}

	profile := models.UserProfile{UserID: user.ID, Plan: models.PlanFree}
	if err := s.users.UpsertProfile(ctx, &profile); err != nil {
		return dto.AuthContext{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user registered")

	return dto.NewAuthContext(user, &role, &profile), nil
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(payload.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)) != nil {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	authCtx, err := s.Resolve(ctx, user.ID)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	token, err := s.issueToken(authCtx)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user logged in")

	return dto.LoginResponse{Token: token, User: authCtx}, nil
}

func (s *authService) Resolve(ctx context.Context, userID uint) (dto.AuthContext, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthContext{}, ErrUserNotFound
		}
		return dto.AuthContext{}, err
	}

	var rolePtr *models.UserRole
	if role, err := s.users.GetRole(ctx, userID); err == nil {
		rolePtr = &role
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AuthContext{}, err
	}

	var profilePtr *models.UserProfile
	if profile, err := s.users.GetProfile(ctx, userID); err == nil {
		profilePtr = &profile
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AuthContext{}, err
	}

	return dto.NewAuthContext(user, rolePtr, profilePtr), nil
}

func (s *authService) issueToken(authCtx dto.AuthContext) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  authCtx.UserID,
		"role": authCtx.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
