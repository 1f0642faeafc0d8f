package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/examind-api/internal/dto"
	"github.com/noah-isme/examind-api/internal/models"
	"github.com/noah-isme/examind-api/internal/repository"
)

// AdminUserService exposes administrative role/profile overrides.
type AdminUserService interface {
	List(ctx context.Context, actor dto.AuthContext, payload dto.AdminUserListRequest) (dto.AdminUserListResponse, error)
	SetRole(ctx context.Context, actor dto.AuthContext, userID uint, payload dto.SetRoleRequest) error
	SetProfile(ctx context.Context, actor dto.AuthContext, userID uint, payload dto.SetProfileRequest) error
}

type adminUserService struct {
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAdminUserService constructs an AdminUserService instance.
func NewAdminUserService(users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) AdminUserService {
	return &adminUserService{
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "admin_user_service").Logger(),
	}
}

func (s *adminUserService) List(ctx context.Context, actor dto.AuthContext, payload dto.AdminUserListRequest) (dto.AdminUserListResponse, error) {
	if err := RequireRole(actor, models.RoleAdmin); err != nil {
		return dto.AdminUserListResponse{}, err
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.AdminUserListResponse{}, err
	}

	page := payload.Page
	if page <= 0 {
		page = 1
	}
	pageSize := payload.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	users, total, err := s.users.List(ctx, repository.UserFilter{
		Search:   payload.Search,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return dto.AdminUserListResponse{}, err
	}

	return dto.AdminUserListResponse{
		Items:      dto.NewAdminUserResponseSlice(users),
		TotalItems: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

func (s *adminUserService) SetRole(ctx context.Context, actor dto.AuthContext, userID uint, payload dto.SetRoleRequest) error {
	if err := RequireRole(actor, models.RoleAdmin); err != nil {
		return err
	}

	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	role := models.UserRole{UserID: userID, Role: payload.Role}
	if err := s.users.UpsertRole(ctx, &role); err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", userID).Str("role", payload.Role).Uint("actor_id", actor.UserID).Msg("role overridden")

	return nil
}

func (s *adminUserService) SetProfile(ctx context.Context, actor dto.AuthContext, userID uint, payload dto.SetProfileRequest) error {
	if err := RequireRole(actor, models.RoleAdmin); err != nil {
		return err
	}

	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	profile := models.UserProfile{UserID: userID, Plan: models.PlanFree}
	if existing, err := s.users.GetProfile(ctx, userID); err == nil {
		profile = existing
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if payload.Plan != nil {
		profile.Plan = *payload.Plan
	}
	if payload.GradeLevel != nil {
		profile.GradeLevel = payload.GradeLevel
	}

	if err := s.users.UpsertProfile(ctx, &profile); err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", userID).Uint("actor_id", actor.UserID).Msg("profile overridden")

	return nil
}
