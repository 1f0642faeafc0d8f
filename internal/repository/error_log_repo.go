package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/examind-api/internal/models"
)

// ErrorLogRepository persists server-side error records.
type ErrorLogRepository interface {
	Create(ctx context.Context, entry *models.ErrorLog) error
}

type errorLogRepository struct {
	db *gorm.DB
}

// NewErrorLogRepository instantiates the repository.
func NewErrorLogRepository(db *gorm.DB) ErrorLogRepository {
	return &errorLogRepository{db: db}
}

func (r *errorLogRepository) Create(ctx context.Context, entry *models.ErrorLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
