package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/examind-api/internal/models"
)

// QuestionFilter narrows question listings.
type QuestionFilter struct {
	AuthorID   *uint
	Type       *string
	ActiveOnly bool
	Page       int
	PageSize   int
}

// QuestionRepository defines data operations for the question bank.
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (models.Question, error)
	List(ctx context.Context, filter QuestionFilter) ([]models.Question, int64, error)
	Update(ctx context.Context, question *models.Question) error
	ListRandomObjective(ctx context.Context, questionType string, limit int) ([]models.Question, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Question, error)
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository instantiates the repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return models.Question{}, err
	}
	return question, nil
}

func (r *questionRepository) List(ctx context.Context, filter QuestionFilter) ([]models.Question, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Question{})

	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var questions []models.Question
	if err := query.Order("id DESC").Find(&questions).Error; err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

func (r *questionRepository) Update(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Save(question).Error
}

// ListRandomObjective draws active auto-scorable questions in random order for
// practice papers.
func (r *questionRepository) ListRandomObjective(ctx context.Context, questionType string, limit int) ([]models.Question, error) {
	query := r.db.WithContext(ctx).Model(&models.Question{}).
		Where("is_active = ?", true).
		Where("type IN ?", []string{models.QuestionSingleChoice, models.QuestionMultipleChoice, models.QuestionFillBlank})

	if questionType != "" {
		query = query.Where("type = ?", questionType)
	}

	var questions []models.Question
	if err := query.Order("RANDOM()").Limit(limit).Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (r *questionRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var questions []models.Question
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}
