package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/examind-api/internal/models"
)

// ExamFilter narrows exam listings.
type ExamFilter struct {
	AuthorID   *uint
	Status     *string
	PublicOnly bool
}

// ExamRepository defines data operations for exams and their question lists.
type ExamRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, id uint) (models.Exam, error)
	List(ctx context.Context, filter ExamFilter) ([]models.Exam, error)
	ListForStudent(ctx context.Context, studentID uint) ([]models.Exam, error)
	Update(ctx context.Context, exam *models.Exam) error
	ReplaceQuestions(ctx context.Context, examID uint, items []models.ExamQuestion, totalPoints float64) error
	ListQuestions(ctx context.Context, examID uint) ([]models.ExamQuestion, error)
}

type examRepository struct {
	db *gorm.DB
}

// NewExamRepository instantiates the repository.
func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) Create(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Create(exam).Error
}

func (r *examRepository) GetByID(ctx context.Context, id uint) (models.Exam, error) {
	var exam models.Exam
	if err := r.db.WithContext(ctx).First(&exam, id).Error; err != nil {
		return models.Exam{}, err
	}
	return exam, nil
}

func (r *examRepository) List(ctx context.Context, filter ExamFilter) ([]models.Exam, error) {
	query := r.db.WithContext(ctx).Model(&models.Exam{})

	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PublicOnly {
		query = query.Where("is_public = ?", true).Where("status = ?", models.ExamStatusPublished)
	}

	var exams []models.Exam
	if err := query.Order("created_at DESC").Find(&exams).Error; err != nil {
		return nil, err
	}

	return exams, nil
}

// ListForStudent returns published exams visible to the student: public ones
// plus those the student is assigned to.
func (r *examRepository) ListForStudent(ctx context.Context, studentID uint) ([]models.Exam, error) {
	var exams []models.Exam
	err := r.db.WithContext(ctx).Model(&models.Exam{}).
		Where("status = ?", models.ExamStatusPublished).
		Where("is_public = ? OR id IN (?)", true,
			r.db.Model(&models.ExamAssignment{}).Select("exam_id").Where("student_id = ?", studentID)).
		Order("created_at DESC").
		Find(&exams).Error
	if err != nil {
		return nil, err
	}

	return exams, nil
}

func (r *examRepository) Update(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Save(exam).Error
}

// ReplaceQuestions swaps the entire question list and the denormalized point
// total in one transaction, so readers never observe a half-replaced paper.
func (r *examRepository) ReplaceQuestions(ctx context.Context, examID uint, items []models.ExamQuestion, totalPoints float64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("exam_id = ?", examID).Delete(&models.ExamQuestion{}).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Exam{}).Where("id = ?", examID).
			Update("total_points", totalPoints).Error
	})
}

func (r *examRepository) ListQuestions(ctx context.Context, examID uint) ([]models.ExamQuestion, error) {
	var items []models.ExamQuestion
	err := r.db.WithContext(ctx).
		Preload("Question").
		Where("exam_id = ?", examID).
		Order("order_index ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return items, nil
}
