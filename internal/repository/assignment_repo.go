package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/examind-api/internal/models"
)

// AssignmentRepository defines data operations for exam/student assignments.
type AssignmentRepository interface {
	// CreateIgnoreDuplicate inserts the assignment and reports whether a new
	// row was written. Duplicate (exam, student) pairs are skipped silently.
	CreateIgnoreDuplicate(ctx context.Context, assignment *models.ExamAssignment) (bool, error)
	ListByExam(ctx context.Context, examID uint) ([]models.ExamAssignment, error)
	Exists(ctx context.Context, examID, studentID uint) (bool, error)
	DeleteByID(ctx context.Context, examID, assignmentID uint) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates the repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) CreateIgnoreDuplicate(ctx context.Context, assignment *models.ExamAssignment) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "exam_id"}, {Name: "student_id"}},
		DoNothing: true,
	}).Create(assignment)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *assignmentRepository) ListByExam(ctx context.Context, examID uint) ([]models.ExamAssignment, error) {
	var assignments []models.ExamAssignment
	err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("assigned_at ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) Exists(ctx context.Context, examID, studentID uint) (bool, error) {
	var assignment models.ExamAssignment
	err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Where("student_id = ?", studentID).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (r *assignmentRepository) DeleteByID(ctx context.Context, examID, assignmentID uint) error {
	return r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Delete(&models.ExamAssignment{}, assignmentID).Error
}
