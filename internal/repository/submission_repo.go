package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/examind-api/internal/models"
)

// SubmissionRepository defines data operations for submissions and answers.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByExamAndStudent(ctx context.Context, examID, studentID uint) (models.Submission, error)
	ListByExam(ctx context.Context, examID uint) ([]models.Submission, error)
	Update(ctx context.Context, submission *models.Submission) error
	UpsertAnswer(ctx context.Context, answer *models.SubmissionAnswer) error
	ListAnswers(ctx context.Context, submissionID uint) ([]models.SubmissionAnswer, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) GetByExamAndStudent(ctx context.Context, examID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Where("student_id = ?", studentID).
		First(&submission).Error
	if err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListByExam(ctx context.Context, examID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("started_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

// UpsertAnswer writes the answer row keyed by (submission, exam question),
// overwriting any previously saved payload and score.
func (r *submissionRepository) UpsertAnswer(ctx context.Context, answer *models.SubmissionAnswer) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}, {Name: "exam_question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answer_json", "score", "is_auto_scored", "updated_at"}),
	}).Create(answer).Error
}

func (r *submissionRepository) ListAnswers(ctx context.Context, submissionID uint) ([]models.SubmissionAnswer, error) {
	var answers []models.SubmissionAnswer
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("exam_question_id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}

	return answers, nil
}
