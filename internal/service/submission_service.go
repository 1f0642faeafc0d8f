package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/examind-api/internal/dto"
	"github.com/noah-isme/examind-api/internal/models"
	"github.com/noah-isme/examind-api/internal/repository"
	"github.com/noah-isme/examind-api/internal/scoring"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrExamQuestionNotFound indicates a score override references a question
// that is not on the exam paper.
var ErrExamQuestionNotFound = errors.New("exam question not found")

// SubmissionService manages the attempt lifecycle: start, save, submit,
// manual grade.
type SubmissionService interface {
	Start(ctx context.Context, actor dto.AuthContext, examID uint) (dto.SubmissionResponse, error)
	SaveAnswers(ctx context.Context, actor dto.AuthContext, submissionID uint, payload dto.SaveAnswersRequest) error
	Submit(ctx context.Context, actor dto.AuthContext, submissionID uint) (dto.SubmissionResponse, error)
	ManualScore(ctx context.Context, actor dto.AuthContext, submissionID uint, payload dto.ManualScoreRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, actor dto.AuthContext, submissionID uint) (dto.SubmissionResponse, error)
	Status(ctx context.Context, actor dto.AuthContext, submissionID uint) (dto.SubmissionStatusResponse, error)
	ListByExam(ctx context.Context, actor dto.AuthContext, examID uint) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	exams       repository.ExamRepository
	assignments repository.AssignmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(submissions repository.SubmissionRepository, exams repository.ExamRepository, assignments repository.AssignmentRepository, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		exams:       exams,
		assignments: assignments,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

// Start creates the student's submission for the exam, or resumes the
// existing one while it is still in progress. A finished attempt cannot be
// restarted.
func (s *submissionService) Start(ctx context.Context, actor dto.AuthContext, examID uint) (dto.SubmissionResponse, error) {
	if err := RequireRole(actor, models.RoleStudent); err != nil {
		return dto.SubmissionResponse{}, err
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrExamNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if exam.Status != models.ExamStatusPublished {
		return dto.SubmissionResponse{}, ErrInvalidState
	}

	if !exam.IsPublic {
		assigned, err := s.assignments.Exists(ctx, exam.ID, actor.UserID)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		if !assigned {
			return dto.SubmissionResponse{}, ErrNotAssigned
		}
	}

	now := s.now()
	if !exam.WindowContains(now) {
		return dto.SubmissionResponse{}, ErrInvalidState
	}

	if err := EnsurePlan(actor, exam.RequiredPlan); err != nil {
		return dto.SubmissionResponse{}, err
	}
	if err := EnsureGrade(actor, exam.RequiredGradeLevel); err != nil {
		return dto.SubmissionResponse{}, err
	}

	existing, err := s.submissions.GetByExamAndStudent(ctx, exam.ID, actor.UserID)
	if err == nil {
		if existing.IsInProgress() {
			return dto.NewSubmissionResponse(existing, nil), nil
		}
		return dto.SubmissionResponse{}, ErrInvalidState
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, err
	}

	submission := models.Submission{
		ExamID:    exam.ID,
		StudentID: actor.UserID,
		Status:    models.SubmissionStatusInProgress,
		StartedAt: now,
	}
	if exam.DurationMinutes != nil {
		deadline := now.Add(time.Duration(*exam.DurationMinutes) * time.Minute)
		submission.DeadlineAt = &deadline
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Uint("exam_id", exam.ID).Uint("student_id", actor.UserID).Msg("submission started")

	return dto.NewSubmissionResponse(submission, nil), nil
}

// SaveAnswers upserts in-progress answers. Payloads are stored verbatim; no
// shape validation happens until grading.
func (s *submissionService) SaveAnswers(ctx context.Context, actor dto.AuthContext, submissionID uint, payload dto.SaveAnswersRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	submission, err := s.load(ctx, submissionID)
	if err != nil {
		return err
	}

	if submission.StudentID != actor.UserID {
		return ErrForbidden
	}
	if !submission.IsInProgress() {
		return ErrInvalidState
	}

	for _, item := range payload.Answers {
		answer := models.SubmissionAnswer{
			SubmissionID:   submission.ID,
			ExamQuestionID: item.ExamQuestionID,
			AnswerJSON:     datatypes.JSON(item.AnswerJSON),
		}
		if err := s.submissions.UpsertAnswer(ctx, &answer); err != nil {
			return err
		}
	}

	return nil
}

// Submit finalizes the attempt: each exam question is scored against the
// matching saved answer (missing answers score zero) and the auto total is
// persisted alongside the status transition.
func (s *submissionService) Submit(ctx context.Context, actor dto.AuthContext, submissionID uint) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/examind-api/internal/service/submission")
	ctx, span := tracer.Start(ctx, "submission.submit")
	span.SetAttributes(attribute.Int64("submission.id", int64(submissionID)))
	defer span.End()

	submission, err := s.load(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	if submission.StudentID != actor.UserID {
		return dto.SubmissionResponse{}, ErrForbidden
	}
	if !submission.IsInProgress() {
		span.SetStatus(codes.Error, "invalid_state")
		return dto.SubmissionResponse{}, ErrInvalidState
	}

	items, err := s.exams.ListQuestions(ctx, submission.ExamID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	saved, err := s.submissions.ListAnswers(ctx, submission.ID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	answersByItem := make(map[uint]models.SubmissionAnswer, len(saved))
	for _, answer := range saved {
		answersByItem[answer.ExamQuestionID] = answer
	}

	var scoreAuto float64
	for _, item := range items {
		answer, hasAnswer := answersByItem[item.ID]

		var payload json.RawMessage
		if hasAnswer {
			payload = json.RawMessage(answer.AnswerJSON)
		}

		result := scoring.Score(item.Question.Type, json.RawMessage(item.Question.AnswerKeyJSON), payload, item.Points)
		scoreAuto += result.Awarded

		scored := models.SubmissionAnswer{
			SubmissionID:   submission.ID,
			ExamQuestionID: item.ID,
			AnswerJSON:     answer.AnswerJSON,
			Score:          result.Awarded,
			IsAutoScored:   true,
		}
		if err := s.submissions.UpsertAnswer(ctx, &scored); err != nil {
			span.RecordError(err)
			return dto.SubmissionResponse{}, err
		}
	}

	submittedAt := s.now()
	submission.Status = models.SubmissionStatusSubmitted
	submission.SubmittedAt = &submittedAt
	submission.ScoreAuto = scoreAuto
	submission.ScoreTotal = submission.ScoreManual + scoreAuto

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	span.SetAttributes(attribute.Float64("submission.score_auto", scoreAuto))
	s.logger.Info().Uint("submission_id", submission.ID).Float64("score_auto", scoreAuto).Msg("submission submitted")

	answers, err := s.submissions.ListAnswers(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission, answers), nil
}

// ManualScore applies teacher overrides and recomputes the manual total from
// every manually-scored row, so partial re-grades never under-count items
// untouched by the current call.
func (s *submissionService) ManualScore(ctx context.Context, actor dto.AuthContext, submissionID uint, payload dto.ManualScoreRequest) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/examind-api/internal/service/submission")
	ctx, span := tracer.Start(ctx, "submission.manual_score")
	span.SetAttributes(
		attribute.Int64("submission.id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.UserID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.load(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	exam, err := s.exams.GetByID(ctx, submission.ExamID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}
	if err := requireExamAuthor(actor, exam); err != nil {
		return dto.SubmissionResponse{}, err
	}

	// Grading requires a finished attempt.
	if submission.IsInProgress() {
		span.SetStatus(codes.Error, "invalid_state")
		return dto.SubmissionResponse{}, ErrInvalidState
	}

	items, err := s.exams.ListQuestions(ctx, submission.ExamID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}
	onPaper := make(map[uint]struct{}, len(items))
	for _, item := range items {
		onPaper[item.ID] = struct{}{}
	}

	saved, err := s.submissions.ListAnswers(ctx, submission.ID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}
	answersByItem := make(map[uint]models.SubmissionAnswer, len(saved))
	for _, answer := range saved {
		answersByItem[answer.ExamQuestionID] = answer
	}

	for _, override := range payload.Items {
		if _, ok := onPaper[override.ExamQuestionID]; !ok {
			return dto.SubmissionResponse{}, ErrExamQuestionNotFound
		}

		answer := answersByItem[override.ExamQuestionID]
		answer.SubmissionID = submission.ID
		answer.ExamQuestionID = override.ExamQuestionID
		answer.Score = override.Score
		answer.IsAutoScored = false

		if err := s.submissions.UpsertAnswer(ctx, &answer); err != nil {
			span.RecordError(err)
			return dto.SubmissionResponse{}, err
		}
		answersByItem[override.ExamQuestionID] = answer
	}

	var scoreManual float64
	for _, answer := range answersByItem {
		if !answer.IsAutoScored {
			scoreManual += answer.Score
		}
	}

	submission.ScoreManual = scoreManual
	submission.ScoreTotal = submission.ScoreAuto + scoreManual
	submission.Status = models.SubmissionStatusGraded
	if payload.Feedback != nil {
		submission.Feedback = *payload.Feedback
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	span.SetAttributes(
		attribute.Float64("grading.score_manual", scoreManual),
		attribute.Float64("grading.score_total", submission.ScoreTotal),
	)
	s.logger.Info().Uint("submission_id", submission.ID).Float64("score_manual", scoreManual).Msg("submission graded")

	answers, err := s.submissions.ListAnswers(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission, answers), nil
}

func (s *submissionService) Get(ctx context.Context, actor dto.AuthContext, submissionID uint) (dto.SubmissionResponse, error) {
	submission, err := s.loadVisible(ctx, actor, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	answers, err := s.submissions.ListAnswers(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission, answers), nil
}

func (s *submissionService) Status(ctx context.Context, actor dto.AuthContext, submissionID uint) (dto.SubmissionStatusResponse, error) {
	submission, err := s.loadVisible(ctx, actor, submissionID)
	if err != nil {
		return dto.SubmissionStatusResponse{}, err
	}

	return dto.NewSubmissionStatusResponse(submission, s.now()), nil
}

func (s *submissionService) ListByExam(ctx context.Context, actor dto.AuthContext, examID uint) ([]dto.SubmissionResponse, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}

	if err := requireExamAuthor(actor, exam); err != nil {
		return nil, err
	}

	submissions, err := s.submissions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) load(ctx context.Context, id uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}
	return submission, nil
}

// loadVisible restricts submission reads to the owning student, the exam
// author, or an admin.
func (s *submissionService) loadVisible(ctx context.Context, actor dto.AuthContext, id uint) (models.Submission, error) {
	submission, err := s.load(ctx, id)
	if err != nil {
		return models.Submission{}, err
	}

	if submission.StudentID == actor.UserID || actor.IsAdmin() {
		return submission, nil
	}

	exam, err := s.exams.GetByID(ctx, submission.ExamID)
	if err != nil {
		return models.Submission{}, err
	}
	if exam.AuthorID == actor.UserID {
		return submission, nil
	}

	return models.Submission{}, ErrForbidden
}
