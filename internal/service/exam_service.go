package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/examind-api/internal/dto"
	"github.com/noah-isme/examind-api/internal/models"
	"github.com/noah-isme/examind-api/internal/repository"
	"github.com/noah-isme/examind-api/internal/utils"
)

// ErrExamNotFound indicates an exam could not be found.
var ErrExamNotFound = errors.New("exam not found")

// ErrInvalidWindow indicates the publish window is missing or inverted.
var ErrInvalidWindow = errors.New("publish requires start_at and end_at with end_at after start_at")

// ExamService manages exam authoring, lifecycle and assignments.
type ExamService interface {
	Create(ctx context.Context, actor dto.AuthContext, payload dto.ExamCreateRequest) (dto.ExamResponse, error)
	Get(ctx context.Context, actor dto.AuthContext, id uint) (dto.ExamResponse, error)
	List(ctx context.Context, actor dto.AuthContext) ([]dto.ExamResponse, error)
	ListPublic(ctx context.Context) ([]dto.ExamResponse, error)
	GetPublic(ctx context.Context, id uint) (dto.ExamResponse, error)
	Update(ctx context.Context, actor dto.AuthContext, id uint, payload dto.ExamUpdateRequest) (dto.ExamResponse, error)
	SetQuestions(ctx context.Context, actor dto.AuthContext, id uint, payload dto.SetExamQuestionsRequest) (dto.ExamResponse, error)
	Publish(ctx context.Context, actor dto.AuthContext, id uint, payload dto.PublishExamRequest) (dto.ExamResponse, error)
	Close(ctx context.Context, actor dto.AuthContext, id uint) (dto.ExamResponse, error)
	Assign(ctx context.Context, actor dto.AuthContext, id uint, payload dto.AssignStudentsRequest) (dto.AssignResultResponse, error)
	ListAssignments(ctx context.Context, actor dto.AuthContext, id uint) ([]dto.AssignmentResponse, error)
	Revoke(ctx context.Context, actor dto.AuthContext, examID, assignmentID uint) error
	GetPaper(ctx context.Context, actor dto.AuthContext, id uint, includeAnswers bool) (dto.PaperResponse, error)
}

type examService struct {
	exams       repository.ExamRepository
	assignments repository.AssignmentRepository
	questions   repository.QuestionRepository
	validator   *validator.Validate
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewExamService constructs an ExamService instance.
func NewExamService(exams repository.ExamRepository, assignments repository.AssignmentRepository, questions repository.QuestionRepository, validate *validator.Validate, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) ExamService {
	return &examService{
		exams:       exams,
		assignments: assignments,
		questions:   questions,
		validator:   validate,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "exam_service").Logger(),
		now:         time.Now,
	}
}

func (s *examService) Create(ctx context.Context, actor dto.AuthContext, payload dto.ExamCreateRequest) (dto.ExamResponse, error) {
	if err := RequireRole(actor, models.RoleTeacher, models.RoleAdmin); err != nil {
		return dto.ExamResponse{}, err
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	exam := models.Exam{
		AuthorID:           actor.UserID,
		Title:              payload.Title,
		Description:        utils.SanitizeRichText(payload.Description),
		Status:             models.ExamStatusDraft,
		DurationMinutes:    payload.DurationMinutes,
		Randomize:          payload.Randomize,
		IsPublic:           payload.IsPublic,
		RequiredPlan:       payload.RequiredPlan,
		RequiredGradeLevel: payload.RequiredGradeLevel,
	}

	if err := s.exams.Create(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}

	s.logger.Info().Uint("exam_id", exam.ID).Msg("exam created")

	return dto.NewExamResponse(exam), nil
}

func (s *examService) Get(ctx context.Context, actor dto.AuthContext, id uint) (dto.ExamResponse, error) {
	exam, err := s.load(ctx, id)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	// Students may only see exams that are published and visible to them.
	if actor.Role == models.RoleStudent {
		if exam.Status != models.ExamStatusPublished && exam.Status != models.ExamStatusClosed {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		if !exam.IsPublic {
			assigned, err := s.assignments.Exists(ctx, exam.ID, actor.UserID)
			if err != nil {
				return dto.ExamResponse{}, err
			}
			if !assigned {
				return dto.ExamResponse{}, ErrForbidden
			}
		}
	}

	return dto.NewExamResponse(exam), nil
}

func (s *examService) List(ctx context.Context, actor dto.AuthContext) ([]dto.ExamResponse, error) {
	switch actor.Role {
	case models.RoleAdmin:
		exams, err := s.exams.List(ctx, repository.ExamFilter{})
		if err != nil {
			return nil, err
		}
		return dto.NewExamResponseSlice(exams), nil
	case models.RoleTeacher:
		authorID := actor.UserID
		exams, err := s.exams.List(ctx, repository.ExamFilter{AuthorID: &authorID})
		if err != nil {
			return nil, err
		}
		return dto.NewExamResponseSlice(exams), nil
	default:
		exams, err := s.exams.ListForStudent(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		return dto.NewExamResponseSlice(exams), nil
	}
}

func (s *examService) ListPublic(ctx context.Context) ([]dto.ExamResponse, error) {
	exams, err := s.exams.List(ctx, repository.ExamFilter{PublicOnly: true})
	if err != nil {
		return nil, err
	}
	return dto.NewExamResponseSlice(exams), nil
}

func (s *examService) GetPublic(ctx context.Context, id uint) (dto.ExamResponse, error) {
	exam, err := s.load(ctx, id)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	if exam.Status != models.ExamStatusPublished || !exam.IsPublic {
		return dto.ExamResponse{}, ErrExamNotFound
	}

	return dto.NewExamResponse(exam), nil
}

func (s *examService) Update(ctx context.Context, actor dto.AuthContext, id uint, payload dto.ExamUpdateRequest) (dto.ExamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	exam, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	if !exam.IsDraft() {
		return dto.ExamResponse{}, ErrInvalidState
	}

	if payload.Title != nil {
		exam.Title = *payload.Title
	}
	if payload.Description != nil {
		exam.Description = utils.SanitizeRichText(*payload.Description)
	}
	if payload.DurationMinutes != nil {
		exam.DurationMinutes = payload.DurationMinutes
	}
	if payload.Randomize != nil {
		exam.Randomize = *payload.Randomize
	}
	if payload.IsPublic != nil {
		exam.IsPublic = *payload.IsPublic
	}
	if payload.RequiredPlan != nil {
		exam.RequiredPlan = *payload.RequiredPlan
	}
	if payload.RequiredGradeLevel != nil {
		exam.RequiredGradeLevel = payload.RequiredGradeLevel
	}

	if err := s.exams.Update(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}

	return dto.NewExamResponse(exam), nil
}

func (s *examService) SetQuestions(ctx context.Context, actor dto.AuthContext, id uint, payload dto.SetExamQuestionsRequest) (dto.ExamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	exam, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	if !exam.IsDraft() {
		return dto.ExamResponse{}, ErrInvalidState
	}

	ids := make([]uint, 0, len(payload.Items))
	for _, item := range payload.Items {
		ids = append(ids, item.QuestionID)
	}

	existing, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return dto.ExamResponse{}, err
	}
	if len(existing) != len(payload.Items) {
		return dto.ExamResponse{}, ErrQuestionNotFound
	}

	items := make([]models.ExamQuestion, 0, len(payload.Items))
	var totalPoints float64
	for index, item := range payload.Items {
		items = append(items, models.ExamQuestion{
			ExamID:     exam.ID,
			QuestionID: item.QuestionID,
			OrderIndex: index,
			Points:     item.Points,
		})
		totalPoints += item.Points
	}

	if err := s.exams.ReplaceQuestions(ctx, exam.ID, items, totalPoints); err != nil {
		return dto.ExamResponse{}, err
	}

	exam.TotalPoints = totalPoints
	s.invalidatePaper(ctx, exam.ID)

	s.logger.Info().Uint("exam_id", exam.ID).Int("questions", len(items)).Float64("total_points", totalPoints).Msg("exam question list replaced")

	return dto.NewExamResponse(exam), nil
}

func (s *examService) Publish(ctx context.Context, actor dto.AuthContext, id uint, payload dto.PublishExamRequest) (dto.ExamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	exam, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	if !exam.IsDraft() {
		return dto.ExamResponse{}, ErrInvalidState
	}

	if !payload.EndAt.After(payload.StartAt) {
		return dto.ExamResponse{}, ErrInvalidWindow
	}

	startAt := payload.StartAt
	endAt := payload.EndAt
	exam.Status = models.ExamStatusPublished
	exam.StartAt = &startAt
	exam.EndAt = &endAt

	if err := s.exams.Update(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}

	s.invalidatePaper(ctx, exam.ID)
	s.logger.Info().Uint("exam_id", exam.ID).Time("start_at", startAt).Time("end_at", endAt).Msg("exam published")

	return dto.NewExamResponse(exam), nil
}

func (s *examService) Close(ctx context.Context, actor dto.AuthContext, id uint) (dto.ExamResponse, error) {
	exam, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	// Idempotent: closing an already-closed exam is a no-op.
	if exam.Status != models.ExamStatusClosed {
		exam.Status = models.ExamStatusClosed
		if err := s.exams.Update(ctx, &exam); err != nil {
			return dto.ExamResponse{}, err
		}
		s.invalidatePaper(ctx, exam.ID)
		s.logger.Info().Uint("exam_id", exam.ID).Msg("exam closed")
	}

	return dto.NewExamResponse(exam), nil
}

func (s *examService) Assign(ctx context.Context, actor dto.AuthContext, id uint, payload dto.AssignStudentsRequest) (dto.AssignResultResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignResultResponse{}, err
	}

	exam, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return dto.AssignResultResponse{}, err
	}

	if exam.Status != models.ExamStatusPublished {
		return dto.AssignResultResponse{}, ErrInvalidState
	}

	assignedAt := s.now()
	inserted := 0
	for _, studentID := range payload.StudentIDs {
		assignment := models.ExamAssignment{
			ExamID:     exam.ID,
			StudentID:  studentID,
			AssignedAt: assignedAt,
			DueAt:      payload.DueAt,
		}
		created, err := s.assignments.CreateIgnoreDuplicate(ctx, &assignment)
		if err != nil {
			return dto.AssignResultResponse{}, err
		}
		if created {
			inserted++
		}
	}

	s.logger.Info().Uint("exam_id", exam.ID).Int("assigned", inserted).Msg("students assigned")

	return dto.AssignResultResponse{Requested: len(payload.StudentIDs), Assigned: inserted}, nil
}

func (s *examService) ListAssignments(ctx context.Context, actor dto.AuthContext, id uint) ([]dto.AssignmentResponse, error) {
	exam, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignments.ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *examService) Revoke(ctx context.Context, actor dto.AuthContext, examID, assignmentID uint) error {
	exam, err := s.loadOwned(ctx, actor, examID)
	if err != nil {
		return err
	}

	return s.assignments.DeleteByID(ctx, exam.ID, assignmentID)
}

func (s *examService) GetPaper(ctx context.Context, actor dto.AuthContext, id uint, includeAnswers bool) (dto.PaperResponse, error) {
	exam, err := s.load(ctx, id)
	if err != nil {
		return dto.PaperResponse{}, err
	}

	isOwner := actor.IsAdmin() || actor.UserID == exam.AuthorID
	if !isOwner {
		if exam.Status != models.ExamStatusPublished {
			return dto.PaperResponse{}, ErrInvalidState
		}
		if !exam.IsPublic {
			assigned, err := s.assignments.Exists(ctx, exam.ID, actor.UserID)
			if err != nil {
				return dto.PaperResponse{}, err
			}
			if !assigned {
				return dto.PaperResponse{}, ErrNotAssigned
			}
		}
	}

	// Answer keys are never cached; only the student-facing paper is.
	withAnswers := includeAnswers && isOwner
	if !withAnswers && exam.Status == models.ExamStatusPublished {
		if cached, ok := s.cachedPaper(ctx, exam.ID); ok {
			return cached, nil
		}
	}

	items, err := s.exams.ListQuestions(ctx, exam.ID)
	if err != nil {
		return dto.PaperResponse{}, err
	}

	paper := dto.PaperResponse{
		ExamID:          exam.ID,
		Title:           exam.Title,
		Description:     exam.Description,
		DurationMinutes: exam.DurationMinutes,
		TotalPoints:     exam.TotalPoints,
		Questions:       make([]dto.PaperQuestion, 0, len(items)),
	}

	for _, item := range items {
		question := dto.PaperQuestion{
			ExamQuestionID: item.ID,
			OrderIndex:     item.OrderIndex,
			Points:         item.Points,
			Question:       dto.NewPublicQuestionResponse(item.Question),
		}
		if withAnswers && len(item.Question.AnswerKeyJSON) > 0 {
			question.AnswerKeyJSON = json.RawMessage(item.Question.AnswerKeyJSON)
		}
		paper.Questions = append(paper.Questions, question)
	}

	if !withAnswers && exam.Status == models.ExamStatusPublished {
		s.storePaper(ctx, exam.ID, paper)
	}

	return paper, nil
}

func (s *examService) load(ctx context.Context, id uint) (models.Exam, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Exam{}, ErrExamNotFound
		}
		return models.Exam{}, err
	}
	return exam, nil
}

func (s *examService) loadOwned(ctx context.Context, actor dto.AuthContext, id uint) (models.Exam, error) {
	exam, err := s.load(ctx, id)
	if err != nil {
		return models.Exam{}, err
	}
	if err := requireExamAuthor(actor, exam); err != nil {
		return models.Exam{}, err
	}
	return exam, nil
}

func paperCacheKey(examID uint) string {
	return fmt.Sprintf("paper:exam:%d", examID)
}

func (s *examService) cachedPaper(ctx context.Context, examID uint) (dto.PaperResponse, bool) {
	if s.cache == nil {
		return dto.PaperResponse{}, false
	}

	cached, err := s.cache.Get(ctx, paperCacheKey(examID)).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Uint("exam_id", examID).Msg("failed to read paper cache")
		}
		return dto.PaperResponse{}, false
	}

	var paper dto.PaperResponse
	if err := json.Unmarshal([]byte(cached), &paper); err != nil {
		return dto.PaperResponse{}, false
	}

	s.logger.Debug().Uint("exam_id", examID).Msg("paper cache hit")
	return paper, true
}

func (s *examService) storePaper(ctx context.Context, examID uint, paper dto.PaperResponse) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(paper)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, paperCacheKey(examID), payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("exam_id", examID).Msg("failed to store paper cache")
	}
}

func (s *examService) invalidatePaper(ctx context.Context, examID uint) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Del(ctx, paperCacheKey(examID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("exam_id", examID).Msg("failed to invalidate paper cache")
	}
}
