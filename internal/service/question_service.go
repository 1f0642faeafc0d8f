package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/examind-api/internal/dto"
	"github.com/noah-isme/examind-api/internal/models"
	"github.com/noah-isme/examind-api/internal/repository"
	"github.com/noah-isme/examind-api/internal/utils"
)

// ErrQuestionNotFound indicates a question could not be found.
var ErrQuestionNotFound = errors.New("question not found")

// ErrInvalidQuestionContent indicates content_json failed schema validation.
var ErrInvalidQuestionContent = errors.New("question content does not match its type schema")

// QuestionService manages the question bank.
type QuestionService interface {
	Create(ctx context.Context, actor dto.AuthContext, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error)
	Get(ctx context.Context, actor dto.AuthContext, id uint) (dto.QuestionResponse, error)
	List(ctx context.Context, actor dto.AuthContext, payload dto.QuestionListRequest) (dto.QuestionListResponse, error)
	// ListPublic serves the student facing catalogue: active questions only,
	// answer keys and rubrics stripped.
	ListPublic(ctx context.Context, payload dto.QuestionListRequest) (dto.PublicQuestionListResponse, error)
	Update(ctx context.Context, actor dto.AuthContext, id uint, payload dto.QuestionUpdateRequest) (dto.QuestionResponse, error)
	// Delete soft-deletes by clearing is_active; rows referenced by exam
	// question lists are never physically removed.
	Delete(ctx context.Context, actor dto.AuthContext, id uint) error
}

type questionService struct {
	questions repository.QuestionRepository
	validator *validator.Validate
	schemas   map[string]*jsonschema.Schema
	logger    zerolog.Logger
}

// NewQuestionService constructs a QuestionService instance.
func NewQuestionService(questions repository.QuestionRepository, validate *validator.Validate, logger zerolog.Logger) (QuestionService, error) {
	schemas, err := compileQuestionSchemas()
	if err != nil {
		return nil, err
	}

	return &questionService{
		questions: questions,
		validator: validate,
		schemas:   schemas,
		logger:    logger.With().Str("component", "question_service").Logger(),
	}, nil
}

func (s *questionService) Create(ctx context.Context, actor dto.AuthContext, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error) {
	if err := RequireRole(actor, models.RoleTeacher, models.RoleAdmin); err != nil {
		return dto.QuestionResponse{}, err
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	content, err := s.sanitizeContent(payload.Type, payload.ContentJSON)
	if err != nil {
		return dto.QuestionResponse{}, err
	}

	question := models.Question{
		AuthorID:      actor.UserID,
		Type:          payload.Type,
		ContentJSON:   content,
		AnswerKeyJSON: datatypes.JSON(payload.AnswerKeyJSON),
		RubricJSON:    datatypes.JSON(payload.RubricJSON),
		SchemaVersion: questionSchemaVersion,
		IsActive:      true,
	}

	if err := s.questions.Create(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.logger.Info().Uint("question_id", question.ID).Str("type", question.Type).Msg("question created")

	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) Get(ctx context.Context, actor dto.AuthContext, id uint) (dto.QuestionResponse, error) {
	question, err := s.load(ctx, id)
	if err != nil {
		return dto.QuestionResponse{}, err
	}

	if err := s.requireOwner(actor, question); err != nil {
		return dto.QuestionResponse{}, err
	}

	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) List(ctx context.Context, actor dto.AuthContext, payload dto.QuestionListRequest) (dto.QuestionListResponse, error) {
	if err := RequireRole(actor, models.RoleTeacher, models.RoleAdmin); err != nil {
		return dto.QuestionListResponse{}, err
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionListResponse{}, err
	}

	page := payload.Page
	if page <= 0 {
		page = 1
	}
	pageSize := payload.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	filter := repository.QuestionFilter{Page: page, PageSize: pageSize}
	if payload.Type != "" {
		questionType := payload.Type
		filter.Type = &questionType
	}
	// Owner-management views include inactive rows; admins see everything.
	if !actor.IsAdmin() {
		authorID := actor.UserID
		filter.AuthorID = &authorID
	}

	questions, total, err := s.questions.List(ctx, filter)
	if err != nil {
		return dto.QuestionListResponse{}, err
	}

	return dto.QuestionListResponse{
		Items:      dto.NewQuestionResponseSlice(questions),
		TotalItems: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

func (s *questionService) ListPublic(ctx context.Context, payload dto.QuestionListRequest) (dto.PublicQuestionListResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PublicQuestionListResponse{}, err
	}

	page := payload.Page
	if page <= 0 {
		page = 1
	}
	pageSize := payload.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	filter := repository.QuestionFilter{ActiveOnly: true, Page: page, PageSize: pageSize}
	if payload.Type != "" {
		questionType := payload.Type
		filter.Type = &questionType
	}

	questions, total, err := s.questions.List(ctx, filter)
	if err != nil {
		return dto.PublicQuestionListResponse{}, err
	}

	return dto.PublicQuestionListResponse{
		Items:      dto.NewPublicQuestionResponseSlice(questions),
		TotalItems: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

func (s *questionService) Update(ctx context.Context, actor dto.AuthContext, id uint, payload dto.QuestionUpdateRequest) (dto.QuestionResponse, error) {
	question, err := s.load(ctx, id)
	if err != nil {
		return dto.QuestionResponse{}, err
	}

	if err := s.requireOwner(actor, question); err != nil {
		return dto.QuestionResponse{}, err
	}

	if payload.ContentJSON != nil {
		content, err := s.sanitizeContent(question.Type, payload.ContentJSON)
		if err != nil {
			return dto.QuestionResponse{}, err
		}
		question.ContentJSON = content
	}
	if payload.AnswerKeyJSON != nil {
		question.AnswerKeyJSON = datatypes.JSON(payload.AnswerKeyJSON)
	}
	if payload.RubricJSON != nil {
		question.RubricJSON = datatypes.JSON(payload.RubricJSON)
	}
	if payload.IsActive != nil {
		question.IsActive = *payload.IsActive
	}

	if err := s.questions.Update(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.logger.Info().Uint("question_id", question.ID).Msg("question updated")

	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) Delete(ctx context.Context, actor dto.AuthContext, id uint) error {
	question, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.requireOwner(actor, question); err != nil {
		return err
	}

	question.IsActive = false
	if err := s.questions.Update(ctx, &question); err != nil {
		return err
	}

	s.logger.Info().Uint("question_id", question.ID).Msg("question deactivated")

	return nil
}

func (s *questionService) load(ctx context.Context, id uint) (models.Question, error) {
	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Question{}, ErrQuestionNotFound
		}
		return models.Question{}, err
	}
	return question, nil
}

func (s *questionService) requireOwner(actor dto.AuthContext, question models.Question) error {
	if actor.IsAdmin() || actor.UserID == question.AuthorID {
		return nil
	}
	return ErrForbidden
}

// sanitizeContent validates content against the per-type schema and strips
// unsafe HTML from the prompt and option texts.
func (s *questionService) sanitizeContent(questionType string, raw json.RawMessage) (datatypes.JSON, error) {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuestionContent, err)
	}

	schema, ok := s.schemas[questionType]
	if !ok {
		return nil, ErrInvalidQuestionContent
	}
	if err := schema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuestionContent, err)
	}

	content, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, ErrInvalidQuestionContent
	}

	if prompt, ok := content["prompt"].(string); ok {
		content["prompt"] = utils.SanitizeRichText(prompt)
	}
	if options, ok := content["options"].([]interface{}); ok {
		for _, entry := range options {
			if option, ok := entry.(map[string]interface{}); ok {
				if text, ok := option["text"].(string); ok {
					option["text"] = utils.SanitizeRichText(text)
				}
			}
		}
	}

	encoded, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}

	return datatypes.JSON(encoded), nil
}
