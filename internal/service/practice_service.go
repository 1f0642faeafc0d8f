package service

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/examind-api/internal/dto"
	"github.com/noah-isme/examind-api/internal/repository"
	"github.com/noah-isme/examind-api/internal/scoring"
)

// PracticeService serves ungraded practice papers and scores them statelessly.
type PracticeService interface {
	DrawPaper(ctx context.Context, payload dto.PracticePaperRequest) (dto.PracticePaperResponse, error)
	Submit(ctx context.Context, payload dto.PracticeSubmitRequest) (dto.PracticeResultResponse, error)
}

type practiceService struct {
	questions repository.QuestionRepository
	validator *validator.Validate
	drawSize  int
	logger    zerolog.Logger
}

// NewPracticeService constructs a PracticeService instance.
func NewPracticeService(questions repository.QuestionRepository, validate *validator.Validate, drawSize int, logger zerolog.Logger) PracticeService {
	if drawSize <= 0 {
		drawSize = 10
	}

	return &practiceService{
		questions: questions,
		validator: validate,
		drawSize:  drawSize,
		logger:    logger.With().Str("component", "practice_service").Logger(),
	}
}

func (s *practiceService) DrawPaper(ctx context.Context, payload dto.PracticePaperRequest) (dto.PracticePaperResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PracticePaperResponse{}, err
	}

	limit := payload.Limit
	if limit <= 0 {
		limit = s.drawSize
	}

	questions, err := s.questions.ListRandomObjective(ctx, payload.Type, limit)
	if err != nil {
		return dto.PracticePaperResponse{}, err
	}

	return dto.NewPracticePaperResponse(questions), nil
}

// Submit scores the supplied answers against stored keys and returns per-item
// correctness. Nothing is persisted; unknown question ids are reported as
// unanswered rather than failing the whole run.
func (s *practiceService) Submit(ctx context.Context, payload dto.PracticeSubmitRequest) (dto.PracticeResultResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PracticeResultResponse{}, err
	}

	ids := make([]uint, 0, len(payload.Answers))
	for _, item := range payload.Answers {
		ids = append(ids, item.QuestionID)
	}

	questions, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return dto.PracticeResultResponse{}, err
	}

	byID := make(map[uint]int, len(questions))
	for index, question := range questions {
		byID[question.ID] = index
	}

	result := dto.PracticeResultResponse{
		Items:      make([]dto.PracticeItemResult, 0, len(payload.Answers)),
		TotalItems: len(payload.Answers),
	}

	for _, item := range payload.Answers {
		itemResult := dto.PracticeItemResult{QuestionID: item.QuestionID}

		if index, ok := byID[item.QuestionID]; ok {
			question := questions[index]
			scored := scoring.Score(question.Type, json.RawMessage(question.AnswerKeyJSON), item.AnswerJSON, 1)
			itemResult.Answered = scored.Answered
			itemResult.Correct = scored.Correct
			if scored.Correct {
				result.CorrectItems++
			}
		}

		result.Items = append(result.Items, itemResult)
	}

	return result, nil
}
