package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/examind-api/internal/models"
)

// QuestionCreateRequest describes a new question bank entry.
type QuestionCreateRequest struct {
	Type          string          `json:"type" validate:"required,oneof=single_choice multiple_choice fill_blank short_answer essay"`
	ContentJSON   json.RawMessage `json:"content_json" validate:"required"`
	AnswerKeyJSON json.RawMessage `json:"answer_key_json"`
	RubricJSON    json.RawMessage `json:"rubric_json"`
}

// QuestionUpdateRequest applies partial field replacement; nil means leave
// unchanged. Type is immutable after creation.
type QuestionUpdateRequest struct {
	ContentJSON   json.RawMessage `json:"content_json"`
	AnswerKeyJSON json.RawMessage `json:"answer_key_json"`
	RubricJSON    json.RawMessage `json:"rubric_json"`
	IsActive      *bool           `json:"is_active"`
}

// QuestionListRequest describes listing filters.
type QuestionListRequest struct {
	Type     string `query:"type" validate:"omitempty,oneof=single_choice multiple_choice fill_blank short_answer essay"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// QuestionResponse is returned to the authoring teacher or admin.
type QuestionResponse struct {
	ID            uint            `json:"id"`
	AuthorID      uint            `json:"author_id"`
	Type          string          `json:"type"`
	ContentJSON   json.RawMessage `json:"content_json"`
	AnswerKeyJSON json.RawMessage `json:"answer_key_json,omitempty"`
	RubricJSON    json.RawMessage `json:"rubric_json,omitempty"`
	SchemaVersion int             `json:"schema_version"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PublicQuestionResponse strips the answer key and rubric for student views.
type PublicQuestionResponse struct {
	ID          uint            `json:"id"`
	Type        string          `json:"type"`
	ContentJSON json.RawMessage `json:"content_json"`
}

// QuestionListResponse wraps a page of questions.
type QuestionListResponse struct {
	Items      []QuestionResponse `json:"items"`
	TotalItems int64              `json:"total_items"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
}

// PublicQuestionListResponse wraps a page of key-stripped questions.
type PublicQuestionListResponse struct {
	Items      []PublicQuestionResponse `json:"items"`
	TotalItems int64                    `json:"total_items"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"page_size"`
}

// NewQuestionResponse converts a Question model into a DTO.
func NewQuestionResponse(model models.Question) QuestionResponse {
	return QuestionResponse{
		ID:            model.ID,
		AuthorID:      model.AuthorID,
		Type:          model.Type,
		ContentJSON:   json.RawMessage(model.ContentJSON),
		AnswerKeyJSON: json.RawMessage(model.AnswerKeyJSON),
		RubricJSON:    json.RawMessage(model.RubricJSON),
		SchemaVersion: model.SchemaVersion,
		IsActive:      model.IsActive,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewPublicQuestionResponse converts a Question into its key-stripped form.
func NewPublicQuestionResponse(model models.Question) PublicQuestionResponse {
	return PublicQuestionResponse{
		ID:          model.ID,
		Type:        model.Type,
		ContentJSON: json.RawMessage(model.ContentJSON),
	}
}

// NewPublicQuestionResponseSlice converts questions into their key-stripped forms.
func NewPublicQuestionResponseSlice(questions []models.Question) []PublicQuestionResponse {
	responses := make([]PublicQuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, NewPublicQuestionResponse(question))
	}

	return responses
}

// NewQuestionResponseSlice converts question models into DTOs.
func NewQuestionResponseSlice(questions []models.Question) []QuestionResponse {
	responses := make([]QuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, NewQuestionResponse(question))
	}

	return responses
}
