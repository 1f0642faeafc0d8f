package dto

import (
	"encoding/json"

	"github.com/noah-isme/examind-api/internal/models"
)

// PracticePaperRequest draws a random set of objective questions.
type PracticePaperRequest struct {
	Type  string `query:"type" validate:"omitempty,oneof=single_choice multiple_choice fill_blank"`
	Limit int    `query:"limit" validate:"omitempty,gte=1,lte=50"`
}

// PracticeAnswerItem pairs a drawn question with the submitted answer.
type PracticeAnswerItem struct {
	QuestionID uint            `json:"question_id" validate:"required,gt=0"`
	AnswerJSON json.RawMessage `json:"answer_json"`
}

// PracticeSubmitRequest scores answers statelessly; nothing is persisted.
type PracticeSubmitRequest struct {
	Answers []PracticeAnswerItem `json:"answers" validate:"required,min=1,dive"`
}

// PracticeItemResult reports per-question correctness.
type PracticeItemResult struct {
	QuestionID uint `json:"question_id"`
	Answered   bool `json:"answered"`
	Correct    bool `json:"correct"`
}

// PracticeResultResponse aggregates a practice run.
type PracticeResultResponse struct {
	Items        []PracticeItemResult `json:"items"`
	TotalItems   int                  `json:"total_items"`
	CorrectItems int                  `json:"correct_items"`
}

// PracticePaperResponse is a drawn practice paper, keys stripped.
type PracticePaperResponse struct {
	Questions []PublicQuestionResponse `json:"questions"`
}

// NewPracticePaperResponse converts drawn questions into their public form.
func NewPracticePaperResponse(questions []models.Question) PracticePaperResponse {
	items := make([]PublicQuestionResponse, 0, len(questions))
	for _, question := range questions {
		items = append(items, NewPublicQuestionResponse(question))
	}

	return PracticePaperResponse{Questions: items}
}
