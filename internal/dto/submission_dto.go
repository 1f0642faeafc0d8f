package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/examind-api/internal/models"
)

// AnswerItem is one saved answer; the payload is stored verbatim.
type AnswerItem struct {
	ExamQuestionID uint            `json:"exam_question_id" validate:"required,gt=0"`
	AnswerJSON     json.RawMessage `json:"answer_json"`
}

// SaveAnswersRequest upserts in-progress answers.
type SaveAnswersRequest struct {
	Answers []AnswerItem `json:"answers" validate:"required,min=1,dive"`
}

// ScoreOverrideItem is one manual score supplied by the grading teacher.
type ScoreOverrideItem struct {
	ExamQuestionID uint    `json:"exam_question_id" validate:"required,gt=0"`
	Score          float64 `json:"score" validate:"gte=0"`
}

// ManualScoreRequest applies teacher overrides to a submitted attempt.
type ManualScoreRequest struct {
	Items    []ScoreOverrideItem `json:"items" validate:"required,min=1,dive"`
	Feedback *string             `json:"feedback"`
}

// SubmissionResponse is the detail view of an attempt.
type SubmissionResponse struct {
	ID          uint             `json:"id"`
	ExamID      uint             `json:"exam_id"`
	StudentID   uint             `json:"student_id"`
	Status      string           `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	DeadlineAt  *time.Time       `json:"deadline_at"`
	SubmittedAt *time.Time       `json:"submitted_at"`
	ScoreAuto   float64          `json:"score_auto"`
	ScoreManual float64          `json:"score_manual"`
	ScoreTotal  float64          `json:"score_total"`
	Feedback    string           `json:"feedback"`
	Answers     []AnswerResponse `json:"answers,omitempty"`
}

// AnswerResponse is one stored answer with its per-item score.
type AnswerResponse struct {
	ExamQuestionID uint            `json:"exam_question_id"`
	AnswerJSON     json.RawMessage `json:"answer_json"`
	Score          float64         `json:"score"`
	IsAutoScored   bool            `json:"is_auto_scored"`
}

// SubmissionStatusResponse is the lightweight polling view used while taking
// an exam.
type SubmissionStatusResponse struct {
	ID               uint       `json:"id"`
	Status           string     `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	DeadlineAt       *time.Time `json:"deadline_at"`
	RemainingSeconds *int64     `json:"remaining_seconds,omitempty"`
	ScoreTotal       float64    `json:"score_total"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission, answers []models.SubmissionAnswer) SubmissionResponse {
	response := SubmissionResponse{
		ID:          model.ID,
		ExamID:      model.ExamID,
		StudentID:   model.StudentID,
		Status:      model.Status,
		StartedAt:   model.StartedAt,
		DeadlineAt:  model.DeadlineAt,
		SubmittedAt: model.SubmittedAt,
		ScoreAuto:   model.ScoreAuto,
		ScoreManual: model.ScoreManual,
		ScoreTotal:  model.ScoreTotal,
		Feedback:    model.Feedback,
	}

	if len(answers) > 0 {
		items := make([]AnswerResponse, 0, len(answers))
		for _, answer := range answers {
			items = append(items, AnswerResponse{
				ExamQuestionID: answer.ExamQuestionID,
				AnswerJSON:     json.RawMessage(answer.AnswerJSON),
				Score:          answer.Score,
				IsAutoScored:   answer.IsAutoScored,
			})
		}
		response.Answers = items
	}

	return response
}

// NewSubmissionStatusResponse converts a Submission into its polling view.
func NewSubmissionStatusResponse(model models.Submission, reference time.Time) SubmissionStatusResponse {
	response := SubmissionStatusResponse{
		ID:         model.ID,
		Status:     model.Status,
		StartedAt:  model.StartedAt,
		DeadlineAt: model.DeadlineAt,
		ScoreTotal: model.ScoreTotal,
	}

	if model.DeadlineAt != nil && model.IsInProgress() {
		remaining := int64(model.DeadlineAt.Sub(reference).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		response.RemainingSeconds = &remaining
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs without
// answer details.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission, nil))
	}

	return responses
}
