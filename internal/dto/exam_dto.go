package dto

import (
	"time"

	"github.com/noah-isme/examind-api/internal/models"
)

// ExamCreateRequest describes a new exam; it always starts as a draft.
type ExamCreateRequest struct {
	Title              string `json:"title" validate:"required,max=255"`
	Description        string `json:"description"`
	DurationMinutes    *int   `json:"duration_minutes" validate:"omitempty,gt=0"`
	Randomize          bool   `json:"randomize"`
	IsPublic           bool   `json:"is_public"`
	RequiredPlan       string `json:"required_plan" validate:"omitempty,oneof=free premium"`
	RequiredGradeLevel *int   `json:"required_grade_level" validate:"omitempty,gte=1,lte=12"`
}

// ExamUpdateRequest applies partial metadata edits; allowed only while draft.
type ExamUpdateRequest struct {
	Title              *string `json:"title" validate:"omitempty,max=255"`
	Description        *string `json:"description"`
	DurationMinutes    *int    `json:"duration_minutes" validate:"omitempty,gt=0"`
	Randomize          *bool   `json:"randomize"`
	IsPublic           *bool   `json:"is_public"`
	RequiredPlan       *string `json:"required_plan" validate:"omitempty,oneof=free premium"`
	RequiredGradeLevel *int    `json:"required_grade_level" validate:"omitempty,gte=1,lte=12"`
}

// ExamQuestionItem is one entry of a wholesale question-list replace.
type ExamQuestionItem struct {
	QuestionID uint    `json:"question_id" validate:"required,gt=0"`
	Points     float64 `json:"points" validate:"required,gt=0"`
}

// SetExamQuestionsRequest replaces the entire question list of a draft exam.
type SetExamQuestionsRequest struct {
	Items []ExamQuestionItem `json:"items" validate:"required,min=1,dive"`
}

// PublishExamRequest assigns the serving window at publish time.
type PublishExamRequest struct {
	StartAt time.Time `json:"start_at" validate:"required"`
	EndAt   time.Time `json:"end_at" validate:"required"`
}

// AssignStudentsRequest bulk-assigns students to a published exam.
type AssignStudentsRequest struct {
	StudentIDs []uint     `json:"student_ids" validate:"required,min=1,dive,gt=0"`
	DueAt      *time.Time `json:"due_at"`
}

// ExamResponse is the authoring/administrative view of an exam.
type ExamResponse struct {
	ID                 uint       `json:"id"`
	AuthorID           uint       `json:"author_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Status             string     `json:"status"`
	StartAt            *time.Time `json:"start_at"`
	EndAt              *time.Time `json:"end_at"`
	DurationMinutes    *int       `json:"duration_minutes"`
	Randomize          bool       `json:"randomize"`
	IsPublic           bool       `json:"is_public"`
	RequiredPlan       string     `json:"required_plan"`
	RequiredGradeLevel *int       `json:"required_grade_level"`
	TotalPoints        float64    `json:"total_points"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// AssignmentResponse is one exam/student assignment row.
type AssignmentResponse struct {
	ID         uint       `json:"id"`
	ExamID     uint       `json:"exam_id"`
	StudentID  uint       `json:"student_id"`
	AssignedAt time.Time  `json:"assigned_at"`
	DueAt      *time.Time `json:"due_at"`
}

// AssignResultResponse reports how many assignment rows were newly created.
type AssignResultResponse struct {
	Requested int `json:"requested"`
	Assigned  int `json:"assigned"`
}

// PaperQuestion is one served exam question; the answer key is present only
// for authors/admins requesting it explicitly.
type PaperQuestion struct {
	ExamQuestionID uint                   `json:"exam_question_id"`
	OrderIndex     int                    `json:"order_index"`
	Points         float64                `json:"points"`
	Question       PublicQuestionResponse `json:"question"`
	AnswerKeyJSON  interface{}            `json:"answer_key_json,omitempty"`
}

// PaperResponse is the servable form of a published exam.
type PaperResponse struct {
	ExamID          uint            `json:"exam_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	DurationMinutes *int            `json:"duration_minutes"`
	TotalPoints     float64         `json:"total_points"`
	Questions       []PaperQuestion `json:"questions"`
}

// NewExamResponse converts an Exam model into a DTO.
func NewExamResponse(model models.Exam) ExamResponse {
	return ExamResponse{
		ID:                 model.ID,
		AuthorID:           model.AuthorID,
		Title:              model.Title,
		Description:        model.Description,
		Status:             model.Status,
		StartAt:            model.StartAt,
		EndAt:              model.EndAt,
		DurationMinutes:    model.DurationMinutes,
		Randomize:          model.Randomize,
		IsPublic:           model.IsPublic,
		RequiredPlan:       model.RequiredPlan,
		RequiredGradeLevel: model.RequiredGradeLevel,
		TotalPoints:        model.TotalPoints,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}

// NewExamResponseSlice converts exam models into DTOs.
func NewExamResponseSlice(exams []models.Exam) []ExamResponse {
	responses := make([]ExamResponse, 0, len(exams))
	for _, exam := range exams {
		responses = append(responses, NewExamResponse(exam))
	}

	return responses
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(assignments []models.ExamAssignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, AssignmentResponse{
			ID:         assignment.ID,
			ExamID:     assignment.ExamID,
			StudentID:  assignment.StudentID,
			AssignedAt: assignment.AssignedAt,
			DueAt:      assignment.DueAt,
		})
	}

	return responses
}
