package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission lifecycle states. Transitions are forward-only.
const (
	SubmissionStatusInProgress = "in_progress"
	SubmissionStatusSubmitted  = "submitted"
	SubmissionStatusGraded     = "graded"
)

// Submission is one student's attempt at one exam. The schema allows at most
// one submission per (exam, student) pair.
type Submission struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ExamID      uint       `gorm:"not null;uniqueIndex:idx_submission_exam_student" json:"exam_id"`
	StudentID   uint       `gorm:"not null;uniqueIndex:idx_submission_exam_student" json:"student_id"`
	Status      string     `gorm:"size:16;not null;default:in_progress" json:"status"`
	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	DeadlineAt  *time.Time `json:"deadline_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	ScoreAuto   float64    `gorm:"not null;default:0" json:"score_auto"`
	ScoreManual float64    `gorm:"not null;default:0" json:"score_manual"`
	ScoreTotal  float64    `gorm:"not null;default:0" json:"score_total"`
	Feedback    string     `gorm:"type:text" json:"feedback"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsInProgress reports whether answers may still be saved or submitted.
func (s Submission) IsInProgress() bool {
	return s.Status == SubmissionStatusInProgress
}

// SubmissionAnswer holds one saved answer per (submission, exam question).
// The answer payload is stored verbatim; shape is never validated on save.
type SubmissionAnswer struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	SubmissionID   uint           `gorm:"not null;uniqueIndex:idx_submission_answer" json:"submission_id"`
	ExamQuestionID uint           `gorm:"not null;uniqueIndex:idx_submission_answer" json:"exam_question_id"`
	AnswerJSON     datatypes.JSON `gorm:"type:json" json:"answer_json"`
	Score          float64        `gorm:"not null;default:0" json:"score"`
	IsAutoScored   bool           `gorm:"not null;default:false" json:"is_auto_scored"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
