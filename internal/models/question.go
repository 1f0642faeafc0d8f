package models

import (
	"time"

	"gorm.io/datatypes"
)

// Question types supported by the bank.
const (
	QuestionSingleChoice   = "single_choice"
	QuestionMultipleChoice = "multiple_choice"
	QuestionFillBlank      = "fill_blank"
	QuestionShortAnswer    = "short_answer"
	QuestionEssay          = "essay"
)

// Question is an authored question bank entry. Content, answer key and rubric
// are JSON blobs whose shape depends on Type.
type Question struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	AuthorID      uint           `gorm:"not null;index" json:"author_id"`
	Type          string         `gorm:"size:32;not null" json:"type"`
	ContentJSON   datatypes.JSON `gorm:"type:json;not null" json:"content_json"`
	AnswerKeyJSON datatypes.JSON `gorm:"type:json" json:"answer_key_json,omitempty"`
	RubricJSON    datatypes.JSON `gorm:"type:json" json:"rubric_json,omitempty"`
	SchemaVersion int            `gorm:"not null;default:1" json:"schema_version"`
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ValidQuestionType reports whether the value belongs to the closed type set.
func ValidQuestionType(questionType string) bool {
	switch questionType {
	case QuestionSingleChoice, QuestionMultipleChoice, QuestionFillBlank, QuestionShortAnswer, QuestionEssay:
		return true
	}
	return false
}

// IsObjective reports whether the question type can be auto-scored.
func (q Question) IsObjective() bool {
	switch q.Type {
	case QuestionSingleChoice, QuestionMultipleChoice, QuestionFillBlank:
		return true
	}
	return false
}
