package models

import "time"

// Exam lifecycle states. Transitions are forward-only.
const (
	ExamStatusDraft     = "draft"
	ExamStatusPublished = "published"
	ExamStatusClosed    = "closed"
)

// Exam is an authored, orderable collection of questions with point weights.
type Exam struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	AuthorID           uint       `gorm:"not null;index" json:"author_id"`
	Title              string     `gorm:"size:255;not null" json:"title"`
	Description        string     `gorm:"type:text" json:"description"`
	Status             string     `gorm:"size:16;not null;default:draft" json:"status"`
	StartAt            *time.Time `json:"start_at"`
	EndAt              *time.Time `json:"end_at"`
	DurationMinutes    *int       `json:"duration_minutes"`
	Randomize          bool       `gorm:"not null;default:false" json:"randomize"`
	IsPublic           bool       `gorm:"not null;default:false" json:"is_public"`
	RequiredPlan       string     `gorm:"size:32" json:"required_plan"`
	RequiredGradeLevel *int       `json:"required_grade_level"`
	TotalPoints        float64    `gorm:"not null;default:0" json:"total_points"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// IsDraft reports whether the exam is still editable.
func (e Exam) IsDraft() bool {
	return e.Status == ExamStatusDraft
}

// WindowContains reports whether the reference time falls inside the exam
// window. Missing bounds are treated as open ended.
func (e Exam) WindowContains(reference time.Time) bool {
	if e.StartAt != nil && reference.Before(*e.StartAt) {
		return false
	}
	if e.EndAt != nil && reference.After(*e.EndAt) {
		return false
	}
	return true
}

// ExamQuestion joins an exam to a question with serving order and point weight.
type ExamQuestion struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ExamID     uint      `gorm:"not null;uniqueIndex:idx_exam_question" json:"exam_id"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_exam_question" json:"question_id"`
	OrderIndex int       `gorm:"not null" json:"order_index"`
	Points     float64   `gorm:"not null" json:"points"`
	CreatedAt  time.Time `json:"created_at"`
	Question   Question  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"question"`
}

// ExamAssignment grants one student access to one exam. At most one row per
// (exam, student) pair.
type ExamAssignment struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ExamID     uint       `gorm:"not null;uniqueIndex:idx_exam_student" json:"exam_id"`
	StudentID  uint       `gorm:"not null;uniqueIndex:idx_exam_student" json:"student_id"`
	AssignedAt time.Time  `gorm:"not null" json:"assigned_at"`
	DueAt      *time.Time `json:"due_at"`
}
