package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/examind-api/internal/dto"
	"github.com/noah-isme/examind-api/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.UserRole{},
		&models.UserProfile{},
		&models.Question{},
		&models.Exam{},
		&models.ExamQuestion{},
		&models.ExamAssignment{},
		&models.Submission{},
		&models.SubmissionAnswer{},
	))

	return db
}

func newTestValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func teacherContext(userID uint) dto.AuthContext {
	return dto.AuthContext{UserID: userID, Role: models.RoleTeacher, Plan: models.PlanFree}
}

func studentContext(userID uint) dto.AuthContext {
	return dto.AuthContext{UserID: userID, Role: models.RoleStudent, Plan: models.PlanFree}
}

func adminContext(userID uint) dto.AuthContext {
	return dto.AuthContext{UserID: userID, Role: models.RoleAdmin, Plan: models.PlanPremium}
}

func seedQuestion(t *testing.T, db *gorm.DB, authorID uint, questionType, content, answerKey string) models.Question {
	t.Helper()

	question := models.Question{
		AuthorID:      authorID,
		Type:          questionType,
		ContentJSON:   datatypes.JSON(content),
		SchemaVersion: 1,
		IsActive:      true,
	}
	if answerKey != "" {
		question.AnswerKeyJSON = datatypes.JSON(answerKey)
	}
	require.NoError(t, db.Create(&question).Error)

	return question
}

func seedPublishedExam(t *testing.T, db *gorm.DB, authorID uint, isPublic bool) models.Exam {
	t.Helper()

	now := time.Now().UTC()
	startAt := now.Add(-time.Hour)
	endAt := now.Add(time.Hour)
	exam := models.Exam{
		AuthorID: authorID,
		Title:    "Published Exam",
		Status:   models.ExamStatusPublished,
		StartAt:  &startAt,
		EndAt:    &endAt,
		IsPublic: isPublic,
	}
	require.NoError(t, db.Create(&exam).Error)

	return exam
}

func intPointer(v int) *int {
	return &v
}

func uintString(v uint) string {
	return fmt.Sprintf("%d", v)
}
