package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/examind-api/internal/dto"
	"github.com/noah-isme/examind-api/internal/models"
	"github.com/noah-isme/examind-api/internal/repository"
)

type submissionFixture struct {
	svc      SubmissionService
	db       *gorm.DB
	exam     models.Exam
	choiceEQ models.ExamQuestion
	blankEQ  models.ExamQuestion
	essayEQ  models.ExamQuestion
	author   dto.AuthContext
	student  dto.AuthContext
}

// newSubmissionFixture seeds a public published exam with a 2-point single
// choice, a 3-point fill blank and a 5-point essay question.
func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()

	db := openTestDB(t)
	author := teacherContext(1)
	student := studentContext(20)

	exam := seedPublishedExam(t, db, author.UserID, true)
	require.NoError(t, db.Model(&models.Exam{}).Where("id = ?", exam.ID).Update("duration_minutes", 30).Error)
	exam.DurationMinutes = intPointer(30)

	choice := seedQuestion(t, db, author.UserID, models.QuestionSingleChoice, `{"prompt":"1+1?","options":[{"id":"A","text":"2"},{"id":"B","text":"3"}]}`, `"A"`)
	blank := seedQuestion(t, db, author.UserID, models.QuestionFillBlank, `{"prompt":"fruits","blanks":2}`, `[["apple","fruit"],["banana"]]`)
	essay := seedQuestion(t, db, author.UserID, models.QuestionEssay, `{"prompt":"discuss"}`, "")

	choiceEQ := models.ExamQuestion{ExamID: exam.ID, QuestionID: choice.ID, OrderIndex: 0, Points: 2}
	blankEQ := models.ExamQuestion{ExamID: exam.ID, QuestionID: blank.ID, OrderIndex: 1, Points: 3}
	essayEQ := models.ExamQuestion{ExamID: exam.ID, QuestionID: essay.ID, OrderIndex: 2, Points: 5}
	require.NoError(t, db.Create(&choiceEQ).Error)
	require.NoError(t, db.Create(&blankEQ).Error)
	require.NoError(t, db.Create(&essayEQ).Error)
	require.NoError(t, db.Model(&models.Exam{}).Where("id = ?", exam.ID).Update("total_points", 10.0).Error)

	svc := NewSubmissionService(
		repository.NewSubmissionRepository(db),
		repository.NewExamRepository(db),
		repository.NewAssignmentRepository(db),
		newTestValidator(),
		zerolog.Nop(),
	)

	return &submissionFixture{
		svc:      svc,
		db:       db,
		exam:     exam,
		choiceEQ: choiceEQ,
		blankEQ:  blankEQ,
		essayEQ:  essayEQ,
		author:   author,
		student:  student,
	}
}

func TestSubmissionServiceStartAndResume(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	first, err := f.svc.Start(ctx, f.student, f.exam.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusInProgress, first.Status)
	require.NotNil(t, first.DeadlineAt)

	require.NoError(t, f.svc.SaveAnswers(ctx, f.student, first.ID, dto.SaveAnswersRequest{
		Answers: []dto.AnswerItem{{ExamQuestionID: f.choiceEQ.ID, AnswerJSON: json.RawMessage(`"A"`)}},
	}))

	// Starting again resumes the same attempt with saved answers intact.
	resumed, err := f.svc.Start(ctx, f.student, f.exam.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, resumed.ID)

	detail, err := f.svc.Get(ctx, f.student, first.ID)
	require.NoError(t, err)
	require.Len(t, detail.Answers, 1)
	require.JSONEq(t, `"A"`, string(detail.Answers[0].AnswerJSON))
}

func TestSubmissionServiceStartGuards(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	// Only students start attempts.
	_, err := f.svc.Start(ctx, f.author, f.exam.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Start(ctx, f.student, 9999)
	require.ErrorIs(t, err, ErrExamNotFound)

	// Premium-gated exams reject free-plan students with a payment error.
	require.NoError(t, f.db.Model(&models.Exam{}).Where("id = ?", f.exam.ID).Update("required_plan", models.PlanPremium).Error)
	_, err = f.svc.Start(ctx, f.student, f.exam.ID)
	require.ErrorIs(t, err, ErrPlanRequired)

	premium := f.student
	premium.Plan = models.PlanPremium
	_, err = f.svc.Start(ctx, premium, f.exam.ID)
	require.NoError(t, err)
}

func TestSubmissionServiceStartRequiresAssignmentForPrivateExam(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Model(&models.Exam{}).Where("id = ?", f.exam.ID).Update("is_public", false).Error)

	_, err := f.svc.Start(ctx, f.student, f.exam.ID)
	require.ErrorIs(t, err, ErrNotAssigned)

	require.NoError(t, f.db.Create(&models.ExamAssignment{ExamID: f.exam.ID, StudentID: f.student.UserID, AssignedAt: f.exam.CreatedAt}).Error)

	_, err = f.svc.Start(ctx, f.student, f.exam.ID)
	require.NoError(t, err)
}

func TestSubmissionServiceSubmitAutoScores(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	started, err := f.svc.Start(ctx, f.student, f.exam.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.SaveAnswers(ctx, f.student, started.ID, dto.SaveAnswersRequest{
		Answers: []dto.AnswerItem{
			{ExamQuestionID: f.choiceEQ.ID, AnswerJSON: json.RawMessage(`"A"`)},
			{ExamQuestionID: f.blankEQ.ID, AnswerJSON: json.RawMessage(`["Fruit","grape"]`)},
			{ExamQuestionID: f.essayEQ.ID, AnswerJSON: json.RawMessage(`"my essay"`)},
		},
	}))

	submitted, err := f.svc.Submit(ctx, f.student, started.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, submitted.Status)
	// Correct choice earns 2; the fill blank misses one blank and earns 0; the
	// essay waits for manual grading.
	require.Equal(t, 2.0, submitted.ScoreAuto)
	require.Equal(t, 2.0, submitted.ScoreTotal)
	require.NotNil(t, submitted.SubmittedAt)

	// Finished attempts cannot be submitted again or restarted.
	_, err = f.svc.Submit(ctx, f.student, started.ID)
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = f.svc.Start(ctx, f.student, f.exam.ID)
	require.ErrorIs(t, err, ErrInvalidState)

	err = f.svc.SaveAnswers(ctx, f.student, started.ID, dto.SaveAnswersRequest{
		Answers: []dto.AnswerItem{{ExamQuestionID: f.choiceEQ.ID, AnswerJSON: json.RawMessage(`"B"`)}},
	})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestSubmissionServiceManualScore(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	started, err := f.svc.Start(ctx, f.student, f.exam.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.SaveAnswers(ctx, f.student, started.ID, dto.SaveAnswersRequest{
		Answers: []dto.AnswerItem{
			{ExamQuestionID: f.choiceEQ.ID, AnswerJSON: json.RawMessage(`"A"`)},
			{ExamQuestionID: f.essayEQ.ID, AnswerJSON: json.RawMessage(`"my essay"`)},
		},
	}))

	// Grading an in-progress attempt is rejected.
	feedback := "well argued"
	_, err = f.svc.ManualScore(ctx, f.author, started.ID, dto.ManualScoreRequest{
		Items: []dto.ScoreOverrideItem{{ExamQuestionID: f.essayEQ.ID, Score: 4}},
	})
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = f.svc.Submit(ctx, f.student, started.ID)
	require.NoError(t, err)

	// Only the exam author or an admin may grade.
	_, err = f.svc.ManualScore(ctx, teacherContext(99), started.ID, dto.ManualScoreRequest{
		Items: []dto.ScoreOverrideItem{{ExamQuestionID: f.essayEQ.ID, Score: 4}},
	})
	require.ErrorIs(t, err, ErrForbidden)

	graded, err := f.svc.ManualScore(ctx, f.author, started.ID, dto.ManualScoreRequest{
		Items:    []dto.ScoreOverrideItem{{ExamQuestionID: f.essayEQ.ID, Score: 4}},
		Feedback: &feedback,
	})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, graded.Status)
	require.Equal(t, 2.0, graded.ScoreAuto)
	require.Equal(t, 4.0, graded.ScoreManual)
	require.Equal(t, 6.0, graded.ScoreTotal)
	require.Equal(t, feedback, graded.Feedback)

	// A partial re-grade keeps earlier manual scores in the total.
	regraded, err := f.svc.ManualScore(ctx, f.author, started.ID, dto.ManualScoreRequest{
		Items: []dto.ScoreOverrideItem{{ExamQuestionID: f.blankEQ.ID, Score: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, 5.0, regraded.ScoreManual)
	require.Equal(t, 7.0, regraded.ScoreTotal)

	// Overrides must reference questions on the paper.
	_, err = f.svc.ManualScore(ctx, f.author, started.ID, dto.ManualScoreRequest{
		Items: []dto.ScoreOverrideItem{{ExamQuestionID: 9999, Score: 1}},
	})
	require.ErrorIs(t, err, ErrExamQuestionNotFound)
}

func TestSubmissionServiceVisibility(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	started, err := f.svc.Start(ctx, f.student, f.exam.ID)
	require.NoError(t, err)

	// Another student cannot read the attempt; the author and admins can.
	_, err = f.svc.Get(ctx, studentContext(77), started.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Get(ctx, f.author, started.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, adminContext(3), started.ID)
	require.NoError(t, err)

	status, err := f.svc.Status(ctx, f.student, started.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusInProgress, status.Status)
	require.NotNil(t, status.RemainingSeconds)
	require.Positive(t, *status.RemainingSeconds)

	// Listing attempts is an author/admin operation.
	_, err = f.svc.ListByExam(ctx, f.student, f.exam.ID)
	require.ErrorIs(t, err, ErrForbidden)

	listed, err := f.svc.ListByExam(ctx, f.author, f.exam.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}
