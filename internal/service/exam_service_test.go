package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/examind-api/internal/dto"
	"github.com/noah-isme/examind-api/internal/models"
	"github.com/noah-isme/examind-api/internal/repository"
)

func newExamService(t *testing.T) (ExamService, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()

	db := openTestDB(t)
	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	svc := NewExamService(
		repository.NewExamRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewQuestionRepository(db),
		newTestValidator(),
		redisClient,
		time.Minute,
		zerolog.Nop(),
	)

	return svc, db, mini
}

func TestExamServiceLifecycle(t *testing.T) {
	svc, db, _ := newExamService(t)
	ctx := context.Background()
	author := teacherContext(1)

	exam, err := svc.Create(ctx, author, dto.ExamCreateRequest{Title: "Midterm", DurationMinutes: intPointer(60)})
	require.NoError(t, err)
	require.Equal(t, models.ExamStatusDraft, exam.Status)

	q1 := seedQuestion(t, db, author.UserID, models.QuestionSingleChoice, `{"prompt":"1+1?","options":[{"id":"A","text":"2"},{"id":"B","text":"3"}]}`, `"A"`)
	q2 := seedQuestion(t, db, author.UserID, models.QuestionFillBlank, `{"prompt":"name a fruit","blanks":1}`, `[["apple"]]`)

	updated, err := svc.SetQuestions(ctx, author, exam.ID, dto.SetExamQuestionsRequest{
		Items: []dto.ExamQuestionItem{
			{QuestionID: q1.ID, Points: 2},
			{QuestionID: q2.ID, Points: 3},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 5.0, updated.TotalPoints)

	// Replacing the list is wholesale, not additive.
	updated, err = svc.SetQuestions(ctx, author, exam.ID, dto.SetExamQuestionsRequest{
		Items: []dto.ExamQuestionItem{{QuestionID: q1.ID, Points: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, 4.0, updated.TotalPoints)

	var count int64
	require.NoError(t, db.Model(&models.ExamQuestion{}).Where("exam_id = ?", exam.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)

	// Publishing requires a forward window.
	now := time.Now().UTC()
	_, err = svc.Publish(ctx, author, exam.ID, dto.PublishExamRequest{StartAt: now.Add(time.Hour), EndAt: now})
	require.ErrorIs(t, err, ErrInvalidWindow)

	published, err := svc.Publish(ctx, author, exam.ID, dto.PublishExamRequest{StartAt: now.Add(-time.Hour), EndAt: now.Add(time.Hour)})
	require.NoError(t, err)
	require.Equal(t, models.ExamStatusPublished, published.Status)

	// Draft-only operations are rejected after publish.
	_, err = svc.Publish(ctx, author, exam.ID, dto.PublishExamRequest{StartAt: now, EndAt: now.Add(time.Hour)})
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = svc.Update(ctx, author, exam.ID, dto.ExamUpdateRequest{})
	require.ErrorIs(t, err, ErrInvalidState)

	closed, err := svc.Close(ctx, author, exam.ID)
	require.NoError(t, err)
	require.Equal(t, models.ExamStatusClosed, closed.Status)

	// Close is idempotent.
	closed, err = svc.Close(ctx, author, exam.ID)
	require.NoError(t, err)
	require.Equal(t, models.ExamStatusClosed, closed.Status)
}

func TestExamServiceSetQuestionsRejectsUnknownIDs(t *testing.T) {
	svc, db, _ := newExamService(t)
	ctx := context.Background()
	author := teacherContext(1)

	exam, err := svc.Create(ctx, author, dto.ExamCreateRequest{Title: "Quiz"})
	require.NoError(t, err)

	q1 := seedQuestion(t, db, author.UserID, models.QuestionSingleChoice, `{"prompt":"?","options":[{"id":"A","text":"a"},{"id":"B","text":"b"}]}`, `"A"`)

	_, err = svc.SetQuestions(ctx, author, exam.ID, dto.SetExamQuestionsRequest{
		Items: []dto.ExamQuestionItem{
			{QuestionID: q1.ID, Points: 1},
			{QuestionID: 9999, Points: 1},
		},
	})
	require.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestExamServiceOwnershipGuard(t *testing.T) {
	svc, _, _ := newExamService(t)
	ctx := context.Background()

	exam, err := svc.Create(ctx, teacherContext(1), dto.ExamCreateRequest{Title: "Owned"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, teacherContext(2), exam.ID, dto.ExamUpdateRequest{})
	require.ErrorIs(t, err, ErrForbidden)

	// Admins may edit any exam.
	_, err = svc.Update(ctx, adminContext(3), exam.ID, dto.ExamUpdateRequest{})
	require.NoError(t, err)

	// Students may only create submissions, not exams.
	_, err = svc.Create(ctx, studentContext(4), dto.ExamCreateRequest{Title: "Nope"})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestExamServiceAssignDeduplicates(t *testing.T) {
	svc, db, _ := newExamService(t)
	ctx := context.Background()
	author := teacherContext(1)

	exam := seedPublishedExam(t, db, author.UserID, false)

	first, err := svc.Assign(ctx, author, exam.ID, dto.AssignStudentsRequest{StudentIDs: []uint{10, 11}})
	require.NoError(t, err)
	require.Equal(t, 2, first.Requested)
	require.Equal(t, 2, first.Assigned)

	second, err := svc.Assign(ctx, author, exam.ID, dto.AssignStudentsRequest{StudentIDs: []uint{11, 12}})
	require.NoError(t, err)
	require.Equal(t, 2, second.Requested)
	require.Equal(t, 1, second.Assigned)

	assignments, err := svc.ListAssignments(ctx, author, exam.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 3)
}

func TestExamServiceAssignRequiresPublished(t *testing.T) {
	svc, _, _ := newExamService(t)
	ctx := context.Background()
	author := teacherContext(1)

	exam, err := svc.Create(ctx, author, dto.ExamCreateRequest{Title: "Draft"})
	require.NoError(t, err)

	_, err = svc.Assign(ctx, author, exam.ID, dto.AssignStudentsRequest{StudentIDs: []uint{10}})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestExamServicePaperCaching(t *testing.T) {
	svc, db, mini := newExamService(t)
	ctx := context.Background()
	author := teacherContext(1)
	student := studentContext(20)

	exam := seedPublishedExam(t, db, author.UserID, true)
	question := seedQuestion(t, db, author.UserID, models.QuestionSingleChoice, `{"prompt":"?","options":[{"id":"A","text":"a"},{"id":"B","text":"b"}]}`, `"A"`)
	require.NoError(t, db.Create(&models.ExamQuestion{ExamID: exam.ID, QuestionID: question.ID, OrderIndex: 0, Points: 2}).Error)

	paper, err := svc.GetPaper(ctx, student, exam.ID, false)
	require.NoError(t, err)
	require.Len(t, paper.Questions, 1)
	require.Nil(t, paper.Questions[0].AnswerKeyJSON)
	require.True(t, mini.Exists("paper:exam:"+uintString(exam.ID)))

	// Second read is served from cache even if the row changes underneath.
	require.NoError(t, db.Model(&models.Exam{}).Where("id = ?", exam.ID).Update("title", "Changed").Error)
	cached, err := svc.GetPaper(ctx, student, exam.ID, false)
	require.NoError(t, err)
	require.Equal(t, paper.Title, cached.Title)

	// Authors requesting keys bypass the cache and see the answer key.
	withKeys, err := svc.GetPaper(ctx, author, exam.ID, true)
	require.NoError(t, err)
	require.NotNil(t, withKeys.Questions[0].AnswerKeyJSON)
}

func TestExamServicePaperRequiresAssignment(t *testing.T) {
	svc, db, _ := newExamService(t)
	ctx := context.Background()
	author := teacherContext(1)

	exam := seedPublishedExam(t, db, author.UserID, false)

	_, err := svc.GetPaper(ctx, studentContext(30), exam.ID, false)
	require.ErrorIs(t, err, ErrNotAssigned)

	_, err = svc.Assign(ctx, author, exam.ID, dto.AssignStudentsRequest{StudentIDs: []uint{30}})
	require.NoError(t, err)

	_, err = svc.GetPaper(ctx, studentContext(30), exam.ID, false)
	require.NoError(t, err)
}

func TestExamServicePublicListing(t *testing.T) {
	svc, db, _ := newExamService(t)
	ctx := context.Background()

	public := seedPublishedExam(t, db, 1, true)
	seedPublishedExam(t, db, 1, false)

	exams, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, exams, 1)
	require.Equal(t, public.ID, exams[0].ID)

	_, err = svc.GetPublic(ctx, public.ID)
	require.NoError(t, err)
}
