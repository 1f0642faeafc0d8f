package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/examind-api/internal/dto"
	"github.com/noah-isme/examind-api/internal/models"
	"github.com/noah-isme/examind-api/internal/repository"
)

func TestPracticeServiceDrawPaper(t *testing.T) {
	db := openTestDB(t)
	svc := NewPracticeService(repository.NewQuestionRepository(db), newTestValidator(), 10, zerolog.Nop())
	ctx := context.Background()

	seedQuestion(t, db, 1, models.QuestionSingleChoice, `{"prompt":"a","options":[{"id":"A","text":"1"},{"id":"B","text":"2"}]}`, `"A"`)
	seedQuestion(t, db, 1, models.QuestionFillBlank, `{"prompt":"b","blanks":1}`, `[["x"]]`)
	seedQuestion(t, db, 1, models.QuestionEssay, `{"prompt":"c"}`, "")

	paper, err := svc.DrawPaper(ctx, dto.PracticePaperRequest{})
	require.NoError(t, err)
	// Essays are never drawn; practice is objective-only.
	require.Len(t, paper.Questions, 2)
	for _, question := range paper.Questions {
		require.NotEqual(t, models.QuestionEssay, question.Type)
	}

	filtered, err := svc.DrawPaper(ctx, dto.PracticePaperRequest{Type: models.QuestionFillBlank, Limit: 5})
	require.NoError(t, err)
	require.Len(t, filtered.Questions, 1)
	require.Equal(t, models.QuestionFillBlank, filtered.Questions[0].Type)
}

func TestPracticeServiceSubmitScoresStatelessly(t *testing.T) {
	db := openTestDB(t)
	svc := NewPracticeService(repository.NewQuestionRepository(db), newTestValidator(), 10, zerolog.Nop())
	ctx := context.Background()

	choice := seedQuestion(t, db, 1, models.QuestionSingleChoice, `{"prompt":"a","options":[{"id":"A","text":"1"},{"id":"B","text":"2"}]}`, `"A"`)
	blank := seedQuestion(t, db, 1, models.QuestionFillBlank, `{"prompt":"b","blanks":1}`, `[["apple","fruit"]]`)

	result, err := svc.Submit(ctx, dto.PracticeSubmitRequest{
		Answers: []dto.PracticeAnswerItem{
			{QuestionID: choice.ID, AnswerJSON: json.RawMessage(`"B"`)},
			{QuestionID: blank.ID, AnswerJSON: json.RawMessage(`["FRUIT"]`)},
			{QuestionID: 9999, AnswerJSON: json.RawMessage(`"A"`)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 3, result.TotalItems)
	require.Equal(t, 1, result.CorrectItems)

	require.True(t, result.Items[0].Answered)
	require.False(t, result.Items[0].Correct)
	require.True(t, result.Items[1].Correct)
	// Unknown ids are reported unanswered instead of failing the run.
	require.False(t, result.Items[2].Answered)

	// Nothing persisted: no submissions or answers are written.
	var count int64
	require.NoError(t, db.Model(&models.Submission{}).Count(&count).Error)
	require.Zero(t, count)
}
