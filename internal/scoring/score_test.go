package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/examind-api/internal/models"
)

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

func TestScoreSingleChoice(t *testing.T) {
	cases := []struct {
		name    string
		key     string
		answer  string
		correct bool
	}{
		{"exact match", `"A"`, `"A"`, true},
		{"wrong option", `"A"`, `"B"`, false},
		{"numeric key matches string form", `2`, `2`, true},
		{"case sensitive options", `"a"`, `"A"`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Score(models.QuestionSingleChoice, raw(tc.key), raw(tc.answer), 3)
			require.True(t, result.Answered)
			require.Equal(t, tc.correct, result.Correct)
			if tc.correct {
				require.Equal(t, 3.0, result.Awarded)
			} else {
				require.Zero(t, result.Awarded)
			}
		})
	}
}

func TestScoreSingleChoiceUnanswered(t *testing.T) {
	result := Score(models.QuestionSingleChoice, raw(`"A"`), nil, 3)
	require.False(t, result.Answered)
	require.Zero(t, result.Awarded)
}

func TestScoreMultipleChoiceOrderIndependent(t *testing.T) {
	result := Score(models.QuestionMultipleChoice, raw(`["B","C"]`), raw(`["C","B"]`), 4)
	require.True(t, result.Correct)
	require.Equal(t, 4.0, result.Awarded)
}

func TestScoreMultipleChoiceNoPartialCredit(t *testing.T) {
	result := Score(models.QuestionMultipleChoice, raw(`["B","C"]`), raw(`["B"]`), 4)
	require.True(t, result.Answered)
	require.False(t, result.Correct)
	require.Zero(t, result.Awarded)
}

func TestScoreMultipleChoiceSupersetScoresZero(t *testing.T) {
	result := Score(models.QuestionMultipleChoice, raw(`["B","C"]`), raw(`["A","B","C"]`), 4)
	require.False(t, result.Correct)
}

func TestScoreFillBlankSynonymsAndCase(t *testing.T) {
	key := raw(`[["apple","fruit"],"banana"]`)
	result := Score(models.QuestionFillBlank, key, raw(`["Fruit","Banana"]`), 5)
	require.True(t, result.Correct)
	require.Equal(t, 5.0, result.Awarded)
}

func TestScoreFillBlankAllOrNothing(t *testing.T) {
	key := raw(`[["apple","fruit"],"banana"]`)
	result := Score(models.QuestionFillBlank, key, raw(`["apple","mango"]`), 5)
	require.True(t, result.Answered)
	require.False(t, result.Correct)
	require.Zero(t, result.Awarded)
}

func TestScoreFillBlankLengthMismatch(t *testing.T) {
	key := raw(`["apple","banana"]`)
	result := Score(models.QuestionFillBlank, key, raw(`["apple"]`), 5)
	require.True(t, result.Answered)
	require.False(t, result.Correct)
}

func TestScoreSubjectiveTypesAreManual(t *testing.T) {
	for _, questionType := range []string{models.QuestionShortAnswer, models.QuestionEssay} {
		result := Score(questionType, raw(`"rubric"`), raw(`"my essay"`), 10)
		require.True(t, result.Manual)
		require.Zero(t, result.Awarded)
	}
}

func TestScoreMalformedKeyScoresZero(t *testing.T) {
	cases := []struct {
		name         string
		questionType string
		key          string
	}{
		{"missing key", models.QuestionSingleChoice, ""},
		{"unparseable key", models.QuestionMultipleChoice, `{not json`},
		{"wrong shape", models.QuestionFillBlank, `{"a":1}`},
		{"unknown type", "matrix", `"A"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Score(tc.questionType, raw(tc.key), raw(`"A"`), 2)
			require.Zero(t, result.Awarded)
			require.False(t, result.Correct)
		})
	}
}

func TestScoreNegativePointsClampedToZero(t *testing.T) {
	result := Score(models.QuestionSingleChoice, raw(`"A"`), raw(`"A"`), -2)
	require.True(t, result.Correct)
	require.Zero(t, result.Awarded)
}
