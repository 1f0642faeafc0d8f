// Package scoring implements objective answer scoring for self-gradable
// question types. Scoring is a pure comparison of a stored answer key against
// a submitted answer; it never returns an error and never panics. A missing
// or unparseable key scores zero.
package scoring

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/examind-api/internal/models"
)

// Result describes the outcome of scoring a single exam question.
type Result struct {
	Answered bool    `json:"answered"`
	Correct  bool    `json:"correct"`
	Awarded  float64 `json:"awarded"`
	// Manual marks the item as requiring teacher grading; Awarded is zero.
	Manual bool `json:"manual"`
}

// Score evaluates a submitted answer against the stored key for the given
// question type and point weight. Subjective types (short_answer, essay) are
// never auto-scored and always come back with Manual set.
func Score(questionType string, key, answer json.RawMessage, points float64) Result {
	if points < 0 {
		points = 0
	}

	switch questionType {
	case models.QuestionSingleChoice:
		return scoreSingleChoice(key, answer, points)
	case models.QuestionMultipleChoice:
		return scoreMultipleChoice(key, answer, points)
	case models.QuestionFillBlank:
		return scoreFillBlank(key, answer, points)
	case models.QuestionShortAnswer, models.QuestionEssay:
		return Result{Answered: len(answer) > 0, Manual: true}
	default:
		return Result{}
	}
}

func scoreSingleChoice(key, answer json.RawMessage, points float64) Result {
	expected, ok := decodeScalar(key)
	if !ok {
		return Result{Answered: len(answer) > 0}
	}

	submitted, ok := decodeScalar(answer)
	if !ok {
		return Result{}
	}

	result := Result{Answered: true}
	if submitted == expected {
		result.Correct = true
		result.Awarded = points
	}
	return result
}

func scoreMultipleChoice(key, answer json.RawMessage, points float64) Result {
	expected, ok := decodeScalarSet(key)
	if !ok || len(expected) == 0 {
		return Result{Answered: len(answer) > 0}
	}

	submitted, ok := decodeScalarSet(answer)
	if !ok || len(submitted) == 0 {
		return Result{}
	}

	result := Result{Answered: true}
	if equalSorted(expected, submitted) {
		result.Correct = true
		result.Awarded = points
	}
	return result
}

// scoreFillBlank awards full points only when every blank matches one of its
// accepted synonyms, case-insensitively, and the blank counts line up.
func scoreFillBlank(key, answer json.RawMessage, points float64) Result {
	blanks, ok := decodeBlankKey(key)
	if !ok || len(blanks) == 0 {
		return Result{Answered: len(answer) > 0}
	}

	var submitted []interface{}
	if len(answer) == 0 || json.Unmarshal(answer, &submitted) != nil {
		return Result{}
	}
	if len(submitted) == 0 {
		return Result{}
	}

	result := Result{Answered: true}
	if len(submitted) != len(blanks) {
		return result
	}

	for i, accepted := range blanks {
		value := normalizeBlank(stringify(submitted[i]))
		matched := false
		for _, synonym := range accepted {
			if value == synonym {
				matched = true
				break
			}
		}
		if !matched {
			return result
		}
	}

	result.Correct = true
	result.Awarded = points
	return result
}

// decodeScalar renders a JSON scalar (string, number, bool) as its canonical
// string form, so "A" and a bare A-like value compare loosely.
func decodeScalar(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	switch value.(type) {
	case string, float64, bool:
		return stringify(value), true
	default:
		return "", false
	}
}

// decodeScalarSet coerces a JSON array or lone scalar into a sorted string set.
func decodeScalarSet(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false
	}

	var items []interface{}
	switch v := value.(type) {
	case []interface{}:
		items = v
	case string, float64, bool:
		items = []interface{}{v}
	default:
		return nil, false
	}

	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		switch item.(type) {
		case string, float64, bool:
			set[stringify(item)] = struct{}{}
		default:
			return nil, false
		}
	}

	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, true
}

// decodeBlankKey parses a fill-blank key: an array with one entry per blank,
// where each entry is a scalar or an array of accepted synonyms. Synonyms are
// normalized once at decode time.
func decodeBlankKey(raw json.RawMessage) ([][]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var entries []interface{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}

	blanks := make([][]string, 0, len(entries))
	for _, entry := range entries {
		switch v := entry.(type) {
		case []interface{}:
			synonyms := make([]string, 0, len(v))
			for _, s := range v {
				synonyms = append(synonyms, normalizeBlank(stringify(s)))
			}
			if len(synonyms) == 0 {
				return nil, false
			}
			blanks = append(blanks, synonyms)
		case string, float64, bool:
			blanks = append(blanks, []string{normalizeBlank(stringify(v))})
		default:
			return nil, false
		}
	}
	return blanks, true
}

func normalizeBlank(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func equalSorted(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
