package service

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/examind-api/internal/models"
)

// questionSchemaVersion is stamped on questions at creation time.
const questionSchemaVersion = 1

// Per-type JSON schemas for content_json. Answer payloads stay opaque; only
// authored content is shape-checked.
var questionContentSchemas = map[string]string{
	models.QuestionSingleChoice: `{
		"type": "object",
		"required": ["prompt", "options"],
		"properties": {
			"prompt": {"type": "string", "minLength": 1},
			"options": {
				"type": "array",
				"minItems": 2,
				"items": {
					"type": "object",
					"required": ["id", "text"],
					"properties": {
						"id": {"type": "string", "minLength": 1},
						"text": {"type": "string", "minLength": 1}
					}
				}
			}
		}
	}`,
	models.QuestionMultipleChoice: `{
		"type": "object",
		"required": ["prompt", "options"],
		"properties": {
			"prompt": {"type": "string", "minLength": 1},
			"options": {
				"type": "array",
				"minItems": 2,
				"items": {
					"type": "object",
					"required": ["id", "text"],
					"properties": {
						"id": {"type": "string", "minLength": 1},
						"text": {"type": "string", "minLength": 1}
					}
				}
			}
		}
	}`,
	models.QuestionFillBlank: `{
		"type": "object",
		"required": ["prompt", "blanks"],
		"properties": {
			"prompt": {"type": "string", "minLength": 1},
			"blanks": {"type": "integer", "minimum": 1}
		}
	}`,
	models.QuestionShortAnswer: `{
		"type": "object",
		"required": ["prompt"],
		"properties": {
			"prompt": {"type": "string", "minLength": 1}
		}
	}`,
	models.QuestionEssay: `{
		"type": "object",
		"required": ["prompt"],
		"properties": {
			"prompt": {"type": "string", "minLength": 1}
		}
	}`,
}

func compileQuestionSchemas() (map[string]*jsonschema.Schema, error) {
	compiled := make(map[string]*jsonschema.Schema, len(questionContentSchemas))
	for questionType, source := range questionContentSchemas {
		compiler := jsonschema.NewCompiler()
		url := fmt.Sprintf("question/%s.json", questionType)
		if err := compiler.AddResource(url, strings.NewReader(source)); err != nil {
			return nil, fmt.Errorf("failed to register schema for %s: %w", questionType, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema for %s: %w", questionType, err)
		}
		compiled[questionType] = schema
	}
	return compiled, nil
}
