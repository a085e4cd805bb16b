package curriculum

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidContent is returned for content files that fail validation.
var ErrInvalidContent = errors.New("invalid curriculum content")

const assessmentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["topic_id", "questions"],
  "properties": {
    "topic_id": {"type": "string", "minLength": 1},
    "questions": {"type": "array", "items": {"$ref": "#/definitions/question"}}
  },
  "definitions": {
    "question": {
      "type": "object",
      "required": ["id", "marks"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "prompt": {"type": "string"},
        "kind": {"type": "string"},
        "marks": {"type": "integer", "minimum": 1, "maximum": 20},
        "answer": {
          "anyOf": [
            {"type": ["string", "number", "boolean"]},
            {"type": "array", "items": {"type": ["string", "number"]}}
          ]
        },
        "order": {"type": "array", "items": {"type": "string"}},
        "common_mistakes": {"type": "array", "items": {"type": "string"}},
        "breakdown": {"$ref": "#/definitions/breakdown"}
      }
    },
    "breakdown": {
      "type": "object",
      "properties": {
        "idea_marks": {"$ref": "#/definitions/points"},
        "method_marks": {"$ref": "#/definitions/points"},
        "precision_marks": {"$ref": "#/definitions/points"},
        "common_penalties": {"type": "array", "items": {"type": "string"}}
      }
    },
    "points": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "marks"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "marks": {"type": "integer", "minimum": 1},
          "keywords": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadAssessmentSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(assessmentSchema))
	})
	return compiledSchema, schemaErr
}

// ValidateAssessment checks an assessments YAML document against the
// assessment schema.
func ValidateAssessment(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	if doc == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidContent)
	}

	schema, err := loadAssessmentSchema()
	if err != nil {
		return fmt.Errorf("compiling assessment schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidContent, strings.Join(msgs, "; "))
	}
	return nil
}
