package content

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// courseSchema guards JSON course documents arriving from view/controller
// code before they are decoded. It mirrors the invariants Validate enforces
// on the decoded tree, catching shape errors with field-level messages.
const courseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "title", "modules"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "title": {"type": "string"},
    "description": {"type": "string"},
    "ageGroup": {"type": "string"},
    "modules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "order", "lessons"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string"},
          "order": {"type": "integer", "minimum": 0},
          "lessons": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id", "order", "type"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "title": {"type": "string"},
                "order": {"type": "integer", "minimum": 0},
                "type": {"enum": ["video", "quiz", "reading"]},
                "durationMinutes": {"type": "integer", "minimum": 0},
                "pointsReward": {"type": "integer", "minimum": 0},
                "video": {
                  "type": "object",
                  "required": ["videoUrl"],
                  "properties": {"videoUrl": {"type": "string"}}
                },
                "quiz": {
                  "type": "object",
                  "required": ["questions", "passingScore"],
                  "properties": {
                    "passingScore": {"type": "integer", "minimum": 0, "maximum": 100},
                    "questions": {
                      "type": "array",
                      "minItems": 1,
                      "items": {
                        "type": "object",
                        "required": ["id", "options"],
                        "properties": {
                          "id": {"type": "string", "minLength": 1},
                          "text": {"type": "string"},
                          "options": {
                            "type": "array",
                            "minItems": 2,
                            "items": {
                              "type": "object",
                              "required": ["id"],
                              "properties": {
                                "id": {"type": "string", "minLength": 1},
                                "text": {"type": "string"},
                                "isCorrect": {"type": "boolean"}
                              }
                            }
                          }
                        }
                      }
                    }
                  }
                },
                "reading": {
                  "type": "object",
                  "required": ["readingContent"],
                  "properties": {"readingContent": {"type": "string"}}
                }
              }
            }
          }
        }
      }
    }
  }
}`

var courseSchemaLoader = gojsonschema.NewStringLoader(courseSchema)

// DecodeCourseJSON validates a raw JSON course document against the course
// schema, decodes it and runs the integrity checks.
func DecodeCourseJSON(data []byte) (Course, error) {
	result, err := gojsonschema.Validate(courseSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Course{}, fmt.Errorf("validating course document: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return Course{}, fmt.Errorf("invalid course document: %s", strings.Join(details, "; "))
	}

	var course Course
	if err := json.Unmarshal(data, &course); err != nil {
		return Course{}, fmt.Errorf("decoding course document: %w", err)
	}
	if err := Validate(course); err != nil {
		return Course{}, err
	}
	return course, nil
}
