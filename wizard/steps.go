package wizard

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/draft"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/llm"
)

// Step names a wizard step.
type Step string

const (
	StepSyllabus Step = "generate_syllabus"
	StepMetadata Step = "generate_metadata"
	StepPrompt   Step = "generate_prompt"
	StepFinalize Step = "finalize"
	StepDone     Step = "done"
)

// NextStep returns the first step d still needs.
func NextStep(d *draft.Draft) Step {
	switch {
	case d == nil || d.Syllabus == "":
		return StepSyllabus
	case d.Metadata == "":
		return StepMetadata
	case d.Prompt == "":
		return StepPrompt
	case d.Status != draft.StatusActive:
		return StepFinalize
	default:
		return StepDone
	}
}

// SubjectInput describes the subject to create.
type SubjectInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Audience    string `json:"audience,omitempty"`
	Level       string `json:"level,omitempty"`
}

// Validate checks the input.
func (in SubjectInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(in.Title) > 200 {
		return fmt.Errorf("%w: title exceeds 200 characters", ErrInvalidInput)
	}
	return nil
}

// Progress is reported before every retry of a step.
type Progress struct {
	Step Step

	// Attempt is the attempt about to run, starting at 2.
	Attempt     int
	MaxAttempts int

	// Err is the error of the failed attempt.
	Err error

	// Delay is the wait before Attempt starts.
	Delay time.Duration
}

// ProgressFunc receives retry notifications. It may be nil.
type ProgressFunc func(Progress)

// Metadata is the structured description of a subject.
type Metadata struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Level          string   `json:"level"`
	Tags           []string `json:"tags"`
	Objectives     []string `json:"objectives"`
	EstimatedHours float64  `json:"estimated_hours"`
}

// metadataSchema is sent as the structured-output schema.
var metadataSchema = &llm.Schema{
	Name:   "subject_metadata",
	Strict: true,
	Definition: json.RawMessage(`{
  "type": "object",
  "properties": {
    "title": {"type": "string"},
    "description": {"type": "string"},
    "level": {"type": "string", "enum": ["beginner", "intermediate", "advanced"]},
    "tags": {"type": "array", "items": {"type": "string"}},
    "objectives": {"type": "array", "items": {"type": "string"}},
    "estimated_hours": {"type": "number"}
  },
  "required": ["title", "description", "level", "tags", "objectives", "estimated_hours"],
  "additionalProperties": false
}`),
}

// ParseMetadata decodes and checks generated metadata. Code fences around
// the JSON are tolerated.
func ParseMetadata(raw string) (Metadata, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var m Metadata
	dec := json.NewDecoder(strings.NewReader(s))
	if err := dec.Decode(&m); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	if strings.TrimSpace(m.Title) == "" || strings.TrimSpace(m.Description) == "" {
		return Metadata{}, fmt.Errorf("%w: title and description are required", ErrInvalidMetadata)
	}
	return m, nil
}

const syllabusSystem = "You design concise, practical course syllabi for working professionals learning to apply AI in their jobs."

func syllabusPrompt(in SubjectInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a syllabus for the subject %q.\n", in.Title)
	if in.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", in.Description)
	}
	if in.Audience != "" {
		fmt.Fprintf(&b, "Audience: %s\n", in.Audience)
	}
	if in.Level != "" {
		fmt.Fprintf(&b, "Level: %s\n", in.Level)
	}
	b.WriteString("List six phases. For each phase give a title, a one-sentence objective and three key concepts.")
	return b.String()
}

const metadataSystem = "You summarize course syllabi as structured metadata. Reply with JSON only."

func metadataPrompt(syllabus string) string {
	return "Describe the subject defined by this syllabus as JSON with title, description, level, tags, objectives and estimated_hours.\n\nSyllabus:\n" + syllabus
}

const promptSystem = "You write system prompts for an AI learning coach."

func coachPrompt(syllabus, metadata string) string {
	return "Write the system prompt for a coach that guides learners through the subject below. " +
		"The coach adapts explanations to the learner's level and refers to the current phase.\n\n" +
		"Metadata:\n" + metadata + "\n\nSyllabus:\n" + syllabus
}
