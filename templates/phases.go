package templates

import (
	"fmt"
	"strings"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/fingerprint"
)

// ContentType is the framing a phase's material is written in.
type ContentType string

const (
	Conceptual ContentType = "conceptual"
	Practical  ContentType = "practical"
)

// ParseContentType parses a content type name.
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(strings.ToLower(strings.TrimSpace(s))) {
	case Conceptual:
		return Conceptual, nil
	case Practical:
		return Practical, nil
	default:
		return "", fmt.Errorf("%w: unknown content type %q", ErrInvalidPhase, s)
	}
}

// Directive returns the framing instruction appended to rendered prompts.
func (c ContentType) Directive() string {
	if c == Practical {
		return "Framing: practical. Lead with a concrete example the learner can try right away, then generalize."
	}
	return "Framing: conceptual. Explain the underlying idea and why it matters before any procedure."
}

// Classification describes a curriculum phase.
type Classification struct {
	PhaseID     int
	Title       string
	Level       fingerprint.Level
	Focus       string
	ContentType ContentType
}

// DefaultClassification is used for phase ids missing from the table.
var DefaultClassification = Classification{
	PhaseID:     0,
	Title:       "Getting Started",
	Level:       fingerprint.LevelBeginner,
	Focus:       "core vocabulary and first steps",
	ContentType: Conceptual,
}

func defaultPhases() map[int]Classification {
	phases := []Classification{
		{PhaseID: 1, Title: "AI Foundations", Level: fingerprint.LevelBeginner, Focus: "what generative AI is and where it helps", ContentType: Conceptual},
		{PhaseID: 2, Title: "Prompting Basics", Level: fingerprint.LevelBeginner, Focus: "writing clear instructions for an assistant", ContentType: Practical},
		{PhaseID: 3, Title: "Working with AI Tools", Level: fingerprint.LevelIntermediate, Focus: "applying assistants to everyday tasks", ContentType: Practical},
		{PhaseID: 4, Title: "Evaluating AI Output", Level: fingerprint.LevelIntermediate, Focus: "checking accuracy and spotting failure modes", ContentType: Conceptual},
		{PhaseID: 5, Title: "Workflow Integration", Level: fingerprint.LevelAdvanced, Focus: "embedding AI into repeatable processes", ContentType: Practical},
		{PhaseID: 6, Title: "Responsible AI Strategy", Level: fingerprint.LevelAdvanced, Focus: "governance, risk and long-term adoption", ContentType: Conceptual},
	}
	m := make(map[int]Classification, len(phases))
	for _, p := range phases {
		m[p.PhaseID] = p
	}
	return m
}
