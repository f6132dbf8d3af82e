package templates

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/fingerprint"
)

// Selector chooses prompt templates and fallback content.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Select and Fallback never fail; unknown inputs use conservative defaults.
type Selector interface {
	Select(phaseID int, kind string) Template
	Fallback(phaseID int, kind string) string
}

// Character budgets of the built-in templates, directive included.
const (
	IntroductionMaxChars = 600
	FullContentMaxChars  = 1200
	ExerciseMaxChars     = 900
	QuizMaxChars         = 900
	SummaryMaxChars      = 600
)

// minTemplateChars leaves room for the directive plus a usable body.
const minTemplateChars = 200

type templateKey struct {
	level fingerprint.Level
	kind  string
}

// Catalog is the phase table plus the (level, kind) template table.
type Catalog struct {
	mu        sync.RWMutex
	phases    map[int]Classification
	templates map[templateKey]Template
}

// NewCatalog returns a catalog populated with the built-in tables.
func NewCatalog() *Catalog {
	return &Catalog{
		phases:    defaultPhases(),
		templates: defaultTemplates(),
	}
}

var levelTone = map[fingerprint.Level]string{
	fingerprint.LevelBeginner:     "The learner is new to the topic: avoid jargon, define every term and keep steps small.",
	fingerprint.LevelIntermediate: "The learner knows the basics: build on them with realistic workplace situations.",
	fingerprint.LevelAdvanced:     "The learner is experienced: be precise, discuss trade-offs and edge cases.",
}

var kindBodies = map[string]struct {
	body     string
	maxChars int
}{
	KindIntroduction: {
		body:     "Write a short HTML introduction to \"{{title}}\" ({{level}} level) focused on {{focus}}. Objective: {{objective}}. Key concepts: {{concepts}}. Use one <h2> heading and two or three <p> paragraphs. {{user_input}}",
		maxChars: IntroductionMaxChars,
	},
	KindFullContent: {
		body:     "Write a complete HTML lesson for \"{{title}}\" ({{level}} level) focused on {{focus}}. Objective: {{objective}}. Cover each key concept in its own <h3> section with explanatory <p> paragraphs and, where helpful, a <ul> of takeaways. Key concepts: {{concepts}}. {{user_input}}",
		maxChars: FullContentMaxChars,
	},
	KindExercise: {
		body:     "Write a hands-on HTML exercise for \"{{title}}\" ({{level}} level). Objective: {{objective}}. Start with an <h2> task title, describe the scenario in a <p>, list the steps in an <ol> and end with a <p> describing what a good result looks like. Key concepts: {{concepts}}. {{user_input}}",
		maxChars: ExerciseMaxChars,
	},
	KindQuiz: {
		body:     "Write a three-question HTML quiz for \"{{title}}\" ({{level}} level) testing {{concepts}}. Objective: {{objective}}. Use an <h2> heading, one <h3> per question and a <p> with the answer explanation after each. {{user_input}}",
		maxChars: QuizMaxChars,
	},
	KindSummary: {
		body:     "Write an HTML recap of \"{{title}}\" for a learner who finished the phase. Objective reached: {{objective}}. Recap {{concepts}} under an <h2> heading in two <p> paragraphs and suggest one next step. {{user_input}}",
		maxChars: SummaryMaxChars,
	},
}

func defaultTemplates() map[templateKey]Template {
	m := make(map[templateKey]Template, len(levelTone)*len(kindBodies))
	for level, tone := range levelTone {
		for kind, kb := range kindBodies {
			m[templateKey{level, kind}] = Template{
				Name:     level.String() + "/" + kind,
				Level:    level,
				Kind:     kind,
				Body:     tone + " " + kb.body,
				MaxChars: kb.maxChars,
				Optional: []string{"user_input"},
			}
		}
	}
	return m
}

// Classify returns the classification for phaseID.
func (c *Catalog) Classify(phaseID int) Classification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.classifyLocked(phaseID)
}

func (c *Catalog) classifyLocked(phaseID int) Classification {
	if cl, ok := c.phases[phaseID]; ok {
		return cl
	}
	cl := DefaultClassification
	cl.PhaseID = phaseID
	return cl
}

// Select returns the template for the phase's level and the given kind.
func (c *Catalog) Select(phaseID int, kind string) Template {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cl := c.classifyLocked(phaseID)
	k := NormalizeKind(kind)

	t, ok := c.templates[templateKey{cl.Level, k}]
	if !ok {
		t, ok = c.templates[templateKey{cl.Level, KindIntroduction}]
	}
	if !ok {
		t = c.templates[templateKey{fingerprint.LevelBeginner, KindIntroduction}]
	}
	t.Classification = cl
	return t
}

// Fallback returns deterministic fallback HTML for the phase and kind.
func (c *Catalog) Fallback(phaseID int, kind string) string {
	return renderFallback(c.Classify(phaseID), NormalizeKind(kind))
}

// PhaseIDs returns the configured phase ids in ascending order.
func (c *Catalog) PhaseIDs() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]int, 0, len(c.phases))
	for id := range c.phases {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// CatalogSpec is the YAML form of catalog overrides.
type CatalogSpec struct {
	Phases    []PhaseSpec    `yaml:"phases"`
	Templates []TemplateSpec `yaml:"templates"`
}

// PhaseSpec overrides or adds one phase classification.
type PhaseSpec struct {
	ID          int    `yaml:"id"`
	Title       string `yaml:"title"`
	Level       string `yaml:"level"`
	Focus       string `yaml:"focus"`
	ContentType string `yaml:"content_type"`
}

// TemplateSpec overrides one (level, kind) template.
type TemplateSpec struct {
	Level    string   `yaml:"level"`
	Kind     string   `yaml:"kind"`
	Body     string   `yaml:"body"`
	MaxChars int      `yaml:"max_chars"`
	Optional []string `yaml:"optional"`
}

// ParseCatalogSpec decodes YAML overrides. Unknown fields are rejected.
func ParseCatalogSpec(r io.Reader) (CatalogSpec, error) {
	var spec CatalogSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return CatalogSpec{}, fmt.Errorf("templates: parse catalog: %w", err)
	}
	return spec, nil
}

// ParseCatalogBytes is ParseCatalogSpec over a byte slice.
func ParseCatalogBytes(data []byte) (CatalogSpec, error) {
	return ParseCatalogSpec(bytes.NewReader(data))
}

// Apply validates spec and merges it over the current tables. Nothing is
// applied when any entry is invalid.
func (c *Catalog) Apply(spec CatalogSpec) error {
	phases := make([]Classification, 0, len(spec.Phases))
	for _, p := range spec.Phases {
		cl, err := p.classification()
		if err != nil {
			return err
		}
		phases = append(phases, cl)
	}

	tmpls := make([]Template, 0, len(spec.Templates))
	for _, ts := range spec.Templates {
		t, err := ts.template()
		if err != nil {
			return err
		}
		tmpls = append(tmpls, t)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cl := range phases {
		c.phases[cl.PhaseID] = cl
	}
	for _, t := range tmpls {
		c.templates[templateKey{t.Level, t.Kind}] = t
	}
	return nil
}

func (p PhaseSpec) classification() (Classification, error) {
	if p.ID < 0 {
		return Classification{}, fmt.Errorf("%w: negative id %d", ErrInvalidPhase, p.ID)
	}
	if strings.TrimSpace(p.Title) == "" {
		return Classification{}, fmt.Errorf("%w: phase %d has no title", ErrInvalidPhase, p.ID)
	}
	level, err := parseLevelStrict(p.Level)
	if err != nil {
		return Classification{}, fmt.Errorf("%w: phase %d: %v", ErrInvalidPhase, p.ID, err)
	}
	ct := Conceptual
	if p.ContentType != "" {
		if ct, err = ParseContentType(p.ContentType); err != nil {
			return Classification{}, err
		}
	}
	return Classification{
		PhaseID:     p.ID,
		Title:       strings.TrimSpace(p.Title),
		Level:       level,
		Focus:       strings.TrimSpace(p.Focus),
		ContentType: ct,
	}, nil
}

func (s TemplateSpec) template() (Template, error) {
	level, err := parseLevelStrict(s.Level)
	if err != nil {
		return Template{}, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	kind := strings.ToLower(strings.TrimSpace(s.Kind))
	if NormalizeKind(kind) != kind {
		return Template{}, fmt.Errorf("%w: kind %q has no template slot", ErrInvalidTemplate, s.Kind)
	}
	if strings.TrimSpace(s.Body) == "" {
		return Template{}, fmt.Errorf("%w: %s/%s has an empty body", ErrInvalidTemplate, level, kind)
	}
	if s.MaxChars < minTemplateChars {
		return Template{}, fmt.Errorf("%w: %s/%s max_chars %d below %d", ErrInvalidTemplate, level, kind, s.MaxChars, minTemplateChars)
	}
	return Template{
		Name:     level.String() + "/" + kind,
		Level:    level,
		Kind:     kind,
		Body:     s.Body,
		MaxChars: s.MaxChars,
		Optional: s.Optional,
	}, nil
}

func parseLevelStrict(s string) (fingerprint.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner":
		return fingerprint.LevelBeginner, nil
	case "intermediate":
		return fingerprint.LevelIntermediate, nil
	case "advanced":
		return fingerprint.LevelAdvanced, nil
	default:
		return 0, fmt.Errorf("unknown level %q", s)
	}
}

var _ Selector = (*Catalog)(nil)
