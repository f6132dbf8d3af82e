package templates

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/fingerprint"
)

// Interaction kinds with built-in templates.
const (
	KindIntroduction = "introduction"
	KindFullContent  = "full_content"
	KindExercise     = "exercise"
	KindQuiz         = "quiz"
	KindSummary      = "summary"
)

// Kinds lists the interaction kinds with built-in templates.
var Kinds = []string{KindIntroduction, KindFullContent, KindExercise, KindQuiz, KindSummary}

// kindAliases maps other interaction kinds onto a built-in template.
var kindAliases = map[string]string{
	"intro":               KindIntroduction,
	"lesson":              KindFullContent,
	"content":             KindFullContent,
	"practice":            KindExercise,
	"assessment":          KindQuiz,
	"completed":           KindSummary,
	"assessment_complete": KindSummary,
}

// NormalizeKind maps an interaction kind onto its template kind.
// Kinds without a template map to KindIntroduction.
func NormalizeKind(kind string) string {
	k := strings.ToLower(strings.TrimSpace(kind))
	if alias, ok := kindAliases[k]; ok {
		return alias
	}
	for _, known := range Kinds {
		if k == known {
			return k
		}
	}
	return KindIntroduction
}

var placeholderRE = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Template is a length-bounded prompt for one (level, kind) pair.
type Template struct {
	Name  string
	Level fingerprint.Level
	Kind  string
	Body  string

	// MaxChars bounds the rendered prompt, directive included.
	MaxChars int

	// Optional placeholders render as empty text when no value is given.
	Optional []string

	// Classification of the phase the template was selected for. Its title,
	// focus and level fill the matching placeholders unless overridden.
	Classification Classification
}

// Placeholders returns the distinct placeholder names in Body, sorted.
func (t Template) Placeholders() []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range placeholderRE.FindAllStringSubmatch(t.Body, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}

// Render substitutes vars into Body, appends the content-type directive and
// truncates the body on a word boundary so the result fits MaxChars.
func (t Template) Render(vars map[string]string) (string, error) {
	values := map[string]string{
		"title": t.Classification.Title,
		"focus": t.Classification.Focus,
		"level": t.Classification.Level.String(),
	}
	for k, v := range vars {
		values[k] = v
	}
	optional := make(map[string]bool, len(t.Optional))
	for _, name := range t.Optional {
		optional[name] = true
	}

	var missing []string
	body := placeholderRE.ReplaceAllStringFunc(t.Body, func(m string) string {
		name := placeholderRE.FindStringSubmatch(m)[1]
		v, ok := values[name]
		if (!ok || strings.TrimSpace(v) == "") && !optional[name] {
			missing = append(missing, name)
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s (template %s)", ErrMissingVariable, strings.Join(missing, ", "), t.Name)
	}

	directive := t.Classification.ContentType.Directive()
	const sep = "\n\n"
	budget := -1
	if t.MaxChars > 0 {
		budget = t.MaxChars - len([]rune(directive)) - len(sep)
		if budget < 0 {
			budget = 0
		}
	}
	body = truncateWords(strings.TrimSpace(body), budget)
	if body == "" {
		return directive, nil
	}
	return body + sep + directive, nil
}

// truncateWords cuts s to at most limit runes, preferring the last word
// boundary. A negative limit disables truncation.
func truncateWords(s string, limit int) string {
	runes := []rune(s)
	if limit < 0 || len(runes) <= limit {
		return s
	}
	cut := limit
	for i := limit; i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace)
}
