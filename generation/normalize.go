package generation

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ContainerClass is the class of the wrapper element around lesson content.
const ContainerClass = "lesson-content"

var (
	fenceOpenRE  = regexp.MustCompile("^```[A-Za-z0-9_-]*[ \t]*\r?\n?")
	fenceCloseRE = regexp.MustCompile("\r?\n?```[ \t]*$")
	headRE       = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	docTagsRE    = regexp.MustCompile(`(?i)<!doctype[^>]*>|</?(html|body)[^>]*>`)
	markupRE     = regexp.MustCompile(`<[A-Za-z][A-Za-z0-9]*(\s[^>]*)?/?>`)
	containerRE  = regexp.MustCompile(`(?i)^<div[^>]*class="[^"]*\b` + ContainerClass + `\b[^"]*"[^>]*>`)
)

// Normalizer turns raw upstream output into sanitized lesson HTML.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Normalize never fails; unusable input yields content that fails
//     validation.
type Normalizer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewNormalizer creates a Normalizer with the lesson sanitization policy.
func NewNormalizer() *Normalizer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("div", "span", "pre", "code", "section")

	return &Normalizer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: policy,
	}
}

// Normalize strips code fences and document markup, renders markdown when
// the text carries no HTML, sanitizes, and wraps the result in the lesson
// container.
func (n *Normalizer) Normalize(raw string) string {
	s := stripFences(strings.TrimSpace(raw))
	s = headRE.ReplaceAllString(s, "")
	s = strings.TrimSpace(docTagsRE.ReplaceAllString(s, ""))
	if s == "" {
		return ""
	}

	if !markupRE.MatchString(s) {
		var buf bytes.Buffer
		if err := n.md.Convert([]byte(s), &buf); err == nil {
			s = buf.String()
		}
	}

	s = strings.TrimSpace(n.policy.Sanitize(s))
	if s == "" {
		return ""
	}
	if !containerRE.MatchString(s) {
		s = `<div class="` + ContainerClass + `">` + s + `</div>`
	}
	return s
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = fenceOpenRE.ReplaceAllString(s, "")
	s = fenceCloseRE.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
