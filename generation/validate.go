package generation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultMinLength is the minimum accepted content length in characters.
const DefaultMinLength = 200

// Validator checks that content is structurally usable lesson material.
type Validator struct {
	MinLength int
}

// NewValidator creates a Validator. A non-positive minLength selects
// DefaultMinLength.
func NewValidator(minLength int) *Validator {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return &Validator{MinLength: minLength}
}

// Validate returns an error matching ErrValidation when content is empty,
// shorter than MinLength, or lacks a heading (h1 to h4) or a paragraph.
func (v *Validator) Validate(content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Errorf("%w: empty content", ErrValidation)
	}
	if n := utf8.RuneCountInString(trimmed); n < v.MinLength {
		return fmt.Errorf("%w: %d characters, need %d", ErrValidation, n, v.MinLength)
	}

	doc, err := html.Parse(strings.NewReader(trimmed))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var heading, paragraph bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.H1, atom.H2, atom.H3, atom.H4:
				heading = true
			case atom.P:
				paragraph = true
			}
		}
		for c := n.FirstChild; c != nil && !(heading && paragraph); c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	switch {
	case !heading:
		return fmt.Errorf("%w: no heading element", ErrValidation)
	case !paragraph:
		return fmt.Errorf("%w: no paragraph element", ErrValidation)
	}
	return nil
}
