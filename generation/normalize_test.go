package generation

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name     string
		in       string
		contains []string
		absent   []string
	}{
		{
			name:     "code fence",
			in:       "```html\n<h2>Title</h2><p>Body</p>\n```",
			contains: []string{"<h2>Title</h2>", "<p>Body</p>"},
			absent:   []string{"```"},
		},
		{
			name:     "document markup",
			in:       "<!DOCTYPE html><html><head><title>x</title><style>p{}</style></head><body><h2>Title</h2><p>Body</p></body></html>",
			contains: []string{"<h2>Title</h2>", "<p>Body</p>"},
			absent:   []string{"<html", "<body", "<head", "<title", "DOCTYPE"},
		},
		{
			name:     "markdown",
			in:       "## Title\n\nSome **bold** text.",
			contains: []string{"<h2>Title</h2>", "<strong>bold</strong>"},
		},
		{
			name:     "script removed",
			in:       "<h2>Title</h2><script>alert(1)</script><p onclick=\"x()\">Body</p>",
			contains: []string{"<h2>Title</h2>", "<p>Body</p>"},
			absent:   []string{"script", "onclick"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.in)
			if !strings.HasPrefix(got, `<div class="lesson-content">`) || !strings.HasSuffix(got, "</div>") {
				t.Errorf("Normalize() = %q, want lesson container", got)
			}
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("Normalize() = %q, missing %q", got, s)
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(got, s) {
					t.Errorf("Normalize() = %q, should not contain %q", got, s)
				}
			}
		})
	}
}

func TestNormalize_KeepsExistingContainer(t *testing.T) {
	n := NewNormalizer()
	in := `<div class="lesson-content"><h2>T</h2><p>B</p></div>`
	got := n.Normalize(in)
	if strings.Count(got, "lesson-content") != 1 {
		t.Errorf("Normalize() = %q, want a single container", got)
	}
}

func TestNormalize_Empty(t *testing.T) {
	n := NewNormalizer()
	for _, in := range []string{"", "   ", "```\n```", "<html><body></body></html>"} {
		if got := n.Normalize(in); got != "" {
			t.Errorf("Normalize(%q) = %q, want empty", in, got)
		}
	}
}

func TestValidator(t *testing.T) {
	v := NewValidator(50)
	filler := strings.Repeat("text ", 20)

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid", "<h2>Title</h2><p>" + filler + "</p>", false},
		{"h4 heading", "<h4>Title</h4><p>" + filler + "</p>", false},
		{"empty", "  ", true},
		{"too short", "<h2>T</h2><p>x</p>", true},
		{"no heading", "<p>" + filler + "</p>", true},
		{"h5 only", "<h5>Title</h5><p>" + filler + "</p>", true},
		{"no paragraph", "<h2>Title</h2><ul><li>" + filler + "</li></ul>", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestNewValidator_Default(t *testing.T) {
	if got := NewValidator(0).MinLength; got != DefaultMinLength {
		t.Errorf("MinLength = %d, want %d", got, DefaultMinLength)
	}
}
