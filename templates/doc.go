// Package templates selects length-bounded prompt templates and deterministic
// fallback content for a curriculum phase and interaction kind.
//
// Every phase id carries a Classification (difficulty level, focus, content
// type). A Catalog maps (level, kind) to a Template; unknown phases use the
// beginner classification and unknown kinds use the introduction template of
// the level. Rendering substitutes {{name}} placeholders, appends a framing
// directive for the phase's content type and truncates the body on a word
// boundary so the result never exceeds the template's MaxChars budget.
//
// The built-in table can be overridden from YAML (see ParseCatalogSpec).
package templates
