// Package draft checkpoints multi-step generation workflows.
//
// A Draft accumulates the outputs of the subject wizard (syllabus, metadata,
// prompt). Each step is written back before the workflow advances, so a
// failure in a later step never loses earlier work. A draft becomes active
// only once every output is present; active drafts are immutable.
//
// Drafts are never deleted automatically. Abandoned drafts stay in the
// draft status and can be resumed.
package draft
