// Package wizard drives the multi-step subject creation workflow.
//
// The workflow generates a syllabus, structured metadata and a system prompt
// for a new subject, then publishes it. Each step calls the upstream
// generator with retries and saves its output to the draft store before
// returning, so a later failure never loses earlier work. Callers observe
// retries through a ProgressFunc and can resume an abandoned draft at the
// next missing step.
package wizard
