package templates

import (
	"html"
	"strings"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/fingerprint"
)

var fallbackHeadings = map[string]string{
	KindIntroduction: "Introduction",
	KindFullContent:  "Lesson Overview",
	KindExercise:     "Practice Exercise",
	KindQuiz:         "Check Your Understanding",
	KindSummary:      "Phase Recap",
}

var fallbackOpeners = map[string]string{
	KindIntroduction: "This phase introduces %s. You will see how the ideas fit together and where they show up in day-to-day work.",
	KindFullContent:  "This lesson covers %s. Work through each idea at your own pace and connect it to a task you already do.",
	KindExercise:     "Pick a small task from your own work that relates to %s. Try it once on your own, then compare your approach with the guidance in this phase.",
	KindQuiz:         "Take a moment to review %s. Ask yourself how you would explain each idea to a colleague and which part you would check first.",
	KindSummary:      "You have finished this phase on %s. Look back at what changed in how you approach your work since you started.",
}

var fallbackGuidance = map[fingerprint.Level]string{
	fingerprint.LevelBeginner:     "Start with the basic terms and keep your first attempts small. Mistakes are expected and are the fastest way to build intuition.",
	fingerprint.LevelIntermediate: "Use a realistic example from your workplace and note where the result needed correction. Those notes become your checklist.",
	fingerprint.LevelAdvanced:     "Focus on trade-offs: when the approach saves time, when it adds risk, and how you would explain that choice to your team.",
}

const fallbackCloser = "Personalized material for this step is temporarily unavailable. Continue with the guidance above and check back shortly for a tailored version."

// renderFallback builds fallback HTML with one heading and three paragraphs.
func renderFallback(cl Classification, kind string) string {
	heading, ok := fallbackHeadings[kind]
	if !ok {
		kind = KindIntroduction
		heading = fallbackHeadings[kind]
	}
	focus := cl.Focus
	if strings.TrimSpace(focus) == "" {
		focus = DefaultClassification.Focus
	}
	guidance, ok := fallbackGuidance[cl.Level]
	if !ok {
		guidance = fallbackGuidance[fingerprint.LevelBeginner]
	}

	var b strings.Builder
	b.WriteString(`<div class="lesson-content">`)
	b.WriteString("<h2>")
	b.WriteString(html.EscapeString(cl.Title + ": " + heading))
	b.WriteString("</h2><p>")
	b.WriteString(html.EscapeString(strings.Replace(fallbackOpeners[kind], "%s", focus, 1)))
	b.WriteString("</p><p>")
	b.WriteString(html.EscapeString(guidance))
	b.WriteString("</p><p>")
	b.WriteString(fallbackCloser)
	b.WriteString("</p></div>")
	return b.String()
}
