package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/tailor.md
var tailorPromptRaw string

// TailorTemplate is the parsed prompt template for resume tailoring.
// Parsed once at package init; reused on every Tailor call.
var TailorTemplate = template.Must(template.New("tailor").Parse(tailorPromptRaw))
