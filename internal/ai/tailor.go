package ai

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/amishk599/resumeforge/internal/model"
	"github.com/amishk599/resumeforge/internal/sections"
)

// Tailor turns a CV and a job description into extracted document sections
// using one text-generation call.
type Tailor struct {
	generator model.TextGenerator
	tmpl      *template.Template
	markers   []sections.Marker
	logger    *slog.Logger
}

// NewTailor creates a Tailor. The markers are both rendered into the prompt and
// used to split the response.
func NewTailor(generator model.TextGenerator, tmpl *template.Template, markers []sections.Marker, logger *slog.Logger) *Tailor {
	return &Tailor{
		generator: generator,
		tmpl:      tmpl,
		markers:   markers,
		logger:    logger,
	}
}

// Input is what the prompt is built from.
type Input struct {
	CV             string
	JobDescription string
	JobName        string
}

// Output is one generation result.
type Output struct {
	Raw      string
	Sections map[string]string
}

// Markers returns the markers this Tailor splits responses on.
func (t *Tailor) Markers() []sections.Marker {
	return t.markers
}

// Run renders the prompt, calls the generator, and extracts sections. A response
// missing some or all markers is not an error here; callers inspect Sections.
func (t *Tailor) Run(ctx context.Context, in Input) (Output, error) {
	if in.CV == "" {
		return Output{}, fmt.Errorf("tailor: empty CV")
	}
	if in.JobDescription == "" {
		return Output{}, fmt.Errorf("tailor: empty job description")
	}

	var promptBuf bytes.Buffer
	if err := t.tmpl.Execute(&promptBuf, struct {
		Input
		Markers []sections.Marker
	}{Input: in, Markers: t.markers}); err != nil {
		return Output{}, fmt.Errorf("render prompt: %w", err)
	}

	raw, err := t.generator.Complete(ctx, promptBuf.String())
	if err != nil {
		return Output{}, fmt.Errorf("llm complete: %w", err)
	}

	secs := sections.Extract(raw, t.markers)
	if t.logger != nil {
		t.logger.Debug("response split",
			"chars", len(raw),
			"sections", sections.Names(secs, t.markers),
		)
	}
	return Output{Raw: raw, Sections: secs}, nil
}
