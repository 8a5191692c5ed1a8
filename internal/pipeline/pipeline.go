// Package pipeline runs one tailoring session end to end.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/resumeforge/internal/ai"
	"github.com/amishk599/resumeforge/internal/model"
	"github.com/amishk599/resumeforge/internal/output"
	"github.com/amishk599/resumeforge/internal/review"
	"github.com/amishk599/resumeforge/internal/sections"
)

// DefaultUserID is used when a request names no user.
const DefaultUserID = "anonymous"

// ErrNoSections is returned when the model's response contains none of the
// section markers. The raw response is still written for inspection.
var ErrNoSections = errors.New("response contains no recognizable sections")

// Tailorer produces sectioned documents from a CV and a job description.
type Tailorer interface {
	Run(ctx context.Context, in ai.Input) (ai.Output, error)
}

// Request is the input of one session.
type Request struct {
	UserID         string
	SessionID      string // generated when empty
	CV             string
	JobDescription string
	JobName        string
}

// Result describes what a session produced.
type Result struct {
	SessionID string
	UserID    string
	RecordID  string
	Sections  map[string]string
	Scores    review.Scores
	Files     output.Files
}

// Summary converts r for notifiers.
func (r Result) Summary(jobName string, markers []sections.Marker) model.SessionSummary {
	return model.SessionSummary{
		SessionID:    r.SessionID,
		UserID:       r.UserID,
		RecordID:     r.RecordID,
		JobName:      jobName,
		Sections:     sections.Names(r.Sections, markers),
		QualityScore: r.Scores.Quality,
		ATSScore:     r.Scores.ATS,
		Approved:     r.Scores.Approved,
		OutputDir:    r.Files.Dir,
	}
}

// Pipeline owns one session: tailor → score → save → write files → notify.
type Pipeline struct {
	tailor    Tailorer
	markers   []sections.Marker
	writer    *output.Writer
	store     model.RecordStore
	notifier  model.Notifier
	threshold float64
	logger    *slog.Logger
	now       func() time.Time
}

func New(
	tailor Tailorer,
	markers []sections.Marker,
	writer *output.Writer,
	store model.RecordStore,
	notifier model.Notifier,
	threshold float64,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		tailor:    tailor,
		markers:   markers,
		writer:    writer,
		store:     store,
		notifier:  notifier,
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
	}
}

// SessionID builds the default id session_<stamp>_<user>[_<job>].
func SessionID(at time.Time, userID, jobName string) string {
	id := "session_" + at.Format(output.StampLayout) + "_" + userID
	if jobName != "" {
		id += "_" + jobName
	}
	return output.SafeName(id)
}

// Run executes the session described by req. A notification failure is logged
// and does not fail the run since the documents are already saved.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	started := p.now()
	if req.UserID == "" {
		req.UserID = DefaultUserID
	}
	if req.SessionID == "" {
		req.SessionID = SessionID(started, req.UserID, req.JobName)
	}
	res := Result{SessionID: req.SessionID, UserID: req.UserID}

	out, err := p.tailor.Run(ctx, ai.Input{
		CV:             req.CV,
		JobDescription: req.JobDescription,
		JobName:        req.JobName,
	})
	if err != nil {
		return res, fmt.Errorf("session %s: tailor: %w", req.SessionID, err)
	}

	if len(out.Sections) == 0 {
		path, werr := p.writer.WriteRaw(req.SessionID, started, out.Raw)
		if werr != nil {
			p.logger.Error("saving raw response failed", "session_id", req.SessionID, "error", werr)
		}
		res.Files.Raw = path
		return res, fmt.Errorf("session %s: %w", req.SessionID, ErrNoSections)
	}
	res.Sections = out.Sections
	res.Scores = review.Parse(out.Sections[sections.QualityReview], p.threshold)

	fields := model.Fields{
		model.FieldUserID:    req.UserID,
		model.FieldSessionID: req.SessionID,
	}
	if req.JobName != "" {
		fields[model.FieldJobName] = req.JobName
	}
	for name, body := range out.Sections {
		fields[name] = body
	}
	if res.Scores.Quality != nil {
		fields[model.FieldQualityScore] = *res.Scores.Quality
	}
	if res.Scores.ATS != nil {
		fields[model.FieldATSScore] = *res.Scores.ATS
	}

	id, err := p.store.Save(ctx, fields)
	if err != nil {
		return res, fmt.Errorf("session %s: save record: %w", req.SessionID, err)
	}
	res.RecordID = id

	files, err := p.writer.Write(output.Results{
		SessionID:    req.SessionID,
		UserID:       req.UserID,
		JobName:      req.JobName,
		RecordID:     id,
		GeneratedAt:  started,
		QualityScore: res.Scores.Quality,
		ATSScore:     res.Scores.ATS,
		Approved:     res.Scores.Approved,
	}, out.Sections)
	if err != nil {
		return res, fmt.Errorf("session %s: write files: %w", req.SessionID, err)
	}
	res.Files = files

	if err := p.notifier.Notify([]model.SessionSummary{res.Summary(req.JobName, p.markers)}); err != nil {
		p.logger.Warn("notification failed", "session_id", req.SessionID, "error", err)
	}

	p.logger.Info("session complete",
		"session_id", req.SessionID,
		"record_id", id,
		"sections", len(out.Sections),
		"approved", res.Scores.Approved,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return res, nil
}
