package model

import (
	"context"
	"time"
)

// Well-known field names. Anything else in Fields is caller-defined.
const (
	FieldUserID         = "user_id"
	FieldSessionID      = "session_id"
	FieldJobName        = "job_name"
	FieldTailoredResume = "tailored_resume"
	FieldCoverLetter    = "cover_letter"
	FieldQualityReview  = "quality_review"
	FieldQualityScore   = "quality_score"
	FieldATSScore       = "ats_score"

	// Store-owned keys; callers may not set them.
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Fields is an open mapping of field name to value. Values are strings or
// numbers in practice; numbers read back from a store are float64.
type Fields map[string]any

// Record is one persisted unit of generated output plus its metadata.
type Record struct {
	ID        string
	Fields    Fields
	CreatedAt time.Time
	UpdatedAt time.Time
}

// String returns the value of a string field, or "" if absent or not a string.
func (r Record) String(name string) string {
	s, _ := r.Fields[name].(string)
	return s
}

// Number returns the value of a numeric field.
func (r Record) Number(name string) (float64, bool) {
	f, ok := r.Fields[name].(float64)
	return f, ok
}

// Flatten returns the caller fields plus the store-stamped id and timestamps.
func (r Record) Flatten() Fields {
	out := make(Fields, len(r.Fields)+3)
	for k, v := range r.Fields {
		out[k] = v
	}
	out[FieldID] = r.ID
	out[FieldCreatedAt] = r.CreatedAt.Format(time.RFC3339Nano)
	out[FieldUpdatedAt] = r.UpdatedAt.Format(time.RFC3339Nano)
	return out
}

// RecordStore is durable CRUD over one collection of Records.
type RecordStore interface {
	Save(ctx context.Context, fields Fields) (string, error)
	Retrieve(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, filter Fields) ([]Record, error)
	Update(ctx context.Context, id string, partial Fields) error
	Delete(ctx context.Context, id string) error
}

// TextGenerator sends a prompt to a text-generation service and returns the
// raw response.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SessionSummary describes one completed generation run.
type SessionSummary struct {
	SessionID    string
	UserID       string
	RecordID     string
	JobName      string
	Sections     []string
	QualityScore *float64
	ATSScore     *float64
	Approved     bool
	OutputDir    string
}

// Notifier announces completed generation runs.
type Notifier interface {
	Notify(summaries []SessionSummary) error
}
