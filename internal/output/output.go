// Package output writes generated sections to disk.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/amishk599/resumeforge/internal/sections"
)

// StampLayout formats the timestamp prefix of every file name.
const StampLayout = "20060102_150405"

// Files lists the paths written for one session.
type Files struct {
	Dir      string
	Sections map[string]string // section name -> path
	PDFs     map[string]string // section name -> path, resume and cover letter only
	Complete string
	Results  string
	Raw      string // set only when the response had no sections
}

// Results is the JSON summary written next to the section files.
type Results struct {
	SessionID    string            `json:"session_id"`
	UserID       string            `json:"user_id"`
	JobName      string            `json:"job_name,omitempty"`
	RecordID     string            `json:"record_id,omitempty"`
	GeneratedAt  time.Time         `json:"generated_at"`
	QualityScore *float64          `json:"quality_score,omitempty"`
	ATSScore     *float64          `json:"ats_score,omitempty"`
	Approved     bool              `json:"approved"`
	Sections     map[string]string `json:"sections"`
	PDFs         map[string]string `json:"pdfs,omitempty"`
}

// Writer places each session's files under <root>/<session id>/.
type Writer struct {
	root    string
	markers []sections.Marker
	pdf     bool
}

// NewWriter returns a Writer rooted at root. With pdf set, the resume and cover
// letter are also rendered as PDF.
func NewWriter(root string, markers []sections.Marker, pdf bool) *Writer {
	return &Writer{root: root, markers: markers, pdf: pdf}
}

// Write saves every section body to <stamp>_<name>.md, the concatenated
// document to <stamp>_complete.md, optional PDFs to <stamp>_<name>.pdf and res
// to <stamp>_results.json.
func (w *Writer) Write(res Results, secs map[string]string) (Files, error) {
	dir := filepath.Join(w.root, SafeName(res.SessionID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Files{}, fmt.Errorf("create output dir: %w", err)
	}
	stamp := res.GeneratedAt.Format(StampLayout)
	files := Files{Dir: dir, Sections: make(map[string]string, len(secs))}

	for _, name := range sections.Names(secs, w.markers) {
		path := filepath.Join(dir, stamp+"_"+name+".md")
		if err := writeText(path, secs[name]+"\n"); err != nil {
			return files, err
		}
		files.Sections[name] = path
	}

	files.Complete = filepath.Join(dir, stamp+"_complete.md")
	if err := writeText(files.Complete, sections.Render(secs, w.markers)+"\n"); err != nil {
		return files, err
	}

	if w.pdf {
		pdfs, err := writePDFs(dir, stamp, secs, w.markers)
		files.PDFs = pdfs
		if err != nil {
			return files, err
		}
	}

	res.Sections = files.Sections
	res.PDFs = files.PDFs
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return files, fmt.Errorf("marshal results: %w", err)
	}
	files.Results = filepath.Join(dir, stamp+"_results.json")
	if err := writeText(files.Results, string(data)+"\n"); err != nil {
		return files, err
	}
	return files, nil
}

// WriteRaw saves an unparseable response for inspection.
func (w *Writer) WriteRaw(sessionID string, at time.Time, raw string) (string, error) {
	dir := filepath.Join(w.root, SafeName(sessionID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, at.Format(StampLayout)+"_raw_response.md")
	return path, writeText(path, raw)
}

// SafeName replaces every byte outside [A-Za-z0-9._-] with '_' so the
// result can be used as a single path element.
func SafeName(s string) string {
	b := []byte(s)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
		default:
			b[i] = '_'
		}
	}
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return string(b)
}

func writeText(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
