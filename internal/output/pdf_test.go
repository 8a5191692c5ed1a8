package output

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/resumeforge/internal/sections"
)

func pdfText(t *testing.T, path string) (string, int) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "not a PDF: %s", path)

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	plain, err := r.GetPlainText()
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = io.Copy(&buf, plain)
	require.NoError(t, err)
	return buf.String(), r.NumPage()
}

func TestPlainText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"headings", "# Jane Doe\n## EXPERIENCE\nBuilt things", "Jane Doe\nEXPERIENCE\nBuilt things"},
		{"emphasis", "**Senior** *Go* engineer", "Senior Go engineer"},
		{"links", "see [my site](https://example.com) now", "see my site now"},
		{"blank runs", "a\n\n\n\nb", "a\n\nb"},
		{"bullets kept", "- one\n* two", "- one\n* two"},
		{"trimmed", "\n\n  text  \n", "text"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PlainText(tc.in))
		})
	}
}

func TestIsHeading(t *testing.T) {
	assert.True(t, isHeading("EXPERIENCE"))
	assert.True(t, isHeading("PROFESSIONAL SUMMARY: Go engineer"))
	assert.False(t, isHeading("Experience"))
	assert.False(t, isHeading("2019 - 2024"))
	assert.False(t, isHeading("EDUCATION\nBSc"))
	assert.False(t, isHeading(strings.Repeat("X", 60)))
}

func TestWriter_WritePDF(t *testing.T) {
	w := NewWriter(t.TempDir(), sections.DefaultMarkers(), true)
	at := time.Date(2026, 3, 4, 15, 16, 17, 0, time.UTC)

	secs := map[string]string{
		sections.TailoredResume: "# Jane Doe\n\nEXPERIENCE\n\n- **Engineer** at Acme\n- Shipped billing",
		sections.CoverLetter:    "Dear hiring team,\n\nI would like to apply.",
		sections.QualityReview:  "Overall score: 90%",
	}
	files, err := w.Write(Results{SessionID: "s1", UserID: "u1", GeneratedAt: at}, secs)
	require.NoError(t, err)

	require.Len(t, files.PDFs, 2)
	assert.NotContains(t, files.PDFs, sections.QualityReview)
	assert.Equal(t, "20260304_151617_tailored_resume.pdf", filepath.Base(files.PDFs[sections.TailoredResume]))
	assert.Equal(t, "20260304_151617_cover_letter.pdf", filepath.Base(files.PDFs[sections.CoverLetter]))

	text, pages := pdfText(t, files.PDFs[sections.TailoredResume])
	assert.Equal(t, 1, pages)
	assert.Contains(t, text, "Engineer")
	assert.NotContains(t, text, "**")

	text, _ = pdfText(t, files.PDFs[sections.CoverLetter])
	assert.Contains(t, text, "Cover Letter")

	var got Results
	require.NoError(t, json.Unmarshal([]byte(readFile(t, files.Results)), &got))
	assert.Equal(t, files.PDFs, got.PDFs)
}

func TestWriter_WritePDFSkipsEmptyBodies(t *testing.T) {
	w := NewWriter(t.TempDir(), sections.DefaultMarkers(), true)

	files, err := w.Write(Results{SessionID: "s1"}, map[string]string{
		sections.TailoredResume: "R",
		sections.CoverLetter:    "   ",
	})
	require.NoError(t, err)

	assert.Contains(t, files.PDFs, sections.TailoredResume)
	assert.NotContains(t, files.PDFs, sections.CoverLetter)
	assert.Contains(t, files.Sections, sections.CoverLetter)
}

func TestWriter_LongResumeSpansPages(t *testing.T) {
	w := NewWriter(t.TempDir(), sections.DefaultMarkers(), true)
	body := strings.Repeat("- Delivered a measurable improvement to the platform\n", 120)

	files, err := w.Write(Results{SessionID: "s1"}, map[string]string{sections.TailoredResume: body})
	require.NoError(t, err)

	_, pages := pdfText(t, files.PDFs[sections.TailoredResume])
	assert.Greater(t, pages, 1)
}
