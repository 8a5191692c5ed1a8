package output

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/amishk599/resumeforge/internal/sections"
)

// pdfTitles lists the sections rendered to PDF and the title printed above each.
var pdfTitles = map[string]string{
	sections.TailoredResume: "",
	sections.CoverLetter:    "Cover Letter",
}

// resumeHeadings start a paragraph that is set as a heading even when not all caps.
var resumeHeadings = []string{
	"PROFESSIONAL SUMMARY",
	"TECHNICAL SKILLS",
	"PROFESSIONAL EXPERIENCE",
	"EDUCATION",
	"CERTIFICATIONS",
	"PROJECTS",
	"LANGUAGES",
}

var (
	mdHeadingRe    = regexp.MustCompile(`(?m)^#+[ \t]*`)
	mdBoldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	mdItalicRe     = regexp.MustCompile(`\*(.*?)\*`)
	mdLinkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	blankLinesRe   = regexp.MustCompile(`\n\s*\n\s*\n`)
	paragraphSepRe = regexp.MustCompile(`\n[ \t]*\n`)
)

// Letter page in points, one inch side margins.
const (
	pdfMargin     = 72.0
	pdfBottom     = 18.0
	pdfBodySize   = 11.0
	pdfLineHeight = 14.0
)

// PlainText strips the markdown a model tends to emit (headings, emphasis,
// links) and collapses runs of blank lines.
func PlainText(md string) string {
	s := mdHeadingRe.ReplaceAllString(md, "")
	s = mdBoldRe.ReplaceAllString(s, "$1")
	s = mdItalicRe.ReplaceAllString(s, "$1")
	s = mdLinkRe.ReplaceAllString(s, "$1")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func isHeading(para string) bool {
	if strings.Contains(para, "\n") {
		return false
	}
	for _, prefix := range resumeHeadings {
		if strings.HasPrefix(para, prefix) {
			return true
		}
	}
	return len(para) < 50 && strings.ToUpper(para) == para && strings.ToLower(para) != para
}

// writePDFs renders every PDF-enabled section with a non-empty body to
// <dir>/<stamp>_<name>.pdf and returns the paths by section name.
func writePDFs(dir, stamp string, secs map[string]string, markers []sections.Marker) (map[string]string, error) {
	paths := make(map[string]string)
	for _, name := range sections.Names(secs, markers) {
		title, ok := pdfTitles[name]
		if !ok || strings.TrimSpace(secs[name]) == "" {
			continue
		}
		path := filepath.Join(dir, stamp+"_"+name+".pdf")
		if err := writePDF(path, title, secs[name]); err != nil {
			return paths, err
		}
		paths[name] = path
	}
	return paths, nil
}

func writePDF(path, title, body string) error {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	doc.SetAutoPageBreak(true, pdfBottom+pdfMargin/2)
	doc.SetCreator("resumeforge", true)
	if title != "" {
		doc.SetTitle(title, true)
	}
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()

	if title != "" {
		doc.SetFont("Helvetica", "B", 16)
		doc.MultiCell(0, 20, tr(title), "", "C", false)
		doc.Ln(12)
	}

	for _, para := range paragraphSepRe.Split(PlainText(body), -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if title == "" && isHeading(para) {
			doc.Ln(6)
			doc.SetFont("Helvetica", "B", 12)
			doc.MultiCell(0, 16, tr(para), "", "L", false)
		} else {
			doc.SetFont("Helvetica", "", pdfBodySize)
			for _, line := range strings.Split(para, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					doc.MultiCell(0, pdfLineHeight, tr(line), "", "L", false)
				}
			}
		}
		doc.Ln(6)
	}

	if err := doc.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
