// Package sections splits one generated response into named sections using
// literal heading markers.
package sections

import (
	"sort"
	"strings"
)

// Section names produced by the tailoring prompt.
const (
	TailoredResume = "tailored_resume"
	CoverLetter    = "cover_letter"
	QualityReview  = "quality_review"
)

// Marker pairs a section name with the literal heading that precedes it.
type Marker struct {
	Name    string `yaml:"name"`
	Literal string `yaml:"marker"`
}

// DefaultMarkers returns the headings the tailoring prompt asks the model to emit,
// in the order they are requested.
func DefaultMarkers() []Marker {
	return []Marker{
		{Name: TailoredResume, Literal: "## TAILORED RESUME:"},
		{Name: CoverLetter, Literal: "## COVER LETTER:"},
		{Name: QualityReview, Literal: "## QUALITY REVIEW:"},
	}
}

// KnownName reports whether name is one of the section names above.
func KnownName(name string) bool {
	switch name {
	case TailoredResume, CoverLetter, QualityReview:
		return true
	}
	return false
}

type located struct {
	name  string
	start int
	end   int
}

// Extract returns the trimmed body of every section whose marker occurs in text.
// A body runs from the end of its marker's first occurrence to the start of the
// next located marker by position in text, or to the end of text. Sections whose
// marker is absent are omitted. Empty literals never match. When two markers share
// a name, the one occurring first in text wins.
func Extract(text string, markers []Marker) map[string]string {
	found := make([]located, 0, len(markers))
	byName := make(map[string]int, len(markers))
	for _, m := range markers {
		if m.Literal == "" {
			continue
		}
		idx := strings.Index(text, m.Literal)
		if idx < 0 {
			continue
		}
		loc := located{name: m.Name, start: idx, end: idx + len(m.Literal)}
		if i, ok := byName[m.Name]; ok {
			if loc.start < found[i].start {
				found[i] = loc
			}
			continue
		}
		byName[m.Name] = len(found)
		found = append(found, loc)
	}

	// Shorter literal first on a tie: it ends where the longer one starts, so
	// the prefix marker gets an empty body and the longer heading keeps the text.
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].start != found[j].start {
			return found[i].start < found[j].start
		}
		return found[i].end < found[j].end
	})

	out := make(map[string]string, len(found))
	for i, loc := range found {
		stop := len(text)
		if i+1 < len(found) {
			stop = found[i+1].start
		}
		body := ""
		if stop > loc.end {
			body = strings.TrimSpace(text[loc.end:stop])
		}
		out[loc.name] = body
	}
	return out
}

// Render joins sections back into one document, marker then body, in marker
// order. Sections missing from secs are skipped.
func Render(secs map[string]string, markers []Marker) string {
	var b strings.Builder
	seen := make(map[string]bool, len(markers))
	for _, m := range markers {
		body, ok := secs[m.Name]
		if !ok || seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Literal)
		b.WriteString("\n")
		b.WriteString(body)
	}
	return b.String()
}

// Names returns the names present in secs, in marker order.
func Names(secs map[string]string, markers []Marker) []string {
	var names []string
	seen := make(map[string]bool, len(markers))
	for _, m := range markers {
		if _, ok := secs[m.Name]; ok && !seen[m.Name] {
			seen[m.Name] = true
			names = append(names, m.Name)
		}
	}
	return names
}
