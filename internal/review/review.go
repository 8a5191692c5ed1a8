// Package review reads the scores a quality review reports.
package review

import (
	"regexp"
	"strconv"
)

// DefaultThreshold is the minimum normalized quality score for approval.
const DefaultThreshold = 0.85

var (
	qualityScoreRe = regexp.MustCompile(`(?i)(?:overall(?:\s+quality)?|quality)\s+score\**\s*[:=]?\s*\**\s*(\d+(?:\.\d+)?)\s*(%|/\s*100)?`)
	atsScoreRe     = regexp.MustCompile(`(?i)ats(?:\s+compatibility)?\s+score\**\s*[:=]?\s*\**\s*(\d+(?:\.\d+)?)\s*(%|/\s*100)?`)
)

// Scores holds the values found in a review. Nil means the review did not state it.
type Scores struct {
	Quality  *float64
	ATS      *float64
	Approved bool
}

// Parse scans a quality review body for an overall quality score and an ATS
// score. Values above 1 are read as percentages and scaled to 0..1. Approved is
// true when the quality score is at least threshold; a non-positive threshold
// falls back to DefaultThreshold.
func Parse(body string, threshold float64) Scores {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	var s Scores
	s.Quality = findScore(qualityScoreRe, body)
	s.ATS = findScore(atsScoreRe, body)
	if s.Quality != nil {
		s.Approved = *s.Quality >= threshold
	}
	return s
}

func findScore(re *regexp.Regexp, body string) *float64 {
	m := re.FindStringSubmatch(body)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	if v > 1 || m[2] != "" {
		v /= 100
	}
	if v > 1 {
		v = 1
	}
	return &v
}
