package review

import "testing"

func TestParse_PercentScores(t *testing.T) {
	body := `**Overall Score:** 88/100
ATS Score: 92%
Strengths: strong alignment`

	s := Parse(body, 0)
	if s.Quality == nil || *s.Quality != 0.88 {
		t.Fatalf("Quality = %v, want 0.88", s.Quality)
	}
	if s.ATS == nil || *s.ATS != 0.92 {
		t.Fatalf("ATS = %v, want 0.92", s.ATS)
	}
	if !s.Approved {
		t.Error("expected approval at 0.88 with default threshold 0.85")
	}
}

func TestParse_FractionScore(t *testing.T) {
	s := Parse("quality score = 0.7", 0.85)
	if s.Quality == nil || *s.Quality != 0.7 {
		t.Fatalf("Quality = %v, want 0.7", s.Quality)
	}
	if s.Approved {
		t.Error("0.7 should not be approved at threshold 0.85")
	}
	if s.ATS != nil {
		t.Errorf("ATS = %v, want nil", *s.ATS)
	}
}

func TestParse_NoScores(t *testing.T) {
	s := Parse("Looks good. Add more metrics.", 0.85)
	if s.Quality != nil || s.ATS != nil || s.Approved {
		t.Errorf("Parse = %+v, want zero Scores", s)
	}
}

func TestParse_CustomThreshold(t *testing.T) {
	s := Parse("Overall quality score: 75", 0.7)
	if !s.Approved {
		t.Error("0.75 should be approved at threshold 0.7")
	}
}
