package notifier

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/amishk599/resumeforge/internal/model"
)

func TestLogNotifier_NoSessions(t *testing.T) {
	n := NewLogNotifier(discardLogger())
	if err := n.Notify(nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if err := n.Notify([]model.SessionSummary{}); err != nil {
		t.Errorf("Notify([]) = %v, want nil", err)
	}
}

func TestLogNotifier_WritesScores(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	scored := sampleSummary("session_1", "acme")
	unscored := model.SessionSummary{SessionID: "session_2", JobName: "beta", Sections: []string{"cover_letter"}}
	if err := n.Notify([]model.SessionSummary{scored, unscored}); err != nil {
		t.Fatalf("Notify() = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "quality_score=0.9") || !strings.Contains(lines[0], "approved=true") {
		t.Errorf("first line missing scores: %s", lines[0])
	}
	if strings.Contains(lines[1], "quality_score") {
		t.Errorf("unscored session should not log a score: %s", lines[1])
	}
}
