package notifier

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/amishk599/resumeforge/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func floatPtr(f float64) *float64 { return &f }

func sampleSummary(session, job string) model.SessionSummary {
	return model.SessionSummary{
		SessionID:    session,
		UserID:       "user_1",
		RecordID:     "rec-1",
		JobName:      job,
		Sections:     []string{"tailored_resume", "cover_letter", "quality_review"},
		QualityScore: floatPtr(0.9),
		ATSScore:     floatPtr(0.8),
		Approved:     true,
		OutputDir:    "output",
	}
}

func newTestNotifier(url string, client *http.Client) *SlackNotifier {
	n := NewSlackNotifier(url, client, discardLogger())
	n.spacing = 0
	return n
}

func TestSlackNotifier_Empty(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	if err := n.Notify(nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if c := calls.Load(); c != 0 {
		t.Errorf("expected 0 HTTP calls, got %d", c)
	}
}

func TestSlackNotifier_PayloadFormat(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	if err := n.Notify([]model.SessionSummary{sampleSummary("session_1", "Acme Backend")}); err != nil {
		t.Fatalf("Notify() = %v", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(payload.Blocks) != 6 {
		t.Fatalf("expected 6 blocks, got %d", len(payload.Blocks))
	}
	if got := payload.Blocks[0].Text.Text; got != "📄 Documents ready: Acme Backend" {
		t.Errorf("header = %q", got)
	}
	if got := payload.Blocks[2].Fields[0].Text; got != "*Quality:*\n90%" {
		t.Errorf("quality field = %q", got)
	}
	if got := payload.Blocks[3].Text.Text; got != "✅ Approved   *Sections:* tailored_resume, cover_letter, quality_review" {
		t.Errorf("status text = %q", got)
	}
	if payload.Blocks[5].Type != "divider" {
		t.Errorf("last block type = %q, want divider", payload.Blocks[5].Type)
	}
}

func TestSlackNotifier_UnscoredSession(t *testing.T) {
	p := buildPayload(model.SessionSummary{SessionID: "session_2"})

	if got := p.Blocks[0].Text.Text; got != "📄 Documents ready: session_2" {
		t.Errorf("header = %q, want session id fallback", got)
	}
	if got := p.Blocks[2].Fields[1].Text; got != "*ATS:*\nn/a" {
		t.Errorf("ats field = %q", got)
	}
	if got := p.Blocks[3].Text.Text; got != "⚠️ Needs review   *Sections:* none" {
		t.Errorf("status text = %q", got)
	}
	if len(p.Blocks) != 5 {
		t.Errorf("expected 5 blocks without output dir, got %d", len(p.Blocks))
	}
}

func TestSlackNotifier_MultipleSessions(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	sums := []model.SessionSummary{sampleSummary("a", "A"), sampleSummary("b", "B"), sampleSummary("c", "C")}
	if err := n.Notify(sums); err != nil {
		t.Fatalf("Notify() = %v", err)
	}
	if c := calls.Load(); c != 3 {
		t.Errorf("expected 3 HTTP calls, got %d", c)
	}
}

func TestSlackNotifier_AllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	if err := n.Notify([]model.SessionSummary{sampleSummary("a", "A"), sampleSummary("b", "B")}); err == nil {
		t.Error("expected error when all messages fail")
	}
}

func TestSlackNotifier_PartialFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	if err := n.Notify([]model.SessionSummary{sampleSummary("a", "A"), sampleSummary("b", "B")}); err != nil {
		t.Errorf("expected nil on partial success, got %v", err)
	}
}

func TestSlackNotifier_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	if err := n.Notify([]model.SessionSummary{sampleSummary("a", "A")}); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls, got %d", c)
	}
}

func TestSendTestMessage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := SendTestMessage(newTestNotifier(srv.URL, srv.Client())); err != nil {
		t.Fatalf("SendTestMessage() = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 HTTP call, got %d", calls.Load())
	}
}
