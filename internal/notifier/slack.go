package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/resumeforge/internal/model"
)

var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts completed sessions to a Slack Incoming Webhook.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
	spacing    time.Duration
}

func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
		spacing:    500 * time.Millisecond,
	}
}

// Notify sends one Block Kit message per session. It fails only when every
// message fails; partial failures are logged.
func (s *SlackNotifier) Notify(summaries []model.SessionSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	failures := 0
	for i, sum := range summaries {
		if i > 0 {
			time.Sleep(s.spacing)
		}
		if err := s.send(buildPayload(sum)); err != nil {
			s.logger.Error("slack notification failed", "session_id", sum.SessionID, "error", err)
			failures++
			continue
		}
		s.logger.Debug("slack message sent", "session_id", sum.SessionID)
	}

	if failures == len(summaries) {
		return fmt.Errorf("all %d slack notifications failed", failures)
	}
	s.logger.Info("slack notifications complete", "sent", len(summaries)-failures, "failed", failures)
	return nil
}

// send posts the payload, retrying once if Slack answers 429.
func (s *SlackNotifier) send(payload slackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(body)
	if err != nil {
		return err
	}
	if status == http.StatusTooManyRequests {
		s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter)
		time.Sleep(retryAfter)
		if status, _, err = s.post(body); err != nil {
			return fmt.Errorf("retry: %w", err)
		}
	}
	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	return nil
}

func (s *SlackNotifier) post(body []byte) (int, time.Duration, error) {
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	if secs <= 0 {
		secs = 1
	}
	return resp.StatusCode, time.Duration(secs) * time.Second, nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTestMessage sends a sample session through n to check the integration.
func SendTestMessage(n model.Notifier) error {
	quality, ats := 0.9, 0.82
	return n.Notify([]model.SessionSummary{{
		SessionID:    "session_test",
		UserID:       "test",
		JobName:      "Integration Check",
		Sections:     []string{"tailored_resume", "cover_letter", "quality_review"},
		QualityScore: &quality,
		ATSScore:     &ats,
		Approved:     true,
	}})
}

func formatScore(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.0f%%", *p*100)
}

func buildPayload(s model.SessionSummary) slackPayload {
	title := s.JobName
	if title == "" {
		title = s.SessionID
	}
	status := "⚠️ Needs review"
	if s.Approved {
		status = "✅ Approved"
	}
	sections := strings.Join(s.Sections, ", ")
	if sections == "" {
		sections = "none"
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "📄 Documents ready: " + title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Session:*\n" + s.SessionID},
				{Type: "mrkdwn", Text: "*User:*\n" + s.UserID},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Quality:*\n" + formatScore(s.QualityScore)},
				{Type: "mrkdwn", Text: "*ATS:*\n" + formatScore(s.ATSScore)},
			},
		},
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("%s   *Sections:* %s", status, sections)},
		},
	}
	if s.OutputDir != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Files:* `" + s.OutputDir + "`"},
		})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{Blocks: blocks}
}
