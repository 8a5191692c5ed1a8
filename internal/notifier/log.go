package notifier

import (
	"log/slog"
	"strings"

	"github.com/amishk599/resumeforge/internal/model"
)

var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes completed sessions to a logger.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one line per session. It never fails.
func (n *LogNotifier) Notify(summaries []model.SessionSummary) error {
	for _, s := range summaries {
		args := []any{
			"session_id", s.SessionID,
			"user_id", s.UserID,
			"record_id", s.RecordID,
			"job", s.JobName,
			"sections", strings.Join(s.Sections, ","),
			"approved", s.Approved,
		}
		if s.QualityScore != nil {
			args = append(args, "quality_score", *s.QualityScore)
		}
		if s.ATSScore != nil {
			args = append(args, "ats_score", *s.ATSScore)
		}
		if s.OutputDir != "" {
			args = append(args, "output_dir", s.OutputDir)
		}
		n.logger.Info("documents ready", args...)
	}
	return nil
}
