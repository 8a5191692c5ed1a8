package main

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/resumeforge/internal/ai"
	"github.com/amishk599/resumeforge/internal/config"
	"github.com/amishk599/resumeforge/internal/model"
	"github.com/amishk599/resumeforge/internal/notifier"
	"github.com/amishk599/resumeforge/internal/ratelimit"
	"github.com/amishk599/resumeforge/internal/retry"
	"github.com/amishk599/resumeforge/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "resumeforge",
	Short: "Tailor a CV and cover letter to a job description",
	Long: "resumeforge sends your CV and a job description to an LLM, splits the reply into a " +
		"tailored resume, a cover letter and a quality review, writes them to disk and keeps a record of every session.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: "+config.EnvPath+" env var or ./"+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: --config > RESUMEFORGE_CONFIG > ./config.yaml (optional).
func loadConfig(path string) (*config.Config, error) {
	return config.LoadOrDefault(config.ResolvePath(path))
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// discardLogger keeps log lines off the screen while a TUI owns it.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Debug("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// openStore opens the SQLite record store. The caller must Close it.
func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.Database.Path, store.Options{
		RequiredFields: cfg.Database.RequiredFields,
		Timeout:        cfg.Database.Timeout,
	})
}

// setupGenerator builds the text generator: a saved response when
// responseFile is set, otherwise the chat-completions client wrapped with
// retries and per-model spacing.
func setupGenerator(cfg *config.Config, responseFile string, logger *slog.Logger) (model.TextGenerator, error) {
	if responseFile != "" {
		logger.Info("replaying saved response", "path", responseFile)
		return ai.NewFileProvider(responseFile), nil
	}
	if err := cfg.AI.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.AI.Timeout}
	var gen model.TextGenerator = ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, httpClient)
	gen = retry.NewRetryGenerator(gen, cfg.AI.MaxRetries, cfg.AI.RetryDelay, logger)
	gen = ratelimit.NewRateLimitedGenerator(gen, ratelimit.NewKeyedLimiter(cfg.AI.MinDelay), cfg.AI.Model)
	logger.Debug("llm configured",
		"base_url", cfg.AI.BaseURL,
		"model", cfg.AI.Model,
		"max_retries", cfg.AI.MaxRetries,
		"min_delay", cfg.AI.MinDelay.String(),
	)
	return gen, nil
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
