package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/amishk599/resumeforge/internal/ai"
	"github.com/amishk599/resumeforge/internal/input"
	"github.com/amishk599/resumeforge/internal/model"
	"github.com/amishk599/resumeforge/internal/output"
	"github.com/amishk599/resumeforge/internal/pipeline"
	"github.com/amishk599/resumeforge/internal/scheduler"
	"github.com/amishk599/resumeforge/internal/sections"
	"github.com/amishk599/resumeforge/internal/store"
)

var (
	genCV           string
	genCVsDir       string
	genJob          string
	genJobURL       string
	genJobsDir      string
	genUser         string
	genSession      string
	genResponseFile string
	genDryRun       bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a tailored resume, cover letter and review",
	Long: "Reads a CV and one or more job descriptions, asks the model for tailored documents, " +
		"writes each section to the output directory and saves a record per session.",
	Example: "  resumeforge generate --cv input/cvs/jane.pdf --job input/job_descriptions/acme.txt\n" +
		"  resumeforge generate --cv cv.md --job-url https://example.com/jobs/123 --user jane\n" +
		"  resumeforge generate --cv cv.txt --jobs-dir input/job_descriptions\n" +
		"  resumeforge generate --cvs-dir input/cvs --jobs-dir input/job_descriptions",
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genCV, "cv", "", "CV file (.txt, .md, .pdf, .docx)")
	f.StringVar(&genCVsDir, "cvs-dir", "", "directory of CVs, combined into one candidate profile")
	f.StringVar(&genJob, "job", "", "job description file")
	f.StringVar(&genJobURL, "job-url", "", "job posting URL to fetch")
	f.StringVar(&genJobsDir, "jobs-dir", "", "directory of job descriptions, one session each")
	f.StringVar(&genUser, "user", "", "user id stored with each record (default \""+pipeline.DefaultUserID+"\")")
	f.StringVar(&genSession, "session", "", "session id (single job only; generated when empty)")
	f.StringVar(&genResponseFile, "response-file", "", "replay a saved model response instead of calling the API")
	f.BoolVar(&genDryRun, "dry-run", false, "write files but do not save records")
	generateCmd.MarkFlagsMutuallyExclusive("cv", "cvs-dir")
	generateCmd.MarkFlagsOneRequired("cv", "cvs-dir")
	generateCmd.MarkFlagsMutuallyExclusive("job", "job-url", "jobs-dir")
	generateCmd.MarkFlagsOneRequired("job", "job-url", "jobs-dir")
	generateCmd.MarkFlagsMutuallyExclusive("session", "jobs-dir")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cv, err := readCV()
	if err != nil {
		logger.Error("failed to read CV", "error", err)
		os.Exit(1)
	}

	reqs, err := buildRequests(ctx, cv)
	if err != nil {
		logger.Error("failed to read job descriptions", "error", err)
		os.Exit(1)
	}

	gen, err := setupGenerator(cfg, genResponseFile, logger)
	if err != nil {
		logger.Error("failed to configure llm", "error", err)
		os.Exit(1)
	}

	var recordStore model.RecordStore
	if genDryRun {
		logger.Info("dry-run mode enabled, no records will be saved")
		recordStore = store.NewNopStore()
	} else {
		sqlStore, err := openStore(cfg)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer sqlStore.Close()
		recordStore = sqlStore
	}

	tailor := ai.NewTailor(gen, ai.TailorTemplate, cfg.Sections, logger)
	p := pipeline.New(
		tailor,
		cfg.Sections,
		output.NewWriter(cfg.Output.Dir, cfg.Sections, cfg.Output.PDF),
		recordStore,
		setupNotifier(cfg, newHTTPClient(), logger),
		cfg.Review.QualityThreshold,
		logger,
	)

	if len(reqs) == 1 {
		res, err := p.Run(ctx, reqs[0])
		if err != nil {
			if errors.Is(err, pipeline.ErrNoSections) && res.Files.Raw != "" {
				logger.Error("generation failed", "error", err, "raw_response", res.Files.Raw)
			} else {
				logger.Error("generation failed", "error", err)
			}
			os.Exit(1)
		}
		printResult(reqs[0], res, cfg.Sections, genDryRun)
		return nil
	}

	sched := scheduler.NewScheduler(p, cfg.Batch.Concurrency, logger)
	sum, err := sched.RunBatch(ctx, reqs)
	for _, o := range sum.Outcomes {
		if o.Err == nil {
			printResult(o.Request, o.Result, cfg.Sections, genDryRun)
		}
	}
	fmt.Printf("\n%s %d succeeded, %s failed, %d skipped\n",
		color.GreenString("✓"), sum.Succeeded, color.RedString("%d", sum.Failed), sum.Skipped)
	if err != nil || sum.Failed > 0 {
		os.Exit(1)
	}
	return nil
}

// readCV returns the text of --cv, or of every document in --cvs-dir joined.
func readCV() (string, error) {
	if genCVsDir == "" {
		doc, err := input.ReadDocument(genCV)
		if err != nil {
			return "", err
		}
		return doc.Text, nil
	}
	docs, err := input.ReadDir(genCVsDir)
	if err != nil {
		return "", err
	}
	return input.CombineText(docs), nil
}

// buildRequests returns one request per job description named by the flags.
func buildRequests(ctx context.Context, cv string) ([]pipeline.Request, error) {
	base := pipeline.Request{UserID: genUser, SessionID: genSession, CV: cv}

	switch {
	case genJob != "":
		doc, err := input.ReadDocument(genJob)
		if err != nil {
			return nil, err
		}
		base.JobDescription, base.JobName = doc.Text, doc.Name
		return []pipeline.Request{base}, nil

	case genJobURL != "":
		posting, err := input.FetchJobPosting(ctx, newHTTPClient(), genJobURL)
		if err != nil {
			return nil, err
		}
		base.JobDescription, base.JobName = posting.Description, output.SafeName(posting.Title)
		return []pipeline.Request{base}, nil

	default:
		docs, err := input.ReadDir(genJobsDir)
		if err != nil {
			return nil, err
		}
		reqs := make([]pipeline.Request, 0, len(docs))
		for _, doc := range docs {
			req := base
			req.JobDescription, req.JobName = doc.Text, doc.Name
			reqs = append(reqs, req)
		}
		return reqs, nil
	}
}

func printResult(req pipeline.Request, res pipeline.Result, markers []sections.Marker, dryRun bool) {
	fmt.Println()
	fmt.Println(color.New(color.Bold, color.Underline).Sprint(req.JobName))
	for _, name := range sections.Names(res.Sections, markers) {
		fmt.Printf("  %s %-16s %s\n", color.GreenString("✓"), name, res.Files.Sections[name])
		if path, ok := res.Files.PDFs[name]; ok {
			fmt.Printf("  %s %-16s %s\n", color.GreenString("✓"), name+" (pdf)", path)
		}
	}
	fmt.Printf("  %s session %s\n", color.CyanString("→"), res.SessionID)
	if dryRun {
		fmt.Printf("  %s dry run, record not saved\n", color.YellowString("⚠"))
	} else {
		fmt.Printf("  %s record %s\n", color.CyanString("→"), res.RecordID)
	}
	fmt.Printf("  quality %s  ats %s\n", scoreString(res.Scores.Quality), scoreString(res.Scores.ATS))
	if !res.Scores.Approved {
		fmt.Printf("  %s below the quality threshold, review before sending\n", color.YellowString("⚠"))
	}
}

func scoreString(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return colorScore(*p)
}

func colorScore(v float64) string {
	pct := v * 100
	switch {
	case pct >= 85:
		return color.GreenString("%.0f%%", pct)
	case pct >= 70:
		return color.YellowString("%.0f%%", pct)
	default:
		return color.RedString("%.0f%%", pct)
	}
}
