package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/resumeforge/internal/browse"
	"github.com/amishk599/resumeforge/internal/filter"
	"github.com/amishk599/resumeforge/internal/model"
	"github.com/amishk599/resumeforge/internal/store"
)

var browseCmd = &cobra.Command{
	Use:   "browse [key=value ...]",
	Short: "Browse saved records interactively",
	Long:  "Opens a full-screen browser over stored records; the same key=value filters as 'records list' apply.",
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	// Log lines would corrupt the TUI until it exits.
	logger := discardLogger()
	if debug {
		logger = setupLogger(debug)
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	where, err := filter.Parse(args)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	records, err := browse.RunLoader("Loading records from "+cfg.Database.Path,
		func(ctx context.Context) ([]model.Record, error) {
			return st.List(ctx, where)
		}, cfg.Database.Timeout*6)
	if err != nil {
		if errors.Is(err, browse.ErrCancelled) {
			return nil
		}
		fmt.Fprintf(os.Stderr, "failed to load records: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("records loaded", "count", len(records))

	return browse.Run(records, cfg.Sections, deleteFunc(st))
}

func deleteFunc(st *store.SQLiteStore) browse.DeleteFunc {
	return func(ctx context.Context, id string) error {
		return st.Delete(ctx, id)
	}
}
