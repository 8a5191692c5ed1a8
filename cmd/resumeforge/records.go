package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/amishk599/resumeforge/internal/filter"
	"github.com/amishk599/resumeforge/internal/model"
	"github.com/amishk599/resumeforge/internal/sections"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect and edit saved records",
}

var recordsListCmd = &cobra.Command{
	Use:     "list [key=value ...]",
	Short:   "List records, optionally filtered by field values",
	Example: "  resumeforge records list user_id=jane quality_score=0.9",
	RunE:    runRecordsList,
}

var recordsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print one record with all of its fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsShow,
}

var recordsUpdateCmd = &cobra.Command{
	Use:     "update ID key=value [key=value ...]",
	Short:   "Overwrite the named fields of a record",
	Example: "  resumeforge records update 3f1c... job_name=acme-backend quality_score=0.9",
	Args:    cobra.MinimumNArgs(2),
	RunE:    runRecordsUpdate,
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsDelete,
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsListCmd, recordsShowCmd, recordsUpdateCmd, recordsDeleteCmd)
}

// withStore loads config, opens the store, runs fn, and maps errors to exit codes.
func withStore(fn func(ctx context.Context, st model.RecordStore) error) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	st, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := fn(context.Background(), st); err != nil {
		var nf *model.NotFoundError
		var ve *model.ValidationError
		switch {
		case errors.As(err, &nf):
			fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("✗"), err)
		case errors.As(err, &ve):
			fmt.Fprintf(os.Stderr, "%s %v\n", color.YellowString("⚠"), err)
		default:
			logger.Error("records command failed", "error", err)
		}
		st.Close()
		os.Exit(1)
	}
	return nil
}

func runRecordsList(cmd *cobra.Command, args []string) error {
	where, err := filter.Parse(args)
	if err != nil {
		return err
	}
	return withStore(func(ctx context.Context, st model.RecordStore) error {
		recs, err := st.List(ctx, where)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("no records")
			return nil
		}
		for _, r := range recs {
			printRecordLine(r)
		}
		fmt.Printf("\n%d record(s)\n", len(recs))
		return nil
	})
}

func printRecordLine(r model.Record) {
	score := "  -"
	if q, ok := r.Number(model.FieldQualityScore); ok {
		score = colorScore(q)
	}
	name := r.String(model.FieldJobName)
	if name == "" {
		name = "-"
	}
	fmt.Printf("%s  %s  %-5s %-24s %s\n",
		color.CyanString(r.ID),
		r.CreatedAt.Local().Format("2006-01-02 15:04"),
		score,
		name,
		r.String(model.FieldSessionID),
	)
}

func runRecordsShow(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st model.RecordStore) error {
		r, err := st.Retrieve(ctx, args[0])
		if err != nil {
			return err
		}
		printRecord(r)
		return nil
	})
}

// printRecord prints metadata and scalar fields first, then long section bodies.
func printRecord(r model.Record) {
	bold := color.New(color.Bold)
	bold.Println("Record " + r.ID)
	fmt.Printf("  %-14s %s\n", "created_at", r.CreatedAt.Local().Format(time.RFC3339))
	fmt.Printf("  %-14s %s\n", "updated_at", r.UpdatedAt.Local().Format(time.RFC3339))

	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		if !sections.KnownName(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-14s %v\n", k, r.Fields[k])
	}

	for _, m := range sections.DefaultMarkers() {
		body, ok := r.Fields[m.Name]
		if !ok {
			continue
		}
		fmt.Println()
		fmt.Println(color.New(color.Bold, color.Underline).Sprint(m.Name))
		fmt.Println(strings.TrimSpace(fmt.Sprint(body)))
	}
}

func runRecordsUpdate(cmd *cobra.Command, args []string) error {
	partial, err := filter.Parse(args[1:])
	if err != nil {
		return err
	}
	return withStore(func(ctx context.Context, st model.RecordStore) error {
		if err := st.Update(ctx, args[0], partial); err != nil {
			return err
		}
		fmt.Printf("%s updated %s (%d field(s))\n", color.GreenString("✓"), args[0], len(partial))
		return nil
	})
}

func runRecordsDelete(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st model.RecordStore) error {
		if err := st.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("%s deleted %s\n", color.GreenString("✓"), args[0])
		return nil
	})
}
