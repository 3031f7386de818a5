package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/pagebaker/internal/bakerecord"
	"git.home.luguber.info/inful/pagebaker/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	RunID string `arg:"" optional:"" name:"run" help:"Run ID to show in detail (default: list recent runs)"`
	Last  bool   `help:"Show the most recent run in detail"`
	Limit int    `short:"n" help:"Number of runs to list" default:"10"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root, "")
	if err != nil {
		return err
	}
	record, err := openRecord(cfg)
	if err != nil {
		return err
	}
	if record == nil {
		return errors.ConfigError("bake record is disabled (set baker.record_path)").Build()
	}
	defer func() { _ = record.Close() }()
	return RunHistory(context.Background(), record, h, os.Stdout)
}

// RunHistory prints recorded runs, or the entries of one run, from store.
func RunHistory(ctx context.Context, store bakerecord.Store, h *HistoryCmd, out io.Writer) error {
	runID := h.RunID
	if runID == "" && h.Last {
		id, err := store.LastRunID(ctx)
		if err != nil {
			return err
		}
		runID = id
	}
	if runID != "" {
		return printRun(ctx, store, runID, out)
	}

	runs, err := store.Runs(ctx, h.Limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tOUTCOME\tPAGES\tFILES\tFAILURES\tDURATION")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.Outcome, r.Pages, r.Files, r.Failures, r.Duration().Round(time.Millisecond))
	}
	return tw.Flush()
}

func printRun(ctx context.Context, store bakerecord.Store, runID string, out io.Writer) error {
	run, err := store.Run(ctx, runID)
	if err != nil {
		return err
	}
	entries, err := store.Entries(ctx, runID)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Run %s: %s, %d pages, %d files, %d failures\n",
		run.ID, run.Outcome, run.Pages, run.Files, run.Failures)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PAGE\tFILES\tASSETS\tPAGINATED\tFINGERPRINT\tERROR")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%t\t%s\t%s\n",
			displayURI(e.URI), len(e.Files), e.Assets, e.PaginationAccessed, shortFingerprint(e.Fingerprint), e.Error)
	}
	return tw.Flush()
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
