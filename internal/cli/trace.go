package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/deckmirror/internal/engine"
	"github.com/roach88/deckmirror/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Owner    string // owner prefix, e.g. "ink:"
	Kind     string // kind prefix, e.g. "rtink."
	Limit    int
}

// TraceRun summarizes one journaled run.
type TraceRun struct {
	ID     string         `json:"id"`
	Label  string         `json:"label"`
	Counts map[string]int `json:"counts"`
}

// TraceActivity is one journaled task.
type TraceActivity struct {
	RunID  string         `json:"run_id"`
	Seq    int64          `json:"seq"`
	Kind   string         `json:"kind"`
	Owner  string         `json:"owner"`
	Status string         `json:"status"`
	Detail map[string]any `json:"detail,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// TraceResult is the output of the trace command.
type TraceResult struct {
	Runs       []TraceRun      `json:"runs"`
	Activities []TraceActivity `json:"activities"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "List journaled propagation tasks",
		Long: `List the tasks a run executed, in execution order.

Every task the dispatcher executes is journaled with its seq, kind, owner
match, status and detail. Filters on owner and kind are prefixes.

Examples:
  deckmirror trace --db journal.db
  deckmirror trace --db journal.db --run 0192f0c4-... --kind ink.
  deckmirror trace --db journal.db --owner rtink: --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite journal path (default from config)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "only this run")
	cmd.Flags().StringVar(&opts.Owner, "owner", "", "owner prefix filter")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "kind prefix filter")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum activities (0 = all)")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := opts.formatter(cmd)

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.config().Resolve(opts.config().Journal)
	}
	if dbPath == "" {
		return NewExitError(ExitCommandError, "no journal: pass --db or set journal in the config")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return WrapExitError(ExitCommandError, "journal not found", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	runs, err := st.ReadRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read runs", err)
	}

	result := TraceResult{Runs: []TraceRun{}, Activities: []TraceActivity{}}
	for _, run := range runs {
		if opts.RunID != "" && run.ID != opts.RunID {
			continue
		}
		counts, err := st.CountByStatus(ctx, run.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to count activities", err)
		}
		tr := TraceRun{ID: run.ID, Label: run.Label, Counts: map[string]int{}}
		for _, s := range []engine.Status{engine.StatusApplied, engine.StatusSkipped, engine.StatusFailed} {
			tr.Counts[string(s)] = counts[s]
		}
		result.Runs = append(result.Runs, tr)
	}

	activities, err := st.ReadActivities(ctx, store.Filter{
		RunID: opts.RunID,
		Owner: opts.Owner,
		Kind:  opts.Kind,
		Limit: opts.Limit,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read activities", err)
	}
	for _, a := range activities {
		detail, err := a.DetailMap()
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("corrupt detail for %s seq %d", a.RunID, a.Seq), err)
		}
		if len(detail) == 0 {
			detail = nil
		}
		result.Activities = append(result.Activities, TraceActivity{
			RunID:  a.RunID,
			Seq:    a.Seq,
			Kind:   a.Kind,
			Owner:  a.Owner,
			Status: string(a.Status),
			Detail: detail,
			Error:  a.Error,
		})
	}

	if out.JSON() {
		return out.Result(result, nil)
	}
	outputTraceText(out, result, activities)
	return nil
}

func outputTraceText(out *OutputFormatter, result TraceResult, activities []store.Activity) {
	if len(result.Activities) == 0 {
		out.Printf("No activities found.\n")
		return
	}

	labels := map[string]string{}
	for _, r := range result.Runs {
		labels[r.ID] = r.Label
	}

	current := ""
	for i, a := range result.Activities {
		if a.RunID != current {
			current = a.RunID
			out.Printf("run %s %s\n", a.RunID, labels[a.RunID])
		}
		out.Printf("  %4d  %-16s %-8s %s\n", a.Seq, a.Kind, a.Status, a.Owner)
		if out.Verbose && activities[i].Detail != "{}" {
			out.Printf("        %s\n", activities[i].Detail)
		}
		if a.Error != "" {
			out.Printf("        error: %s\n", a.Error)
		}
	}

	out.Printf("\n")
	for _, r := range result.Runs {
		out.Printf("%s: %d applied, %d skipped, %d failed\n",
			r.ID, r.Counts["applied"], r.Counts["skipped"], r.Counts["failed"])
	}
}
