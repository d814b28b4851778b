package cli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/deckmirror/internal/engine"
	"github.com/roach88/deckmirror/internal/harness"
	"github.com/roach88/deckmirror/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database  string
	GoldenDir string
	Update    bool
	Parallel  int

	// RunIDs names journal runs. Defaults to UUIDv7Generator.
	RunIDs engine.IDGenerator
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name    string   `json:"name"`
	File    string   `json:"file"`
	Pass    bool     `json:"pass"`
	RunID   string   `json:"run_id,omitempty"`
	Digest  string   `json:"digest,omitempty"`
	Golden  string   `json:"golden,omitempty"` // match | mismatch | missing | updated
	Applied int64    `json:"applied"`
	Skipped int64    `json:"skipped"`
	Failed  int64    `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// RunResult is the outcome of a run command.
type RunResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [scenario.yaml...]",
		Short: "Run mirroring scenarios",
		Long: `Run scenario files through the mirroring engine.

Each scenario builds a source and destination deck, pairs them, applies
its steps and checks its assertions. With a golden directory the
destination snapshot is compared against <golden-dir>/<name>.golden.
With --db every executed task is journaled under a fresh run ID.

Without arguments the scenarios listed in the config are run.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error

Examples:
  deckmirror run internal/harness/testdata/scenarios/*.yaml
  deckmirror run --db journal.db intro.yaml
  deckmirror run --golden testdata/golden --update intro.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite journal path (default from config)")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden snapshot directory (default from config)")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden snapshots")
	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "j", 0, "scenarios run at once (default from config)")

	return cmd
}

func runScenarios(ctx context.Context, opts *RunOptions, args []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := opts.formatter(cmd)
	cfg := opts.config()
	logger := opts.log()

	paths := args
	if len(paths) == 0 {
		paths = cfg.ScenarioPaths()
	}
	if len(paths) == 0 {
		return NewExitError(ExitCommandError, "no scenario files given and none configured")
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.Resolve(cfg.Journal)
	}
	var st *store.Store
	if dbPath != "" {
		var err error
		st, err = store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if err := st.Close(); err != nil {
				logger.Error("error closing journal", "error", err)
			}
		}()
		out.VerboseLog("journaling to %s", dbPath)
	}

	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = cfg.Resolve(cfg.GoldenDir)
	}
	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = cfg.Parallel
	}

	ids := opts.RunIDs
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	runIDs := make([]string, len(paths))
	for i := range paths {
		runIDs[i] = ids.Generate()
	}

	results := make([]ScenarioResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, path := range paths {
		g.Go(func() error {
			r := scenarioRun{path: path, runID: runIDs[i], store: st, goldenDir: goldenDir, update: opts.Update, logger: logger}
			results[i] = r.run(gctx)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return WrapExitError(ExitCommandError, "run interrupted", err)
	}

	summary := RunResult{Scenarios: results, Total: len(results)}
	for _, r := range results {
		if r.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	return outputRun(out, summary)
}

type scenarioRun struct {
	path      string
	runID     string
	store     *store.Store
	goldenDir string
	update    bool
	logger    *slog.Logger
}

func (r scenarioRun) run(ctx context.Context) ScenarioResult {
	res := ScenarioResult{
		File: r.path,
		Name: strings.TrimSuffix(filepath.Base(r.path), filepath.Ext(r.path)),
	}
	fail := func(format string, args ...any) ScenarioResult {
		res.Errors = append(res.Errors, fmt.Sprintf(format, args...))
		return res
	}

	sc, err := harness.LoadScenario(r.path)
	if err != nil {
		return fail("load error: %v", err)
	}
	res.Name = sc.Name

	hopts := []harness.Option{harness.WithLogger(r.logger.With("scenario", sc.Name))}
	if r.store != nil {
		rec, err := store.NewRecorder(ctx, r.store, store.Run{ID: r.runID, Label: sc.Name})
		if err != nil {
			return fail("journal error: %v", err)
		}
		res.RunID = rec.RunID()
		hopts = append(hopts, harness.WithRecorder(rec))
	}

	result, err := harness.Run(ctx, sc, hopts...)
	if err != nil {
		return fail("execution failed: %v", err)
	}
	res.Digest = result.Digest
	res.Applied, res.Skipped, res.Failed = result.Stats.Applied, result.Stats.Skipped, result.Stats.Failed
	res.Errors = append(res.Errors, result.Errors...)

	if r.goldenDir != "" {
		if err := r.golden(&res, sc.Name, result.Snapshot); err != nil {
			res.Errors = append(res.Errors, err.Error())
		}
	}

	res.Pass = len(res.Errors) == 0
	return res
}

// golden compares snapshot with the scenario's golden file, or rewrites it
// in update mode. A missing golden file is not a failure.
func (r scenarioRun) golden(res *ScenarioResult, name string, snapshot []byte) error {
	path := filepath.Join(r.goldenDir, name+".golden")

	if r.update {
		if err := os.MkdirAll(r.goldenDir, 0o755); err != nil {
			return fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, snapshot, 0o644); err != nil {
			return fmt.Errorf("failed to write golden file: %w", err)
		}
		res.Golden = "updated"
		return nil
	}

	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		res.Golden = "missing"
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(want, snapshot) {
		res.Golden = "mismatch"
		return fmt.Errorf("snapshot does not match %s (run with --update to regenerate)", path)
	}
	res.Golden = "match"
	return nil
}

func outputRun(out *OutputFormatter, summary RunResult) error {
	var failure *CLIError
	if summary.Failed > 0 {
		failure = &CLIError{Code: ErrCodeScenarioFailed, Message: fmt.Sprintf("%d scenario(s) failed", summary.Failed)}
	}

	if out.JSON() {
		if err := out.Result(summary, failure); err != nil {
			return err
		}
	} else {
		for _, r := range summary.Scenarios {
			mark := "✓"
			if !r.Pass {
				mark = "✗"
			}
			out.Printf("%s %s (applied %d, skipped %d, failed %d)\n", mark, r.Name, r.Applied, r.Skipped, r.Failed)
			for _, e := range r.Errors {
				out.Printf("  %s\n", e)
			}
			if r.RunID != "" {
				out.VerboseLog("%s journaled as run %s", r.Name, r.RunID)
			}
		}
		out.Printf("\nSummary: %d passed, %d failed, %d total\n", summary.Passed, summary.Failed, summary.Total)
	}

	if failure != nil {
		return NewExitError(ExitFailure, failure.Message)
	}
	return nil
}
