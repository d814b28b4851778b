package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/deckmirror/internal/canonical"
	"github.com/roach88/deckmirror/internal/engine"
	"github.com/roach88/deckmirror/internal/ink"
	"github.com/roach88/deckmirror/internal/match"
	"github.com/roach88/deckmirror/internal/model"
	"github.com/roach88/deckmirror/internal/service"
	"github.com/roach88/deckmirror/internal/testutil"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held and no task failed.
	Pass   bool
	Errors []string
	Stats  engine.Stats
	// Snapshot is the canonical JSON of the destination's final state.
	Snapshot []byte
	// Digest is the domain-separated hash of Snapshot.
	Digest string
}

// AddError records a failure.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger   *slog.Logger
	recorder engine.Recorder
}

// WithLogger sets the logger for the dispatcher and matches. Default:
// logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// WithRecorder journals every executed task.
func WithRecorder(r engine.Recorder) Option {
	return func(c *runConfig) { c.recorder = r }
}

// world is the live state of one scenario run.
type world struct {
	scenario *Scenario
	logger   *slog.Logger
	queue    *engine.Dispatcher
	ids      *testutil.SequentialGenerator
	failures []string

	src, dst     *model.Deck
	srcTr, dstTr *model.SlideTraversal
	svc          *service.DeckMatcherService

	// Registries keyed by deck then title. They keep removed objects so
	// assertions can still name them.
	slides  map[*model.Deck]map[string]*model.Slide
	entries map[*model.Deck]map[string]*model.Entry
	sheets  map[*model.Deck]map[string]map[string]model.Sheet

	dotSeq int
}

// Run executes a scenario in a fresh in-memory world.
//
// Each run uses a deterministic clock and correlation-id sequence, so the
// snapshot of a given scenario is always the same bytes.
func Run(ctx context.Context, sc *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	w := &world{
		scenario: sc,
		logger:   cfg.logger,
		ids:      testutil.NewSequentialGenerator("cid"),
		slides:   map[*model.Deck]map[string]*model.Slide{},
		entries:  map[*model.Deck]map[string]*model.Entry{},
		sheets:   map[*model.Deck]map[string]map[string]model.Sheet{},
	}
	dopts := []engine.Option{
		engine.WithLogger(cfg.logger),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithFailureHandler(func(t engine.Task, err error) {
			w.failures = append(w.failures, err.Error())
		}),
	}
	if cfg.recorder != nil {
		dopts = append(dopts, engine.WithRecorder(cfg.recorder))
	}
	w.queue = engine.NewDispatcher(dopts...)

	if err := w.build(); err != nil {
		return nil, err
	}
	defer w.svc.Dispose()

	if err := w.drain(ctx); err != nil {
		return nil, err
	}
	for i, step := range sc.Steps {
		if err := w.apply(ctx, step); err != nil {
			return nil, fmt.Errorf("steps[%d] %s: %w", i, step.Action, err)
		}
	}
	if err := w.drain(ctx); err != nil {
		return nil, err
	}

	result := &Result{Pass: true, Errors: []string{}, Stats: w.queue.Stats()}
	for _, f := range w.failures {
		result.AddError("task failed: %s", f)
	}
	for i, a := range sc.Assertions {
		if err := w.check(a); err != nil {
			result.AddError("assertions[%d] %s: %v", i, a.Type, err)
		}
	}

	snap, err := w.snapshot()
	if err != nil {
		return nil, err
	}
	result.Snapshot = snap
	result.Digest = canonical.HexHash(canonical.DomainSnapshot, snap)
	return result, nil
}

func (w *world) drain(ctx context.Context) error {
	_, err := w.queue.Drain(ctx)
	return err
}

func (w *world) build() error {
	sc := w.scenario
	srcOrigin, _ := parseOrigin(sc.Source.Origin, model.OriginRemote)
	src, err := w.buildDeck("source", srcOrigin, sc.Source)
	if err != nil {
		return err
	}
	w.src = src
	w.dst = src
	if !sc.SameDeck {
		dstOrigin, _ := parseOrigin(sc.Destination.Origin, model.OriginLocal)
		if w.dst, err = w.buildDeck("destination", dstOrigin, sc.Destination); err != nil {
			return err
		}
	}

	w.srcTr = model.NewSlideTraversal(w.src)
	w.dstTr = model.NewSlideTraversal(w.dst)
	moveTo(w.srcTr, sc.Source.Current)
	if !sc.SameDeck {
		moveTo(w.dstTr, sc.Destination.Current)
	}

	mopts := []match.Option{
		match.WithLogger(w.logger),
		match.WithIDGenerator(w.ids),
		match.WithDeletePropagation(sc.DeletePropagation),
	}
	decls := model.NewList(&service.PairingDeclaration{Remote: w.srcTr, Local: w.dstTr, SameDeck: sc.SameDeck})
	w.svc = service.NewDeckMatcherService(w.queue, decls, service.NewWorkspace(w.dstTr),
		service.WithLogger(w.logger),
		service.WithMatchOptions(mopts...))
	return nil
}

func moveTo(t model.Traversal, title string) {
	if title == "" {
		return
	}
	if s := t.Deck().SlideByTitle(title); s != nil {
		t.SetCurrent(t.Deck().TableOfContents().EntryForSlide(s))
	}
}

func (w *world) buildDeck(name string, origin model.Origin, spec DeckSpec) (*model.Deck, error) {
	d := model.NewDeck(name, origin)
	w.slides[d] = map[string]*model.Slide{}
	w.entries[d] = map[string]*model.Entry{}
	w.sheets[d] = map[string]map[string]model.Sheet{}
	for _, data := range spec.Images {
		d.AddImage([]byte(data))
	}
	for _, ss := range spec.Slides {
		s, err := w.addSlide(d, ss.Title, ss.Parent)
		if err != nil {
			return nil, err
		}
		if ss.Zoom != 0 {
			s.SetZoom(ss.Zoom)
		}
		for _, sh := range ss.Sheets {
			if _, err := w.addSheet(d, ss.Title, sh); err != nil {
				return nil, err
			}
		}
		if len(ss.Strokes) > 0 {
			holder, err := w.firstInk(d, ss.Title)
			if err != nil {
				return nil, err
			}
			for _, st := range ss.Strokes {
				holder.Ink().Add(w.stroke(st.CorrelationID, st.Dots))
			}
		}
	}
	return d, nil
}

func (w *world) addSlide(d *model.Deck, title, parent string) (*model.Slide, error) {
	if d.SlideByTitle(title) != nil {
		return nil, fmt.Errorf("slide %q already exists", title)
	}
	var parentEntry *model.Entry
	if parent != "" {
		ps := d.SlideByTitle(parent)
		if ps == nil {
			return nil, fmt.Errorf("parent slide %q not found", parent)
		}
		if parentEntry = d.TableOfContents().EntryForSlide(ps); parentEntry == nil {
			return nil, fmt.Errorf("parent slide %q has no entry", parent)
		}
	}
	s := model.NewSlide(title, model.Rect{Width: 1024, Height: 768})
	e := model.NewEntry(s)
	d.AddSlide(s)
	if err := d.TableOfContents().Append(parentEntry, e); err != nil {
		return nil, err
	}
	w.slides[d][title] = s
	w.entries[d][title] = e
	w.sheets[d][title] = map[string]model.Sheet{}
	return s, nil
}

func (w *world) addSheet(d *model.Deck, slide string, spec SheetSpec) (model.Sheet, error) {
	s := d.SlideByTitle(slide)
	if s == nil {
		return nil, fmt.Errorf("slide %q not found", slide)
	}
	if _, dup := w.sheets[d][slide][spec.Name]; dup {
		return nil, fmt.Errorf("sheet %q already exists on %q", spec.Name, slide)
	}
	kind, err := model.ParseSheetKind(spec.Kind)
	if err != nil {
		return nil, err
	}
	disp := model.DispositionAll
	if spec.Disposition != "" {
		if disp, err = model.ParseDisposition(spec.Disposition); err != nil {
			return nil, err
		}
	}

	bounds := model.Rect{Width: 1024, Height: 768}
	var sheet model.Sheet
	switch kind {
	case model.KindInk:
		sheet = model.NewInkSheet(disp, bounds)
	case model.KindRealTimeInk:
		sheet = model.NewRealTimeInkSheet(disp, bounds)
	case model.KindText:
		sheet = model.NewTextSheet(disp, bounds, spec.Text)
	case model.KindImage:
		sheet = model.NewImageSheet(disp, bounds, model.HashImage([]byte(spec.Text)))
	case model.KindPoll:
		sheet = model.NewPollSheet(disp, bounds, spec.Text)
	}
	w.sheets[d][slide][spec.Name] = sheet
	s.AnnotationSheets().Add(sheet)
	return sheet, nil
}

func (w *world) firstInk(d *model.Deck, slide string) (model.InkHolder, error) {
	s := d.SlideByTitle(slide)
	if s == nil {
		return nil, fmt.Errorf("slide %q not found", slide)
	}
	for _, sh := range s.AnnotationSheets().Items() {
		if h, ok := sh.(model.InkHolder); ok {
			return h, nil
		}
	}
	return nil, fmt.Errorf("slide %q has no ink sheet", slide)
}

func (w *world) sheet(d *model.Deck, slide, name string) (model.Sheet, error) {
	sh, ok := w.sheets[d][slide][name]
	if !ok {
		return nil, fmt.Errorf("sheet %q on slide %q not found", name, slide)
	}
	return sh, nil
}

// stroke builds a deterministic stroke: dot i sits at (i, 2i).
func (w *world) stroke(cid string, dots int) *ink.Stroke {
	s := &ink.Stroke{Attributes: ink.DrawingAttributes{Brush: ink.Fineliner, Color: ink.Black, Size: ink.Medium}}
	for i := 0; i < dots; i++ {
		s.Dots = append(s.Dots, ink.Dot{X: float32(i), Y: float32(2 * i), Width: 1, Pressure: 0.5})
	}
	if cid != "" {
		s.SetCorrelationID(cid)
	}
	return s
}

func (w *world) dots(n int) []ink.Dot {
	out := make([]ink.Dot, n)
	for i := range out {
		w.dotSeq++
		out[i] = ink.Dot{X: float32(w.dotSeq), Y: 1, Width: 1, Pressure: 0.5}
	}
	return out
}
