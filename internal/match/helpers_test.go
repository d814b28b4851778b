package match

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/deckmirror/internal/engine"
	"github.com/roach88/deckmirror/internal/ink"
	"github.com/roach88/deckmirror/internal/model"
	"github.com/roach88/deckmirror/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	t        *testing.T
	queue    *engine.Dispatcher
	failures []error
	opts     []Option
}

func newFixture(t *testing.T, extra ...Option) *fixture {
	f := &fixture{t: t}
	f.queue = engine.NewDispatcher(
		engine.WithLogger(quietLogger()),
		engine.WithFailureHandler(func(_ engine.Task, err error) { f.failures = append(f.failures, err) }),
	)
	f.opts = append([]Option{
		WithLogger(quietLogger()),
		WithIDGenerator(testutil.NewSequentialGenerator("cid")),
	}, extra...)
	return f
}

func (f *fixture) drain() {
	f.t.Helper()
	_, err := f.queue.Drain(context.Background())
	require.NoError(f.t, err)
}

// deckWith builds a deck with one root entry per title.
func deckWith(t *testing.T, origin model.Origin, titles ...string) (*model.Deck, []*model.Entry) {
	t.Helper()
	d := model.NewDeck("deck", origin)
	var entries []*model.Entry
	for _, title := range titles {
		s := model.NewSlide(title, model.Rect{Width: 1024, Height: 768})
		d.AddSlide(s)
		e := model.NewEntry(s)
		require.NoError(t, d.TableOfContents().Append(nil, e))
		entries = append(entries, e)
	}
	return d, entries
}

func makeStroke(cid string, dots int) *ink.Stroke {
	s := &ink.Stroke{
		Attributes: ink.DrawingAttributes{Brush: ink.Marker, Color: ink.Blue, Size: ink.Large},
	}
	for i := 0; i < dots; i++ {
		s.Dots = append(s.Dots, ink.Dot{X: float32(i), Y: float32(2 * i), Width: 1, Pressure: 0.5})
	}
	if cid != "" {
		s.SetCorrelationID(cid)
	}
	return s
}

func destInk(t *testing.T, slide *model.Slide, i int) *model.Ink {
	t.Helper()
	sheets := slide.AnnotationSheets().Items()
	require.Greater(t, len(sheets), i, "destination sheet %d missing", i)
	holder, ok := sheets[i].(model.InkHolder)
	require.True(t, ok)
	return holder.Ink()
}
