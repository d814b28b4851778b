package model

import (
	"slices"
	"sync"

	"github.com/roach88/deckmirror/internal/ink"
)

// StrokesEvent names strokes by their local handles within one Ink.
type StrokesEvent struct {
	Ink *Ink
	IDs []int
}

// Ink is the stroke collection of an ink sheet. Stroke handles are local
// to the collection and never reused; correlation IDs are the cross-sheet
// identity.
type Ink struct {
	mu            sync.RWMutex
	nextID        int
	strokes       []*ink.Stroke
	byCorrelation map[string]int

	added    Listeners[StrokesEvent]
	deleting Listeners[StrokesEvent]
}

func NewInk() *Ink {
	return &Ink{byCorrelation: make(map[string]int)}
}

// StrokesAdded fires after strokes have been stored.
func (k *Ink) StrokesAdded() *Listeners[StrokesEvent] { return &k.added }

// StrokesDeleting fires before strokes are removed. Listeners may still
// Extract the named strokes while the event runs.
func (k *Ink) StrokesDeleting() *Listeners[StrokesEvent] { return &k.deleting }

// Add stores copies of strokes, assigns fresh handles, and fires
// StrokesAdded. It returns the new handles.
func (k *Ink) Add(strokes ...*ink.Stroke) []int {
	if len(strokes) == 0 {
		return nil
	}
	k.mu.Lock()
	ids := make([]int, 0, len(strokes))
	for _, s := range strokes {
		c := s.Clone()
		k.nextID++
		c.ID = k.nextID
		k.strokes = append(k.strokes, c)
		if cid := c.CorrelationID(); cid != "" {
			k.byCorrelation[cid] = c.ID
		}
		ids = append(ids, c.ID)
	}
	k.mu.Unlock()

	k.added.Fire(StrokesEvent{Ink: k, IDs: slices.Clone(ids)})
	return ids
}

// Delete fires StrokesDeleting for the existing strokes among ids, then
// removes them. It returns the number removed.
func (k *Ink) Delete(ids ...int) int {
	k.mu.RLock()
	present := make([]int, 0, len(ids))
	for _, id := range ids {
		if k.indexOf(id) >= 0 && !slices.Contains(present, id) {
			present = append(present, id)
		}
	}
	k.mu.RUnlock()
	if len(present) == 0 {
		return 0
	}

	k.deleting.Fire(StrokesEvent{Ink: k, IDs: slices.Clone(present)})

	k.mu.Lock()
	defer k.mu.Unlock()
	n := 0
	for _, id := range present {
		i := k.indexOf(id)
		if i < 0 {
			continue
		}
		if cid := k.strokes[i].CorrelationID(); cid != "" && k.byCorrelation[cid] == id {
			delete(k.byCorrelation, cid)
		}
		k.strokes = slices.Delete(k.strokes, i, i+1)
		n++
	}
	return n
}

// Extract returns copies of the strokes named by ids, skipping unknown
// handles. A nil ids extracts everything.
func (k *Ink) Extract(ids []int) []*ink.Stroke {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if ids == nil {
		out := make([]*ink.Stroke, len(k.strokes))
		for i, s := range k.strokes {
			out[i] = s.Clone()
		}
		return out
	}
	out := make([]*ink.Stroke, 0, len(ids))
	for _, id := range ids {
		if i := k.indexOf(id); i >= 0 {
			out = append(out, k.strokes[i].Clone())
		}
	}
	return out
}

// Strokes returns copies of every stroke in insertion order.
func (k *Ink) Strokes() []*ink.Stroke { return k.Extract(nil) }

// IDs returns the current stroke handles in insertion order.
func (k *Ink) IDs() []int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	ids := make([]int, len(k.strokes))
	for i, s := range k.strokes {
		ids[i] = s.ID
	}
	return ids
}

func (k *Ink) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.strokes)
}

// EnsureCorrelationIDs gives every stroke among ids that lacks a
// correlation ID a fresh one from gen. A nil ids covers all strokes.
// It returns the number of IDs assigned.
func (k *Ink) EnsureCorrelationIDs(ids []int, gen func() string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	n := 0
	for _, s := range k.strokes {
		if ids != nil && !slices.Contains(ids, s.ID) {
			continue
		}
		if s.CorrelationID() != "" {
			continue
		}
		cid := gen()
		s.SetCorrelationID(cid)
		k.byCorrelation[cid] = s.ID
		n++
	}
	return n
}

// FindByCorrelation returns the handle of the stroke carrying cid.
func (k *Ink) FindByCorrelation(cid string) (int, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	id, ok := k.byCorrelation[cid]
	return id, ok
}

// CorrelationIDs returns the correlation IDs of the strokes named by ids,
// skipping strokes that have none.
func (k *Ink) CorrelationIDs(ids []int) []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if i := k.indexOf(id); i >= 0 {
			if cid := k.strokes[i].CorrelationID(); cid != "" {
				out = append(out, cid)
			}
		}
	}
	return out
}

// indexOf requires k.mu held.
func (k *Ink) indexOf(id int) int {
	return slices.IndexFunc(k.strokes, func(s *ink.Stroke) bool { return s.ID == id })
}

// InkSheet is a sheet carrying a stroke collection.
type InkSheet struct {
	sheetBase
	ink *Ink
}

func NewInkSheet(d Disposition, bounds Rect) *InkSheet {
	s := &InkSheet{ink: NewInk()}
	s.init(s, KindInk, d, bounds)
	return s
}

func (s *InkSheet) Ink() *Ink { return s.ink }
