package service

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/roach88/deckmirror/internal/match"
	"github.com/roach88/deckmirror/internal/model"
)

// PairingDeclaration asks for Local to mirror Remote. SameDeck marks a
// pairing where both traversals walk the same deck instance; such a local
// traversal is wrapped in a LinkedTraversal in the workspace.
type PairingDeclaration struct {
	Remote   model.Traversal
	Local    model.Traversal
	SameDeck bool
}

// Option configures a DeckMatcherService.
type Option func(*DeckMatcherService)

// WithLogger sets the service logger. The same logger is passed to every
// match the service creates unless WithMatchOptions overrides it.
func WithLogger(l *slog.Logger) Option {
	return func(s *DeckMatcherService) { s.logger = l }
}

// WithMatchOptions appends options for every DeckTraversalMatch created.
func WithMatchOptions(opts ...match.Option) Option {
	return func(s *DeckMatcherService) { s.matchOpts = append(s.matchOpts, opts...) }
}

type pairing struct {
	decl   *PairingDeclaration
	match  *match.DeckTraversalMatch
	linked *LinkedTraversal
}

// DeckMatcherService keeps one DeckTraversalMatch alive per declaration
// in an externally owned list.
//
// Thread-safety: the declaration list may be edited from any goroutine.
// Matches post their work to the queue given at construction.
type DeckMatcherService struct {
	queue     match.Poster
	decls     *model.List[*PairingDeclaration]
	ws        *Workspace
	logger    *slog.Logger
	matchOpts []match.Option

	reg      model.Registration
	disposed atomic.Bool

	mu       sync.Mutex
	pairings []*pairing
	graph    *mirrorGraph
}

// NewDeckMatcherService starts observing decls. Declarations already in
// the list are paired immediately.
func NewDeckMatcherService(q match.Poster, decls *model.List[*PairingDeclaration], ws *Workspace, opts ...Option) *DeckMatcherService {
	s := &DeckMatcherService{queue: q, decls: decls, ws: ws, logger: slog.Default(), graph: newMirrorGraph()}
	for _, opt := range opts {
		opt(s)
	}
	s.matchOpts = append([]match.Option{match.WithLogger(s.logger)}, s.matchOpts...)

	s.reg = decls.Changes().Add(func(c model.CollectionChange[*PairingDeclaration]) {
		if s.disposed.Load() {
			return
		}
		switch c.Kind {
		case model.Added:
			s.declare(c.Item)
		case model.Removed:
			s.retract(c.Item)
		}
	})
	for _, d := range decls.Items() {
		s.declare(d)
	}
	return s
}

// Matches returns the live traversal matches in declaration order.
func (s *DeckMatcherService) Matches() []*match.DeckTraversalMatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*match.DeckTraversalMatch, len(s.pairings))
	for i, p := range s.pairings {
		out[i] = p.match
	}
	return out
}

// LinkedFor returns the linked traversal standing in for local, if any.
func (s *DeckMatcherService) LinkedFor(local model.Traversal) *LinkedTraversal {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pairings {
		if p.linked != nil && p.decl.Local == local {
			return p.linked
		}
	}
	return nil
}

// WouldCycle reports whether pairing remote into local would close a loop
// of pairings between distinct decks.
func (s *DeckMatcherService) WouldCycle(remote, local model.Traversal) bool {
	from, to, ok := deckEdge(&PairingDeclaration{Remote: remote, Local: local})
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.path(to, from) != nil
}

func (s *DeckMatcherService) declare(d *PairingDeclaration) {
	if d == nil || d.Remote == nil || d.Local == nil {
		s.logger.Warn("incomplete pairing declaration ignored")
		return
	}

	s.mu.Lock()
	if slices.ContainsFunc(s.pairings, func(p *pairing) bool { return samePair(p.decl, d) }) {
		s.mu.Unlock()
		s.logger.Debug("pairing already live", "remote", d.Remote.ID(), "local", d.Local.ID())
		return
	}
	// Building a match only registers listeners and posts tasks, so it is
	// done under the lock to keep dedupe and insertion atomic.
	p := &pairing{decl: d, match: match.NewDeckTraversalMatch(s.queue, d.Remote, d.Local, s.matchOpts...)}
	if d.SameDeck {
		p.linked = NewLinkedTraversal(d.Local, d.Remote)
	}
	s.pairings = append(s.pairings, p)
	var cycle []model.ID
	if from, to, ok := deckEdge(d); ok {
		cycle = s.graph.path(to, from)
		s.graph.add(from, to)
	}
	s.mu.Unlock()

	if cycle != nil {
		s.logger.Warn("pairing closes a mirroring cycle",
			"remote", d.Remote.ID(),
			"local", d.Local.ID(),
			"decks", append(cycle, cycle[0]))
	}

	if p.linked != nil {
		if !s.ws.Replace(d.Local, p.linked) {
			s.ws.Traversals().Add(p.linked)
		}
	}
	s.logger.Info("pairing declared",
		"remote", d.Remote.ID(),
		"local", d.Local.ID(),
		"same_deck", d.SameDeck,
		"self_paired", p.match.IsSameTarget())
}

func (s *DeckMatcherService) retract(d *PairingDeclaration) {
	if d == nil || d.Remote == nil || d.Local == nil {
		return
	}
	s.mu.Lock()
	var gone []*pairing
	s.pairings = slices.DeleteFunc(s.pairings, func(p *pairing) bool {
		if samePair(p.decl, d) {
			gone = append(gone, p)
			if from, to, ok := deckEdge(p.decl); ok {
				s.graph.remove(from, to)
			}
			return true
		}
		return false
	})
	s.mu.Unlock()

	for _, p := range gone {
		p.match.Dispose()
		shown := model.Traversal(p.decl.Local)
		if p.linked != nil {
			shown = p.linked
			p.linked.Dispose()
		}
		if p.decl.Local.Deck().Origin() == model.OriginRemote {
			s.ws.Traversals().Remove(shown)
		} else if p.linked != nil {
			s.ws.Replace(p.linked, p.decl.Local)
		}
		s.logger.Info("pairing retracted", "remote", d.Remote.ID(), "local", d.Local.ID())
	}
}

// Dispose stops observing the declarations and disposes every match. The
// workspace is left as it is.
func (s *DeckMatcherService) Dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}
	s.decls.Changes().Remove(s.reg)

	s.mu.Lock()
	gone := s.pairings
	s.pairings = nil
	s.graph = newMirrorGraph()
	s.mu.Unlock()
	for i := len(gone) - 1; i >= 0; i-- {
		gone[i].match.Dispose()
		if gone[i].linked != nil {
			gone[i].linked.Dispose()
		}
	}
}

// samePair compares by traversal identity.
func samePair(a, b *PairingDeclaration) bool {
	return a.Remote == b.Remote && a.Local == b.Local
}
