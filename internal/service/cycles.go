package service

import (
	"slices"

	"github.com/roach88/deckmirror/internal/model"
)

// mirrorGraph records which decks feed which through live pairings.
//
// In a cycle (A into B while B into A, or longer) every destination write
// is a source event for the next pairing around the loop. The service warns
// when a declaration closes one but still pairs it.
//
// Edges are counted because two pairings may join the same pair of decks.
// Not safe for concurrent use; the service guards it with its mutex.
type mirrorGraph struct {
	edges map[model.ID]map[model.ID]int
}

func newMirrorGraph() *mirrorGraph {
	return &mirrorGraph{edges: map[model.ID]map[model.ID]int{}}
}

func (g *mirrorGraph) add(from, to model.ID) {
	if g.edges[from] == nil {
		g.edges[from] = map[model.ID]int{}
	}
	g.edges[from][to]++
}

func (g *mirrorGraph) remove(from, to model.ID) {
	out := g.edges[from]
	if out == nil {
		return
	}
	if out[to]--; out[to] <= 0 {
		delete(out, to)
	}
	if len(out) == 0 {
		delete(g.edges, from)
	}
}

// path returns the decks on a path from → … → to, both ends included, or
// nil when to is unreachable. Neighbours are visited in ID order so the
// reported path is stable.
func (g *mirrorGraph) path(from, to model.ID) []model.ID {
	seen := map[model.ID]bool{}
	var walk func(at model.ID, trail []model.ID) []model.ID
	walk = func(at model.ID, trail []model.ID) []model.ID {
		trail = append(trail, at)
		if at == to {
			return trail
		}
		seen[at] = true
		next := make([]model.ID, 0, len(g.edges[at]))
		for id := range g.edges[at] {
			next = append(next, id)
		}
		slices.Sort(next)
		for _, id := range next {
			if seen[id] {
				continue
			}
			if found := walk(id, trail); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(from, nil)
}

// deckEdge returns the deck-level edge a declaration adds. ok is false for
// pairings within one deck, which cannot feed back.
func deckEdge(d *PairingDeclaration) (from, to model.ID, ok bool) {
	from, to = d.Remote.Deck().ID(), d.Local.Deck().ID()
	if d.SameDeck || from == to {
		return "", "", false
	}
	return from, to, true
}
