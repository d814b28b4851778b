// Package model holds the presentation document types that mirroring
// operates on: decks, their table of contents, slides, sheets, ink, and
// traversals.
//
// Every object guards its own state with a leaf lock. Locks are never
// held while listeners run, and no method acquires a second object's lock
// while holding its own, so callers can read any object from inside any
// callback.
package model
