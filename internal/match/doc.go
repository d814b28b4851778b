// Package match keeps destination documents in step with source documents.
//
// A DeckTraversalMatch owns a DeckMatch, which owns a TableOfContentsMatch
// and one SlideMatch per paired slide, each of which owns one SheetMatch
// per mirrored annotation sheet. Changes flow from source to destination
// only.
//
// Notifications from the source are handled synchronously: the match
// copies what it needs out of the source and posts a task. All writes to
// the destination happen inside those tasks on the dispatcher goroutine.
// Disposing a match unregisters its listeners and disposes its children;
// tasks it already posted find the match disposed and do nothing.
//
// Removal on the source never deletes destination structure. Only the
// mapping is dropped.
package match
