// Package service is the policy layer above the matches. It watches a
// collection of pairing declarations, creates one DeckTraversalMatch per
// declaration, and keeps the workspace's set of visible traversals in step
// with what is paired.
package service
