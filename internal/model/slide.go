package model

import (
	"slices"
	"sync"
)

// SubmissionStyle controls how student submissions of a slide are shown.
type SubmissionStyle int

const (
	SubmissionNormal SubmissionStyle = iota
	SubmissionShared
	SubmissionPrivate
)

func (s SubmissionStyle) String() string {
	switch s {
	case SubmissionNormal:
		return "normal"
	case SubmissionShared:
		return "shared"
	case SubmissionPrivate:
		return "private"
	}
	return "unknown"
}

// Slide is one page of a deck. Content sheets are fixed at authoring
// time; annotation sheets come and go while presenting.
type Slide struct {
	id ID

	mu              sync.RWMutex
	title           string
	bounds          Rect
	zoom            float64
	submissionSlide ID
	submissionStyle SubmissionStyle
	content         []Sheet

	annotations *List[Sheet]
	changes     Listeners[PropertyChange]
}

func NewSlide(title string, bounds Rect) *Slide {
	return &Slide{
		id:          NewID(),
		title:       title,
		bounds:      bounds,
		zoom:        1,
		annotations: NewList[Sheet](),
	}
}

func (s *Slide) ID() ID                              { return s.id }
func (s *Slide) Changes() *Listeners[PropertyChange] { return &s.changes }

// AnnotationSheets is the observable collection of annotation layers.
func (s *Slide) AnnotationSheets() *List[Sheet] { return s.annotations }

func (s *Slide) Title() string                    { return read(&s.mu, &s.title) }
func (s *Slide) Bounds() Rect                     { return read(&s.mu, &s.bounds) }
func (s *Slide) Zoom() float64                    { return read(&s.mu, &s.zoom) }
func (s *Slide) SubmissionSlide() ID              { return read(&s.mu, &s.submissionSlide) }
func (s *Slide) SubmissionStyle() SubmissionStyle { return read(&s.mu, &s.submissionStyle) }

func (s *Slide) SetTitle(v string) { s.set(update(&s.mu, &s.title, v), PropTitle) }
func (s *Slide) SetBounds(v Rect)  { s.set(update(&s.mu, &s.bounds, v), PropBounds) }
func (s *Slide) SetZoom(v float64) { s.set(update(&s.mu, &s.zoom, v), PropZoom) }
func (s *Slide) SetSubmissionSlide(v ID) {
	s.set(update(&s.mu, &s.submissionSlide, v), PropSubmissionSlide)
}
func (s *Slide) SetSubmissionStyle(v SubmissionStyle) {
	s.set(update(&s.mu, &s.submissionStyle, v), PropSubmissionStyle)
}

func (s *Slide) set(changed bool, prop string) {
	if changed {
		s.changes.Fire(PropertyChange{Sender: s, Property: prop})
	}
}

// AddContentSheet appends a content layer. Content sheets are not observed.
func (s *Slide) AddContentSheet(sheet Sheet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = append(s.content, sheet)
}

func (s *Slide) ContentSheets() []Sheet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.content)
}
