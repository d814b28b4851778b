package model

import (
	"errors"
	"fmt"
	"sync"
)

// ErrSheetKind reports a sheet kind that cannot be created empty.
var ErrSheetKind = errors.New("unsupported sheet kind")

// Rect is an axis-aligned rectangle in slide coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Disposition says which audience a sheet is shown to.
type Disposition int

const (
	DispositionAll Disposition = iota
	DispositionInstructor
	DispositionStudent
	DispositionPublic
	DispositionBackground
)

var dispositionNames = map[Disposition]string{
	DispositionAll:        "all",
	DispositionInstructor: "instructor",
	DispositionStudent:    "student",
	DispositionPublic:     "public",
	DispositionBackground: "background",
}

func (d Disposition) String() string {
	if s, ok := dispositionNames[d]; ok {
		return s
	}
	return fmt.Sprintf("disposition(%d)", int(d))
}

// ParseDisposition is the inverse of Disposition.String.
func ParseDisposition(s string) (Disposition, error) {
	for d, name := range dispositionNames {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown disposition %q", s)
}

// SheetKind tags the concrete sheet variant.
type SheetKind int

const (
	KindInk SheetKind = iota + 1
	KindRealTimeInk
	KindImage
	KindText
	KindPoll
)

var kindNames = map[SheetKind]string{
	KindInk:         "ink",
	KindRealTimeInk: "realtime-ink",
	KindImage:       "image",
	KindText:        "text",
	KindPoll:        "poll",
}

func (k SheetKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseSheetKind is the inverse of SheetKind.String.
func ParseSheetKind(s string) (SheetKind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown sheet kind %q", s)
}

// Sheet is a layer on a slide.
type Sheet interface {
	ID() ID
	Kind() SheetKind
	Disposition() Disposition
	Bounds() Rect
	SetBounds(Rect)
	Changes() *Listeners[PropertyChange]
}

type sheetBase struct {
	id          ID
	kind        SheetKind
	disposition Disposition
	owner       Sheet

	mu      sync.RWMutex
	bounds  Rect
	changes Listeners[PropertyChange]
}

func (s *sheetBase) init(owner Sheet, kind SheetKind, d Disposition, bounds Rect) {
	s.id = NewID()
	s.kind = kind
	s.disposition = d
	s.bounds = bounds
	s.owner = owner
}

func (s *sheetBase) ID() ID                              { return s.id }
func (s *sheetBase) Kind() SheetKind                     { return s.kind }
func (s *sheetBase) Disposition() Disposition            { return s.disposition }
func (s *sheetBase) Changes() *Listeners[PropertyChange] { return &s.changes }
func (s *sheetBase) Bounds() Rect                        { return read(&s.mu, &s.bounds) }

func (s *sheetBase) SetBounds(r Rect) {
	if update(&s.mu, &s.bounds, r) {
		s.changes.Fire(PropertyChange{Sender: s.owner, Property: PropBounds})
	}
}

// NewEmptySheetLike returns an empty sheet with the kind, disposition and
// bounds of src. Only ink kinds can be created empty; other kinds return
// ErrSheetKind.
func NewEmptySheetLike(src Sheet) (Sheet, error) {
	switch src.Kind() {
	case KindInk:
		return NewInkSheet(src.Disposition(), src.Bounds()), nil
	case KindRealTimeInk:
		return NewRealTimeInkSheet(src.Disposition(), src.Bounds()), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrSheetKind, src.Kind())
	}
}

// ImageSheet shows an image from the deck's content store.
type ImageSheet struct {
	sheetBase
	image ImageHash
}

func NewImageSheet(d Disposition, bounds Rect, image ImageHash) *ImageSheet {
	s := &ImageSheet{image: image}
	s.init(s, KindImage, d, bounds)
	return s
}

// Image returns the content hash of the displayed image.
func (s *ImageSheet) Image() ImageHash { return s.image }

// TextSheet holds a block of text.
type TextSheet struct {
	sheetBase
	text string
}

func NewTextSheet(d Disposition, bounds Rect, text string) *TextSheet {
	s := &TextSheet{text: text}
	s.init(s, KindText, d, bounds)
	return s
}

func (s *TextSheet) Text() string { return read(&s.mu, &s.text) }

func (s *TextSheet) SetText(text string) {
	if update(&s.mu, &s.text, text) {
		s.changes.Fire(PropertyChange{Sender: s, Property: PropText})
	}
}

// PollSheet displays a question with fixed choices.
type PollSheet struct {
	sheetBase
	question string
	choices  []string
}

func NewPollSheet(d Disposition, bounds Rect, question string, choices ...string) *PollSheet {
	s := &PollSheet{question: question, choices: append([]string(nil), choices...)}
	s.init(s, KindPoll, d, bounds)
	return s
}

func (s *PollSheet) Question() string { return s.question }

func (s *PollSheet) Choices() []string { return append([]string(nil), s.choices...) }
