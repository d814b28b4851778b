package model

import (
	"bytes"
	"encoding/hex"
	"errors"
	"slices"
	"sync"

	"github.com/roach88/deckmirror/internal/canonical"
)

var (
	// ErrContentNotFound reports an image hash absent from a deck's store.
	ErrContentNotFound = errors.New("content not found")
	// ErrHashMismatch reports image bytes that do not hash to the given key.
	ErrHashMismatch = errors.New("image bytes do not match hash")
)

// ImageHash is the content address of an image.
type ImageHash [32]byte

// HashImage computes the content address of data.
func HashImage(data []byte) ImageHash {
	return ImageHash(canonical.Hash(canonical.DomainImage, data))
}

func (h ImageHash) String() string { return hex.EncodeToString(h[:]) }

// Origin records whether a deck was authored locally or received.
type Origin int

const (
	OriginLocal Origin = iota
	OriginRemote
)

func (o Origin) String() string {
	if o == OriginRemote {
		return "remote"
	}
	return "local"
}

// ContentAdded fires when a new image enters a deck's store.
type ContentAdded struct {
	Deck *Deck
	Hash ImageHash
}

// Deck is a presentation: an outline, its slides, and a content-addressed
// image store.
type Deck struct {
	id     ID
	name   string
	origin Origin
	toc    *TableOfContents

	mu     sync.RWMutex
	slides []*Slide
	images map[ImageHash][]byte

	slideChanges Listeners[CollectionChange[*Slide]]
	content      Listeners[ContentAdded]
}

func NewDeck(name string, origin Origin) *Deck {
	return &Deck{
		id:     NewID(),
		name:   name,
		origin: origin,
		toc:    NewTableOfContents(),
		images: make(map[ImageHash][]byte),
	}
}

func (d *Deck) ID() ID                                             { return d.id }
func (d *Deck) Name() string                                       { return d.name }
func (d *Deck) Origin() Origin                                     { return d.origin }
func (d *Deck) TableOfContents() *TableOfContents                  { return d.toc }
func (d *Deck) SlideChanges() *Listeners[CollectionChange[*Slide]] { return &d.slideChanges }
func (d *Deck) ContentAdded() *Listeners[ContentAdded]             { return &d.content }

// AddSlide appends s. It returns false if s is already in the deck.
func (d *Deck) AddSlide(s *Slide) bool {
	d.mu.Lock()
	if slices.Contains(d.slides, s) {
		d.mu.Unlock()
		return false
	}
	d.slides = append(d.slides, s)
	idx := len(d.slides) - 1
	d.mu.Unlock()

	d.slideChanges.Fire(CollectionChange[*Slide]{Kind: Added, Item: s, Index: idx})
	return true
}

// RemoveSlide deletes s. Entries referencing s are left untouched.
func (d *Deck) RemoveSlide(s *Slide) bool {
	d.mu.Lock()
	idx := slices.Index(d.slides, s)
	if idx < 0 {
		d.mu.Unlock()
		return false
	}
	d.slides = slices.Delete(d.slides, idx, idx+1)
	d.mu.Unlock()

	d.slideChanges.Fire(CollectionChange[*Slide]{Kind: Removed, Item: s, Index: idx})
	return true
}

func (d *Deck) Slides() []*Slide {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.slides)
}

func (d *Deck) HasSlide(s *Slide) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Contains(d.slides, s)
}

// SlideByTitle returns the first slide with the given title.
func (d *Deck) SlideByTitle(title string) *Slide {
	for _, s := range d.Slides() {
		if s.Title() == title {
			return s
		}
	}
	return nil
}

// AddImage stores data under its content hash. Storing the same bytes
// twice is a no-op; ContentAdded fires only for new hashes.
func (d *Deck) AddImage(data []byte) ImageHash {
	h := HashImage(data)
	d.putImage(h, data)
	return h
}

// PutImage stores data under h after checking that h is its hash.
func (d *Deck) PutImage(h ImageHash, data []byte) error {
	if HashImage(data) != h {
		return ErrHashMismatch
	}
	d.putImage(h, data)
	return nil
}

func (d *Deck) putImage(h ImageHash, data []byte) {
	d.mu.Lock()
	if _, ok := d.images[h]; ok {
		d.mu.Unlock()
		return
	}
	d.images[h] = bytes.Clone(data)
	d.mu.Unlock()

	d.content.Fire(ContentAdded{Deck: d, Hash: h})
}

// Image returns a copy of the bytes stored under h.
func (d *Deck) Image(h ImageHash) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	data, ok := d.images[h]
	if !ok {
		return nil, ErrContentNotFound
	}
	return bytes.Clone(data), nil
}

func (d *Deck) HasImage(h ImageHash) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.images[h]
	return ok
}

// ImageHashes returns the stored hashes in byte order.
func (d *Deck) ImageHashes() []ImageHash {
	d.mu.RLock()
	out := make([]ImageHash, 0, len(d.images))
	for h := range d.images {
		out = append(out, h)
	}
	d.mu.RUnlock()
	slices.SortFunc(out, func(a, b ImageHash) int { return bytes.Compare(a[:], b[:]) })
	return out
}
