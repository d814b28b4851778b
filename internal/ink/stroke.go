// Package ink holds the value types for freehand strokes: sampled dots,
// drawing attributes, correlation metadata, and the raw packet encoding used
// to move a stroke between document instances.
//
// Stroke objects belong to exactly one ink collection. To copy a stroke into
// another document, Export it to StrokeData and Rebuild it on the other side;
// the rebuilt stroke gets a fresh local handle from its new collection.
package ink

// BrushType is one of the predefined pen types.
type BrushType uint32

const (
	PaintBrush       BrushType = 0
	Pencil           BrushType = 1
	Ballpoint        BrushType = 2
	Marker           BrushType = 3
	Fineliner        BrushType = 4
	Highlighter      BrushType = 5
	Eraser           BrushType = 6
	MechanicalPencil BrushType = 7
	Calligraphy      BrushType = 21
)

// BrushColor is the pen colour.
type BrushColor uint32

const (
	Black BrushColor = 0
	Gray  BrushColor = 1
	White BrushColor = 2
	Blue  BrushColor = 6
	Red   BrushColor = 7
)

// BrushSize is the base width of the pen.
type BrushSize float32

// The three sizes offered by the pen picker. Other values are possible
// through scaling.
const (
	Small  BrushSize = 1.875
	Medium BrushSize = 2.0
	Large  BrushSize = 2.125
)

// DrawingAttributes is the per-stroke pen style.
type DrawingAttributes struct {
	Brush          BrushType
	Color          BrushColor
	Size           BrushSize
	IgnorePressure bool
}

// DefaultAttributes is the style a fresh real-time sheet starts with.
func DefaultAttributes() DrawingAttributes {
	return DrawingAttributes{Brush: Ballpoint, Color: Black, Size: Medium}
}

// Dot is a single sample point of a stroke.
type Dot struct {
	X float32
	Y float32
	// Speed is the speed with which the stylus moved across the surface.
	Speed float32
	// Tilt is the stylus angle against the surface in radians.
	Tilt float32
	// Width is the effective width of the brush at this sample.
	Width float32
	// Pressure is in the range 0.0 through 1.0.
	Pressure float32
}

// Extended property keys carried by every propagated stroke.
const (
	// PropCorrelationID is the destination-independent stroke identifier.
	PropCorrelationID = "correlation-id"
	// PropOrigin names the sheet the stroke was first drawn on.
	PropOrigin = "origin-sheet"
)

// Stroke is one continuous ink mark.
type Stroke struct {
	// ID is the local handle assigned by the owning collection. It is not
	// meaningful outside that collection.
	ID         int
	Attributes DrawingAttributes
	Dots       []Dot
	Properties map[string]string
}

// CorrelationID returns the stroke's correlation identifier, or "" if none
// has been assigned yet.
func (s *Stroke) CorrelationID() string {
	if s.Properties == nil {
		return ""
	}
	return s.Properties[PropCorrelationID]
}

// SetCorrelationID stores id as the stroke's correlation identifier.
func (s *Stroke) SetCorrelationID(id string) {
	if s.Properties == nil {
		s.Properties = make(map[string]string, 1)
	}
	s.Properties[PropCorrelationID] = id
}

// Clone returns a deep copy that shares no slices or maps with s.
func (s *Stroke) Clone() *Stroke {
	c := &Stroke{
		ID:         s.ID,
		Attributes: s.Attributes,
		Dots:       make([]Dot, len(s.Dots)),
		Properties: cloneProperties(s.Properties),
	}
	copy(c.Dots, s.Dots)
	return c
}

func cloneProperties(p map[string]string) map[string]string {
	if p == nil {
		return nil
	}
	c := make(map[string]string, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// StrokeData is a transferable, immutable copy of a stroke: the raw packet
// bytes plus style attributes and all extended properties.
type StrokeData struct {
	CorrelationID string
	Attributes    DrawingAttributes
	Properties    map[string]string
	Packets       []byte
}

// Export captures s as StrokeData. The stroke must already carry a
// correlation identifier.
func Export(s *Stroke) (StrokeData, error) {
	id := s.CorrelationID()
	if id == "" {
		return StrokeData{}, NewValidationError("stroke %d has no correlation id", s.ID)
	}
	packets, err := EncodePackets(s.Dots)
	if err != nil {
		return StrokeData{}, err
	}
	return StrokeData{
		CorrelationID: id,
		Attributes:    s.Attributes,
		Properties:    cloneProperties(s.Properties),
		Packets:       packets,
	}, nil
}

// Rebuild reconstructs a stroke from its packet data. The returned stroke has
// no local handle (ID 0); the receiving collection assigns one.
func (d StrokeData) Rebuild() (*Stroke, error) {
	dots, err := DecodePackets(d.Packets)
	if err != nil {
		return nil, err
	}
	s := &Stroke{
		Attributes: d.Attributes,
		Dots:       dots,
		Properties: cloneProperties(d.Properties),
	}
	s.SetCorrelationID(d.CorrelationID)
	return s, nil
}

// TabletProperties describes the input device that produced a live stroke.
type TabletProperties struct {
	Device         string
	PressureLevels int
}
