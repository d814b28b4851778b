package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/deckmirror/internal/model"
)

// Scenario defines one mirroring scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	Source      DeckSpec `yaml:"source"`
	Destination DeckSpec `yaml:"destination,omitempty"`

	// SameDeck pairs two traversals over the source deck. Destination
	// must then be empty.
	SameDeck bool `yaml:"same_deck,omitempty"`

	// DeletePropagation turns on destination stroke deletion.
	DeletePropagation bool `yaml:"delete_propagation,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// DeckSpec describes a deck's initial content.
type DeckSpec struct {
	// Origin is "local" or "remote". Default: the source is remote and
	// the destination local.
	Origin string      `yaml:"origin,omitempty"`
	Slides []SlideSpec `yaml:"slides"`
	// Images holds image payloads as literal strings.
	Images []string `yaml:"images,omitempty"`
	// Current names the slide the traversal starts on. Default: the first.
	Current string `yaml:"current,omitempty"`
}

// SlideSpec describes one slide and its table of contents entry.
type SlideSpec struct {
	Title  string      `yaml:"title"`
	Parent string      `yaml:"parent,omitempty"`
	Zoom   float64     `yaml:"zoom,omitempty"`
	Sheets []SheetSpec `yaml:"sheets,omitempty"`
	// Strokes pre-populates the first ink sheet.
	Strokes []StrokeSpec `yaml:"strokes,omitempty"`
}

// SheetSpec describes an annotation sheet. Name is scenario-local and
// unique per slide.
type SheetSpec struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Disposition string `yaml:"disposition,omitempty"`
	Text        string `yaml:"text,omitempty"`
}

// StrokeSpec is a stroke drawn by the scenario.
type StrokeSpec struct {
	CorrelationID string `yaml:"cid,omitempty"`
	Dots          int    `yaml:"dots"`
}

// Step is one edit. Which fields apply depends on Action.
type Step struct {
	Action string `yaml:"action"`

	// Side is "source" (default) or "destination".
	Side string `yaml:"side,omitempty"`

	Slide         string  `yaml:"slide,omitempty"`
	Sheet         string  `yaml:"sheet,omitempty"`
	Kind          string  `yaml:"kind,omitempty"`
	Disposition   string  `yaml:"disposition,omitempty"`
	Title         string  `yaml:"title,omitempty"`
	Parent        string  `yaml:"parent,omitempty"`
	CorrelationID string  `yaml:"cid,omitempty"`
	Dots          int     `yaml:"dots,omitempty"`
	Zoom          float64 `yaml:"zoom,omitempty"`
	Data          string  `yaml:"data,omitempty"`
	Stylus        int     `yaml:"stylus,omitempty"`
	Stroke        int     `yaml:"stroke,omitempty"`
	Brush         string  `yaml:"brush,omitempty"`
	Color         string  `yaml:"color,omitempty"`
}

// Step actions.
const (
	StepDrain        = "drain"
	StepAddSlide     = "add_slide"
	StepRemoveSlide  = "remove_slide"
	StepRemoveEntry  = "remove_entry"
	StepSetZoom      = "set_zoom"
	StepAddSheet     = "add_sheet"
	StepRemoveSheet  = "remove_sheet"
	StepAddStroke    = "add_stroke"
	StepDeleteStroke = "delete_stroke"
	StepAddImage     = "add_image"
	StepNavigate     = "navigate"
	StepSetPen       = "set_pen"
	StepStylusDown   = "stylus_down"
	StepPackets      = "packets"
	StepStylusUp     = "stylus_up"
)

// Assertion checks the destination after the final drain.
type Assertion struct {
	Type  string `yaml:"type"`
	Slide string `yaml:"slide,omitempty"`
	Index int    `yaml:"index,omitempty"`
	Count int    `yaml:"count,omitempty"`
	Data  string `yaml:"data,omitempty"`
	// Want is the expected truth for entry_mapped, slide_matched and
	// image_present. Default true.
	Want *bool `yaml:"want,omitempty"`
}

func (a Assertion) want() bool { return a.Want == nil || *a.Want }

// Assertion type constants.
const (
	AssertEntryMapped  = "entry_mapped"
	AssertSlideMatched = "slide_matched"
	AssertStrokeCount  = "stroke_count"
	AssertSheetCount   = "sheet_count"
	AssertCurrentEntry = "current_entry"
	AssertImagePresent = "image_present"
	AssertLiveStrokes  = "live_strokes"
)

var stepActions = map[string]bool{
	StepDrain: true, StepAddSlide: true, StepRemoveSlide: true, StepRemoveEntry: true,
	StepSetZoom: true, StepAddSheet: true, StepRemoveSheet: true, StepAddStroke: true,
	StepDeleteStroke: true, StepAddImage: true, StepNavigate: true, StepSetPen: true,
	StepStylusDown: true, StepPackets: true, StepStylusUp: true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Source.Slides) == 0 {
		return fmt.Errorf("source.slides is required and must be non-empty")
	}
	if s.SameDeck && len(s.Destination.Slides) > 0 {
		return fmt.Errorf("destination must be empty when same_deck is set")
	}
	if err := validateDeck("source", &s.Source); err != nil {
		return err
	}
	if err := validateDeck("destination", &s.Destination); err != nil {
		return err
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if !stepActions[step.Action] {
			return fmt.Errorf("steps[%d]: unknown action %q", i, step.Action)
		}
		if step.Side != "" && step.Side != "source" && step.Side != "destination" {
			return fmt.Errorf("steps[%d]: side must be source or destination", i)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateDeck(side string, d *DeckSpec) error {
	if _, err := parseOrigin(d.Origin, model.OriginLocal); err != nil {
		return fmt.Errorf("%s: %w", side, err)
	}
	titles := map[string]bool{}
	for i, sl := range d.Slides {
		if sl.Title == "" {
			return fmt.Errorf("%s.slides[%d]: title is required", side, i)
		}
		if titles[sl.Title] {
			return fmt.Errorf("%s.slides[%d]: duplicate title %q", side, i, sl.Title)
		}
		if sl.Parent != "" && !titles[sl.Parent] {
			return fmt.Errorf("%s.slides[%d]: parent %q must precede it", side, i, sl.Parent)
		}
		titles[sl.Title] = true

		names := map[string]bool{}
		for j, sh := range sl.Sheets {
			if sh.Name == "" || names[sh.Name] {
				return fmt.Errorf("%s.slides[%d].sheets[%d]: name missing or duplicate", side, i, j)
			}
			names[sh.Name] = true
			if _, err := model.ParseSheetKind(sh.Kind); err != nil {
				return fmt.Errorf("%s.slides[%d].sheets[%d]: %w", side, i, j, err)
			}
		}
	}
	if d.Current != "" && !titles[d.Current] {
		return fmt.Errorf("%s: current slide %q not found", side, d.Current)
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertEntryMapped, AssertSlideMatched, AssertSheetCount, AssertStrokeCount, AssertLiveStrokes:
		if a.Slide == "" {
			return fmt.Errorf("assertions[%d]: slide is required for %s", index, a.Type)
		}
	case AssertImagePresent:
		if a.Data == "" {
			return fmt.Errorf("assertions[%d]: data is required for image_present", index)
		}
	case AssertCurrentEntry:
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}
	return nil
}

func parseOrigin(s string, def model.Origin) (model.Origin, error) {
	switch s {
	case "":
		return def, nil
	case "local":
		return model.OriginLocal, nil
	case "remote":
		return model.OriginRemote, nil
	}
	return def, fmt.Errorf("unknown origin %q", s)
}
