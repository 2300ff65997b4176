package model

import (
	"strconv"

	"github.com/google/uuid"
)

// Part represents one line of a cut list: a rectangular panel to be produced
// in some quantity. Parts are read-only input to the optimizer; quantities
// are expanded into individual PartInstances before packing.
type Part struct {
	ID              string  `json:"id"`
	Label           string  `json:"label,omitempty"`
	Width           float64 `json:"width"`  // mm
	Height          float64 `json:"height"` // mm
	Quantity        int     `json:"quantity"`
	RotationAllowed bool    `json:"rotation_allowed"` // false = grain direction locked
	GaddiMark       bool    `json:"gaddi_mark,omitempty"`
	LaminateCode    string  `json:"laminate_code,omitempty"`
	NominalWidth    float64 `json:"nominal_width,omitempty"`
	NominalHeight   float64 `json:"nominal_height,omitempty"`
}

func NewPart(label string, w, h float64, qty int) Part {
	return Part{
		ID:              uuid.New().String()[:8],
		Label:           label,
		Width:           w,
		Height:          h,
		Quantity:        qty,
		RotationAllowed: true,
	}
}

// Area returns the part area in square mm.
func (p Part) Area() float64 {
	return p.Width * p.Height
}

// Perimeter returns the part perimeter in mm.
func (p Part) Perimeter() float64 {
	return 2 * (p.Width + p.Height)
}

// AspectRatio returns the long-side to short-side ratio, always >= 1.
func (p Part) AspectRatio() float64 {
	if p.Width == 0 || p.Height == 0 {
		return 0
	}
	if p.Width > p.Height {
		return p.Width / p.Height
	}
	return p.Height / p.Width
}

// PartInstance is one physical piece to place, expanded from a Part's
// quantity. It references its originating Part by index into the input
// part table and never owns it.
type PartInstance struct {
	Part int `json:"part"` // index into the input part table
	Copy int `json:"copy"` // 0-based copy number within the part
}

// ExpandParts expands each part's quantity into individual instances.
// Instance order follows input order, copies kept adjacent.
func ExpandParts(parts []Part) []PartInstance {
	var instances []PartInstance
	for i, p := range parts {
		for c := 0; c < p.Quantity; c++ {
			instances = append(instances, PartInstance{Part: i, Copy: c})
		}
	}
	return instances
}

// InstanceID renders a stable piece identifier for diagnostics,
// e.g. "a1b2c3d4#2".
func InstanceID(parts []Part, inst PartInstance) string {
	return parts[inst.Part].ID + "#" + strconv.Itoa(inst.Copy)
}

// SheetSpec describes the fixed stock sheet size every board is cut from.
type SheetSpec struct {
	Width  float64 `json:"width"`  // mm
	Height float64 `json:"height"` // mm
	Kerf   float64 `json:"kerf"`   // blade width in mm
}

// Job is the optimizer input contract: one stock sheet size, a part list
// and a wall-clock budget.
type Job struct {
	Sheet        SheetSpec `json:"sheet"`
	Parts        []Part    `json:"parts"`
	TimeBudgetMs int       `json:"time_budget_ms"`
}

// FreeRect is an available, unobstructed region of a sheet. The free
// rectangles of one sheet never overlap in area.
type FreeRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the rectangle area in square mm.
func (r FreeRect) Area() float64 {
	return r.Width * r.Height
}

// PlacedPiece is one piece cut from a sheet. Width and Height are the final
// piece dimensions (kerf excluded); Rotated is relative to the originating
// part and may only be true when that part allows rotation.
type PlacedPiece struct {
	Instance int     `json:"instance"` // index into the expanded instance list
	Part     int     `json:"part"`     // index into the input part table
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotated  bool    `json:"rotated"`
}

// Sheet is one physical stock board with its placements and remaining free
// space. Sheets are single-owner values: created, mutated and discarded
// within one packing pass, never shared across concurrent evaluations.
type Sheet struct {
	Width     float64       `json:"width"`
	Height    float64       `json:"height"`
	Kerf      float64       `json:"kerf"`
	FreeRects []FreeRect    `json:"free_rectangles"`
	Placed    []PlacedPiece `json:"placed_pieces"`
	UsedArea  float64       `json:"used_area"`
}

// NewSheet returns an empty sheet whose free space is the whole board.
func NewSheet(spec SheetSpec) *Sheet {
	return &Sheet{
		Width:     spec.Width,
		Height:    spec.Height,
		Kerf:      spec.Kerf,
		FreeRects: []FreeRect{{X: 0, Y: 0, Width: spec.Width, Height: spec.Height}},
	}
}

// Area returns the total board area.
func (s *Sheet) Area() float64 {
	return s.Width * s.Height
}

// Place records a cut piece and updates the used-area tally.
func (s *Sheet) Place(p PlacedPiece) {
	s.Placed = append(s.Placed, p)
	s.UsedArea += p.Width * p.Height
}

// Efficiency returns the board usage percentage.
func (s *Sheet) Efficiency() float64 {
	a := s.Area()
	if a == 0 {
		return 0
	}
	return s.UsedArea / a * 100
}

// UnplacedReason distinguishes why a piece could not be placed.
type UnplacedReason string

const (
	// ReasonTooLarge marks pieces exceeding the sheet in every allowed
	// orientation. These can never be placed regardless of ordering.
	ReasonTooLarge UnplacedReason = "too_large"
	// ReasonNoRoom marks pieces that fit an empty sheet but found no room.
	ReasonNoRoom UnplacedReason = "no_room"
)

// UnplacedPart reports one piece that could not be assigned to any sheet.
type UnplacedPart struct {
	Part     Part           `json:"part"`
	Instance PartInstance   `json:"instance"`
	Reason   UnplacedReason `json:"reason"`
}

// Totals summarizes material usage across all sheets of a result.
type Totals struct {
	SheetCount        int     `json:"sheet_count"`
	TotalArea         float64 `json:"total_area"`
	UsedArea          float64 `json:"used_area"`
	WasteArea         float64 `json:"waste_area"`
	WastePercent      float64 `json:"waste_percent"`
	EfficiencyPercent float64 `json:"efficiency_percent"`
}

// ComputeTotals derives usage totals from packed sheets.
func ComputeTotals(sheets []Sheet) Totals {
	t := Totals{SheetCount: len(sheets)}
	for i := range sheets {
		t.TotalArea += sheets[i].Area()
		t.UsedArea += sheets[i].UsedArea
	}
	t.WasteArea = t.TotalArea - t.UsedArea
	if t.TotalArea > 0 {
		t.WastePercent = t.WasteArea / t.TotalArea * 100
		t.EfficiencyPercent = t.UsedArea / t.TotalArea * 100
	}
	return t
}

// Validation is the piece-conservation accounting attached to every result.
type Validation struct {
	TotalInput      int  `json:"total_input"`
	TotalPlaced     int  `json:"total_placed"`
	TotalUnplaced   int  `json:"total_unplaced"`
	PiecesLost      int  `json:"pieces_lost"`
	AllAccountedFor bool `json:"all_accounted_for"`
}

// PackResult is the full optimizer output consumed by the surrounding
// application (preview, PDF renderer, material summary).
type PackResult struct {
	Strategy string         `json:"strategy"` // winning strategy name
	Sheets   []Sheet        `json:"sheets"`
	Totals   Totals         `json:"totals"`
	Unplaced []UnplacedPart `json:"unplaced"`
	Offcuts  []Offcut       `json:"offcuts,omitempty"`

	Validation Validation `json:"validation"`
}
