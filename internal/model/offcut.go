package model

import "sort"

// Offcut represents a usable rectangular remnant left over after cutting,
// large enough to stock back into the godown for a future job.
type Offcut struct {
	SheetIndex int     `json:"sheet_index"` // index of the source sheet in the result
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// Area returns the offcut area in square mm.
func (o Offcut) Area() float64 {
	return o.Width * o.Height
}

// MinOffcutDimension is the minimum width or height (in mm) for a remnant
// to be considered a usable offcut. Smaller remnants are waste.
const MinOffcutDimension = 50.0

// MinOffcutArea is the minimum area (in sq mm) for a remnant to be usable.
const MinOffcutArea = 10000.0

// DetectOffcuts collects the usable remnants from packed sheets. The packer
// keeps each sheet's free rectangles disjoint, so every free rectangle that
// clears the minimum size is directly reusable stock.
func DetectOffcuts(sheets []Sheet) []Offcut {
	var offcuts []Offcut
	for i := range sheets {
		for _, r := range sheets[i].FreeRects {
			if r.Width < MinOffcutDimension || r.Height < MinOffcutDimension {
				continue
			}
			if r.Area() < MinOffcutArea {
				continue
			}
			offcuts = append(offcuts, Offcut{
				SheetIndex: i,
				X:          r.X,
				Y:          r.Y,
				Width:      r.Width,
				Height:     r.Height,
			})
		}
	}
	sort.SliceStable(offcuts, func(a, b int) bool {
		return offcuts[a].Area() > offcuts[b].Area()
	})
	return offcuts
}
