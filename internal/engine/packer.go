package engine

import (
	"math"

	"github.com/craftplan/cutstock/internal/model"
)

// SplitRule selects which of the two possible guillotine cuts to make when
// a placement leaves an L-shaped free area. The rule is fixed for a whole
// packing run, not chosen per placement.
type SplitRule int

const (
	SplitShorterAxis SplitRule = iota // cut parallel to the free rect's shorter side
	SplitLongerAxis                   // cut parallel to the longer side
	SplitMinArea                      // minimize the larger resulting area (even halves)
	SplitMaxArea                      // maximize the larger resulting area (one big rect)
)

// splitRules lists every rule the genetic ensemble evaluates.
var splitRules = [...]SplitRule{SplitShorterAxis, SplitLongerAxis, SplitMinArea, SplitMaxArea}

func (r SplitRule) String() string {
	switch r {
	case SplitShorterAxis:
		return "shorter-axis"
	case SplitLongerAxis:
		return "longer-axis"
	case SplitMinArea:
		return "min-area"
	case SplitMaxArea:
		return "max-area"
	default:
		return "unknown"
	}
}

// placeEpsilon absorbs float64 noise when comparing mm dimensions.
const placeEpsilon = 0.001

// scoreFunc rates how well a kerf-padded piece of w x h fits a free
// rectangle. Lower is better; only called when the piece fits.
type scoreFunc func(w, h float64, r model.FreeRect) float64

// scoreBestArea is the Best Area Fit heuristic: smallest leftover area.
func scoreBestArea(w, h float64, r model.FreeRect) float64 {
	return r.Area() - w*h
}

// scoreBestShortSide prefers the rectangle whose closest side matches.
func scoreBestShortSide(w, h float64, r model.FreeRect) float64 {
	return math.Min(r.Width-w, r.Height-h)
}

// scoreBestLongSide prefers the rectangle whose farthest side matches.
func scoreBestLongSide(w, h float64, r model.FreeRect) float64 {
	return math.Max(r.Width-w, r.Height-h)
}

// scoreBottomLeft is the Tetris placement: lowest rectangle first, then
// leftmost. The factor dominates any realistic sheet width in mm.
func scoreBottomLeft(_, _ float64, r model.FreeRect) float64 {
	return r.Y*1e6 + r.X
}

// placement is a successful tryPlace outcome, prior to being attributed to
// a part instance. Rotated is relative to the dimensions that were passed in.
type placement struct {
	x, y    float64
	w, h    float64
	rotated bool
}

// sheetPacker places pieces into one sheet with a single straight guillotine
// cut per placement.
type sheetPacker struct {
	sheet *model.Sheet
	rule  SplitRule
	score scoreFunc
}

func newSheetPacker(sheet *model.Sheet, rule SplitRule, score scoreFunc) *sheetPacker {
	if score == nil {
		score = scoreBestArea
	}
	return &sheetPacker{sheet: sheet, rule: rule, score: score}
}

// fits reports whether a kerf-padded w x h footprint fits inside r.
func (p *sheetPacker) fits(w, h float64, r model.FreeRect) bool {
	kerf := p.sheet.Kerf
	return w+kerf <= r.Width+placeEpsilon && h+kerf <= r.Height+placeEpsilon
}

// tryPlace attempts to fit a piece of w x h into the sheet, testing the
// rotated orientation as well when allowRotate is set. Among all candidate
// (rectangle, orientation) pairs the lowest score wins; ties go to the
// first encountered, keeping placement deterministic. The sheet's free
// space is updated on success and untouched on failure.
func (p *sheetPacker) tryPlace(w, h float64, allowRotate bool) (placement, bool) {
	kerf := p.sheet.Kerf
	bestIdx := -1
	bestScore := 0.0
	bestRot := false

	for i, r := range p.sheet.FreeRects {
		if p.fits(w, h, r) {
			if s := p.score(w+kerf, h+kerf, r); bestIdx < 0 || s < bestScore {
				bestIdx, bestScore, bestRot = i, s, false
			}
		}
		if allowRotate && w != h && p.fits(h, w, r) {
			if s := p.score(h+kerf, w+kerf, r); bestIdx < 0 || s < bestScore {
				bestIdx, bestScore, bestRot = i, s, true
			}
		}
	}
	if bestIdx < 0 {
		return placement{}, false
	}

	pw, ph := w, h
	if bestRot {
		pw, ph = h, w
	}
	chosen := p.sheet.FreeRects[bestIdx]

	// The piece occupies a kerf-padded footprint; the stored placement
	// subtracts the kerf back out and centers the piece in its slot so
	// adjacent pieces are separated by exactly one kerf width.
	pl := placement{
		x:       chosen.X + kerf/2,
		y:       chosen.Y + kerf/2,
		w:       pw,
		h:       ph,
		rotated: bestRot,
	}
	p.split(bestIdx, pw+kerf, ph+kerf)
	return pl, true
}

// split replaces free rectangle i with the 0-2 remainders of a single
// guillotine cut after a usedW x usedH footprint is taken from its
// top-left corner.
func (p *sheetPacker) split(i int, usedW, usedH float64) {
	r := p.sheet.FreeRects[i]
	leftoverW := r.Width - usedW
	leftoverH := r.Height - usedH

	// A horizontal cut spans the full width and yields a full-width bottom
	// strip plus a right strip of the placement's height. A vertical cut
	// yields a full-height right strip plus a bottom strip of the
	// placement's width.
	var horizontal bool
	switch p.rule {
	case SplitShorterAxis:
		horizontal = r.Width <= r.Height
	case SplitLongerAxis:
		horizontal = r.Width > r.Height
	case SplitMinArea:
		horizontal = largerHalf(r, usedW, usedH, true) <= largerHalf(r, usedW, usedH, false)
	case SplitMaxArea:
		horizontal = largerHalf(r, usedW, usedH, true) > largerHalf(r, usedW, usedH, false)
	}

	var bottom, right model.FreeRect
	if horizontal {
		bottom = model.FreeRect{X: r.X, Y: r.Y + usedH, Width: r.Width, Height: leftoverH}
		right = model.FreeRect{X: r.X + usedW, Y: r.Y, Width: leftoverW, Height: usedH}
	} else {
		bottom = model.FreeRect{X: r.X, Y: r.Y + usedH, Width: usedW, Height: leftoverH}
		right = model.FreeRect{X: r.X + usedW, Y: r.Y, Width: leftoverW, Height: r.Height}
	}

	// Swap-remove the consumed rectangle, then keep non-degenerate halves.
	rects := p.sheet.FreeRects
	rects[i] = rects[len(rects)-1]
	rects = rects[:len(rects)-1]
	if bottom.Width > placeEpsilon && bottom.Height > placeEpsilon {
		rects = append(rects, bottom)
	}
	if right.Width > placeEpsilon && right.Height > placeEpsilon {
		rects = append(rects, right)
	}
	p.sheet.FreeRects = rects
}

// largerHalf returns the larger of the two areas a horizontal or vertical
// guillotine cut would produce.
func largerHalf(r model.FreeRect, usedW, usedH float64, horizontal bool) float64 {
	leftoverW := r.Width - usedW
	leftoverH := r.Height - usedH
	if horizontal {
		return math.Max(r.Width*leftoverH, leftoverW*usedH)
	}
	return math.Max(leftoverW*r.Height, usedW*leftoverH)
}
