package engine

import "github.com/craftplan/cutstock/internal/model"

// gene is one scheduling decision: which piece to place next and whether
// the chromosome wants it rotated.
type gene struct {
	instance int  // index into the expanded instance list
	rotated  bool // requested rotation, honored only if the part allows it
}

// packing is the concrete outcome of packing one gene sequence.
type packing struct {
	sheets   []*model.Sheet
	leftover []int // instance indices that fit no sheet
}

func (p packing) usedArea() float64 {
	var used float64
	for _, s := range p.sheets {
		used += s.UsedArea
	}
	return used
}

func (p packing) placedCount() int {
	n := 0
	for _, s := range p.sheets {
		n += len(s.Placed)
	}
	return n
}

// fitsEmptySheet reports whether the part fits a fresh sheet in any
// orientation its rotation constraint allows.
func fitsEmptySheet(part model.Part, spec model.SheetSpec) bool {
	fit := func(w, h float64) bool {
		return w+spec.Kerf <= spec.Width+placeEpsilon && h+spec.Kerf <= spec.Height+placeEpsilon
	}
	if fit(part.Width, part.Height) {
		return true
	}
	return part.RotationAllowed && fit(part.Height, part.Width)
}

// packGenes packs the gene sequence onto as many sheets as needed. Each gene
// is tried on every existing sheet in creation order and a new sheet opens
// only when all of them reject the piece. Pieces too large for even an empty
// sheet are collected as leftovers, never an error.
//
// Sheets are owned by this call alone; evaluations discard them afterwards.
func packGenes(parts []model.Part, instances []model.PartInstance, genes []gene,
	spec model.SheetSpec, rule SplitRule, score scoreFunc) packing {

	var result packing
	var packers []*sheetPacker

	for _, g := range genes {
		inst := instances[g.instance]
		part := parts[inst.Part]

		if !fitsEmptySheet(part, spec) {
			result.leftover = append(result.leftover, g.instance)
			continue
		}

		// The gene's rotation request pre-swaps the try dimensions; the
		// packer may still pick either orientation when rotation is allowed.
		w, h := part.Width, part.Height
		preRotated := g.rotated && part.RotationAllowed
		if preRotated {
			w, h = h, w
		}

		placed := false
		for _, sp := range packers {
			if pl, ok := sp.tryPlace(w, h, part.RotationAllowed); ok {
				commit(sp.sheet, pl, g.instance, inst.Part, preRotated)
				placed = true
				break
			}
		}
		if !placed {
			sheet := model.NewSheet(spec)
			sp := newSheetPacker(sheet, rule, score)
			pl, ok := sp.tryPlace(w, h, part.RotationAllowed)
			if !ok {
				// Cannot happen after fitsEmptySheet, but never drop a
				// piece silently if it does.
				result.leftover = append(result.leftover, g.instance)
				continue
			}
			commit(sheet, pl, g.instance, inst.Part, preRotated)
			result.sheets = append(result.sheets, sheet)
			packers = append(packers, sp)
		}
	}
	return result
}

// commit attributes a raw placement to its part instance. The final Rotated
// flag is relative to the original part dimensions: the gene's pre-rotation
// and the packer's in-place rotation cancel each other out.
func commit(sheet *model.Sheet, pl placement, instance, part int, preRotated bool) {
	sheet.Place(model.PlacedPiece{
		Instance: instance,
		Part:     part,
		X:        pl.x,
		Y:        pl.y,
		Width:    pl.w,
		Height:   pl.h,
		Rotated:  preRotated != pl.rotated,
	})
}
