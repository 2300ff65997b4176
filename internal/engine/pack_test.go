package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftplan/cutstock/internal/model"
)

func sequentialGenes(n int) []gene {
	genes := make([]gene, n)
	for i := range genes {
		genes[i] = gene{instance: i}
	}
	return genes
}

// overlaps reports whether two placed pieces share interior area.
func overlaps(a, b model.PlacedPiece) bool {
	return a.X < b.X+b.Width-placeEpsilon && b.X < a.X+a.Width-placeEpsilon &&
		a.Y < b.Y+b.Height-placeEpsilon && b.Y < a.Y+a.Height-placeEpsilon
}

func assertNoOverlaps(t *testing.T, sheets []*model.Sheet) {
	t.Helper()
	for si, s := range sheets {
		for i := 0; i < len(s.Placed); i++ {
			for j := i + 1; j < len(s.Placed); j++ {
				assert.False(t, overlaps(s.Placed[i], s.Placed[j]),
					"sheet %d: pieces %d and %d overlap", si, i, j)
			}
		}
	}
}

func TestPackGenes_FillsSheetBeforeOpeningNext(t *testing.T) {
	// Four 500x500 pieces tile one 1000x1000 sheet exactly; a fifth forces
	// a second sheet.
	parts := []model.Part{{ID: "a", Width: 500, Height: 500, Quantity: 5, RotationAllowed: true}}
	instances := model.ExpandParts(parts)
	spec := model.SheetSpec{Width: 1000, Height: 1000}

	p := packGenes(parts, instances, sequentialGenes(5), spec, SplitShorterAxis, nil)

	require.Len(t, p.sheets, 2)
	assert.Len(t, p.sheets[0].Placed, 4)
	assert.Len(t, p.sheets[1].Placed, 1)
	assert.Empty(t, p.leftover)
	assertNoOverlaps(t, p.sheets)
}

func TestPackGenes_OversizedGoesToLeftover(t *testing.T) {
	parts := []model.Part{
		{ID: "big", Width: 3000, Height: 3000, Quantity: 1, RotationAllowed: true},
		{ID: "ok", Width: 400, Height: 400, Quantity: 1, RotationAllowed: true},
	}
	instances := model.ExpandParts(parts)
	spec := model.SheetSpec{Width: 1210, Height: 2420}

	p := packGenes(parts, instances, sequentialGenes(2), spec, SplitShorterAxis, nil)

	require.Len(t, p.leftover, 1)
	assert.Equal(t, 0, p.leftover[0], "the oversized instance is reported")
	assert.Equal(t, 1, p.placedCount())
}

func TestPackGenes_KerfPushesPieceToNextSheet(t *testing.T) {
	// Two 500-wide pieces fit a 1000-wide sheet side by side without kerf,
	// but not once the blade width is accounted for.
	parts := []model.Part{{ID: "a", Width: 500, Height: 900, Quantity: 2}}
	instances := model.ExpandParts(parts)

	noKerf := packGenes(parts, instances, sequentialGenes(2),
		model.SheetSpec{Width: 1000, Height: 1000}, SplitShorterAxis, nil)
	assert.Len(t, noKerf.sheets, 1)

	withKerf := packGenes(parts, instances, sequentialGenes(2),
		model.SheetSpec{Width: 1000, Height: 1000, Kerf: 4}, SplitShorterAxis, nil)
	assert.Len(t, withKerf.sheets, 2)
}

func TestPackGenes_GeneRotationHonored(t *testing.T) {
	// The sheet only accommodates the part in its original orientation, and
	// the gene asks for rotation; the packer must rotate it back, leaving
	// the final piece unrotated.
	parts := []model.Part{{ID: "a", Width: 600, Height: 300, Quantity: 1, RotationAllowed: true}}
	instances := model.ExpandParts(parts)
	spec := model.SheetSpec{Width: 600, Height: 300}

	p := packGenes(parts, instances, []gene{{instance: 0, rotated: true}}, spec, SplitShorterAxis, nil)

	require.Len(t, p.sheets, 1)
	require.Len(t, p.sheets[0].Placed, 1)
	placed := p.sheets[0].Placed[0]
	assert.False(t, placed.Rotated)
	assert.Equal(t, 600.0, placed.Width)
	assert.Equal(t, 300.0, placed.Height)
}

func TestPackGenes_RotationLockedNeverRotates(t *testing.T) {
	parts := []model.Part{{ID: "a", Width: 600, Height: 300, Quantity: 4, RotationAllowed: false}}
	instances := model.ExpandParts(parts)
	spec := model.SheetSpec{Width: 1210, Height: 2420}

	// Rotation requests on a locked part are ignored outright.
	genes := []gene{
		{instance: 0, rotated: true},
		{instance: 1},
		{instance: 2, rotated: true},
		{instance: 3},
	}
	p := packGenes(parts, instances, genes, spec, SplitShorterAxis, nil)

	require.Equal(t, 4, p.placedCount())
	for _, s := range p.sheets {
		for _, placed := range s.Placed {
			assert.False(t, placed.Rotated)
			assert.Equal(t, 600.0, placed.Width)
			assert.Equal(t, 300.0, placed.Height)
		}
	}
}

func TestPackGenes_PiecesStayInsideSheet(t *testing.T) {
	parts := []model.Part{
		{ID: "a", Width: 600, Height: 400, Quantity: 3, RotationAllowed: true},
		{ID: "b", Width: 350, Height: 250, Quantity: 4, RotationAllowed: true},
		{ID: "c", Width: 800, Height: 200, Quantity: 2, RotationAllowed: false},
	}
	instances := model.ExpandParts(parts)
	spec := model.SheetSpec{Width: 1210, Height: 2420, Kerf: 4}

	p := packGenes(parts, instances, sequentialGenes(len(instances)), spec, SplitMinArea, nil)

	assert.Empty(t, p.leftover)
	assertNoOverlaps(t, p.sheets)
	for _, s := range p.sheets {
		for _, placed := range s.Placed {
			assert.GreaterOrEqual(t, placed.X, 0.0)
			assert.GreaterOrEqual(t, placed.Y, 0.0)
			assert.LessOrEqual(t, placed.X+placed.Width, spec.Width+placeEpsilon)
			assert.LessOrEqual(t, placed.Y+placed.Height, spec.Height+placeEpsilon)
		}
	}
}

func TestFitsEmptySheet(t *testing.T) {
	spec := model.SheetSpec{Width: 1210, Height: 2420, Kerf: 4}

	assert.True(t, fitsEmptySheet(model.Part{Width: 1200, Height: 2400, RotationAllowed: true}, spec))
	assert.False(t, fitsEmptySheet(model.Part{Width: 1250, Height: 2500, RotationAllowed: true}, spec))

	// Fits only rotated.
	tall := model.Part{Width: 2400, Height: 1200}
	assert.False(t, fitsEmptySheet(tall, spec))
	tall.RotationAllowed = true
	assert.True(t, fitsEmptySheet(tall, spec))
}
