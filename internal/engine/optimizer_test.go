package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftplan/cutstock/internal/model"
)

func testOptions(seed int64) []Option {
	return []Option{
		WithLogger(testLogger()),
		WithSeed(seed),
		WithBudget(Budget{MaxGenerations: 10}),
	}
}

func TestOptimize_EightSquaresOneSheet(t *testing.T) {
	// 8 x 400x400 pieces on a 1210x2420 sheet: two columns of four fit with
	// room to spare, so one sheet suffices.
	job := model.Job{
		Sheet: model.SheetSpec{Width: 1210, Height: 2420, Kerf: 5},
		Parts: []model.Part{{ID: "sq", Width: 400, Height: 400, Quantity: 8, RotationAllowed: true}},
	}

	res, err := Optimize(context.Background(), job, testOptions(1)...)

	require.NoError(t, err)
	require.Len(t, res.Sheets, 1)
	assert.Len(t, res.Sheets[0].Placed, 8)
	assert.Empty(t, res.Unplaced)
	assert.True(t, res.Validation.AllAccountedFor)
	assert.Greater(t, res.Totals.EfficiencyPercent, 40.0)
	assert.LessOrEqual(t, res.Totals.EfficiencyPercent, 100.0)
}

func TestOptimize_OversizedPartReported(t *testing.T) {
	// Width 3000 exceeds both sheet dimensions, so no ordering can place it.
	job := model.Job{
		Sheet: model.SheetSpec{Width: 1210, Height: 2420, Kerf: 5},
		Parts: []model.Part{{ID: "huge", Width: 3000, Height: 400, Quantity: 1}},
	}

	res, err := Optimize(context.Background(), job, testOptions(1)...)

	require.NoError(t, err, "an impossible piece is a reported outcome, not an error")
	assert.Empty(t, res.Sheets)
	require.Len(t, res.Unplaced, 1)
	assert.Equal(t, model.ReasonTooLarge, res.Unplaced[0].Reason)
	assert.Equal(t, "huge", res.Unplaced[0].Part.ID)
	assert.True(t, res.Validation.AllAccountedFor)
	assert.Equal(t, 0, res.Validation.TotalPlaced)
	assert.Equal(t, 1, res.Validation.TotalUnplaced)
	assert.Equal(t, 0.0, res.Totals.EfficiencyPercent, "zero sheets means zero efficiency")
}

func TestOptimize_RotationLockedNeverRotated(t *testing.T) {
	job := model.Job{
		Sheet: model.SheetSpec{Width: 1210, Height: 2420, Kerf: 5},
		Parts: []model.Part{
			{ID: "locked", Width: 600, Height: 600, Quantity: 10, RotationAllowed: false},
			{ID: "free", Width: 600, Height: 600, Quantity: 10, RotationAllowed: true},
		},
	}

	res, err := Optimize(context.Background(), job, testOptions(3)...)

	require.NoError(t, err)
	assert.True(t, res.Validation.AllAccountedFor)

	lockedSeen := 0
	for _, s := range res.Sheets {
		for _, p := range s.Placed {
			if job.Parts[p.Part].ID == "locked" {
				lockedSeen++
				assert.False(t, p.Rotated, "rotation-locked piece came out rotated")
			}
		}
	}
	assert.Equal(t, 10, lockedSeen)
}

func TestOptimize_EmptyJob(t *testing.T) {
	job := model.Job{Sheet: model.SheetSpec{Width: 1210, Height: 2420}}

	res, err := Optimize(context.Background(), job, testOptions(1)...)

	require.NoError(t, err)
	assert.Empty(t, res.Sheets)
	assert.Empty(t, res.Unplaced)
	assert.True(t, res.Validation.AllAccountedFor)
	assert.Equal(t, 0, res.Totals.SheetCount)
}

func TestOptimize_DeterministicWithSeed(t *testing.T) {
	job := model.Job{
		Sheet: model.SheetSpec{Width: 1210, Height: 2420, Kerf: 4},
		Parts: []model.Part{
			{ID: "a", Width: 600, Height: 400, Quantity: 5, RotationAllowed: true},
			{ID: "b", Width: 350, Height: 250, Quantity: 7, RotationAllowed: true},
			{ID: "c", Width: 800, Height: 200, Quantity: 3, RotationAllowed: false},
		},
	}

	first, err := Optimize(context.Background(), job, testOptions(99)...)
	require.NoError(t, err)
	second, err := Optimize(context.Background(), job, testOptions(99)...)
	require.NoError(t, err)

	assert.Equal(t, first.Strategy, second.Strategy)
	require.Len(t, second.Sheets, len(first.Sheets))
	for i := range first.Sheets {
		assert.Equal(t, first.Sheets[i].Placed, second.Sheets[i].Placed)
	}
}

func TestOptimize_ConservationAcrossMixedOutcome(t *testing.T) {
	// A mix of packable and impossible pieces: every input instance must be
	// accounted for on a sheet or in the unplaced list.
	job := model.Job{
		Sheet: model.SheetSpec{Width: 1210, Height: 2420, Kerf: 4},
		Parts: []model.Part{
			{ID: "ok", Width: 500, Height: 500, Quantity: 6, RotationAllowed: true},
			{ID: "huge", Width: 2500, Height: 2500, Quantity: 2, RotationAllowed: true},
		},
	}

	res, err := Optimize(context.Background(), job, testOptions(5)...)

	require.NoError(t, err)
	assert.True(t, res.Validation.AllAccountedFor)
	assert.Equal(t, 8, res.Validation.TotalInput)
	assert.Equal(t, 6, res.Validation.TotalPlaced)
	assert.Equal(t, 2, res.Validation.TotalUnplaced)
	for _, u := range res.Unplaced {
		assert.Equal(t, model.ReasonTooLarge, u.Reason)
		assert.Equal(t, "huge", u.Part.ID)
	}
}

func TestOptimize_PiecesNeverOverlap(t *testing.T) {
	job := model.Job{
		Sheet: model.SheetSpec{Width: 1210, Height: 2420, Kerf: 5},
		Parts: []model.Part{
			{ID: "a", Width: 700, Height: 500, Quantity: 4, RotationAllowed: true},
			{ID: "b", Width: 450, Height: 300, Quantity: 6, RotationAllowed: true},
			{ID: "c", Width: 200, Height: 1000, Quantity: 3, RotationAllowed: false},
		},
	}

	res, err := Optimize(context.Background(), job, testOptions(17)...)

	require.NoError(t, err)
	assert.True(t, res.Validation.AllAccountedFor)
	for si := range res.Sheets {
		placed := res.Sheets[si].Placed
		for i := 0; i < len(placed); i++ {
			for j := i + 1; j < len(placed); j++ {
				assert.False(t, overlaps(placed[i], placed[j]),
					"sheet %d: pieces %d and %d overlap", si, i, j)
			}
		}
	}
}

func TestOptimize_OffcutsReported(t *testing.T) {
	// A single small piece on a big sheet leaves large usable remnants.
	job := model.Job{
		Sheet: model.SheetSpec{Width: 1210, Height: 2420, Kerf: 5},
		Parts: []model.Part{{ID: "a", Width: 400, Height: 400, Quantity: 1, RotationAllowed: true}},
	}

	res, err := Optimize(context.Background(), job, testOptions(1)...)

	require.NoError(t, err)
	require.NotEmpty(t, res.Offcuts)
	for i := 1; i < len(res.Offcuts); i++ {
		assert.GreaterOrEqual(t, res.Offcuts[i-1].Area(), res.Offcuts[i].Area())
	}
}

func TestOptimize_WinnerStrategyNamed(t *testing.T) {
	job := model.Job{
		Sheet: model.SheetSpec{Width: 1210, Height: 2420, Kerf: 4},
		Parts: []model.Part{{ID: "a", Width: 600, Height: 400, Quantity: 4, RotationAllowed: true}},
	}

	res, err := Optimize(context.Background(), job, testOptions(2)...)

	require.NoError(t, err)
	assert.NotEmpty(t, res.Strategy)
}
