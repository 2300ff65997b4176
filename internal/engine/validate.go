package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/craftplan/cutstock/internal/model"
)

// ErrConservation signals that placed + unplaced piece counts do not match
// the input count. This indicates a bug in expansion or crossover, never a
// property of the input data, so the engine refuses to return a result.
var ErrConservation = errors.New("piece conservation violated")

// validateConservation accounts for every input piece instance across the
// final sheets and the leftover list. It also rejects duplicated instances:
// a piece placed twice is as fatal as a piece lost.
func validateConservation(parts []model.Part, instances []model.PartInstance,
	sheets []*model.Sheet, leftover []int) (model.Validation, error) {

	v := model.Validation{TotalInput: len(instances)}

	seen := make([]bool, len(instances))
	var duplicated []string
	record := func(idx int) {
		if idx >= 0 && idx < len(instances) && seen[idx] {
			duplicated = append(duplicated, model.InstanceID(parts, instances[idx]))
		}
		if idx >= 0 && idx < len(instances) {
			seen[idx] = true
		}
	}

	for _, s := range sheets {
		v.TotalPlaced += len(s.Placed)
		for _, p := range s.Placed {
			record(p.Instance)
		}
	}
	v.TotalUnplaced = len(leftover)
	for _, idx := range leftover {
		record(idx)
	}

	v.PiecesLost = v.TotalInput - v.TotalPlaced - v.TotalUnplaced
	v.AllAccountedFor = v.PiecesLost == 0 && len(duplicated) == 0

	if v.AllAccountedFor {
		return v, nil
	}

	var missing []string
	for i, ok := range seen {
		if !ok {
			missing = append(missing, model.InstanceID(parts, instances[i]))
		}
	}
	return v, fmt.Errorf("%w: input=%d placed=%d unplaced=%d missing=[%s] duplicated=[%s]",
		ErrConservation, v.TotalInput, v.TotalPlaced, v.TotalUnplaced,
		strings.Join(missing, ","), strings.Join(duplicated, ","))
}
