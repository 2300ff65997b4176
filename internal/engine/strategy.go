package engine

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/craftplan/cutstock/internal/model"
)

// EfficiencyTieEpsilon is the margin, in percentage points, within which
// two strategies count as equally efficient and the one using fewer sheets
// wins. Overridable via WithTieEpsilon.
const EfficiencyTieEpsilon = 0.1

// strategyResult is one self-contained ensemble entry, used only for
// ranking. It keeps the gene sequence that produced the packing so the
// winner can be re-packed once at the end; intermediate sheets are
// discarded for memory efficiency.
type strategyResult struct {
	name       string
	rule       SplitRule
	score      scoreFunc
	genes      []gene
	fitness    float64
	sheetCount int
	efficiency float64
}

// greedyStrategy is a one-pass heuristic packer: largest-area-first order
// under a fixed placement scoring rule.
type greedyStrategy struct {
	name  string
	score scoreFunc
}

var greedyStrategies = []greedyStrategy{
	{name: "best-area-fit", score: scoreBestArea},
	{name: "best-short-side-fit", score: scoreBestShortSide},
	{name: "best-long-side-fit", score: scoreBestLongSide},
	{name: "bottom-left", score: scoreBottomLeft},
}

// greedyGenes builds the descending-area ordering every greedy strategy
// packs in. Rotation decisions are left to the packer.
func greedyGenes(parts []model.Part, instances []model.PartInstance) []gene {
	order := make([]int, len(instances))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return parts[instances[order[a]].Part].Area() > parts[instances[order[b]].Part].Area()
	})
	genes := make([]gene, len(order))
	for i, idx := range order {
		genes[i] = gene{instance: idx}
	}
	return genes
}

// ensemble runs every strategy concurrently and returns their results in a
// fixed order. Strategies share no mutable state: each gets its own derived
// seed, packs its own sheets and reports a self-contained result, so the
// final reduction needs no locks.
type ensemble struct {
	parts     []model.Part
	instances []model.PartInstance
	spec      model.SheetSpec
	cfg       GeneticConfig
	seed      int64
	logger    *slog.Logger
}

func (en *ensemble) run(ctx context.Context, budget Budget) []strategyResult {
	results := make([]strategyResult, 1+len(greedyStrategies))

	var wg sync.WaitGroup

	// The genetic search internally races the four split rules, each an
	// independent evolver on a derived seed; the fittest chromosome across
	// rules represents the genetic strategy in the outer ranking.
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = en.runGenetic(ctx, budget)
	}()

	for i, gs := range greedyStrategies {
		wg.Add(1)
		go func(slot int, gs greedyStrategy) {
			defer wg.Done()
			results[slot] = en.runGreedy(gs)
		}(1+i, gs)
	}
	wg.Wait()

	return results
}

// runGenetic races the four split rules, each an independent evolver on a
// derived seed, and keeps the fittest chromosome. The caller has already
// divided the job budget across the rules.
func (en *ensemble) runGenetic(ctx context.Context, budget Budget) strategyResult {
	type ruleOutcome struct {
		rule SplitRule
		best chromosome
	}
	outcomes := make([]ruleOutcome, len(splitRules))

	var wg sync.WaitGroup
	for i, rule := range splitRules {
		wg.Add(1)
		go func(slot int, rule SplitRule) {
			defer wg.Done()
			ev := newEvolver(en.parts, en.instances, en.spec, rule, en.cfg,
				en.seed+int64(slot)+1, en.logger)
			outcomes[slot] = ruleOutcome{rule: rule, best: ev.run(ctx, budget)}
		}(i, rule)
	}
	wg.Wait()

	best := outcomes[0]
	for _, o := range outcomes[1:] {
		if o.best.fitness < best.best.fitness {
			best = o
		}
	}

	en.logger.Debug("genetic ensemble finished",
		"winning_rule", best.rule.String(),
		"fitness", best.best.fitness,
		"efficiency", best.best.efficiency)

	return strategyResult{
		name:       "genetic/" + best.rule.String(),
		rule:       best.rule,
		genes:      best.best.genes,
		fitness:    best.best.fitness,
		sheetCount: best.best.sheetCount,
		efficiency: best.best.efficiency,
	}
}

func (en *ensemble) runGreedy(gs greedyStrategy) strategyResult {
	genes := greedyGenes(en.parts, en.instances)
	p := packGenes(en.parts, en.instances, genes, en.spec, SplitMinArea, gs.score)

	used := p.usedArea()
	totalArea := float64(len(p.sheets)) * en.spec.Width * en.spec.Height

	res := strategyResult{
		name:       gs.name,
		rule:       SplitMinArea,
		score:      gs.score,
		genes:      genes,
		sheetCount: len(p.sheets),
	}
	var leftoverArea float64
	for _, idx := range p.leftover {
		leftoverArea += en.parts[en.instances[idx].Part].Area()
	}
	res.fitness = (totalArea - used) + leftoverArea*leftoverAreaWeight +
		float64(len(p.sheets))*sheetCountWeight
	if totalArea > 0 {
		res.efficiency = used / totalArea * 100
	}
	return res
}

// rank picks the winning strategy: higher efficiency wins, and when two
// strategies are within tieEpsilon percentage points of each other the one
// with fewer sheets wins. Earlier entries win exact ties, keeping the
// outcome stable.
func rank(results []strategyResult, tieEpsilon float64) strategyResult {
	best := results[0]
	for _, r := range results[1:] {
		if betterStrategy(r, best, tieEpsilon) {
			best = r
		}
	}
	return best
}

func betterStrategy(a, b strategyResult, tieEpsilon float64) bool {
	diff := a.efficiency - b.efficiency
	if diff > tieEpsilon {
		return true
	}
	if diff < -tieEpsilon {
		return false
	}
	return a.sheetCount < b.sheetCount
}
