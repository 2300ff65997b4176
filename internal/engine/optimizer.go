// Package engine implements the cutting-stock optimizer: a guillotine
// sheet packer driven by a genetic algorithm, raced against greedy
// heuristics, with a hard piece-conservation guarantee.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/craftplan/cutstock/internal/model"
)

// DefaultTimeBudget applies when the job does not specify one.
const DefaultTimeBudget = 2 * time.Second

// Optimizer carries the knobs of one optimization run. The zero value is
// not usable; construct via Optimize's options.
type Optimizer struct {
	logger     *slog.Logger
	seed       int64
	seeded     bool
	tieEpsilon float64
	genetic    GeneticConfig
	budget     Budget // overrides the job's time budget when set
}

// Option configures an optimization run.
type Option func(*Optimizer)

// WithLogger injects a structured logger for trace events. The engine never
// prints on its own.
func WithLogger(l *slog.Logger) Option {
	return func(o *Optimizer) { o.logger = l }
}

// WithSeed makes the run reproducible. Without it the seed comes from the
// wall clock at the entry point, and only there.
func WithSeed(seed int64) Option {
	return func(o *Optimizer) { o.seed, o.seeded = seed, true }
}

// WithTieEpsilon overrides EfficiencyTieEpsilon for strategy ranking.
func WithTieEpsilon(eps float64) Option {
	return func(o *Optimizer) { o.tieEpsilon = eps }
}

// WithGeneticConfig overrides the genetic search parameters.
func WithGeneticConfig(cfg GeneticConfig) Option {
	return func(o *Optimizer) { o.genetic = cfg }
}

// WithBudget replaces the job's wall-clock budget, e.g. with a fixed
// generation cap for deterministic tests.
func WithBudget(b Budget) Option {
	return func(o *Optimizer) { o.budget = b }
}

// Optimize packs the job's parts onto the fewest sheets it can find within
// the time budget. Oversized pieces are reported in Unplaced, not errors;
// the only error condition is a conservation violation, which indicates an
// engine bug and never a bad input.
func Optimize(ctx context.Context, job model.Job, opts ...Option) (model.PackResult, error) {
	o := &Optimizer{
		tieEpsilon: EfficiencyTieEpsilon,
		genetic:    DefaultGeneticConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if !o.seeded {
		o.seed = time.Now().UnixNano()
	}

	instances := model.ExpandParts(job.Parts)
	if len(instances) == 0 {
		return model.PackResult{
			Validation: model.Validation{AllAccountedFor: true},
		}, nil
	}

	budget := o.budget
	if budget == (Budget{}) {
		total := time.Duration(job.TimeBudgetMs) * time.Millisecond
		if total <= 0 {
			total = DefaultTimeBudget
		}
		// Each split rule gets an equal share of the job budget, the same
		// division the single-threaded reference applies.
		budget = Budget{Deadline: time.Now().Add(total / time.Duration(len(splitRules)))}
	}

	o.logger.Info("optimization started",
		"parts", len(job.Parts),
		"pieces", len(instances),
		"sheet", job.Sheet,
		"seed", o.seed)

	en := &ensemble{
		parts:     job.Parts,
		instances: instances,
		spec:      job.Sheet,
		cfg:       o.genetic,
		seed:      o.seed,
		logger:    o.logger,
	}
	results := en.run(ctx, budget)
	for _, r := range results {
		o.logger.Debug("strategy result",
			"strategy", r.name,
			"efficiency", r.efficiency,
			"sheets", r.sheetCount,
			"fitness", r.fitness)
	}
	winner := rank(results, o.tieEpsilon)

	// Intermediate evaluations discard their sheets; re-derive the winning
	// packing once to produce the final layout.
	p := packGenes(job.Parts, instances, winner.genes, job.Sheet, winner.rule, winner.score)

	validation, err := validateConservation(job.Parts, instances, p.sheets, p.leftover)
	if err != nil {
		return model.PackResult{}, err
	}

	result := model.PackResult{
		Strategy:   winner.name,
		Validation: validation,
	}
	for _, s := range p.sheets {
		result.Sheets = append(result.Sheets, *s)
	}
	for _, idx := range p.leftover {
		inst := instances[idx]
		part := job.Parts[inst.Part]
		reason := model.ReasonNoRoom
		if !fitsEmptySheet(part, job.Sheet) {
			reason = model.ReasonTooLarge
		}
		result.Unplaced = append(result.Unplaced, model.UnplacedPart{
			Part:     part,
			Instance: inst,
			Reason:   reason,
		})
	}
	result.Totals = model.ComputeTotals(result.Sheets)
	result.Offcuts = model.DetectOffcuts(result.Sheets)

	o.logger.Info("optimization finished",
		"strategy", winner.name,
		"sheets", result.Totals.SheetCount,
		"efficiency", result.Totals.EfficiencyPercent,
		"unplaced", len(result.Unplaced))
	return result, nil
}
