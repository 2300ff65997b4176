package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/craftplan/cutstock/internal/model"
)

// GeneticConfig holds the tunable parameters of the genetic search.
type GeneticConfig struct {
	PopulationSize int
	TournamentSize int
	MutationRate   float64
	EliteFraction  float64 // share of the population carried over unchanged
}

// DefaultGeneticConfig returns the parameters used in production.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize: 50,
		TournamentSize: 3,
		MutationRate:   0.15,
		EliteFraction:  0.10,
	}
}

// Budget bounds one evolution run. A zero Deadline means no wall-clock
// limit; a zero MaxGenerations means no generation cap. Tests use a pure
// generation cap so runs are deterministic; production supplies a deadline.
type Budget struct {
	Deadline       time.Time
	MaxGenerations int
}

func (b Budget) exhausted(gen int) bool {
	if b.MaxGenerations > 0 && gen >= b.MaxGenerations {
		return true
	}
	if !b.Deadline.IsZero() && !time.Now().Before(b.Deadline) {
		return true
	}
	return false
}

// leftoverAreaWeight and sheetCountWeight encode the priority order of the
// fitness function: never drop a piece, then minimize sheets, then waste.
const (
	leftoverAreaWeight = 1000.0
	sheetCountWeight   = 100.0
)

// chromosome is one candidate solution: an ordering of all piece instances
// plus a rotation decision per instance. A chromosome is always evaluated
// in full before it is compared.
type chromosome struct {
	genes      []gene
	fitness    float64
	sheetCount int
	efficiency float64
}

func (c chromosome) clone() chromosome {
	genes := make([]gene, len(c.genes))
	copy(genes, c.genes)
	return chromosome{genes: genes, fitness: c.fitness, sheetCount: c.sheetCount, efficiency: c.efficiency}
}

// evolver runs the genetic search for a single split rule. It shares no
// mutable state with other evolvers; every evaluation packs fresh sheets
// and discards them.
type evolver struct {
	parts     []model.Part
	instances []model.PartInstance
	spec      model.SheetSpec
	rule      SplitRule
	cfg       GeneticConfig
	rng       *rand.Rand
	logger    *slog.Logger
}

func newEvolver(parts []model.Part, instances []model.PartInstance, spec model.SheetSpec,
	rule SplitRule, cfg GeneticConfig, seed int64, logger *slog.Logger) *evolver {
	return &evolver{
		parts:     parts,
		instances: instances,
		spec:      spec,
		rule:      rule,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(seed)),
		logger:    logger,
	}
}

// evaluate packs the chromosome end to end and scores it. Lower is better:
// wasted area, plus a heavy penalty per unplaced piece area, plus a penalty
// per sheet opened.
func (e *evolver) evaluate(c *chromosome) {
	p := packGenes(e.parts, e.instances, c.genes, e.spec, e.rule, nil)

	used := p.usedArea()
	totalArea := float64(len(p.sheets)) * e.spec.Width * e.spec.Height
	waste := totalArea - used

	var leftoverArea float64
	for _, idx := range p.leftover {
		leftoverArea += e.parts[e.instances[idx].Part].Area()
	}

	c.fitness = waste + leftoverArea*leftoverAreaWeight + float64(len(p.sheets))*sheetCountWeight
	c.sheetCount = len(p.sheets)
	if totalArea > 0 {
		c.efficiency = used / totalArea * 100
	} else {
		c.efficiency = 0
	}
}

// coinFlipRotations assigns each gene a fair random rotation, forced off
// for rotation-locked parts.
func (e *evolver) coinFlipRotations(genes []gene) {
	for i := range genes {
		part := e.parts[e.instances[genes[i].instance].Part]
		genes[i].rotated = part.RotationAllowed && e.rng.Float64() < 0.5
	}
}

func (e *evolver) orderedChromosome(less func(a, b int) bool) chromosome {
	order := make([]int, len(e.instances))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, less)
	genes := make([]gene, len(order))
	for i, idx := range order {
		genes[i] = gene{instance: idx}
	}
	e.coinFlipRotations(genes)
	return chromosome{genes: genes}
}

// seedPopulation mixes deterministic greedy orderings with random shuffles
// so the search never starts worse than greedy.
func (e *evolver) seedPopulation() []chromosome {
	partOf := func(i int) model.Part {
		return e.parts[e.instances[i].Part]
	}
	pop := make([]chromosome, 0, e.cfg.PopulationSize)
	pop = append(pop, e.orderedChromosome(func(a, b int) bool {
		return partOf(a).Area() > partOf(b).Area()
	}))
	if len(pop) < e.cfg.PopulationSize {
		pop = append(pop, e.orderedChromosome(func(a, b int) bool {
			return partOf(a).Perimeter() > partOf(b).Perimeter()
		}))
	}
	if len(pop) < e.cfg.PopulationSize {
		pop = append(pop, e.orderedChromosome(func(a, b int) bool {
			return partOf(a).AspectRatio() > partOf(b).AspectRatio()
		}))
	}
	for len(pop) < e.cfg.PopulationSize {
		perm := e.rng.Perm(len(e.instances))
		genes := make([]gene, len(perm))
		for i, idx := range perm {
			genes[i] = gene{instance: idx}
		}
		e.coinFlipRotations(genes)
		pop = append(pop, chromosome{genes: genes})
	}
	return pop
}

// tournamentSelect draws k candidates uniformly at random and returns the
// fittest (lowest fitness).
func (e *evolver) tournamentSelect(pop []chromosome) chromosome {
	best := &pop[e.rng.Intn(len(pop))]
	for i := 1; i < e.cfg.TournamentSize; i++ {
		c := &pop[e.rng.Intn(len(pop))]
		if c.fitness < best.fitness {
			best = c
		}
	}
	return best.clone()
}

// crossover builds a child from a single random cut point: the prefix comes
// from parent a, the rest is filled from parent b in b's order, skipping
// instances already used, then from a's remainder. The child is always a
// permutation of the same instance set; piece conservation depends on this.
func (e *evolver) crossover(a, b chromosome) chromosome {
	n := len(a.genes)
	if n < 2 {
		return a.clone()
	}
	cut := e.rng.Intn(n)

	used := make([]bool, n)
	genes := make([]gene, 0, n)
	for _, g := range a.genes[:cut] {
		genes = append(genes, g)
		used[g.instance] = true
	}
	for _, g := range b.genes {
		if !used[g.instance] {
			genes = append(genes, g)
			used[g.instance] = true
		}
	}
	for _, g := range a.genes[cut:] {
		if !used[g.instance] {
			genes = append(genes, g)
			used[g.instance] = true
		}
	}
	return chromosome{genes: genes}
}

// mutate applies three independent mutations: swap two positions, flip one
// rotation (only where the part allows it), and reverse a contiguous
// subsequence at half the base rate.
func (e *evolver) mutate(c *chromosome) {
	n := len(c.genes)
	if n < 2 {
		return
	}
	if e.rng.Float64() < e.cfg.MutationRate {
		i, j := e.rng.Intn(n), e.rng.Intn(n)
		c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
	}
	if e.rng.Float64() < e.cfg.MutationRate {
		i := e.rng.Intn(n)
		part := e.parts[e.instances[c.genes[i].instance].Part]
		if part.RotationAllowed {
			c.genes[i].rotated = !c.genes[i].rotated
		}
	}
	if e.rng.Float64() < e.cfg.MutationRate*0.5 {
		i, j := e.rng.Intn(n), e.rng.Intn(n)
		if i > j {
			i, j = j, i
		}
		for i < j {
			c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
			i++
			j--
		}
	}
}

// run executes the generational loop until the budget is exhausted or the
// context is cancelled, returning the best chromosome ever seen. A partial
// budget degrades quality, never correctness.
func (e *evolver) run(ctx context.Context, budget Budget) chromosome {
	pop := e.seedPopulation()
	for i := range pop {
		e.evaluate(&pop[i])
	}
	sort.SliceStable(pop, func(i, j int) bool { return pop[i].fitness < pop[j].fitness })
	best := pop[0].clone()

	gen := 0
	for !budget.exhausted(gen) && ctx.Err() == nil {
		elite := int(float64(len(pop)) * e.cfg.EliteFraction)
		if elite < 1 {
			elite = 1
		}
		next := make([]chromosome, 0, len(pop))
		for i := 0; i < elite; i++ {
			next = append(next, pop[i].clone())
		}
		for len(next) < len(pop) {
			child := e.crossover(e.tournamentSelect(pop), e.tournamentSelect(pop))
			e.mutate(&child)
			e.evaluate(&child)
			next = append(next, child)
		}
		sort.SliceStable(next, func(i, j int) bool { return next[i].fitness < next[j].fitness })
		pop = next
		if pop[0].fitness < best.fitness {
			best = pop[0].clone()
		}
		gen++
	}

	e.logger.Debug("evolution finished",
		"split_rule", e.rule.String(),
		"generations", gen,
		"best_fitness", best.fitness,
		"sheets", best.sheetCount,
		"efficiency", best.efficiency)
	return best
}
