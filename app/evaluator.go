package app

import (
	"context"
	"fmt"

	"guildscore/domain/guild"
	"guildscore/domain/normalization"
	"guildscore/domain/phylo"
	"guildscore/domain/score"
	"guildscore/internal/network"
	"guildscore/internal/normalize"
	"guildscore/internal/phylodiv"
	"guildscore/internal/traits"
)

// Raw-score formula versions. Bump a version whenever its raw formula changes so that stored
// profiles calibrated against the old formula are rejected at startup.
const (
	FormulaFaithPD            = "faith-pd/1"
	FormulaStrategyConflicts  = "csr-conflicts/1"
	FormulaPestControl        = "biocontrol/1"
	FormulaDiseaseSuppression = "biocontrol/1"
	FormulaFungalNetwork      = "connectivity/1"
	FormulaStructuralQuality  = "stratification/1"
	FormulaPollinatorNetwork  = "connectivity/1"
)

// FormulaVersions maps every scored metric to its current formula version.
func FormulaVersions() map[normalization.MetricName]string {
	return map[normalization.MetricName]string{
		normalization.MetricFaithPD:            FormulaFaithPD,
		normalization.MetricStrategyConflicts:  FormulaStrategyConflicts,
		normalization.MetricPestControl:        FormulaPestControl,
		normalization.MetricDiseaseSuppression: FormulaDiseaseSuppression,
		normalization.MetricFungalNetwork:      FormulaFungalNetwork,
		normalization.MetricStructuralQuality:  FormulaStructuralQuality,
		normalization.MetricPollinatorNetwork:  FormulaPollinatorNetwork,
	}
}

// EngineConfig holds the tunables of the network matcher and trait checker.
type EngineConfig struct {
	Network network.Config
	Traits  traits.Config
}

// DefaultEngineConfig returns the standard weights and thresholds.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{Network: network.DefaultConfig(), Traits: traits.DefaultConfig()}
}

// Engine evaluates the raw metrics of a guild over shared, read-only reference data. Scoring
// and calibration both go through it so their raw values are computed identically.
type Engine struct {
	pd      *phylodiv.Engine
	matcher *network.Matcher
	traits  guild.TraitTable
	cfg     EngineConfig
}

// NewEngine wires the analyzers. The tree and index must already be validated.
func NewEngine(tree *phylo.Tree, index *network.Index, table guild.TraitTable, cfg EngineConfig) (*Engine, error) {
	if tree == nil {
		return nil, fmt.Errorf("engine needs a phylogenetic tree")
	}
	if index == nil {
		return nil, fmt.Errorf("engine needs an interaction index")
	}
	if table == nil {
		table = guild.TraitTable{}
	}
	return &Engine{
		pd:      phylodiv.NewEngine(tree),
		matcher: network.NewMatcher(index, cfg.Network),
		traits:  table,
		cfg:     cfg,
	}, nil
}

// Tree returns the reference tree.
func (e *Engine) Tree() *phylo.Tree { return e.pd.Tree() }

// componentRaw is one component's raw metric before normalization.
type componentRaw struct {
	Status   score.ComponentStatus
	Raw      float64
	Coverage float64
	Reason   string
}

// Evaluation holds every analysis run for one guild.
type Evaluation struct {
	Guild          guild.Guild
	Phylo          phylodiv.Result
	Network        network.Analysis
	Strategies     traits.StrategyAnalysis
	Stratification traits.StratificationAnalysis

	components map[normalization.MetricName]componentRaw
}

// Evaluate runs the PD engine, network matcher and trait checks for g.
func (e *Engine) Evaluate(g guild.Guild) *Evaluation {
	ev := &Evaluation{
		Guild:          g,
		Phylo:          e.pd.Compute(g.Species()),
		Network:        e.matcher.Match(g),
		Strategies:     traits.CheckStrategies(g, e.traits, e.cfg.Traits),
		Stratification: traits.CheckStratification(g, e.traits, e.cfg.Traits),
	}

	n := float64(g.Size())
	share := func(k int) float64 {
		if n == 0 {
			return 0
		}
		return float64(k) / n
	}

	ev.components = make(map[normalization.MetricName]componentRaw, len(normalization.AllMetrics()))
	if ev.Phylo.Defined {
		ev.components[normalization.MetricFaithPD] = componentRaw{
			Status: score.StatusScored, Raw: ev.Phylo.PD, Coverage: share(len(ev.Phylo.Resolved)),
		}
	} else {
		ev.components[normalization.MetricFaithPD] = componentRaw{
			Status:   score.StatusUndefined,
			Coverage: share(len(ev.Phylo.Resolved)),
			Reason:   fmt.Sprintf("%d distinct species resolved in the tree, need at least 2", len(ev.Phylo.Resolved)),
		}
	}

	if ev.Strategies.NoData {
		ev.components[normalization.MetricStrategyConflicts] = componentRaw{
			Status:   score.StatusNoData,
			Coverage: share(len(ev.Strategies.PlantsWithData)),
			Reason:   "fewer than two plants have CSR strategy data",
		}
	} else {
		ev.components[normalization.MetricStrategyConflicts] = componentRaw{
			Status: score.StatusScored, Raw: ev.Strategies.Raw, Coverage: share(len(ev.Strategies.PlantsWithData)),
		}
	}

	if ev.Stratification.NoData {
		ev.components[normalization.MetricStructuralQuality] = componentRaw{
			Status:   score.StatusNoData,
			Coverage: share(ev.Stratification.PlantsWithHeight),
			Reason:   "fewer than two plants have a documented height",
		}
	} else {
		ev.components[normalization.MetricStructuralQuality] = componentRaw{
			Status: score.StatusScored, Raw: ev.Stratification.Quality, Coverage: share(ev.Stratification.PlantsWithHeight),
		}
	}

	for metric, category := range networkMetrics {
		ca := ev.Network.Category(category)
		if ca == nil || ca.NoData {
			ev.components[metric] = componentRaw{
				Status: score.StatusNoData,
				Reason: fmt.Sprintf("no guild plant has documented %s interactions", category),
			}
			continue
		}
		ev.components[metric] = componentRaw{Status: score.StatusScored, Raw: ca.Raw, Coverage: ca.Coverage}
	}
	return ev
}

var networkMetrics = map[normalization.MetricName]guild.InteractionCategory{
	normalization.MetricPestControl:        guild.CategoryPestControl,
	normalization.MetricDiseaseSuppression: guild.CategoryDiseaseSuppression,
	normalization.MetricFungalNetwork:      guild.CategoryBeneficialFungi,
	normalization.MetricPollinatorNetwork:  guild.CategoryPollination,
}

// RawValues returns the scored metrics only; a missing entry is undefined or has no data.
func (ev *Evaluation) RawValues() normalize.RawValues {
	out := make(normalize.RawValues, len(ev.components))
	for metric, c := range ev.components {
		if c.Status == score.StatusScored {
			out[metric] = c.Raw
		}
	}
	return out
}

// RawMetrics implements normalize.Evaluator, so calibration samples are evaluated exactly as
// scored guilds are.
func (e *Engine) RawMetrics(ctx context.Context, species []string) (normalize.RawValues, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.Evaluate(guild.New(species...)).RawValues(), nil
}
