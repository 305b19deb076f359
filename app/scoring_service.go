package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"guildscore/domain/core"
	"guildscore/domain/guild"
	"guildscore/domain/normalization"
	"guildscore/domain/phylo"
	"guildscore/domain/score"
	"guildscore/internal"
	"guildscore/internal/aggregate"
	"guildscore/internal/climate"
	"guildscore/internal/metrics"
	"guildscore/internal/network"
	"guildscore/internal/normalize"

	"golang.org/x/sync/errgroup"
)

// ScoringService scores guilds online against one calibrated profile set. It is immutable after
// construction and safe for concurrent use.
type ScoringService struct {
	engine     *Engine
	normalizer *normalize.Normalizer
	aggregator *aggregate.Aggregator
	traits     guild.TraitTable
}

// NewScoringService fails when the tree is missing or when any metric lacks a current profile.
// Both are structural errors that must stop startup.
func NewScoringService(tree *phylo.Tree, index *network.Index, table guild.TraitTable, profiles *normalization.ProfileSet, cfg EngineConfig) (*ScoringService, error) {
	if tree == nil {
		return nil, core.NewMalformedTreeError("no tree loaded")
	}
	engine, err := NewEngine(tree, index, table, cfg)
	if err != nil {
		return nil, err
	}
	normalizer, err := normalize.NewNormalizer(profiles, FormulaVersions())
	if err != nil {
		return nil, fmt.Errorf("profile set cannot serve scoring: %w", err)
	}
	aggregator, err := aggregate.New(aggregate.DefaultComponents())
	if err != nil {
		return nil, err
	}

	internal.DefaultLogger.Info("[ScoringService] Ready: %d leaves, %d interaction records, profile set %s (hash %s)",
		tree.LeafCount(), index.RecordCount(), profiles.ID, profiles.Hash.Short())
	return &ScoringService{
		engine:     engine,
		normalizer: normalizer,
		aggregator: aggregator,
		traits:     engine.traits,
	}, nil
}

// Engine exposes the raw-metric evaluator, e.g. for a calibration run in the same process.
func (s *ScoringService) Engine() *Engine { return s.engine }

// Score evaluates species as one guild. Unresolved species and undocumented data are reported
// as warnings and aggregation notes; only a missing profile for the requested stratum is an error.
func (s *ScoringService) Score(ctx context.Context, species []string, stratum string) (*score.GuildScoreResult, error) {
	start := time.Now()
	g := guild.New(species...)

	var (
		ev            *Evaluation
		compatibility []score.Warning
	)
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := egctx.Err(); err != nil {
			return err
		}
		ev = s.engine.Evaluate(g)
		return nil
	})
	eg.Go(func() error {
		if err := egctx.Err(); err != nil {
			return err
		}
		compatibility = climate.Check(g, s.traits)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	result := &score.GuildScoreResult{
		GuildHash:             core.ComputeGuildHash(g.Species()),
		Species:               g.Species(),
		Stratum:               stratum,
		ProfileSetID:          s.normalizer.ProfileSet().ID,
		Phylogeny:             phyloSummary(ev),
		Warnings:              warningsFor(ev),
		CompatibilityWarnings: compatibility,
		Evidence:              evidenceFor(ev),
	}

	inputs := make(map[score.ComponentID]aggregate.Input, len(s.aggregator.Components()))
	for _, def := range s.aggregator.Components() {
		c := ev.components[def.Metric]
		in := aggregate.Input{Status: c.Status, Coverage: c.Coverage, Reason: c.Reason}
		if c.Status == score.StatusScored {
			value, err := s.normalizer.Value(def.Metric, stratum, c.Raw)
			if err != nil {
				return nil, err
			}
			in.Metric = &value
			result.Metrics = append(result.Metrics, value)
		}
		inputs[def.ID] = in
	}

	agg := s.aggregator.Aggregate(inputs)
	result.Components = agg.Components
	result.Composite = agg.Composite
	result.CompositeDefined = agg.Defined
	result.Tier = agg.Tier
	result.AggregationNotes = agg.Notes

	for _, c := range agg.Components {
		if c.Status != score.StatusScored {
			metrics.ComponentExclusions.WithLabelValues(string(c.ID), string(c.Status)).Inc()
		}
	}
	metrics.GuildsScored.WithLabelValues(string(result.Tier)).Inc()
	metrics.ScoreDuration.Observe(time.Since(start).Seconds())
	return result, nil
}

func phyloSummary(ev *Evaluation) score.PhyloSummary {
	return score.PhyloSummary{
		FaithPD:         ev.Phylo.PD,
		Defined:         ev.Phylo.Defined,
		MRCA:            ev.Phylo.MRCA,
		ResolvedCount:   len(ev.Phylo.Resolved),
		UnresolvedCount: len(ev.Phylo.Unresolved),
		Unresolved:      ev.Phylo.Unresolved,
	}
}

func warningsFor(ev *Evaluation) []score.Warning {
	var warnings []score.Warning
	if n := len(ev.Phylo.Unresolved); n > 0 {
		warnings = append(warnings, score.Warning{
			Kind:    score.WarningUnresolvedSpecies,
			Species: ev.Phylo.Unresolved,
			Count:   n,
			Message: fmt.Sprintf("%d species not found in the phylogeny; excluded from diversity", n),
		})
	}
	if !ev.Phylo.Defined {
		warnings = append(warnings, score.Warning{
			Kind:    score.WarningInsufficientGuildSize,
			Species: ev.Phylo.Resolved,
			Count:   len(ev.Phylo.Resolved),
			Message: "fewer than two distinct species resolved; phylogenetic diversity is undefined",
		})
	}
	if n := len(ev.Network.Undocumented); n > 0 {
		warnings = append(warnings, score.Warning{
			Kind:    score.WarningMissingInteractions,
			Species: ev.Network.Undocumented,
			Count:   n,
			Message: fmt.Sprintf("%d species have no documented interactions", n),
		})
	}
	if n := len(ev.Strategies.MissingData); n > 0 {
		warnings = append(warnings, score.Warning{
			Kind:    score.WarningMissingTraits,
			Species: ev.Strategies.MissingData,
			Count:   n,
			Message: fmt.Sprintf("%d species lack CSR strategy data", n),
		})
	}
	return warnings
}

func evidenceFor(ev *Evaluation) score.Evidence {
	evidence := score.Evidence{
		Conflicts:      ev.Strategies.Conflicts,
		Layers:         ev.Stratification.Assignments,
		Overtopped:     ev.Stratification.Overtopped,
		PlantDataFlags: ev.Network.Flags,
	}
	for _, category := range guild.AllCategories() {
		ca := ev.Network.Category(category)
		if ca == nil {
			continue
		}
		evidence.SpecificMatches = append(evidence.SpecificMatches, ca.SpecificMatches...)
		evidence.GeneralMechanisms = append(evidence.GeneralMechanisms, ca.GeneralMechanisms...)
		evidence.NetworkHubs = append(evidence.NetworkHubs, ca.Hubs...)
	}
	sort.SliceStable(evidence.NetworkHubs, func(i, j int) bool {
		return evidence.NetworkHubs[i].PlantCount > evidence.NetworkHubs[j].PlantCount
	})
	return evidence
}
