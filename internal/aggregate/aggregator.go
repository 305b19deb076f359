// Package aggregate combines normalized component metrics into a weighted composite and tier.
package aggregate

import (
	"fmt"
	"math"

	"guildscore/domain/normalization"
	"guildscore/domain/score"
)

// ComponentDef fixes one component's metric, weight and direction.
type ComponentDef struct {
	ID        score.ComponentID
	Name      string
	Metric    normalization.MetricName
	Universal bool
	Weight    float64
	Inverted  bool // a high raw value is bad (conflicts)
}

// DefaultComponents returns M1–M7. Universal weights sum to 0.55 and bonus weights to 0.45.
func DefaultComponents() []ComponentDef {
	return []ComponentDef{
		{ID: score.ComponentPhylogenetic, Name: "Phylogenetic independence", Metric: normalization.MetricFaithPD, Universal: true, Weight: 0.20},
		{ID: score.ComponentGrowth, Name: "Growth compatibility", Metric: normalization.MetricStrategyConflicts, Universal: true, Weight: 0.20, Inverted: true},
		{ID: score.ComponentPestControl, Name: "Pest control", Metric: normalization.MetricPestControl, Weight: 0.15},
		{ID: score.ComponentDisease, Name: "Disease suppression", Metric: normalization.MetricDiseaseSuppression, Weight: 0.15},
		{ID: score.ComponentFungi, Name: "Beneficial fungi", Metric: normalization.MetricFungalNetwork, Weight: 0.10},
		{ID: score.ComponentStructure, Name: "Structural diversity", Metric: normalization.MetricStructuralQuality, Universal: true, Weight: 0.15},
		{ID: score.ComponentPollinators, Name: "Pollinator support", Metric: normalization.MetricPollinatorNetwork, Weight: 0.05},
	}
}

// Input is one component's evidence going into aggregation.
type Input struct {
	Status   score.ComponentStatus
	Metric   *score.MetricValue // required when Status is scored
	Coverage float64            // share of plants with data, in [0,1]
	Reason   string             // explains NoData or Undefined
}

// Result is the aggregated outcome.
type Result struct {
	Components []score.ComponentScore
	Composite  float64
	Defined    bool
	Tier       score.Tier
	Notes      []score.AggregationNote
}

// Aggregator is immutable and safe for concurrent use.
type Aggregator struct {
	defs []ComponentDef
}

// New validates the component definitions.
func New(defs []ComponentDef) (*Aggregator, error) {
	seen := map[score.ComponentID]bool{}
	for _, d := range defs {
		if seen[d.ID] {
			return nil, fmt.Errorf("duplicate component %s", d.ID)
		}
		seen[d.ID] = true
		if d.Weight < 0 || math.IsNaN(d.Weight) {
			return nil, fmt.Errorf("component %s has invalid weight %v", d.ID, d.Weight)
		}
	}
	return &Aggregator{defs: append([]ComponentDef(nil), defs...)}, nil
}

// Components returns the definitions in output order.
func (a *Aggregator) Components() []ComponentDef { return a.defs }

// Aggregate scores each component, drops NoData and Undefined ones with a note and
// renormalizes the remaining weights. A bonus component is weighted by
// w·(0.5+0.5·coverage) so sparse evidence moves the composite less.
func (a *Aggregator) Aggregate(inputs map[score.ComponentID]Input) Result {
	var (
		res         Result
		weighted    float64
		totalWeight float64
	)

	for _, d := range a.defs {
		in, ok := inputs[d.ID]
		if !ok {
			in = Input{Status: score.StatusNoData, Reason: "no input supplied"}
		}
		if in.Status == score.StatusScored && in.Metric == nil {
			in = Input{Status: score.StatusUndefined, Coverage: in.Coverage, Reason: "no metric value"}
		}
		c := score.ComponentScore{
			ID:        d.ID,
			Name:      d.Name,
			Universal: d.Universal,
			Status:    in.Status,
			Metric:    in.Metric,
			Coverage:  clamp01(in.Coverage),
			Weight:    d.Weight,
		}

		if in.Status != score.StatusScored {
			res.Notes = append(res.Notes, score.AggregationNote{
				Component: d.ID,
				Status:    in.Status,
				Message:   fmt.Sprintf("%s excluded (%s): %s; remaining weights renormalized", d.Name, in.Status, in.Reason),
			})
			res.Components = append(res.Components, c)
			continue
		}

		norm := clamp01(in.Metric.Normalized)
		if d.Inverted {
			norm = 1 - norm
		}
		c.Score = 100 * norm
		c.EffectiveWeight = d.Weight
		if !d.Universal {
			c.EffectiveWeight = d.Weight * (0.5 + 0.5*c.Coverage)
			if c.Coverage < 1 {
				res.Notes = append(res.Notes, score.AggregationNote{
					Component: d.ID,
					Status:    score.StatusScored,
					Message: fmt.Sprintf("%s down-weighted to %.3f: %.0f%% of plants have data",
						d.Name, c.EffectiveWeight, 100*c.Coverage),
				})
			}
		}
		weighted += c.EffectiveWeight * c.Score
		totalWeight += c.EffectiveWeight
		res.Components = append(res.Components, c)
	}

	if totalWeight <= 0 {
		res.Tier = score.TierUndefined
		return res
	}
	res.Defined = true
	res.Composite = math.Max(0, math.Min(100, weighted/totalWeight))
	res.Tier = TierFor(res.Composite)
	return res
}

// TierFor bands a composite in [0,100].
func TierFor(composite float64) score.Tier {
	switch {
	case composite >= 85:
		return score.TierExcellent
	case composite >= 70:
		return score.TierGood
	case composite >= 50:
		return score.TierFair
	case composite >= 30:
		return score.TierPoor
	default:
		return score.TierUnsuitable
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
