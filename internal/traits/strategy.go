package traits

import (
	"fmt"

	"guildscore/domain/guild"
	"guildscore/domain/score"
)

// StrategyAnalysis is the outcome of the growth-strategy check.
type StrategyAnalysis struct {
	Conflicts      []score.StrategyConflict `json:"conflicts"`
	Raw            float64                  `json:"raw"`
	PlantsWithData []string                 `json:"plants_with_data"`
	MissingData    []string                 `json:"missing_data,omitempty"`

	// NoData is set when fewer than two plants have CSR percentiles
	NoData bool `json:"no_data"`
}

type csrPlant struct {
	id     string
	traits guild.PlantTraits
	c, s   bool
	r      bool
}

// CheckStrategies flags pairwise conflicts between plants that are high on competing axes.
// Raw is the summed severity; zero means no conflicts among plants with data.
func CheckStrategies(g guild.Guild, table guild.TraitTable, cfg Config) StrategyAnalysis {
	var (
		res    StrategyAnalysis
		plants []csrPlant
	)
	for _, id := range g.Species() {
		t, ok := table[id]
		if !ok || !t.HasCSR() {
			res.MissingData = append(res.MissingData, id)
			continue
		}
		res.PlantsWithData = append(res.PlantsWithData, id)
		plants = append(plants, csrPlant{
			id:     id,
			traits: t,
			c:      *t.Competitive > cfg.HighThreshold,
			s:      *t.StressTolerant > cfg.HighThreshold,
			r:      *t.Ruderal > cfg.HighThreshold,
		})
	}
	if len(plants) < 2 {
		res.NoData = true
		return res
	}

	for i := 0; i < len(plants); i++ {
		for j := i + 1; j < len(plants); j++ {
			a, b := plants[i], plants[j]
			if a.c && b.c {
				res.add(competitiveConflict(a, b, cfg))
			}
			if a.s && b.s {
				res.add(score.StrategyConflict{
					Type:     "S-S",
					Plants:   []string{a.id, b.id},
					Severity: cfg.SameAxisSeverity,
					Reason:   "both stress-tolerant; slow growth competes for the same limited resources",
				})
			}
			if a.r && b.r {
				res.add(score.StrategyConflict{
					Type:     "R-R",
					Plants:   []string{a.id, b.id},
					Severity: cfg.SameAxisSeverity,
					Reason:   "both ruderal; short-lived colonisers compete for the same gaps",
				})
			}
			if a.c && b.s {
				if c, ok := crossConflict(a, b, cfg); ok {
					res.add(c)
				}
			}
			if b.c && a.s {
				if c, ok := crossConflict(b, a, cfg); ok {
					res.add(c)
				}
			}
		}
	}
	return res
}

func (r *StrategyAnalysis) add(c score.StrategyConflict) {
	r.Conflicts = append(r.Conflicts, c)
	r.Raw += c.Severity
}

func competitiveConflict(a, b csrPlant, cfg Config) score.StrategyConflict {
	c := score.StrategyConflict{
		Type:     "C-C",
		Plants:   []string{a.id, b.id},
		Severity: cfg.CompetitiveSeverity,
		Reason:   "both competitive; expect direct competition for light and space",
	}
	ha, hb := a.traits.HeightM, b.traits.HeightM
	if ha == nil || hb == nil {
		c.Uncertain = true
		return c
	}
	la, _ := layerOf(*ha)
	lb, _ := layerOf(*hb)
	if la != lb {
		c.Severity *= cfg.LayerSeparationFactor
		c.Reason = fmt.Sprintf("both competitive but in different layers (%s, %s)", la, lb)
	}
	return c
}

// crossConflict reports whether competitive plant cp suppresses stress-tolerant plant sp.
func crossConflict(cp, sp csrPlant, cfg Config) (score.StrategyConflict, bool) {
	c := score.StrategyConflict{
		Type:     "C-S",
		Plants:   []string{cp.id, sp.id},
		Severity: cfg.CrossAxisSeverity,
		Reason:   fmt.Sprintf("%s may outgrow and shade %s", cp.id, sp.id),
	}

	light := classifyLight(sp.traits.LightPreference, cfg)
	if light == score.LightShadeTolerant {
		return c, false
	}
	hc, hs := cp.traits.HeightM, sp.traits.HeightM
	if hc != nil && hs != nil && *hs-*hc >= cfg.HeightSeparationM {
		return c, false
	}

	if light == score.LightFlexible {
		c.Severity *= cfg.FlexibleLightFactor
		c.Reason = fmt.Sprintf("%s may outgrow %s, which tolerates partial shade", cp.id, sp.id)
	}
	if light == score.LightUnknown || hc == nil || hs == nil {
		c.Uncertain = true
	}
	return c, true
}

func classifyLight(l *float64, cfg Config) score.LightClass {
	switch {
	case l == nil:
		return score.LightUnknown
	case *l < cfg.ShadeTolerantMax:
		return score.LightShadeTolerant
	case *l > cfg.SunLovingMin:
		return score.LightSunLoving
	default:
		return score.LightFlexible
	}
}
