package traits

import (
	"math"

	"guildscore/domain/guild"
	"guildscore/domain/score"
)

// StratificationAnalysis describes how the guild fills the vertical space.
type StratificationAnalysis struct {
	Assignments      []score.LayerAssignment `json:"assignments"`
	Layers           int                     `json:"layers"`
	HeightRange      float64                 `json:"height_range"`
	Overtopped       []score.Overtopping     `json:"overtopped,omitempty"`
	PlantsWithHeight int                     `json:"plants_with_height"`
	Quality          float64                 `json:"quality"`

	// NoData is set when fewer than two plants have a documented height
	NoData bool `json:"no_data"`
}

// CheckStratification assigns layers and light classes and computes a quality in [0,1]:
// 0.4 for reaching three layers, 0.3 for spreading over MinSpreadM, and 0.3 scaled down by the
// share of overtopped plants that are sun-loving.
func CheckStratification(g guild.Guild, table guild.TraitTable, cfg Config) StratificationAnalysis {
	var res StratificationAnalysis

	type placed struct {
		id    string
		h     float64
		light score.LightClass
	}
	var known []placed
	layers := map[int]struct{}{}
	lo, hi := math.Inf(1), math.Inf(-1)

	for _, id := range g.Species() {
		t := table[id]
		a := score.LayerAssignment{
			PlantID: id,
			Layer:   LayerUnknown,
			Light:   classifyLight(t.LightPreference, cfg),
		}
		if t.HeightM != nil {
			h := *t.HeightM
			name, rank := layerOf(h)
			a.HeightM = t.HeightM
			a.Layer = name
			layers[rank] = struct{}{}
			known = append(known, placed{id: id, h: h, light: a.Light})
			lo = math.Min(lo, h)
			hi = math.Max(hi, h)
		}
		res.Assignments = append(res.Assignments, a)
	}

	res.PlantsWithHeight = len(known)
	if len(known) < 2 {
		res.NoData = true
		return res
	}
	res.Layers = len(layers)
	res.HeightRange = hi - lo

	sunOvertopped := 0
	for _, p := range known {
		// the tallest neighbour clearing the margin casts the shade, whatever its layer
		tallest := -1
		for j, q := range known {
			if q.h-p.h >= cfg.OvertopMarginM && (tallest < 0 || q.h > known[tallest].h) {
				tallest = j
			}
		}
		if tallest < 0 {
			continue
		}
		penalty := p.light == score.LightSunLoving
		if penalty {
			sunOvertopped++
		}
		res.Overtopped = append(res.Overtopped, score.Overtopping{
			PlantID:  p.id,
			TallerBy: known[tallest].id,
			Light:    p.light,
			Penalty:  penalty,
		})
	}

	layerTerm := math.Min(float64(res.Layers)/3, 1)
	spreadTerm := 1.0
	if cfg.MinSpreadM > 0 {
		spreadTerm = math.Min(res.HeightRange/cfg.MinSpreadM, 1)
	}
	lightTerm := 1.0
	if n := len(res.Overtopped); n > 0 {
		lightTerm = 1 - float64(sunOvertopped)/float64(n)
	}
	res.Quality = 0.4*layerTerm + 0.3*spreadTerm + 0.3*lightTerm
	return res
}
